package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"agency-cms/internal/admin"
	"agency-cms/internal/auth"
	"agency-cms/internal/cmsclient"
	"agency-cms/internal/config"
	"agency-cms/internal/content"
	"agency-cms/internal/engine"
	"agency-cms/internal/errclass"
	"agency-cms/internal/instrument"
	"agency-cms/internal/mailer"
	"agency-cms/internal/metadata"
	"agency-cms/internal/router"
	"agency-cms/internal/section"
	"agency-cms/internal/site"
	"agency-cms/internal/storage"
	"agency-cms/internal/store"
	"agency-cms/internal/tracking"
	"agency-cms/web"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, db: %s, admin host: %s, dev: %t)",
		cfg.Server.Port, cfg.Database.Driver, cfg.Site.AdminHost, cfg.Site.DevMode)

	// 2. Connect to database and apply migrations
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	// 3. Load the content catalog
	reg := metadata.NewRegistry()
	metadata.LoadCatalog(reg)
	repo := engine.NewRepository(db, reg)
	tables := content.NewTables(repo)

	// 4. Seed the admin user
	if err := auth.EnsureAdminUser(ctx, db, cfg.Auth.AdminUsername); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}
	verifier, err := auth.NewStaticPasswordVerifier(db, cfg.Auth.AdminPassword)
	if err != nil {
		log.Fatalf("Failed to prepare password verifier: %v", err)
	}

	// 5. Observability
	metrics, err := instrument.NewMetrics(nil)
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}
	sentryClient, err := instrument.NewSentryClient(cfg.Sentry, version)
	if err != nil {
		log.Printf("WARN: Sentry disabled: %v", err)
	}
	defer instrument.FlushSentry(sentryClient, 2*time.Second)

	// 6. Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: errclass.ErrorHandler(instrument.Reporter(sentryClient)),
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
	})
	app.Use(errclass.Boundary())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${host} ${path} ${latency}\n",
	}))
	app.Use(router.Middleware(router.EnvFromConfig(cfg.Site)))
	app.Use(instrument.Middleware(metrics))

	// 7. Health check and metrics
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.Ping(c.UserContext()); err != nil {
			return engine.NewAppError("UNAVAILABLE", fiber.StatusServiceUnavailable, "Database unreachable")
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	// 8. Auth routes (no session required)
	gate := auth.NewGate(verifier, db, cfg.Auth.LoginTimeout)
	auth.RegisterRoutes(app, auth.NewHandler(gate, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, cfg.Auth.CookieSecure))

	sessionMW := auth.RequireSession(cfg.Auth.JWTSecret)
	readMW := auth.RequireReadAccess(cfg.Site.APIKey, cfg.Auth.JWTSecret)

	// 9. Tables and file storage
	engine.RegisterTableRoutes(app, engine.NewHandler(repo), readMW, sessionMW)
	files := storage.NewLocalStorage(cfg.Storage.LocalPath, cfg.Storage.PublicPath)
	engine.RegisterStorageRoutes(app, engine.NewFileHandler(repo, files, cfg.Storage.MaxFileSize, cfg.Storage.PublicPath), readMW, sessionMW)

	// 10. Email function
	sender := mailer.NewShoutrrrSender(cfg.Mail.SendTimeout)
	mailer.RegisterRoutes(app, mailer.NewFunctionHandler(sender, cfg.Mail.SendTimeout), readMW)

	// 11. Public site
	section.RegisterRoutes(app, section.NewHandler(section.NewLoader(tables)))
	contact := &mailer.ContactService{
		SMTP:       tables.SMTP,
		Templates:  tables.Templates,
		Recipients: tables.Recipients,
		Sender:     sender,
	}
	pixels := tracking.NewProvider(tables.Integrations, cfg.Tracking.CacheTTL)
	site.RegisterRoutes(app, site.NewHandler(contact, tables.CookieConsent, pixels, cfg.Auth.CookieSecure))

	// 12. Admin editors (session required)
	editors := admin.NewEditors()
	admin.RegisterContent(editors, tables, admin.ContentHooks{Integrations: pixels.Invalidate})
	emailFn := cmsclient.NewEmailFunction(cmsclient.New(cfg.Site.BackendURL, cfg.Site.APIKey), cfg.Mail.FunctionURL, cfg.Mail.TestTimeout)
	admin.RegisterAdminRoutes(app, admin.NewHandler(editors, tables.SMTP, emailFn, cfg.Auth.CookieSecure), sessionMW)

	// 13. Error classification
	errclass.RegisterRoutes(app)

	// 14. Single-page shells, last so API routes win
	shells, err := web.New()
	if err != nil {
		log.Fatalf("Failed to load web shells: %v", err)
	}
	app.Use(auth.AdminShellGuard(cfg.Auth.JWTSecret))
	app.Use(shells.Handler())

	// 15. Start server
	go func() {
		<-ctx.Done()
		log.Println("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("ERROR: shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Printf("ERROR: server stopped: %v", err)
	}
}
