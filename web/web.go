// Package web embeds the admin and public single-page shells.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"

	"agency-cms/internal/router"
)

//go:embed all:admin all:public
var assets embed.FS

const indexFile = "index.html"

type shell struct {
	files fs.FS
	index *template.Template
}

// Shells serves the shell chosen by the domain router. Unknown paths fall
// back to the shell's index so client-side routes survive a reload.
type Shells struct {
	admin  shell
	public shell
}

func New() (*Shells, error) {
	admin, err := load("admin")
	if err != nil {
		return nil, err
	}
	public, err := load("public")
	if err != nil {
		return nil, err
	}
	return &Shells{admin: admin, public: public}, nil
}

func load(dir string) (shell, error) {
	sub, err := fs.Sub(assets, dir)
	if err != nil {
		return shell{}, fmt.Errorf("%s shell: %w", dir, err)
	}
	index, err := template.ParseFS(sub, indexFile)
	if err != nil {
		return shell{}, fmt.Errorf("%s shell index: %w", dir, err)
	}
	return shell{files: sub, index: index}, nil
}

// Handler serves GET and HEAD requests outside the backend surfaces.
func (s *Shells) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet && c.Method() != fiber.MethodHead || router.IsBackend(c.Path()) {
			return c.Next()
		}
		sh := s.public
		if router.FromCtx(c) == router.AppAdmin {
			sh = s.admin
		}

		name := strings.TrimPrefix(path.Clean("/"+c.Path()), "/")
		if name != "" && name != indexFile && isFile(sh.files, name) {
			return filesystem.SendFile(c, http.FS(sh.files), name)
		}
		return sh.render(c)
	}
}

func (sh shell) render(c *fiber.Ctx) error {
	var buf bytes.Buffer
	data := struct{ Base string }{Base: router.AdminBase(c)}
	if err := sh.index.Execute(&buf, data); err != nil {
		return fmt.Errorf("render shell: %w", err)
	}
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func isFile(fsys fs.FS, name string) bool {
	info, err := fs.Stat(fsys, name)
	return err == nil && !info.IsDir()
}
