package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"agency-cms/internal/content"
	"agency-cms/internal/editor"
	"agency-cms/internal/engine"
	"agency-cms/internal/instrument"
	"agency-cms/internal/metadata"
)

// Scope query parameters an editor understands.
const (
	ScopeParent   = "parent_id"
	ScopeActive   = "active"
	ScopeCategory = "category"
)

// EditorOptions configures one registered collection.
type EditorOptions[R content.Row[R]] struct {
	// ConfirmDelete requires ?confirm=true before a saved row is deleted.
	ConfirmDelete bool
	// Scopes lists the query parameters accepted by list and save.
	Scopes []string
	// Lists maps a string-array field name to its accessor for the values endpoint.
	Lists map[string]func(*R) *[]string
	// AfterWrite runs after every successful save, reorder, delete or value change.
	AfterWrite func()
}

// endpoint is the type-erased view of a registered collection.
type endpoint interface {
	list(c *fiber.Ctx) error
	save(c *fiber.Ctx) error
	reorder(c *fiber.Ctx) error
	remove(c *fiber.Ctx) error
	values(c *fiber.Ctx) error
}

// Editors holds one endpoint per collection name.
type Editors struct {
	endpoints map[string]endpoint
}

func NewEditors() *Editors {
	return &Editors{endpoints: make(map[string]endpoint)}
}

// Names returns the registered collection names, sorted.
func (e *Editors) Names() []string {
	names := make([]string, 0, len(e.endpoints))
	for n := range e.endpoints {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Register adds a typed collection under name.
// Tables that report their entity name get the catalog's column defaults
// applied to new rows.
func Register[R content.Row[R]](e *Editors, name string, table editor.Table[R], opts EditorOptions[R]) {
	ep := &typedEndpoint[R]{name: name, table: table, opts: opts}
	if named, ok := table.(interface{ Entity() string }); ok {
		ep.defaults = columnDefaults(named.Entity())
	}
	e.endpoints[name] = ep
}

// columnDefaults returns the boolean columns of entity that have a default,
// such as is_visible and is_active.
func columnDefaults(entity string) map[string]any {
	for _, ent := range metadata.Catalog() {
		if ent.Name != entity {
			continue
		}
		defaults := make(map[string]any)
		for _, f := range ent.Fields {
			if f.Type == "boolean" && f.Default != nil {
				defaults[f.Name] = f.Default
			}
		}
		return defaults
	}
	return nil
}

// ContentHooks are called after writes to particular collections.
type ContentHooks struct {
	// Integrations runs after the integrations collection changes.
	Integrations func()
}

// RegisterContent registers every editable content table.
func RegisterContent(e *Editors, t *content.Tables, hooks ContentHooks) {
	Register(e, "hero", t.Hero, EditorOptions[content.HeroContent]{})
	Register(e, "about", t.About, EditorOptions[content.AboutContent]{})
	Register(e, "services", t.Services, EditorOptions[content.Service]{
		ConfirmDelete: true,
		Lists:         map[string]func(*content.Service) *[]string{"features": func(r *content.Service) *[]string { return &r.Features }},
	})
	Register(e, "projects", t.Projects, EditorOptions[content.Project]{
		ConfirmDelete: true,
		Scopes:        []string{ScopeCategory},
		Lists:         map[string]func(*content.Project) *[]string{"technologies": func(r *content.Project) *[]string { return &r.Technologies }},
	})
	Register(e, "team", t.Team, EditorOptions[content.TeamMember]{
		ConfirmDelete: true,
		Lists:         map[string]func(*content.TeamMember) *[]string{"skills": func(r *content.TeamMember) *[]string { return &r.Skills }},
	})
	Register(e, "testimonials", t.Testimonials, EditorOptions[content.Testimonial]{ConfirmDelete: true})
	Register(e, "footer", t.Footer, EditorOptions[content.FooterContent]{})
	Register(e, "social", t.Social, EditorOptions[content.SocialLink]{ConfirmDelete: true})
	Register(e, "menu", t.Menu, EditorOptions[content.MenuItem]{ConfirmDelete: true, Scopes: []string{ScopeParent}})
	Register(e, "settings", t.Settings, EditorOptions[content.SiteSetting]{Scopes: []string{ScopeCategory}})
	Register(e, "integrations", t.Integrations, EditorOptions[content.Integration]{
		ConfirmDelete: true,
		Scopes:        []string{ScopeActive},
		AfterWrite:    hooks.Integrations,
	})
	Register(e, "cookie-consent", t.CookieConsent, EditorOptions[content.CookieConsentSettings]{Scopes: []string{ScopeActive}})
	Register(e, "smtp", t.SMTP, EditorOptions[content.SMTPSettings]{Scopes: []string{ScopeActive}})
	Register(e, "templates", t.Templates, EditorOptions[content.EmailTemplate]{ConfirmDelete: true, Scopes: []string{ScopeActive}})
	Register(e, "recipients", t.Recipients, EditorOptions[content.EmailRecipient]{ConfirmDelete: true, Scopes: []string{ScopeActive}})
}

func (e *Editors) resolve(c *fiber.Ctx) (endpoint, error) {
	name := c.Params("collection")
	ep, ok := e.endpoints[name]
	if !ok {
		return nil, engine.NewAppError("UNKNOWN_COLLECTION", 404, fmt.Sprintf("Unknown collection: %s", name))
	}
	return ep, nil
}

type typedEndpoint[R content.Row[R]] struct {
	name     string
	table    editor.Table[R]
	opts     EditorOptions[R]
	defaults map[string]any
}

// saveRequest keeps rows as maps until defaults are filled in, so a column
// the client left out can be told apart from one it set to false.
type saveRequest struct {
	Items []struct {
		Key       string         `json:"key"`
		Persisted bool           `json:"persisted"`
		Row       map[string]any `json:"row"`
	} `json:"items"`
}

type reorderRequest struct {
	ID string `json:"id"`
	To int    `json:"to"`
}

type valuesRequest struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Remove bool   `json:"remove"`
}

// scope builds the read scope from the query string. parent_id=null matches
// root rows.
func (t *typedEndpoint[R]) scope(c *fiber.Ctx) (content.Scope, error) {
	var scope content.Scope
	for _, key := range t.opts.Scopes {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		if scope.Filters == nil {
			scope.Filters = make(map[string]any)
		}
		switch key {
		case ScopeParent:
			if raw == "null" {
				scope.Filters["parent_id"] = nil
			} else {
				scope.Filters["parent_id"] = raw
			}
		case ScopeActive:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return scope, engine.InvalidPayloadError("active must be true or false")
			}
			scope.Filters["is_active"] = b
		case ScopeCategory:
			scope.Filters["category"] = raw
		}
	}
	return scope, nil
}

func (t *typedEndpoint[R]) load(c *fiber.Ctx) (*editor.Collection[R], error) {
	scope, err := t.scope(c)
	if err != nil {
		return nil, err
	}
	col := editor.New(t.table)
	if err := col.Load(c.UserContext(), scope); err != nil {
		return nil, unwrapAppError(err)
	}
	return col, nil
}

func (t *typedEndpoint[R]) list(c *fiber.Ctx) error {
	col, err := t.load(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": col.Items(), "meta": fiber.Map{"collection": t.name, "total": col.Len()}})
}

func (t *typedEndpoint[R]) save(c *fiber.Ctx) error {
	items, err := t.decodeItems(c.Body())
	if err != nil {
		return err
	}

	ctx, span := instrument.GetInstrumenter(c.UserContext()).StartSpan(c.UserContext(), "admin", "editor", "save")
	defer span.End()

	col, err := t.load(c)
	if err != nil {
		span.SetStatus("error")
		return err
	}
	col.Replace(items)
	report := col.Save(ctx)

	data := fiber.Map{"report": report, "items": col.Items()}
	if !report.OK() {
		span.SetStatus("error")
		appErr := unwrapAppError(report.Err)
		return c.Status(appErr.Status).JSON(fiber.Map{"error": appErr, "data": data})
	}
	span.SetStatus("ok")
	t.afterWrite()
	instrument.GetInstrumenter(ctx).EmitBusinessEvent(ctx, "editor.saved", t.name)
	return c.JSON(fiber.Map{"data": data})
}

// decodeItems parses a save body. Rows that are not yet stored get the
// column defaults for any boolean the client did not send.
func (t *typedEndpoint[R]) decodeItems(body []byte) ([]editor.Item[R], error) {
	var req saveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, engine.InvalidPayloadError("Invalid JSON body")
	}
	items := make([]editor.Item[R], 0, len(req.Items))
	for i, it := range req.Items {
		if it.Row == nil {
			it.Row = map[string]any{}
		}
		if !it.Persisted {
			for col, def := range t.defaults {
				if _, set := it.Row[col]; !set {
					it.Row[col] = def
				}
			}
		}
		row, err := content.Decode[R](it.Row)
		if err != nil {
			return nil, engine.InvalidPayloadError(fmt.Sprintf("items[%d]: %v", i, err))
		}
		if it.Persisted && row.RowID() == "" {
			return nil, engine.InvalidPayloadError(fmt.Sprintf("items[%d] is marked persisted but has no id", i))
		}
		items = append(items, editor.Item[R]{Key: it.Key, Persisted: it.Persisted, Row: row})
	}
	return items, nil
}

func (t *typedEndpoint[R]) afterWrite() {
	if t.opts.AfterWrite != nil {
		t.opts.AfterWrite()
	}
}

func (t *typedEndpoint[R]) reorder(c *fiber.Ctx) error {
	var req reorderRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil || req.ID == "" {
		return engine.InvalidPayloadError("Body must be {\"id\": string, \"to\": number}")
	}
	col, err := t.load(c)
	if err != nil {
		return err
	}
	if err := col.Move(req.ID, req.To); err != nil {
		return engine.NotFoundError(t.name, req.ID)
	}
	report := col.Save(c.UserContext())
	if !report.OK() {
		return unwrapAppError(report.Err)
	}
	t.afterWrite()
	instrument.GetInstrumenter(c.UserContext()).EmitBusinessEvent(c.UserContext(), "editor.reordered", t.name)
	return c.JSON(fiber.Map{"data": col.Items()})
}

func (t *typedEndpoint[R]) remove(c *fiber.Ctx) error {
	col, err := t.load(c)
	if err != nil {
		return err
	}
	id := c.Params("id")

	var confirm func(R) bool
	if t.opts.ConfirmDelete {
		confirmed := c.QueryBool("confirm")
		confirm = func(R) bool { return confirmed }
	}
	err = col.Delete(c.UserContext(), id, confirm)
	switch {
	case errors.Is(err, editor.ErrUnknownKey):
		return engine.NotFoundError(t.name, id)
	case errors.Is(err, editor.ErrNotConfirmed):
		return engine.NewAppError("CONFIRMATION_REQUIRED", fiber.StatusPreconditionRequired,
			"Deleting from this collection requires confirm=true")
	case err != nil:
		return unwrapAppError(err)
	}
	t.afterWrite()
	instrument.GetInstrumenter(c.UserContext()).EmitBusinessEvent(c.UserContext(), "editor.deleted", t.name)
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "remaining": col.Len()}})
}

// values adds or removes one entry of a string-array field and saves the row.
func (t *typedEndpoint[R]) values(c *fiber.Ctx) error {
	var req valuesRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return engine.InvalidPayloadError("Invalid JSON body")
	}
	field, ok := t.opts.Lists[req.Field]
	if !ok {
		return engine.InvalidPayloadError(fmt.Sprintf("%s has no list field %q", t.name, req.Field))
	}
	col, err := t.load(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if req.Remove {
		err = col.RemoveValue(id, field, req.Value)
	} else {
		err = col.AppendValue(id, field, req.Value)
	}
	if err != nil {
		return engine.NotFoundError(t.name, id)
	}

	// Only the touched row is written.
	item, _ := col.Get(id)
	single := editor.New(t.table)
	single.Replace([]editor.Item[R]{item})
	if report := single.Save(c.UserContext()); !report.OK() {
		return unwrapAppError(report.Err)
	}
	t.afterWrite()
	return c.JSON(fiber.Map{"data": item})
}

// unwrapAppError returns the AppError inside err. Any other error is logged
// and reported as a 502 without its text.
func unwrapAppError(err error) *engine.AppError {
	var appErr *engine.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	log.Printf("ERROR: content backend: %v", err)
	return engine.NewAppError("UPSTREAM_FAILED", fiber.StatusBadGateway, "The content backend could not complete the request")
}
