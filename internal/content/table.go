package content

import (
	"context"
	"encoding/json"
	"fmt"

	"agency-cms/internal/engine"
	"agency-cms/internal/metadata"
)

// Scope narrows a table read.
type Scope struct {
	// Filters are equality matches; a nil value matches NULL.
	Filters map[string]any
	// VisibleOnly keeps rows whose visibility column (is_visible or is_active) is true.
	VisibleOnly bool
}

// Where returns a Scope with a single equality filter.
func Where(field string, value any) Scope {
	return Scope{Filters: map[string]any{field: value}}
}

// Table reads and writes typed rows of one entity through the engine repository.
type Table[R Row[R]] struct {
	repo   *engine.Repository
	entity string
}

func NewTable[R Row[R]](repo *engine.Repository, entity string) *Table[R] {
	return &Table[R]{repo: repo, entity: entity}
}

// Entity returns the entity name.
func (t *Table[R]) Entity() string { return t.entity }

// List returns rows in display order.
func (t *Table[R]) List(ctx context.Context, scope Scope) ([]R, error) {
	entity, err := t.repo.Entity(t.entity)
	if err != nil {
		return nil, err
	}
	plan := &engine.QueryPlan{Entity: entity}
	for field, value := range scope.Filters {
		if !entity.HasField(field) {
			return nil, fmt.Errorf("%s: unknown scope field %s", t.entity, field)
		}
		plan.Filters = append(plan.Filters, engine.Eq(field, value))
	}
	if scope.VisibleOnly && entity.Visibility != "" {
		plan.Filters = append(plan.Filters, engine.Eq(entity.Visibility, true))
	}

	rows, err := t.repo.Find(ctx, plan)
	if err != nil {
		return nil, err
	}
	return DecodeRows[R](rows)
}

// Insert stores a new row; any id on r is ignored.
func (t *Table[R]) Insert(ctx context.Context, r R) (R, error) {
	var zero R
	body, err := Encode(r)
	if err != nil {
		return zero, err
	}
	delete(body, "id")
	row, err := t.repo.Insert(ctx, t.entity, body)
	if err != nil {
		return zero, err
	}
	return Decode[R](row)
}

// Update writes all editable fields of r.
func (t *Table[R]) Update(ctx context.Context, r R) (R, error) {
	var zero R
	if r.RowID() == "" {
		return zero, fmt.Errorf("%s: update requires an id", t.entity)
	}
	body, err := Encode(r)
	if err != nil {
		return zero, err
	}
	row, err := t.repo.Update(ctx, t.entity, r.RowID(), body)
	if err != nil {
		return zero, err
	}
	return Decode[R](row)
}

// Delete removes a row by id.
func (t *Table[R]) Delete(ctx context.Context, id string) error {
	return t.repo.Delete(ctx, t.entity, id)
}

// Encode converts a typed row into a column map.
func Encode(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	delete(m, "created_at")
	delete(m, "updated_at")
	delete(m, "children")
	return m, nil
}

// Decode converts a column map into a typed row.
func Decode[R any](m map[string]any) (R, error) {
	var r R
	b, err := json.Marshal(m)
	if err != nil {
		return r, fmt.Errorf("decode row: %w", err)
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return r, fmt.Errorf("decode row: %w", err)
	}
	return r, nil
}

// DecodeRows converts a slice of column maps.
func DecodeRows[R any](rows []map[string]any) ([]R, error) {
	out := make([]R, 0, len(rows))
	for _, m := range rows {
		r, err := Decode[R](m)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Tables groups one typed table per entity.
type Tables struct {
	Hero          *Table[HeroContent]
	About         *Table[AboutContent]
	Services      *Table[Service]
	Projects      *Table[Project]
	Team          *Table[TeamMember]
	Testimonials  *Table[Testimonial]
	Footer        *Table[FooterContent]
	Social        *Table[SocialLink]
	Menu          *Table[MenuItem]
	Settings      *Table[SiteSetting]
	Integrations  *Table[Integration]
	CookieConsent *Table[CookieConsentSettings]
	SMTP          *Table[SMTPSettings]
	Templates     *Table[EmailTemplate]
	Recipients    *Table[EmailRecipient]
	Media         *Table[MediaItem]
}

func NewTables(repo *engine.Repository) *Tables {
	return &Tables{
		Hero:          NewTable[HeroContent](repo, metadata.HeroContent),
		About:         NewTable[AboutContent](repo, metadata.AboutContent),
		Services:      NewTable[Service](repo, metadata.Services),
		Projects:      NewTable[Project](repo, metadata.Projects),
		Team:          NewTable[TeamMember](repo, metadata.TeamMembers),
		Testimonials:  NewTable[Testimonial](repo, metadata.Testimonials),
		Footer:        NewTable[FooterContent](repo, metadata.FooterContent),
		Social:        NewTable[SocialLink](repo, metadata.SocialMediaLinks),
		Menu:          NewTable[MenuItem](repo, metadata.MenuItems),
		Settings:      NewTable[SiteSetting](repo, metadata.SiteSettings),
		Integrations:  NewTable[Integration](repo, metadata.SiteIntegrations),
		CookieConsent: NewTable[CookieConsentSettings](repo, metadata.CookieConsentSettings),
		SMTP:          NewTable[SMTPSettings](repo, metadata.SMTPSettings),
		Templates:     NewTable[EmailTemplate](repo, metadata.EmailTemplates),
		Recipients:    NewTable[EmailRecipient](repo, metadata.EmailRecipients),
		Media:         NewTable[MediaItem](repo, metadata.MediaLibrary),
	}
}
