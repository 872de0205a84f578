package section

import (
	"context"
	"errors"
	"fmt"

	"agency-cms/internal/content"
)

// Section names served by the public site.
const (
	Hero         = "hero"
	About        = "about"
	Services     = "services"
	Projects     = "projects"
	Team         = "team"
	Testimonials = "testimonials"
	Contact      = "contact"
	Menu         = "menu"
	Social       = "social"
	Colors       = "colors"
)

// Names lists the sections in page order.
var Names = []string{Menu, Hero, About, Services, Projects, Team, Testimonials, Contact, Social, Colors}

var ErrUnknownSection = errors.New("unknown section")

// Payload is the JSON shape of one loaded section.
type Payload struct {
	Section string `json:"section"`
	Status  Status `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Content any    `json:"content"`
}

// Slides is the content of a carousel section.
type Slides[R any] struct {
	Items    []R      `json:"items"`
	Carousel Carousel `json:"carousel"`
}

// Loader loads public sections from the content tables.
type Loader struct {
	tables   *content.Tables
	defaults func() content.Defaults
}

func NewLoader(tables *content.Tables) *Loader {
	return &Loader{tables: tables, defaults: content.LoadDefaults}
}

// Load loads one section by name.
func (l *Loader) Load(ctx context.Context, name string) (Payload, error) {
	d := l.defaults()
	switch name {
	case Hero:
		return payload(name, LoadSingle(ctx, name, l.tables.Hero, content.Scope{}, d.Hero)), nil
	case About:
		return payload(name, LoadSingle(ctx, name, l.tables.About, content.Scope{}, d.About)), nil
	case Services:
		return payload(name, LoadList(ctx, name, l.tables.Services, content.Scope{}, d.Services)), nil
	case Projects:
		return payload(name, LoadList(ctx, name, l.tables.Projects, content.Scope{}, d.Projects)), nil
	case Team:
		return slides(name, LoadList(ctx, name, l.tables.Team, content.Scope{}, d.Team)), nil
	case Testimonials:
		return slides(name, LoadList(ctx, name, l.tables.Testimonials, content.Scope{}, d.Testimonials)), nil
	case Contact:
		return payload(name, LoadSingle(ctx, name, l.tables.Footer, content.Scope{}, d.Contact)), nil
	case Social:
		return payload(name, LoadList(ctx, name, l.tables.Social, content.Scope{}, d.Social)), nil
	case Colors:
		r := LoadList(ctx, name, l.tables.Settings, content.Where("category", "colors"), d.Colors)
		return Payload{Section: name, Status: r.Status, Reason: r.Reason, Content: Palette(r.Content)}, nil
	case Menu:
		r := LoadList(ctx, name, l.tables.Menu, content.Scope{}, d.Menu)
		return Payload{Section: name, Status: r.Status, Reason: r.Reason, Content: BuildMenuTree(r.Content)}, nil
	default:
		return Payload{}, fmt.Errorf("%w: %s", ErrUnknownSection, name)
	}
}

// Page loads every section independently; one failing section does not
// affect the others.
func (l *Loader) Page(ctx context.Context) map[string]Payload {
	out := make(map[string]Payload, len(Names))
	for _, name := range Names {
		p, _ := l.Load(ctx, name)
		out[name] = p
	}
	return out
}

func payload[T any](name string, r Result[T]) Payload {
	return Payload{Section: name, Status: r.Status, Reason: r.Reason, Content: r.Content}
}

func slides[R any](name string, r Result[[]R]) Payload {
	return Payload{
		Section: name,
		Status:  r.Status,
		Reason:  r.Reason,
		Content: Slides[R]{Items: r.Content, Carousel: NewCarousel(len(r.Content))},
	}
}

// Palette flattens color settings into key -> value.
func Palette(settings []content.SiteSetting) map[string]string {
	out := make(map[string]string, len(settings))
	for _, s := range settings {
		out[s.SettingKey] = s.SettingValue
	}
	return out
}

// BuildMenuTree nests items under their parent. Items whose parent is not in
// the list are promoted to the top level. Input order is kept at each level.
func BuildMenuTree(items []content.MenuItem) []content.MenuItem {
	known := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ID != "" {
			known[it.ID] = true
		}
	}
	children := make(map[string][]content.MenuItem)
	var roots []content.MenuItem
	for _, it := range items {
		if it.ParentID != nil && known[*it.ParentID] && *it.ParentID != it.ID {
			children[*it.ParentID] = append(children[*it.ParentID], it)
			continue
		}
		roots = append(roots, it)
	}

	var attach func(list []content.MenuItem, depth int) []content.MenuItem
	attach = func(list []content.MenuItem, depth int) []content.MenuItem {
		out := make([]content.MenuItem, len(list))
		for i, it := range list {
			if depth < 8 {
				it.Children = attach(children[it.ID], depth+1)
			}
			out[i] = it
		}
		return out
	}
	return attach(roots, 0)
}
