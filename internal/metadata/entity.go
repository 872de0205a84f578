package metadata

import "slices"

// Visibility columns. Content tables hide rows from the public site with
// is_visible; configuration tables switch rows on and off with is_active.
const (
	VisibleField = "is_visible"
	ActiveField  = "is_active"
	OrderField   = "display_order"
)

// Entity describes one content table exposed through the tables API.
type Entity struct {
	Name       string     `json:"name"`
	Table      string     `json:"table"`
	PrimaryKey PrimaryKey `json:"primary_key"`
	Fields     []Field    `json:"fields"`

	// Visibility names the boolean column used to filter public reads.
	Visibility string `json:"visibility,omitempty"`
	// Ordered is true when rows carry a display_order column.
	Ordered bool `json:"ordered"`
	// Scopes lists the columns an editor may narrow a load by (e.g. parent_id).
	Scopes []string `json:"scopes,omitempty"`
	// Private entities hold credentials; only an admin session may read them.
	Private bool `json:"private,omitempty"`
}

type PrimaryKey struct {
	Field     string `json:"field"`
	Type      string `json:"type"` // uuid, string
	Generated bool   `json:"generated"`
}

// GetField returns the named field, or nil.
func (e *Entity) GetField(name string) *Field {
	i := slices.IndexFunc(e.Fields, func(f Field) bool { return f.Name == name })
	if i < 0 {
		return nil
	}
	return &e.Fields[i]
}

func (e *Entity) HasField(name string) bool {
	return e.GetField(name) != nil
}

func (e *Entity) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Name
	}
	return names
}

func (e *Entity) fieldsWhere(keep func(Field) bool) []Field {
	var out []Field
	for _, f := range e.Fields {
		if !f.IsAuto() && keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// WritableFields are the columns a client may send on insert: everything
// but timestamps and a generated primary key.
func (e *Entity) WritableFields() []Field {
	return e.fieldsWhere(func(f Field) bool {
		return f.Name != e.PrimaryKey.Field || !e.PrimaryKey.Generated
	})
}

// UpdatableFields are the columns a client may change. The primary key is
// fixed and updated_at is stamped by the repository.
func (e *Entity) UpdatableFields() []Field {
	return e.fieldsWhere(func(f Field) bool { return f.Name != e.PrimaryKey.Field })
}

// BoolFields lists the boolean columns, which SQLite returns as integers.
func (e *Entity) BoolFields() []string {
	var names []string
	for _, f := range e.Fields {
		if f.Type == "boolean" {
			names = append(names, f.Name)
		}
	}
	return names
}

// HasScope reports whether an editor may filter loads by column name.
func (e *Entity) HasScope(name string) bool {
	return slices.Contains(e.Scopes, name)
}

// DefaultOrder is the ORDER BY used when a read does not ask for one.
func (e *Entity) DefaultOrder() string {
	if e.Ordered {
		return OrderField + " ASC, created_at ASC"
	}
	return "created_at DESC"
}
