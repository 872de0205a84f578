package metadata

type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // string, text, int, bigint, boolean, uuid, timestamp, json
	Required bool   `json:"required,omitempty"`
	Nullable bool   `json:"nullable,omitempty"`
	Default  any    `json:"default,omitempty"`
	Auto     string `json:"auto,omitempty"` // "create" or "update"
}

// IsAuto returns true if the field is auto-managed by the engine.
func (f Field) IsAuto() bool {
	return f.Auto == "create" || f.Auto == "update"
}

// IsJSON returns true if values are stored as encoded JSON documents.
func (f Field) IsJSON() bool {
	return f.Type == "json"
}
