package cmsclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"agency-cms/internal/content"
)

// Table is the remote tables API for one entity.
type Table[R content.Row[R]] struct {
	client     *Client
	entity     string
	visibility string
}

// NewTable returns a table client. visibility names the column used for
// Scope.VisibleOnly ("is_visible", "is_active", or "" for none).
func NewTable[R content.Row[R]](c *Client, entity, visibility string) *Table[R] {
	return &Table[R]{client: c, entity: entity, visibility: visibility}
}

func (t *Table[R]) path(id string) string {
	p := "/api/tables/" + url.PathEscape(t.entity)
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

// List fetches rows in the entity's default order.
func (t *Table[R]) List(ctx context.Context, scope content.Scope) ([]R, error) {
	q := url.Values{}
	for field, v := range scope.Filters {
		if v == nil {
			q.Set("filter["+field+".is]", "null")
			continue
		}
		q.Set("filter["+field+"]", fmt.Sprint(v))
	}
	if scope.VisibleOnly && t.visibility != "" {
		q.Set("filter["+t.visibility+"]", "true")
	}

	var rows []map[string]any
	if err := t.client.do(ctx, http.MethodGet, t.path(""), q, nil, &rows); err != nil {
		return nil, err
	}
	return content.DecodeRows[R](rows)
}

func (t *Table[R]) Insert(ctx context.Context, r R) (R, error) {
	var zero R
	body, err := content.Encode(r)
	if err != nil {
		return zero, err
	}
	delete(body, "id")
	var row map[string]any
	if err := t.client.do(ctx, http.MethodPost, t.path(""), nil, body, &row); err != nil {
		return zero, err
	}
	return content.Decode[R](row)
}

func (t *Table[R]) Update(ctx context.Context, r R) (R, error) {
	var zero R
	if r.RowID() == "" {
		return zero, fmt.Errorf("%s: update requires an id", t.entity)
	}
	body, err := content.Encode(r)
	if err != nil {
		return zero, err
	}
	var row map[string]any
	if err := t.client.do(ctx, http.MethodPatch, t.path(r.RowID()), nil, body, &row); err != nil {
		return zero, err
	}
	return content.Decode[R](row)
}

func (t *Table[R]) Delete(ctx context.Context, id string) error {
	return t.client.do(ctx, http.MethodDelete, t.path(id), nil, nil, nil)
}
