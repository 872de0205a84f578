// Package editor implements the admin load-edit-save cycle over one table.
//
// A Collection keeps an ordered list of rows in memory. Edits are local until
// Save, which walks the rows in order and issues one insert for every row
// that was never persisted and one update for every row that was. Rows are
// written one at a time with no cross-row transaction: when a write fails,
// the rows before it stay saved, the rest are skipped, and the collection is
// reloaded so local state matches the table.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/google/uuid"

	"agency-cms/internal/content"
)

// TempKeyPrefix marks keys of rows that exist only in memory. It is used for
// addressing; the insert-or-update decision reads Item.Persisted.
const TempKeyPrefix = "tmp-"

var (
	ErrUnknownKey   = errors.New("unknown row key")
	ErrNotConfirmed = errors.New("delete not confirmed")
)

// Table is the remote side of a collection.
type Table[R content.Row[R]] interface {
	List(ctx context.Context, scope content.Scope) ([]R, error)
	Insert(ctx context.Context, r R) (R, error)
	Update(ctx context.Context, r R) (R, error)
	Delete(ctx context.Context, id string) error
}

// Item is one editable row.
type Item[R content.Row[R]] struct {
	Key       string `json:"key"`
	Persisted bool   `json:"persisted"`
	Row       R      `json:"row"`
}

// SaveReport summarises a Save call.
type SaveReport struct {
	Inserted int   `json:"inserted"`
	Updated  int   `json:"updated"`
	Skipped  int   `json:"skipped"`
	Err      error `json:"-"`
	// ReloadErr is set when the reconciling reload failed.
	ReloadErr error `json:"-"`
}

// Collection is the in-memory editable list. It is not safe for concurrent
// use; each admin request or CLI command owns its own collection.
type Collection[R content.Row[R]] struct {
	table Table[R]
	scope content.Scope
	items []Item[R]
}

func New[R content.Row[R]](table Table[R]) *Collection[R] {
	return &Collection[R]{table: table}
}

// Load replaces local state with the table's rows for scope. On failure the
// current items are kept.
func (c *Collection[R]) Load(ctx context.Context, scope content.Scope) error {
	rows, err := c.table.List(ctx, scope)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	slices.SortStableFunc(rows, func(a, b R) int { return a.RowOrder() - b.RowOrder() })

	items := make([]Item[R], len(rows))
	for i, r := range rows {
		items[i] = Item[R]{Key: r.RowID(), Persisted: true, Row: r}
	}
	c.scope = scope
	c.items = items
	return nil
}

// Items returns a copy of the current rows in order.
func (c *Collection[R]) Items() []Item[R] {
	return slices.Clone(c.items)
}

// Rows returns the current rows without their bookkeeping.
func (c *Collection[R]) Rows() []R {
	out := make([]R, len(c.items))
	for i, it := range c.items {
		out[i] = it.Row
	}
	return out
}

// Len returns the number of rows.
func (c *Collection[R]) Len() int { return len(c.items) }

// Get returns the row stored under key.
func (c *Collection[R]) Get(key string) (Item[R], bool) {
	i := c.index(key)
	if i < 0 {
		return Item[R]{}, false
	}
	return c.items[i], true
}

// Replace sets local state directly, used when a client posts its edited list.
func (c *Collection[R]) Replace(items []Item[R]) {
	c.items = slices.Clone(items)
	for i := range c.items {
		if c.items[i].Key == "" {
			if c.items[i].Persisted {
				c.items[i].Key = c.items[i].Row.RowID()
			} else {
				c.items[i].Key = newTempKey()
			}
		}
	}
}

// Update applies fn to the row under key. Nothing is sent to the table.
func (c *Collection[R]) Update(key string, fn func(R) R) error {
	i := c.index(key)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	c.items[i].Row = fn(c.items[i].Row)
	return nil
}

// AppendValue adds value to a string-list field unless it is already present.
func (c *Collection[R]) AppendValue(key string, field func(*R) *[]string, value string) error {
	return c.Update(key, func(r R) R {
		list := field(&r)
		if value != "" && !slices.Contains(*list, value) {
			*list = append(slices.Clone(*list), value)
		}
		return r
	})
}

// RemoveValue drops every occurrence of value from a string-list field.
func (c *Collection[R]) RemoveValue(key string, field func(*R) *[]string, value string) error {
	return c.Update(key, func(r R) R {
		list := field(&r)
		*list = slices.DeleteFunc(slices.Clone(*list), func(s string) bool { return s == value })
		return r
	})
}

// Add appends a new unsaved row. newRow receives the display order the row
// should take (the current row count). The returned key addresses the row
// until it is saved.
func (c *Collection[R]) Add(newRow func(order int) R) string {
	order := len(c.items)
	key := newTempKey()
	c.items = append(c.items, Item[R]{Key: key, Persisted: false, Row: newRow(order).WithOrder(order)})
	return key
}

// Move places the row under key at index to and renumbers display_order
// 0..n-1 in the new sequence.
func (c *Collection[R]) Move(key string, to int) error {
	from := c.index(key)
	if from < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	to = max(0, min(to, len(c.items)-1))

	item := c.items[from]
	c.items = slices.Delete(c.items, from, from+1)
	c.items = slices.Insert(c.items, to, item)
	c.renumber()
	return nil
}

// Delete removes the row under key. Unsaved rows are dropped locally; saved
// rows are deleted remotely first. When confirm is non-nil and returns false
// nothing happens and ErrNotConfirmed is returned.
func (c *Collection[R]) Delete(ctx context.Context, key string, confirm func(R) bool) error {
	i := c.index(key)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	item := c.items[i]
	if confirm != nil && !confirm(item.Row) {
		return ErrNotConfirmed
	}
	if item.Persisted {
		if err := c.table.Delete(ctx, item.Row.RowID()); err != nil {
			return fmt.Errorf("delete %s: %w", item.Row.RowID(), err)
		}
	}
	c.items = slices.Delete(c.items, i, i+1)
	return nil
}

// Save writes every row in order and then reloads. It stops at the first
// failed write; the failure is reported in SaveReport.Err and the rows
// written before it stay written.
func (c *Collection[R]) Save(ctx context.Context) SaveReport {
	var report SaveReport
	for i, it := range c.items {
		if it.Persisted {
			if _, err := c.table.Update(ctx, it.Row); err != nil {
				report.Err = fmt.Errorf("update row %d (%s): %w", i, it.Row.RowID(), err)
				report.Skipped = len(c.items) - i - 1
				break
			}
			report.Updated++
			continue
		}
		if _, err := c.table.Insert(ctx, it.Row); err != nil {
			report.Err = fmt.Errorf("insert row %d: %w", i, err)
			report.Skipped = len(c.items) - i - 1
			break
		}
		report.Inserted++
	}

	if err := c.Load(ctx, c.scope); err != nil {
		log.Printf("WARN: reload after save: %v", err)
		report.ReloadErr = err
	}
	return report
}

// OK reports whether every row was written.
func (r SaveReport) OK() bool { return r.Err == nil }

func (c *Collection[R]) renumber() {
	for i := range c.items {
		c.items[i].Row = c.items[i].Row.WithOrder(i)
	}
}

func (c *Collection[R]) index(key string) int {
	return slices.IndexFunc(c.items, func(it Item[R]) bool { return it.Key == key })
}

func newTempKey() string {
	return TempKeyPrefix + uuid.NewString()
}
