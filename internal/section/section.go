// Package section loads public site sections with fallback to defaults.
package section

import (
	"context"
	"log"

	"dario.cat/mergo"

	"agency-cms/internal/content"
)

type Status string

const (
	StatusLoaded    Status = "loaded"
	StatusDefaulted Status = "defaulted"
	StatusFailed    Status = "failed"
)

const ReasonEmpty = "empty"

// Result is the outcome of loading one section. Content is always renderable:
// it holds the table rows when Status is loaded and the defaults otherwise.
type Result[T any] struct {
	Status  Status
	Reason  string
	Err     error
	Content T
}

// Source is the read side of a content table.
type Source[R any] interface {
	List(ctx context.Context, scope content.Scope) ([]R, error)
}

// LoadList reads visible rows in display order. No rows yields the defaults
// with StatusDefaulted; an error yields the defaults with StatusFailed.
func LoadList[R any](ctx context.Context, name string, src Source[R], scope content.Scope, defaults []R) Result[[]R] {
	scope.VisibleOnly = true
	rows, err := src.List(ctx, scope)
	if err != nil {
		log.Printf("WARN: section %s: load failed, using defaults: %v", name, err)
		return Result[[]R]{Status: StatusFailed, Err: err, Reason: err.Error(), Content: defaults}
	}
	if len(rows) == 0 {
		return Result[[]R]{Status: StatusDefaulted, Reason: ReasonEmpty, Content: defaults}
	}
	return Result[[]R]{Status: StatusLoaded, Content: rows}
}

// LoadSingle reads the first visible row and merges it over the defaults, so
// fields left blank in the table keep their default value.
func LoadSingle[R any](ctx context.Context, name string, src Source[R], scope content.Scope, defaults R) Result[R] {
	list := LoadList(ctx, name, src, scope, nil)
	if list.Status != StatusLoaded {
		return Result[R]{Status: list.Status, Reason: list.Reason, Err: list.Err, Content: defaults}
	}

	merged := defaults
	if err := mergo.Merge(&merged, list.Content[0], mergo.WithOverride); err != nil {
		log.Printf("WARN: section %s: merge failed, using row as-is: %v", name, err)
		merged = list.Content[0]
	}
	return Result[R]{Status: StatusLoaded, Content: merged}
}

// Failed reports whether r fell back because of an error.
func (r Result[T]) Failed() bool { return r.Status == StatusFailed }

// Defaulted reports whether r holds default content for any reason.
func (r Result[T]) Defaulted() bool { return r.Status != StatusLoaded }
