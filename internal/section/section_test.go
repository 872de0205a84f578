package section

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agency-cms/internal/content"
)

type fakeSource[R any] struct {
	rows  []R
	err   error
	scope content.Scope
}

func (f *fakeSource[R]) List(_ context.Context, scope content.Scope) ([]R, error) {
	f.scope = scope
	return f.rows, f.err
}

func TestLoadList_EmptyUsesDefaults(t *testing.T) {
	defaults := []content.Service{{Title: "Default"}}
	r := LoadList(context.Background(), "services", &fakeSource[content.Service]{}, content.Scope{}, defaults)

	assert.Equal(t, StatusDefaulted, r.Status)
	assert.Equal(t, ReasonEmpty, r.Reason)
	assert.False(t, r.Failed())
	assert.True(t, r.Defaulted())
	assert.Equal(t, defaults, r.Content)
}

func TestLoadList_ErrorUsesDefaultsAndReportsFailure(t *testing.T) {
	defaults := []content.Service{{Title: "Default"}}
	src := &fakeSource[content.Service]{err: errors.New("connection refused")}
	r := LoadList(context.Background(), "services", src, content.Scope{}, defaults)

	assert.Equal(t, StatusFailed, r.Status)
	assert.True(t, r.Failed())
	assert.EqualError(t, r.Err, "connection refused")
	assert.Equal(t, defaults, r.Content)
}

func TestLoadList_RowsReplaceDefaults(t *testing.T) {
	src := &fakeSource[content.Service]{rows: []content.Service{{Title: "Web"}, {Title: "Mobile"}}}
	r := LoadList(context.Background(), "services", src, content.Scope{}, []content.Service{{Title: "Default"}})

	assert.Equal(t, StatusLoaded, r.Status)
	assert.Empty(t, r.Reason)
	require.Len(t, r.Content, 2)
	assert.Equal(t, "Web", r.Content[0].Title)
	assert.True(t, src.scope.VisibleOnly, "public loads must only see visible rows")
}

func TestLoadSingle_MergesOverDefaults(t *testing.T) {
	defaults := content.HeroContent{Title: "Default title", Subtitle: "Default subtitle", CTAText: "Contact us"}
	src := &fakeSource[content.HeroContent]{rows: []content.HeroContent{{Title: "We build brands"}}}

	r := LoadSingle(context.Background(), "hero", src, content.Scope{}, defaults)
	assert.Equal(t, StatusLoaded, r.Status)
	assert.Equal(t, "We build brands", r.Content.Title)
	assert.Equal(t, "Default subtitle", r.Content.Subtitle)
	assert.Equal(t, "Contact us", r.Content.CTAText)
}

func TestLoadSingle_FailureKeepsDefaults(t *testing.T) {
	defaults := content.HeroContent{Title: "Default title"}
	src := &fakeSource[content.HeroContent]{err: context.DeadlineExceeded}

	r := LoadSingle(context.Background(), "hero", src, content.Scope{}, defaults)
	assert.Equal(t, StatusFailed, r.Status)
	assert.ErrorIs(t, r.Err, context.DeadlineExceeded)
	assert.Equal(t, defaults, r.Content)
}

func TestCarousel_TwoSlides(t *testing.T) {
	c := NewCarousel(2)
	assert.False(t, c.CanScrollPrev())
	assert.True(t, c.CanScrollNext())

	c = c.Next()
	assert.Equal(t, 1, c.Index)
	assert.True(t, c.CanScrollPrev())
	assert.False(t, c.CanScrollNext())

	c = c.Next()
	assert.Equal(t, 1, c.Index, "next at the last slide is a no-op")

	c = c.Prev().Prev()
	assert.Equal(t, 0, c.Index)
}

func TestCarousel_EmptyAndClamp(t *testing.T) {
	c := NewCarousel(0)
	assert.False(t, c.CanScrollPrev())
	assert.False(t, c.CanScrollNext())

	c = NewCarousel(5).ScrollTo(9)
	assert.Equal(t, 4, c.Index)
	c = c.ScrollTo(-3)
	assert.Equal(t, 0, c.Index)
}

func TestCarousel_JSON(t *testing.T) {
	b, err := NewCarousel(3).MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":0,"count":3,"can_scroll_prev":false,"can_scroll_next":true}`, string(b))
}

func ptr(s string) *string { return &s }

func TestBuildMenuTree(t *testing.T) {
	items := []content.MenuItem{
		{Meta: content.Meta{ID: "a"}, Label: "Home"},
		{Meta: content.Meta{ID: "b"}, Label: "Services"},
		{Meta: content.Meta{ID: "c"}, Label: "Design", ParentID: ptr("b")},
		{Meta: content.Meta{ID: "d"}, Label: "Orphan", ParentID: ptr("hidden")},
		{Meta: content.Meta{ID: "e"}, Label: "Self", ParentID: ptr("e")},
	}

	tree := BuildMenuTree(items)
	require.Len(t, tree, 4)
	assert.Equal(t, []string{"Home", "Services", "Orphan", "Self"},
		[]string{tree[0].Label, tree[1].Label, tree[2].Label, tree[3].Label})
	require.Len(t, tree[1].Children, 1)
	assert.Equal(t, "Design", tree[1].Children[0].Label)
}

func TestPalette(t *testing.T) {
	p := Palette([]content.SiteSetting{
		{SettingKey: "primary_color", SettingValue: "#111111"},
		{SettingKey: "accent_color", SettingValue: "#ff0066"},
	})
	assert.Equal(t, map[string]string{"primary_color": "#111111", "accent_color": "#ff0066"}, p)
}
