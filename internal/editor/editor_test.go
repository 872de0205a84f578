package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agency-cms/internal/content"
)

// fakeTable is an in-memory Table that counts calls.
type fakeTable struct {
	rows      []content.TeamMember
	nextID    int
	inserts   int
	updates   int
	deletes   int
	lists     int
	failOn    string // "insert", "update", "list"
	failAfter int
}

func (f *fakeTable) List(_ context.Context, _ content.Scope) ([]content.TeamMember, error) {
	f.lists++
	if f.failOn == "list" {
		return nil, errors.New("network down")
	}
	out := make([]content.TeamMember, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeTable) Insert(_ context.Context, r content.TeamMember) (content.TeamMember, error) {
	if f.failOn == "insert" && f.inserts >= f.failAfter {
		return r, errors.New("insert rejected")
	}
	f.inserts++
	f.nextID++
	r.ID = fmt.Sprintf("id-%d", f.nextID)
	f.rows = append(f.rows, r)
	return r, nil
}

func (f *fakeTable) Update(_ context.Context, r content.TeamMember) (content.TeamMember, error) {
	if f.failOn == "update" && f.updates >= f.failAfter {
		return r, errors.New("update rejected")
	}
	f.updates++
	for i := range f.rows {
		if f.rows[i].ID == r.ID {
			f.rows[i] = r
		}
	}
	return r, nil
}

func (f *fakeTable) Delete(_ context.Context, id string) error {
	f.deletes++
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func member(id, name string, order int) content.TeamMember {
	return content.TeamMember{Meta: content.Meta{ID: id, DisplayOrder: order}, Name: name, IsVisible: true}
}

func newMember(name string) func(int) content.TeamMember {
	return func(order int) content.TeamMember {
		return content.TeamMember{Meta: content.Meta{DisplayOrder: order}, Name: name, IsVisible: true}
	}
}

func seeded() *fakeTable {
	return &fakeTable{
		rows:   []content.TeamMember{member("b", "Bea", 1), member("a", "Ana", 0), member("c", "Caio", 2)},
		nextID: 100,
	}
}

func TestLoad_OrdersByDisplayOrder(t *testing.T) {
	c := New[content.TeamMember](seeded())
	require.NoError(t, c.Load(context.Background(), content.Scope{}))

	items := c.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "Ana", items[0].Row.Name)
	assert.Equal(t, "Bea", items[1].Row.Name)
	for _, it := range items {
		assert.True(t, it.Persisted)
		assert.Equal(t, it.Row.ID, it.Key)
	}
}

func TestLoad_FailureKeepsLocalState(t *testing.T) {
	table := seeded()
	c := New[content.TeamMember](table)
	require.NoError(t, c.Load(context.Background(), content.Scope{}))

	table.failOn = "list"
	err := c.Load(context.Background(), content.Scope{})
	require.Error(t, err)
	assert.Equal(t, 3, c.Len())
}

func TestAddThenDelete_DoesNotTouchTable(t *testing.T) {
	table := seeded()
	c := New[content.TeamMember](table)
	require.NoError(t, c.Load(context.Background(), content.Scope{}))

	key := c.Add(newMember("Temp"))
	assert.True(t, strings.HasPrefix(key, TempKeyPrefix))
	it, ok := c.Get(key)
	require.True(t, ok)
	assert.False(t, it.Persisted)
	assert.Equal(t, 3, it.Row.DisplayOrder, "new rows are appended at the end")

	require.NoError(t, c.Delete(context.Background(), key, nil))
	assert.Equal(t, 3, c.Len())
	assert.Len(t, table.rows, 3)
	assert.Zero(t, table.deletes)
	assert.Zero(t, table.inserts)
}

func TestSave_AllPersistedIssuesOnlyUpdates(t *testing.T) {
	table := seeded()
	c := New[content.TeamMember](table)
	require.NoError(t, c.Load(context.Background(), content.Scope{}))

	report := c.Save(context.Background())
	require.True(t, report.OK())
	assert.Equal(t, 3, table.updates)
	assert.Zero(t, table.inserts)
	assert.Equal(t, 3, report.Updated)
}

func TestSave_AllNewIssuesOnlyInserts(t *testing.T) {
	table := &fakeTable{}
	c := New[content.TeamMember](table)
	require.NoError(t, c.Load(context.Background(), content.Scope{}))

	c.Add(newMember("One"))
	c.Add(newMember("Two"))
	report := c.Save(context.Background())

	require.True(t, report.OK())
	assert.Equal(t, 2, table.inserts)
	assert.Zero(t, table.updates)

	// Reload reconciles temporary keys with persisted ids.
	for _, it := range c.Items() {
		assert.True(t, it.Persisted)
		assert.False(t, strings.HasPrefix(it.Key, TempKeyPrefix))
	}
	assert.Equal(t, 2, table.lists, "save reloads once")
}

func TestSave_StopsAtFirstFailureAndReloads(t *testing.T) {
	table := &fakeTable{failOn: "insert", failAfter: 1}
	c := New[content.TeamMember](table)
	require.NoError(t, c.Load(context.Background(), content.Scope{}))

	c.Add(newMember("One"))
	c.Add(newMember("Two"))
	c.Add(newMember("Three"))
	report := c.Save(context.Background())

	require.Error(t, report.Err)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 1, report.Skipped)
	assert.Len(t, table.rows, 1, "earlier rows stay saved")
	assert.Equal(t, 1, c.Len(), "local state is reconciled from the table")
}

func TestMove_RenumbersSequentially(t *testing.T) {
	c := New[content.TeamMember](seeded())
	require.NoError(t, c.Load(context.Background(), content.Scope{}))

	require.NoError(t, c.Move("c", 0))
	rows := c.Rows()
	assert.Equal(t, []string{"Caio", "Ana", "Bea"}, []string{rows[0].Name, rows[1].Name, rows[2].Name})
	for i, r := range rows {
		assert.Equal(t, i, r.DisplayOrder)
	}

	require.NoError(t, c.Move("c", 99))
	assert.Equal(t, "Caio", c.Rows()[2].Name)
	assert.ErrorIs(t, c.Move("zzz", 0), ErrUnknownKey)
}

func TestUpdateAndValues(t *testing.T) {
	c := New[content.TeamMember](seeded())
	require.NoError(t, c.Load(context.Background(), content.Scope{}))

	skills := func(r *content.TeamMember) *[]string { return &r.Skills }
	require.NoError(t, c.AppendValue("a", skills, "Go"))
	require.NoError(t, c.AppendValue("a", skills, "Go"))
	require.NoError(t, c.AppendValue("a", skills, "SQL"))
	it, _ := c.Get("a")
	assert.Equal(t, []string{"Go", "SQL"}, it.Row.Skills)

	require.NoError(t, c.RemoveValue("a", skills, "Go"))
	it, _ = c.Get("a")
	assert.Equal(t, []string{"SQL"}, it.Row.Skills)

	require.NoError(t, c.Update("a", func(r content.TeamMember) content.TeamMember {
		r.Role = "CTO"
		return r
	}))
	it, _ = c.Get("a")
	assert.Equal(t, "CTO", it.Row.Role)
	assert.ErrorIs(t, c.Update("missing", func(r content.TeamMember) content.TeamMember { return r }), ErrUnknownKey)
}

func TestDelete_PersistedRequiresConfirmation(t *testing.T) {
	table := seeded()
	c := New[content.TeamMember](table)
	require.NoError(t, c.Load(context.Background(), content.Scope{}))

	err := c.Delete(context.Background(), "a", func(content.TeamMember) bool { return false })
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, 3, c.Len())
	assert.Zero(t, table.deletes)

	require.NoError(t, c.Delete(context.Background(), "a", func(r content.TeamMember) bool { return r.Name == "Ana" }))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1, table.deletes)
	assert.Len(t, table.rows, 2)
}

func TestReplace_AssignsKeys(t *testing.T) {
	c := New[content.TeamMember](&fakeTable{})
	c.Replace([]Item[content.TeamMember]{
		{Persisted: true, Row: member("x", "Xavi", 0)},
		{Persisted: false, Row: member("", "New", 1)},
	})
	items := c.Items()
	assert.Equal(t, "x", items[0].Key)
	assert.True(t, strings.HasPrefix(items[1].Key, TempKeyPrefix))
}
