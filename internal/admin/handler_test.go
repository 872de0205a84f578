package admin_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agency-cms/internal/admin"
	"agency-cms/internal/cmsclient"
	"agency-cms/internal/content"
	"agency-cms/internal/editor"
	"agency-cms/internal/engine"
	"agency-cms/internal/metadata"
	"agency-cms/internal/section"
	"agency-cms/internal/store/storetest"
)

type fakeTester struct {
	result cmsclient.EmailResult
	err    error
	got    content.SMTPSettings
}

func (f *fakeTester) Test(_ context.Context, smtp content.SMTPSettings) (cmsclient.EmailResult, error) {
	f.got = smtp
	return f.result, f.err
}

type teamResponse struct {
	Data []editor.Item[content.TeamMember] `json:"data"`
}

type env struct {
	app    *fiber.App
	tables *content.Tables
	tester *fakeTester

	integrationWrites int
}

func setup(t *testing.T, extra func(*admin.Editors)) *env {
	t.Helper()
	reg := metadata.NewRegistry()
	metadata.LoadCatalog(reg)
	tables := content.NewTables(engine.NewRepository(storetest.New(t), reg))

	e := &env{tables: tables}
	editors := admin.NewEditors()
	admin.RegisterContent(editors, tables, admin.ContentHooks{Integrations: func() { e.integrationWrites++ }})
	if extra != nil {
		extra(editors)
	}
	e.tester = &fakeTester{result: cmsclient.EmailResult{Success: true}}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var appErr *engine.AppError
			if errors.As(err, &appErr) {
				return c.Status(appErr.Status).JSON(engine.ErrorResponse{Error: appErr})
			}
			return c.SendStatus(500)
		},
	})
	admin.RegisterAdminRoutes(app, admin.NewHandler(editors, tables.SMTP, e.tester, false))
	e.app = app
	return e
}

func (e *env) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func (e *env) team(t *testing.T) []editor.Item[content.TeamMember] {
	t.Helper()
	resp, body := e.do(t, "GET", "/api/admin/editors/team", nil)
	require.Equal(t, 200, resp.StatusCode, string(body))
	var res teamResponse
	require.NoError(t, json.Unmarshal(body, &res))
	return res.Data
}

func member(name string, order int) content.TeamMember {
	return content.TeamMember{Name: name, Role: "Dev", IsVisible: true, Skills: []string{}, Meta: content.Meta{DisplayOrder: order}}
}

func TestEditors_SaveInsertsThenUpdates(t *testing.T) {
	e := setup(t, nil)
	assert.Empty(t, e.team(t))

	resp, body := e.do(t, "POST", "/api/admin/editors/team/save", map[string]any{
		"items": []map[string]any{
			{"persisted": false, "row": member("Ana", 0)},
			{"persisted": false, "row": member("Bruno", 1)},
		},
	})
	require.Equal(t, 200, resp.StatusCode, string(body))

	var saved struct {
		Data struct {
			Report editor.SaveReport                 `json:"report"`
			Items  []editor.Item[content.TeamMember] `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &saved))
	assert.Equal(t, 2, saved.Data.Report.Inserted)
	assert.Equal(t, 0, saved.Data.Report.Updated)
	require.Len(t, saved.Data.Items, 2)
	for _, it := range saved.Data.Items {
		assert.True(t, it.Persisted)
		assert.NotEmpty(t, it.Row.ID)
	}

	// Posting the reloaded rows back updates them in place.
	items := saved.Data.Items
	items[0].Row.Role = "Lead"
	resp, body = e.do(t, "POST", "/api/admin/editors/team/save", map[string]any{"items": items})
	require.Equal(t, 200, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &saved))
	assert.Equal(t, 0, saved.Data.Report.Inserted)
	assert.Equal(t, 2, saved.Data.Report.Updated)

	got := e.team(t)
	require.Len(t, got, 2)
	assert.Equal(t, "Lead", got[0].Row.Role)
}

func TestEditors_NewRowsDefaultToVisible(t *testing.T) {
	e := setup(t, nil)

	resp, body := e.do(t, "POST", "/api/admin/editors/services/save", map[string]any{
		"items": []map[string]any{
			{"persisted": false, "row": map[string]any{"title": "New service"}},
			{"persisted": false, "row": map[string]any{"title": "Draft", "is_visible": false}},
		},
	})
	require.Equal(t, 200, resp.StatusCode, string(body))

	res := section.LoadList(t.Context(), "services", e.tables.Services, content.Scope{}, nil)
	require.Equal(t, section.StatusLoaded, res.Status, res.Reason)
	require.Len(t, res.Content, 1)
	assert.Equal(t, "New service", res.Content[0].Title)
	assert.True(t, res.Content[0].IsVisible)
}

func TestEditors_IntegrationWritesRunHook(t *testing.T) {
	e := setup(t, nil)

	resp, body := e.do(t, "POST", "/api/admin/editors/integrations/save", map[string]any{
		"items": []map[string]any{
			{"persisted": false, "row": map[string]any{"name": "GA", "integration_type": "google_analytics", "config": map[string]any{"measurement_id": "G-1"}}},
		},
	})
	require.Equal(t, 200, resp.StatusCode, string(body))
	assert.Equal(t, 1, e.integrationWrites)

	active, err := e.tables.Integrations.List(t.Context(), content.Where("is_active", true))
	require.NoError(t, err)
	require.Len(t, active, 1)

	resp, body = e.do(t, "DELETE", "/api/admin/editors/integrations/"+active[0].ID+"?confirm=true", nil)
	require.Equal(t, 200, resp.StatusCode, string(body))
	assert.Equal(t, 2, e.integrationWrites)

	// Other collections leave the hook alone.
	resp, body = e.do(t, "POST", "/api/admin/editors/team/save", map[string]any{
		"items": []map[string]any{{"persisted": false, "row": member("Ana", 0)}},
	})
	require.Equal(t, 200, resp.StatusCode, string(body))
	assert.Equal(t, 2, e.integrationWrites)
}

func TestEditors_SaveRejectsPersistedWithoutID(t *testing.T) {
	e := setup(t, nil)
	resp, _ := e.do(t, "POST", "/api/admin/editors/team/save", map[string]any{
		"items": []map[string]any{{"persisted": true, "row": member("Ana", 0)}},
	})
	assert.Equal(t, 400, resp.StatusCode)
}

func TestEditors_DeleteRequiresConfirmForLists(t *testing.T) {
	e := setup(t, nil)
	row, err := e.tables.Team.Insert(t.Context(), member("Ana", 0))
	require.NoError(t, err)

	resp, _ := e.do(t, "DELETE", "/api/admin/editors/team/"+row.ID, nil)
	assert.Equal(t, fiber.StatusPreconditionRequired, resp.StatusCode)
	assert.Len(t, e.team(t), 1)

	resp, body := e.do(t, "DELETE", "/api/admin/editors/team/"+row.ID+"?confirm=true", nil)
	require.Equal(t, 200, resp.StatusCode, string(body))
	assert.Empty(t, e.team(t))

	resp, _ = e.do(t, "DELETE", "/api/admin/editors/team/"+row.ID+"?confirm=true", nil)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestEditors_DeleteSingleNeedsNoConfirm(t *testing.T) {
	e := setup(t, nil)
	row, err := e.tables.Hero.Insert(t.Context(), content.HeroContent{Title: "Hi", IsVisible: true})
	require.NoError(t, err)

	resp, body := e.do(t, "DELETE", "/api/admin/editors/hero/"+row.ID, nil)
	require.Equal(t, 200, resp.StatusCode, string(body))
}

func TestEditors_Reorder(t *testing.T) {
	e := setup(t, nil)
	ctx := t.Context()
	var ids []string
	for i, name := range []string{"Ana", "Bruno", "Carla"} {
		row, err := e.tables.Team.Insert(ctx, member(name, i))
		require.NoError(t, err)
		ids = append(ids, row.ID)
	}

	resp, body := e.do(t, "POST", "/api/admin/editors/team/reorder", map[string]any{"id": ids[2], "to": 0})
	require.Equal(t, 200, resp.StatusCode, string(body))

	got := e.team(t)
	require.Len(t, got, 3)
	names := []string{got[0].Row.Name, got[1].Row.Name, got[2].Row.Name}
	assert.Equal(t, []string{"Carla", "Ana", "Bruno"}, names)
	for i, it := range got {
		assert.Equal(t, i, it.Row.DisplayOrder)
	}

	resp, _ = e.do(t, "POST", "/api/admin/editors/team/reorder", map[string]any{"id": "missing", "to": 0})
	assert.Equal(t, 404, resp.StatusCode)
}

func TestEditors_Values(t *testing.T) {
	e := setup(t, nil)
	row, err := e.tables.Team.Insert(t.Context(), member("Ana", 0))
	require.NoError(t, err)

	path := "/api/admin/editors/team/" + row.ID + "/values"
	resp, body := e.do(t, "POST", path, map[string]any{"field": "skills", "value": "Go"})
	require.Equal(t, 200, resp.StatusCode, string(body))
	resp, _ = e.do(t, "POST", path, map[string]any{"field": "skills", "value": "Go"})
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []string{"Go"}, e.team(t)[0].Row.Skills)

	resp, _ = e.do(t, "POST", path, map[string]any{"field": "skills", "value": "Go", "remove": true})
	require.Equal(t, 200, resp.StatusCode)
	assert.Empty(t, e.team(t)[0].Row.Skills)

	resp, _ = e.do(t, "POST", path, map[string]any{"field": "hobbies", "value": "x"})
	assert.Equal(t, 400, resp.StatusCode)
}

func TestEditors_MenuParentScope(t *testing.T) {
	e := setup(t, nil)
	ctx := t.Context()
	root, err := e.tables.Menu.Insert(ctx, content.MenuItem{Label: "Services", URL: "/#services", IsVisible: true})
	require.NoError(t, err)
	_, err = e.tables.Menu.Insert(ctx, content.MenuItem{Label: "Web", URL: "/#web", ParentID: &root.ID, IsVisible: true})
	require.NoError(t, err)

	count := func(query string) int {
		resp, body := e.do(t, "GET", "/api/admin/editors/menu"+query, nil)
		require.Equal(t, 200, resp.StatusCode, string(body))
		var res struct {
			Meta struct {
				Total int `json:"total"`
			} `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(body, &res))
		return res.Meta.Total
	}
	assert.Equal(t, 2, count(""))
	assert.Equal(t, 1, count("?parent_id=null"))
	assert.Equal(t, 1, count("?parent_id="+root.ID))
}

func TestEditors_UnknownCollection(t *testing.T) {
	e := setup(t, nil)
	resp, _ := e.do(t, "GET", "/api/admin/editors/nope", nil)
	assert.Equal(t, 404, resp.StatusCode)

	resp, body := e.do(t, "GET", "/api/admin/editors", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), `"team"`)
}

// failingTeam accepts the first insert and rejects the rest.
type failingTeam struct {
	rows []content.TeamMember
}

func (f *failingTeam) List(context.Context, content.Scope) ([]content.TeamMember, error) {
	return append([]content.TeamMember(nil), f.rows...), nil
}

func (f *failingTeam) Insert(_ context.Context, r content.TeamMember) (content.TeamMember, error) {
	if len(f.rows) > 0 {
		return r, engine.ValidationError([]engine.ErrorDetail{{Field: "name", Message: "rejected"}})
	}
	r.ID = "first"
	f.rows = append(f.rows, r)
	return r, nil
}

func (f *failingTeam) Update(_ context.Context, r content.TeamMember) (content.TeamMember, error) {
	return r, nil
}

func (f *failingTeam) Delete(context.Context, string) error { return nil }

func TestEditors_PartialSaveIsReported(t *testing.T) {
	e := setup(t, func(ed *admin.Editors) {
		admin.Register(ed, "flaky", editor.Table[content.TeamMember](&failingTeam{}), admin.EditorOptions[content.TeamMember]{})
	})

	resp, body := e.do(t, "POST", "/api/admin/editors/flaky/save", map[string]any{
		"items": []map[string]any{
			{"persisted": false, "row": member("Ana", 0)},
			{"persisted": false, "row": member("Bruno", 1)},
			{"persisted": false, "row": member("Carla", 2)},
		},
	})
	require.Equal(t, 422, resp.StatusCode, string(body))

	var res struct {
		Error engine.AppError `json:"error"`
		Data  struct {
			Report editor.SaveReport                 `json:"report"`
			Items  []editor.Item[content.TeamMember] `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "VALIDATION_FAILED", res.Error.Code)
	assert.Equal(t, 1, res.Data.Report.Inserted)
	assert.Equal(t, 1, res.Data.Report.Skipped)
	require.Len(t, res.Data.Items, 1)
	assert.Equal(t, "Ana", res.Data.Items[0].Row.Name)
}

// brokenTeam fails every call with a driver-level error.
type brokenTeam struct{ failingTeam }

func (brokenTeam) List(context.Context, content.Scope) ([]content.TeamMember, error) {
	return nil, errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
}

func TestEditors_BackendErrorsAreNotEchoed(t *testing.T) {
	e := setup(t, func(ed *admin.Editors) {
		admin.Register(ed, "broken", editor.Table[content.TeamMember](&brokenTeam{}), admin.EditorOptions[content.TeamMember]{})
	})

	resp, body := e.do(t, "GET", "/api/admin/editors/broken", nil)
	require.Equal(t, 502, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "UPSTREAM_FAILED")
	assert.NotContains(t, string(body), "10.0.0.5")
	assert.NotContains(t, string(body), "connection refused")
}

func TestSMTPTest(t *testing.T) {
	t.Run("NotConfigured", func(t *testing.T) {
		e := setup(t, nil)
		resp, _ := e.do(t, "POST", "/api/admin/smtp/test", nil)
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("UsesActiveSettings", func(t *testing.T) {
		e := setup(t, nil)
		_, err := e.tables.SMTP.Insert(t.Context(), content.SMTPSettings{Host: "smtp.example.com", Port: 587, FromEmail: "a@example.com", IsActive: true})
		require.NoError(t, err)

		resp, body := e.do(t, "POST", "/api/admin/smtp/test", nil)
		require.Equal(t, 200, resp.StatusCode, string(body))
		assert.Equal(t, "smtp.example.com", e.tester.got.Host)
	})

	t.Run("BodyOverridesStored", func(t *testing.T) {
		e := setup(t, nil)
		resp, _ := e.do(t, "POST", "/api/admin/smtp/test", map[string]any{"smtp": map[string]any{"host": "draft.example.com", "port": 465}})
		require.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "draft.example.com", e.tester.got.Host)
	})

	t.Run("Timeout", func(t *testing.T) {
		e := setup(t, nil)
		e.tester.err = cmsclient.ErrTimeout
		resp, body := e.do(t, "POST", "/api/admin/smtp/test", map[string]any{"smtp": map[string]any{"host": "h"}})
		assert.Equal(t, 504, resp.StatusCode)
		assert.Contains(t, string(body), `"TIMEOUT"`)
	})

	t.Run("DeliveryFailure", func(t *testing.T) {
		e := setup(t, nil)
		e.tester.result = cmsclient.EmailResult{Success: false, Error: "auth failed"}
		resp, body := e.do(t, "POST", "/api/admin/smtp/test", map[string]any{"smtp": map[string]any{"host": "h"}})
		assert.Equal(t, 502, resp.StatusCode)
		assert.Contains(t, string(body), "SMTP_TEST_FAILED")
		assert.NotContains(t, string(body), `"TIMEOUT"`)
	})
}

func TestPreferences(t *testing.T) {
	e := setup(t, nil)

	resp, body := e.do(t, "GET", "/api/admin/preferences", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, `{"data":{"sidebar_collapsed":false}}`, string(body))

	resp, _ = e.do(t, "PUT", "/api/admin/preferences", map[string]any{"sidebar_collapsed": true})
	require.Equal(t, 200, resp.StatusCode)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == admin.SidebarCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	req := httptest.NewRequest("GET", "/api/admin/preferences", nil)
	req.AddCookie(cookie)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"data":{"sidebar_collapsed":true}}`, string(body))
}
