package cmsclient

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agency-cms/internal/content"
	"agency-cms/internal/editor"
	"agency-cms/internal/engine"
	"agency-cms/internal/metadata"
	"agency-cms/internal/store/storetest"
)

const base = "http://cms.test"

func mockClient(t *testing.T, opts ...Option) (*Client, *httpmock.MockTransport) {
	t.Helper()
	mt := httpmock.NewMockTransport()
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: mt})}, opts...)
	return New(base, "anon-key", opts...), mt
}

func TestList_SendsFiltersAndDecodes(t *testing.T) {
	c, mt := mockClient(t)
	mt.RegisterResponder("GET", base+"/api/tables/team_members",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "anon-key", req.Header.Get("apikey"))
			assert.Equal(t, "true", req.URL.Query().Get("filter[is_visible]"))
			return httpmock.NewJsonResponse(200, map[string]any{
				"data": []map[string]any{
					{"id": "1", "name": "Ana", "skills": []string{"go"}, "display_order": 0, "is_visible": true},
					{"id": "2", "name": "Bruno", "display_order": 1, "is_visible": true},
				},
			})
		})

	rows, err := NewTable[content.TeamMember](c, metadata.TeamMembers, metadata.VisibleField).
		List(context.Background(), content.Scope{VisibleOnly: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ana", rows[0].Name)
	assert.Equal(t, []string{"go"}, rows[0].Skills)
	assert.Equal(t, 1, mt.GetTotalCallCount())
}

func TestList_NullFilter(t *testing.T) {
	c, mt := mockClient(t)
	mt.RegisterResponder("GET", base+"/api/tables/menu_items",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "null", req.URL.Query().Get("filter[parent_id.is]"))
			return httpmock.NewJsonResponse(200, map[string]any{"data": []any{}})
		})

	rows, err := NewTable[content.MenuItem](c, metadata.MenuItems, metadata.VisibleField).
		List(context.Background(), content.Where("parent_id", nil))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAPIError(t *testing.T) {
	c, mt := mockClient(t)
	mt.RegisterResponder("PATCH", base+"/api/tables/services/abc",
		httpmock.NewJsonResponderOrPanic(422, map[string]any{
			"error": map[string]any{"code": "VALIDATION_FAILED", "message": "Validation failed"},
		}))
	mt.RegisterResponder("DELETE", base+"/api/tables/services/gone",
		httpmock.NewStringResponder(404, "not json"))

	tbl := NewTable[content.Service](c, metadata.Services, metadata.VisibleField)
	_, err := tbl.Update(context.Background(), content.Service{Meta: content.Meta{ID: "abc"}})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.Status)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.Code)

	err = tbl.Delete(context.Background(), "gone")
	assert.True(t, IsNotFound(err))
}

func TestLogin_KeepsSession(t *testing.T) {
	c, mt := mockClient(t)
	mt.RegisterResponder("POST", base+"/api/auth/login",
		func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewStringResponse(200, `{"data":{"id":"1","username":"admin"}}`)
			resp.Header.Add("Set-Cookie", "admin_session=tok123; Path=/; HttpOnly")
			return resp, nil
		})
	mt.RegisterResponder("DELETE", base+"/api/tables/services/x",
		func(req *http.Request) (*http.Response, error) {
			ck, err := req.Cookie("admin_session")
			require.NoError(t, err)
			assert.Equal(t, "tok123", ck.Value)
			return httpmock.NewStringResponse(200, `{"data":null}`), nil
		})

	require.NoError(t, c.Login(context.Background(), "admin", "changeme"))
	assert.Equal(t, "tok123", c.Session())
	require.NoError(t, NewTable[content.Service](c, metadata.Services, metadata.VisibleField).Delete(context.Background(), "x"))
}

func TestEmailFunction(t *testing.T) {
	c, mt := mockClient(t)
	mt.RegisterResponder("POST", base+"/functions/v1/send-email",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "test", req.URL.Query().Get("action"))
			return httpmock.NewJsonResponse(502, map[string]any{"success": false, "error": "535 auth failed"})
		})

	res, err := NewEmailFunction(c, base+"/functions/v1/send-email", time.Second).
		Test(context.Background(), content.SMTPSettings{Host: "smtp.example.com"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "535 auth failed", res.Error)
}

func TestEmailFunction_Timeout(t *testing.T) {
	c, mt := mockClient(t)
	mt.RegisterResponder("POST", base+"/functions/v1/send-email",
		func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		})

	_, err := NewEmailFunction(c, base+"/functions/v1/send-email", 30*time.Millisecond).
		Test(context.Background(), content.SMTPSettings{})
	assert.ErrorIs(t, err, ErrTimeout)
}

// backend routes mock transport traffic into a real tables API backed by an
// in-memory database.
func backend(t *testing.T) *Client {
	t.Helper()
	reg := metadata.NewRegistry()
	metadata.LoadCatalog(reg)
	app := fiber.New()
	pass := func(c *fiber.Ctx) error { return c.Next() }
	engine.RegisterTableRoutes(app, engine.NewHandler(engine.NewRepository(storetest.New(t), reg)), pass, pass)

	c, mt := mockClient(t)
	mt.RegisterNoResponder(func(req *http.Request) (*http.Response, error) {
		return app.Test(req, -1)
	})
	return c
}

func TestEditorOverHTTP_AddThenDeleteKeepsCount(t *testing.T) {
	c := backend(t)
	ctx := context.Background()
	tbl := NewTable[content.Service](c, metadata.Services, metadata.VisibleField)

	col := editor.New[content.Service](tbl)
	require.NoError(t, col.Load(ctx, content.Scope{}))
	col.Add(func(int) content.Service { return content.Service{Title: "Branding", IsVisible: true} })
	col.Add(func(int) content.Service { return content.Service{Title: "Web", IsVisible: true} })
	report := col.Save(ctx)
	require.True(t, report.OK(), "%v", report.Err)
	assert.Equal(t, 2, report.Inserted)

	before, err := tbl.List(ctx, content.Scope{})
	require.NoError(t, err)
	require.Len(t, before, 2)

	key := col.Add(func(int) content.Service { return content.Service{Title: "Temp"} })
	require.NoError(t, col.Delete(ctx, key, nil))
	report = col.Save(ctx)
	require.True(t, report.OK())
	assert.Equal(t, 0, report.Inserted)
	assert.Equal(t, 2, report.Updated)

	after, err := tbl.List(ctx, content.Scope{})
	require.NoError(t, err)
	assert.Len(t, after, len(before))
	assert.Equal(t, "Branding", after[0].Title)
	assert.Equal(t, 1, after[1].DisplayOrder)
}
