package engine_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"

	"agency-cms/internal/engine"
	"agency-cms/internal/metadata"
	"agency-cms/internal/store"
	"agency-cms/internal/store/storetest"
)

func passThrough(c *fiber.Ctx) error { return c.Next() }

func errorHandler(c *fiber.Ctx, err error) error {
	var appErr *engine.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(engine.ErrorResponse{Error: appErr})
	}
	log.Printf("ERROR: %v", err)
	return c.Status(500).JSON(engine.ErrorResponse{
		Error: &engine.AppError{Code: "INTERNAL_ERROR", Message: "Internal server error"},
	})
}

func testApp(t *testing.T, s *store.Store) *fiber.App {
	t.Helper()
	reg := metadata.NewRegistry()
	metadata.LoadCatalog(reg)

	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	engine.RegisterTableRoutes(app, engine.NewHandler(engine.NewRepository(s, reg)), passThrough, passThrough)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("execute request: %v", err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

type dataResponse struct {
	Data map[string]any `json:"data"`
}

type listResponse struct {
	Data []map[string]any `json:"data"`
	Meta map[string]any   `json:"meta"`
}

func TestUnknownEntity_Returns404(t *testing.T) {
	app := testApp(t, storetest.New(t))

	resp := doRequest(t, app, "GET", "/api/tables/nonexistent", nil)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 for unknown entity, got %d", resp.StatusCode)
	}
	var errResp engine.ErrorResponse
	if err := json.Unmarshal(readBody(t, resp), &errResp); err != nil {
		t.Fatalf("failed to parse error response: %v", err)
	}
	if errResp.Error.Code != "UNKNOWN_ENTITY" {
		t.Fatalf("expected UNKNOWN_ENTITY code, got %s", errResp.Error.Code)
	}
}

func TestTablesCRUD(t *testing.T) {
	app := testApp(t, storetest.New(t))

	// 1. Create
	resp := doRequest(t, app, "POST", "/api/tables/team_members", map[string]any{
		"name":          "Ana",
		"role":          "Designer",
		"skills":        []string{"Figma", "UX"},
		"display_order": 0,
		"id":            "tmp-ignored",
	})
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var created dataResponse
	_ = json.Unmarshal(readBody(t, resp), &created)
	id, _ := created.Data["id"].(string)
	if id == "" || id == "tmp-ignored" {
		t.Fatalf("expected a server generated id, got %q", id)
	}
	if created.Data["is_visible"] != true {
		t.Fatalf("expected is_visible default true, got %v", created.Data["is_visible"])
	}
	skills, _ := created.Data["skills"].([]any)
	if len(skills) != 2 || skills[0] != "Figma" {
		t.Fatalf("expected decoded skills, got %#v", created.Data["skills"])
	}

	// 2. Update
	resp = doRequest(t, app, "PATCH", "/api/tables/team_members/"+id, map[string]any{"role": "Lead Designer", "is_visible": false})
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var updated dataResponse
	_ = json.Unmarshal(readBody(t, resp), &updated)
	if updated.Data["role"] != "Lead Designer" || updated.Data["is_visible"] != false {
		t.Fatalf("update not applied: %v", updated.Data)
	}

	// 3. List with filter and order
	resp = doRequest(t, app, "GET", "/api/tables/team_members?filter[is_visible]=false&order=display_order.asc", nil)
	var list listResponse
	_ = json.Unmarshal(readBody(t, resp), &list)
	if len(list.Data) != 1 || list.Meta["total"] != float64(1) {
		t.Fatalf("expected one hidden member, got %d (meta %v)", len(list.Data), list.Meta)
	}

	// 4. Delete, then 404
	resp = doRequest(t, app, "DELETE", "/api/tables/team_members/"+id, nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 on delete, got %d", resp.StatusCode)
	}
	resp = doRequest(t, app, "GET", "/api/tables/team_members/"+id, nil)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestCreate_ValidationFailed(t *testing.T) {
	app := testApp(t, storetest.New(t))

	resp := doRequest(t, app, "POST", "/api/tables/testimonials", map[string]any{"client_name": "", "rating": 7})
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	var errResp engine.ErrorResponse
	_ = json.Unmarshal(readBody(t, resp), &errResp)
	if errResp.Error.Code != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %s", errResp.Error.Code)
	}
	fields := map[string]bool{}
	for _, d := range errResp.Error.Details {
		fields[d.Field] = true
	}
	if !fields["client_name"] || !fields["rating"] {
		t.Fatalf("expected client_name and rating details, got %+v", errResp.Error.Details)
	}
}

func TestCreateDuplicate_Returns409(t *testing.T) {
	app := testApp(t, storetest.New(t))

	body := map[string]any{"setting_key": "primary_color", "setting_value": "#112233", "category": "colors"}
	if resp := doRequest(t, app, "POST", "/api/tables/site_settings", body); resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	resp := doRequest(t, app, "POST", "/api/tables/site_settings", body)
	if resp.StatusCode != 409 {
		t.Fatalf("expected 409 for duplicate key, got %d", resp.StatusCode)
	}
}

func TestList_UnknownFilterField(t *testing.T) {
	app := testApp(t, storetest.New(t))

	resp := doRequest(t, app, "GET", "/api/tables/services?filter[nope]=1", nil)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
