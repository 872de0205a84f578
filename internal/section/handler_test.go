package section_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agency-cms/internal/content"
	"agency-cms/internal/engine"
	"agency-cms/internal/metadata"
	"agency-cms/internal/section"
	"agency-cms/internal/store/storetest"
)

type sectionResponse struct {
	Data struct {
		Section string          `json:"section"`
		Status  string          `json:"status"`
		Reason  string          `json:"reason"`
		Content json.RawMessage `json:"content"`
	} `json:"data"`
}

func setup(t *testing.T) (*fiber.App, *content.Tables) {
	t.Helper()
	reg := metadata.NewRegistry()
	metadata.LoadCatalog(reg)
	tables := content.NewTables(engine.NewRepository(storetest.New(t), reg))

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var appErr *engine.AppError
			if errors.As(err, &appErr) {
				return c.Status(appErr.Status).JSON(engine.ErrorResponse{Error: appErr})
			}
			return c.SendStatus(500)
		},
	})
	section.RegisterRoutes(app, section.NewHandler(section.NewLoader(tables)))
	return app, tables
}

func get(t *testing.T, app *fiber.App, path string) (int, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestSection_EmptyTableServesDefaults(t *testing.T) {
	app, _ := setup(t)

	code, body := get(t, app, "/api/site/sections/services")
	require.Equal(t, 200, code)

	var res sectionResponse
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "services", res.Data.Section)
	assert.Equal(t, "defaulted", res.Data.Status)
	assert.Equal(t, "empty", res.Data.Reason)

	var services []content.Service
	require.NoError(t, json.Unmarshal(res.Data.Content, &services))
	assert.Len(t, services, len(content.LoadDefaults().Services))
}

func TestSection_TeamCarouselFromRows(t *testing.T) {
	app, tables := setup(t)
	ctx := t.Context()
	_, err := tables.Team.Insert(ctx, content.TeamMember{Name: "Ana", Role: "Lead", IsVisible: true, Meta: content.Meta{DisplayOrder: 0}})
	require.NoError(t, err)
	_, err = tables.Team.Insert(ctx, content.TeamMember{Name: "Bruno", Role: "Dev", IsVisible: true, Meta: content.Meta{DisplayOrder: 1}})
	require.NoError(t, err)
	_, err = tables.Team.Insert(ctx, content.TeamMember{Name: "Hidden", IsVisible: false, Meta: content.Meta{DisplayOrder: 2}})
	require.NoError(t, err)

	code, body := get(t, app, "/api/site/sections/team")
	require.Equal(t, 200, code)

	var res sectionResponse
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "loaded", res.Data.Status)

	var slides struct {
		Items    []content.TeamMember `json:"items"`
		Carousel struct {
			Count         int  `json:"count"`
			CanScrollPrev bool `json:"can_scroll_prev"`
			CanScrollNext bool `json:"can_scroll_next"`
		} `json:"carousel"`
	}
	require.NoError(t, json.Unmarshal(res.Data.Content, &slides))
	require.Len(t, slides.Items, 2)
	assert.Equal(t, "Ana", slides.Items[0].Name)
	assert.Equal(t, 2, slides.Carousel.Count)
	assert.False(t, slides.Carousel.CanScrollPrev)
	assert.True(t, slides.Carousel.CanScrollNext)
}

func TestSection_Unknown(t *testing.T) {
	app, _ := setup(t)
	code, _ := get(t, app, "/api/site/sections/pricing")
	assert.Equal(t, 404, code)
}

func TestPage_LoadsEverySection(t *testing.T) {
	app, _ := setup(t)
	code, body := get(t, app, "/api/site/page")
	require.Equal(t, 200, code)

	var res struct {
		Data map[string]section.Payload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	for _, name := range section.Names {
		assert.Contains(t, res.Data, name)
	}
}
