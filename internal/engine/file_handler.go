package engine

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"

	"agency-cms/internal/metadata"
	"agency-cms/internal/storage"
)

// FileHandler uploads files to storage and records them in the media library.
type FileHandler struct {
	repo       *Repository
	storage    storage.FileStorage
	maxSize    int64
	publicPath string
}

func NewFileHandler(repo *Repository, fs storage.FileStorage, maxSize int64, publicPath string) *FileHandler {
	return &FileHandler{repo: repo, storage: fs, maxSize: maxSize, publicPath: strings.TrimRight(publicPath, "/")}
}

// Upload handles POST /api/storage/upload (multipart: file, folder, category, alt_text).
func (h *FileHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return InvalidPayloadError("Missing file in form data")
	}

	if file.Size > h.maxSize {
		msg := fmt.Sprintf("File too large: %s (max %s)", humanize.Bytes(uint64(file.Size)), humanize.Bytes(uint64(h.maxSize)))
		return NewAppError("FILE_TOO_LARGE", 413, msg)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return fmt.Errorf("detect mime type: %w", err)
	}
	if _, err := src.Seek(0, 0); err != nil {
		return fmt.Errorf("rewind upload: %w", err)
	}

	folder := c.FormValue("folder", "general")
	category := c.FormValue("category", folder)

	key, err := h.storage.Save(c.UserContext(), folder, file.Filename, src)
	if err != nil {
		return fmt.Errorf("save file: %w", err)
	}
	url := h.storage.URL(key)

	row := map[string]any{
		"filename":  file.Filename,
		"url":       url,
		"file_type": mtype.String(),
		"size":      file.Size,
		"category":  category,
		"alt_text":  c.FormValue("alt_text"),
	}
	if strings.HasPrefix(mtype.String(), "image/") {
		row["thumbnail_url"] = url
	}

	record, err := h.repo.Insert(c.UserContext(), metadata.MediaLibrary, row)
	if err != nil {
		// Clean up stored file on DB failure
		_ = h.storage.Delete(c.UserContext(), key)
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": withHumanSize(record)})
}

// Delete handles DELETE /api/storage/object?url=... and removes both the file
// and its media library rows.
func (h *FileHandler) Delete(c *fiber.Ctx) error {
	url := c.Query("url")
	if url == "" {
		return InvalidPayloadError("url is required")
	}

	key, err := h.storage.KeyFromURL(url)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidKey) {
			return InvalidPayloadError(err.Error())
		}
		return err
	}

	if err := h.storage.Delete(c.UserContext(), key); err != nil {
		return fmt.Errorf("delete stored file: %w", err)
	}

	rows, err := h.repo.List(c.UserContext(), metadata.MediaLibrary, Eq("url", url))
	if err != nil {
		return err
	}
	for _, row := range rows {
		id, _ := row["id"].(string)
		if err := h.repo.Delete(c.UserContext(), metadata.MediaLibrary, id); err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true, "rows": len(rows)}})
}

// List handles GET /api/storage/library?category=...
func (h *FileHandler) List(c *fiber.Ctx) error {
	var filters []WhereClause
	if category := c.Query("category"); category != "" && category != "all" {
		filters = append(filters, Eq("category", category))
	}
	rows, err := h.repo.List(c.UserContext(), metadata.MediaLibrary, filters...)
	if err != nil {
		return err
	}
	for _, row := range rows {
		withHumanSize(row)
	}
	return c.JSON(fiber.Map{"data": rows})
}

// Serve handles GET <publicPath>/* and streams a stored object.
func (h *FileHandler) Serve(c *fiber.Ctx) error {
	key := c.Params("*")
	reader, err := h.storage.Open(c.UserContext(), key)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidKey) {
			return InvalidPayloadError(err.Error())
		}
		return NewAppError("NOT_FOUND", 404, fmt.Sprintf("File %s not found", key))
	}

	c.Type(strings.TrimPrefix(path.Ext(key), "."))
	c.Set("Cache-Control", "public, max-age=86400")
	// SendStream closes the reader once the body is written.
	return c.SendStream(reader)
}

func withHumanSize(row map[string]any) map[string]any {
	if n, ok := toFloat64(row["size"]); ok && n >= 0 {
		row["size_human"] = humanize.Bytes(uint64(n))
	}
	return row
}
