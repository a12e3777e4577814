package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"ivyx/readiness-api/internal/services"
)

type ReferenceHandler struct {
	library     services.ReferenceLibrary
	maxFileSize int64
}

func NewReferenceHandler(library services.ReferenceLibrary, maxFileSize int64) *ReferenceHandler {
	return &ReferenceHandler{library: library, maxFileSize: maxFileSize}
}

// HandleUpload handles POST /api/admin/references
func (h *ReferenceHandler) HandleUpload(c *fiber.Ctx) error {
	if !h.library.Enabled() {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Reference library is not configured")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "A PDF must be uploaded in the 'file' field")
	}

	if file.Size > h.maxFileSize {
		return errorResponse(c, fiber.StatusBadRequest, fmt.Sprintf("File too large. Max size: %d bytes", h.maxFileSize))
	}

	docType := strings.TrimSpace(c.FormValue("docType"))
	if docType == "" {
		docType = "guide"
	}

	doc, err := h.library.IngestUpload(c.UserContext(), file, docType)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnsupportedFile):
			return errorResponse(c, fiber.StatusBadRequest, "Only PDF files are accepted")
		case errors.Is(err, services.ErrNoPDFText):
			return errorResponse(c, fiber.StatusBadRequest, "No text content found in PDF")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"message":  "Reference uploaded successfully",
		"document": doc,
		"chunks":   doc.ChunkCount,
	})
}

// HandleList handles GET /api/admin/references
func (h *ReferenceHandler) HandleList(c *fiber.Ctx) error {
	docs, err := h.library.List(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"enabled":    h.library.Enabled(),
		"references": docs,
		"total":      len(docs),
	})
}
