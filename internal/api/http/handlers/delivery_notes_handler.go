package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/deliverynote-service/internal/api/dto"
	"github.com/spec-kit/deliverynote-service/internal/domain"
	"github.com/spec-kit/deliverynote-service/internal/service"
)

// DeliveryNotesHandler manages delivery note endpoints.
type DeliveryNotesHandler struct {
	service *service.DeliveryNoteService
}

// NewDeliveryNotesHandler constructs handler.
func NewDeliveryNotesHandler(noteService *service.DeliveryNoteService) *DeliveryNotesHandler {
	return &DeliveryNotesHandler{service: noteService}
}

func deliveryNoteInput(req dto.DeliveryNoteRequest) service.DeliveryNoteInput {
	return service.DeliveryNoteInput{
		Type:      domain.DeliveryNoteType(req.Type),
		ProjectID: req.ProjectID,
		Hours:     req.Hours,
		Materials: req.Materials,
	}
}

// Create POST /api/deliverynote.
func (h *DeliveryNotesHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.DeliveryNoteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	note, err := h.service.Create(c.UserContext(), principal, deliveryNoteInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": deliveryNoteResponse(note)})
}

// Update PUT /api/deliverynote/:id.
func (h *DeliveryNotesHandler) Update(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.DeliveryNoteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	note, err := h.service.Update(c.UserContext(), principal, c.Params("id"), deliveryNoteInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": deliveryNoteResponse(note)})
}

// List GET /api/deliverynote, optionally filtered by ?project=.
func (h *DeliveryNotesHandler) List(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	notes, err := h.service.List(c.UserContext(), principal, c.Query("project"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mapList(notes, deliveryNoteResponse)})
}

// ListArchived GET /api/deliverynote/archived/list.
func (h *DeliveryNotesHandler) ListArchived(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	notes, err := h.service.ListArchived(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mapList(notes, deliveryNoteResponse)})
}

// Get GET /api/deliverynote/:id.
func (h *DeliveryNotesHandler) Get(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	note, err := h.service.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": deliveryNoteResponse(note)})
}

// Archive PATCH /api/deliverynote/:id/archive.
func (h *DeliveryNotesHandler) Archive(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	note, err := h.service.Archive(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": deliveryNoteResponse(note)})
}

// Restore PATCH /api/deliverynote/:id/restore.
func (h *DeliveryNotesHandler) Restore(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	note, err := h.service.Restore(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": deliveryNoteResponse(note)})
}

// Delete DELETE /api/deliverynote/:id. Signed notes are refused.
func (h *DeliveryNotesHandler) Delete(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := h.service.Delete(c.UserContext(), principal, id); err != nil {
		return err
	}
	return deleted(c, id)
}

// Sign POST /api/deliverynote/:id/sign with a multipart "signature" file.
func (h *DeliveryNotesHandler) Sign(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	data, filename, err := formFile(c, "signature")
	if err != nil {
		return err
	}
	note, err := h.service.Sign(c.UserContext(), principal, c.Params("id"), data, filename)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": deliveryNoteResponse(note)})
}

// PDF GET /api/deliverynote/pdf/:id streams the rendered document.
func (h *DeliveryNotesHandler) PDF(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	result, err := h.service.Export(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Download(result.Path, result.FileName)
}
