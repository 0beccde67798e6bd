package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/deliverynote-service/internal/api/dto"
	"github.com/spec-kit/deliverynote-service/internal/service"
)

// ClientsHandler manages client endpoints.
type ClientsHandler struct {
	service *service.ClientService
}

// NewClientsHandler constructs handler.
func NewClientsHandler(clientService *service.ClientService) *ClientsHandler {
	return &ClientsHandler{service: clientService}
}

func clientInput(req dto.ClientRequest) service.ClientInput {
	return service.ClientInput{Name: req.Name, ContactEmail: req.Email, Phone: req.Phone, Address: req.Address}
}

// Create POST /api/client.
func (h *ClientsHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ClientRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	client, err := h.service.Create(c.UserContext(), principal, clientInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": clientResponse(client)})
}

// Update PUT /api/client/:id.
func (h *ClientsHandler) Update(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ClientRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	client, err := h.service.Update(c.UserContext(), principal, c.Params("id"), clientInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clientResponse(client)})
}

// List GET /api/client.
func (h *ClientsHandler) List(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	clients, err := h.service.List(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mapList(clients, clientResponse)})
}

// ListArchived GET /api/client/archived/list.
func (h *ClientsHandler) ListArchived(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	clients, err := h.service.ListArchived(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mapList(clients, clientResponse)})
}

// Get GET /api/client/:id.
func (h *ClientsHandler) Get(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	client, err := h.service.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clientResponse(client)})
}

// Archive PATCH /api/client/:id/archive.
func (h *ClientsHandler) Archive(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	client, err := h.service.Archive(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clientResponse(client)})
}

// Restore PATCH /api/client/:id/restore.
func (h *ClientsHandler) Restore(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	client, err := h.service.Restore(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clientResponse(client)})
}

// Delete DELETE /api/client/:id.
func (h *ClientsHandler) Delete(c *fiber.Ctx) error {
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
