package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/deliverynote-service/internal/api/dto"
	"github.com/spec-kit/deliverynote-service/internal/service"
)

// ProjectsHandler manages project endpoints.
type ProjectsHandler struct {
	service *service.ProjectService
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(projectService *service.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{service: projectService}
}

func projectInput(req dto.ProjectRequest) service.ProjectInput {
	return service.ProjectInput{Name: req.Name, Description: req.Description, ClientID: req.ClientID}
}

// Create POST /api/project.
func (h *ProjectsHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ProjectRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	project, err := h.service.Create(c.UserContext(), principal, projectInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": projectResponse(project)})
}

// Update PUT /api/project/:id.
func (h *ProjectsHandler) Update(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ProjectRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	project, err := h.service.Update(c.UserContext(), principal, c.Params("id"), projectInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": projectResponse(project)})
}

// List GET /api/project, optionally filtered by ?client=.
func (h *ProjectsHandler) List(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	projects, err := h.service.List(c.UserContext(), principal, c.Query("client"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mapList(projects, projectResponse)})
}

// ListArchived GET /api/project/archived/list.
func (h *ProjectsHandler) ListArchived(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	projects, err := h.service.ListArchived(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mapList(projects, projectResponse)})
}

// Get GET /api/project/:id.
func (h *ProjectsHandler) Get(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	project, err := h.service.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": projectResponse(project)})
}

// Archive PATCH /api/project/:id/archive.
func (h *ProjectsHandler) Archive(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	project, err := h.service.Archive(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": projectResponse(project)})
}

// Restore PATCH /api/project/:id/restore.
func (h *ProjectsHandler) Restore(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	project, err := h.service.Restore(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": projectResponse(project)})
}

// Delete DELETE /api/project/:id.
func (h *ProjectsHandler) Delete(c *fiber.Ctx) error {
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
