package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/deliverynote-service/internal/api/dto"
	"github.com/spec-kit/deliverynote-service/internal/auth"
	"github.com/spec-kit/deliverynote-service/internal/domain"
	apperrors "github.com/spec-kit/deliverynote-service/pkg/util"
)

func currentPrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

// formFile reads an uploaded multipart file. A missing part yields no data so the
// service reports it as a validation failure.
func formFile(c *fiber.Ctx, field string) ([]byte, string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, "", nil
	}
	file, err := header.Open()
	if err != nil {
		return nil, "", apperrors.NewValidationError("unreadable upload", map[string]any{field: err.Error()})
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", apperrors.NewValidationError("unreadable upload", map[string]any{field: err.Error()})
	}
	return data, header.Filename, nil
}

func deleted(c *fiber.Ctx, id string) error {
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "deleted": true}})
}

func userResponse(u *domain.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Surname:   u.Surname,
		NIF:       u.NIF,
		CompanyID: u.CompanyID,
		Status:    string(u.Status),
		Role:      string(u.Role),
		Attempts:  u.Attempts,
		LogoURL:   u.LogoURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Company != nil {
		resp.Company = &dto.CompanyResponse{Name: u.Company.Name, CIF: u.Company.CIF, Address: u.Company.Address}
	}
	return resp
}

func clientResponse(cl *domain.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:        cl.ID,
		Name:      cl.Name,
		Email:     cl.ContactEmail,
		Phone:     cl.Phone,
		Address:   cl.Address,
		CreatedBy: cl.CreatedBy,
		Company:   cl.Company,
		Archived:  cl.Archived,
		CreatedAt: cl.CreatedAt,
		UpdatedAt: cl.UpdatedAt,
	}
}

func projectResponse(p *domain.Project) dto.ProjectResponse {
	return dto.ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ClientID:    p.ClientID,
		CreatedBy:   p.CreatedBy,
		Company:     p.Company,
		Archived:    p.Archived,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func deliveryNoteResponse(n *domain.DeliveryNote) dto.DeliveryNoteResponse {
	resp := dto.DeliveryNoteResponse{
		ID:           n.ID,
		Type:         string(n.Type),
		ProjectID:    n.ProjectID,
		CreatedBy:    n.CreatedBy,
		Company:      n.Company,
		Hours:        n.Hours,
		Materials:    n.Materials,
		Signed:       n.Signed,
		SignatureURL: n.SignatureURL,
		PDFURL:       n.PDFURL,
		Archived:     n.Archived,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}
	if resp.Hours == nil {
		resp.Hours = []domain.HourEntry{}
	}
	if resp.Materials == nil {
		resp.Materials = []domain.MaterialEntry{}
	}
	return resp
}

func mapList[T any, R any](items []T, fn func(*T) R) []R {
	out := make([]R, 0, len(items))
	for i := range items {
		out = append(out, fn(&items[i]))
	}
	return out
}
