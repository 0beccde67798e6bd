package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/deliverynote-service/internal/api/dto"
	"github.com/spec-kit/deliverynote-service/internal/domain"
	"github.com/spec-kit/deliverynote-service/internal/service"
)

// AuthHandler exposes account endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.CredentialsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, token, err := h.auth.Register(c.UserContext(), service.CredentialsInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": userResponse(user),
			"auth": dto.AuthResponse{Token: token.Token, ExpiresAt: token.ExpiresAt},
		},
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.CredentialsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, token, err := h.auth.Login(c.UserContext(), service.CredentialsInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": userResponse(user),
			"auth": dto.AuthResponse{Token: token.Token, ExpiresAt: token.ExpiresAt},
		},
	})
}

// ValidateEmail handles POST /api/auth/validate-email.
func (h *AuthHandler) ValidateEmail(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ValidateEmailRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.auth.ValidateEmail(c.UserContext(), principal, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.auth.Me(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Onboarding handles PUT /api/auth/onboarding.
func (h *AuthHandler) Onboarding(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.OnboardingRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	input := service.OnboardingInput{Name: req.Name, Surname: req.Surname, NIF: req.NIF}
	if req.Company != nil {
		input.Company = &service.CompanyInput{Name: req.Company.Name, CIF: req.Company.CIF, Address: req.Company.Address}
	}
	user, err := h.auth.Onboarding(c.UserContext(), principal, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// DeleteAccount handles DELETE /api/auth. Accounts are soft deleted unless soft=false.
func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	hard := !c.QueryBool("soft", true)
	if err := h.auth.DeleteAccount(c.UserContext(), principal, hard); err != nil {
		return err
	}
	return deleted(c, principal.ID())
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), principal); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ForgotPassword handles POST /api/auth/password/forgot.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.auth.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"sent": true}})
}

// ResetPassword handles POST /api/auth/password/reset.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	err := h.auth.ResetPassword(c.UserContext(), service.ResetPasswordInput{
		Email:       req.Email,
		Code:        req.Code,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"reset": true}})
}

// UploadLogo handles PATCH /api/auth/logo with a multipart "logo" file.
func (h *AuthHandler) UploadLogo(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	data, filename, err := formFile(c, "logo")
	if err != nil {
		return err
	}
	user, err := h.auth.UploadLogo(c.UserContext(), principal, data, filename)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// InviteGuest handles POST /api/auth/invite.
func (h *AuthHandler) InviteGuest(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.InviteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	guest, err := h.auth.InviteGuest(c.UserContext(), principal, req.Email)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(guest)})
}

// UpdateRole handles PATCH /api/auth/:id/role.
func (h *AuthHandler) UpdateRole(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateRoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.auth.UpdateRole(c.UserContext(), principal, c.Params("id"), domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}
