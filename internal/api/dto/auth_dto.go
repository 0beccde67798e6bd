package dto

import "time"

// CredentialsRequest payload for register and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ValidateEmailRequest carries the emailed verification code.
type ValidateEmailRequest struct {
	Code string `json:"code"`
}

// CompanyRequest carries optional company fields.
type CompanyRequest struct {
	Name    *string `json:"name"`
	CIF     *string `json:"cif"`
	Address *string `json:"address"`
}

// OnboardingRequest completes personal and company data. Absent fields are left unchanged.
type OnboardingRequest struct {
	Name    *string         `json:"name"`
	Surname *string         `json:"surname"`
	NIF     *string         `json:"nif"`
	Company *CompanyRequest `json:"company"`
}

// ForgotPasswordRequest asks for a reset code.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest redeems a reset code.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// InviteRequest invites a guest into the caller's company.
type InviteRequest struct {
	Email string `json:"email"`
}

// UpdateRoleRequest changes an account's role.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CompanyResponse is the company record held by a user.
type CompanyResponse struct {
	Name    string `json:"name"`
	CIF     string `json:"cif"`
	Address string `json:"address"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string           `json:"id"`
	Email     string           `json:"email"`
	Name      string           `json:"name,omitempty"`
	Surname   string           `json:"surname,omitempty"`
	NIF       string           `json:"nif,omitempty"`
	Company   *CompanyResponse `json:"company,omitempty"`
	CompanyID *string          `json:"company_id,omitempty"`
	Status    string           `json:"status"`
	Role      string           `json:"role"`
	Attempts  int              `json:"attempts"`
	LogoURL   string           `json:"logo_url,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
