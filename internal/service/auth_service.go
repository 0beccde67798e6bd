package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/deliverynote-service/internal/auth"
	"github.com/spec-kit/deliverynote-service/internal/config"
	"github.com/spec-kit/deliverynote-service/internal/domain"
	"github.com/spec-kit/deliverynote-service/internal/events"
	"github.com/spec-kit/deliverynote-service/internal/observability"
	"github.com/spec-kit/deliverynote-service/internal/repository"
	"github.com/spec-kit/deliverynote-service/internal/storage"
	apperrors "github.com/spec-kit/deliverynote-service/pkg/util"
)

// Password bounds shared by register, login and reset.
const (
	minPasswordLen = 8
	maxPasswordLen = 32
)

// AuthService coordinates account, credential and membership flows.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	tokens     *auth.TokenManager
	revoked    auth.RevocationList
	uploader   storage.Uploader
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	bcryptCost int
	admins     map[string]struct{}
	resetTTL   time.Duration
	maxUpload  int64
	now        func() time.Time
	newCode    func() (string, error)
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Revocations       auth.RevocationList
	Uploader          storage.Uploader
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
	Metrics           *observability.Metrics
}

// AuthToken is an issued access token.
type AuthToken struct {
	Token     string
	ExpiresAt time.Time
}

// CredentialsInput is used for registration and login.
type CredentialsInput struct {
	Email    string
	Password string
}

// OnboardingInput carries optional personal and company data. Nil fields are left unchanged.
type OnboardingInput struct {
	Name    *string
	Surname *string
	NIF     *string
	Company *CompanyInput
}

// CompanyInput carries optional company fields.
type CompanyInput struct {
	Name    *string
	CIF     *string
	Address *string
}

// ResetPasswordInput redeems a reset code.
type ResetPasswordInput struct {
	Email       string
	Code        string
	NewPassword string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	admins := make(map[string]struct{}, len(cfg.Auth.AdminEmails))
	for _, email := range cfg.Auth.AdminEmails {
		admins[normalizeEmail(email)] = struct{}{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	revoked := deps.Revocations
	if revoked == nil {
		revoked = auth.NewMemoryRevocationList()
	}
	return &AuthService{
		users:      deps.UserRepo,
		resets:     deps.PasswordResetRepo,
		tokens:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		revoked:    revoked,
		uploader:   deps.Uploader,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		bcryptCost: cfg.Auth.BcryptCost,
		admins:     admins,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		maxUpload:  cfg.Assets.MaxUploadBytes,
		now:        time.Now,
		newCode:    auth.NewVerificationCode,
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Revocations exposes the revocation list for middleware usage.
func (s *AuthService) Revocations() auth.RevocationList {
	return s.revoked
}

// Register creates a pending account and emails a fresh verification code.
// Emails listed in the admin config register as admins.
func (s *AuthService) Register(ctx context.Context, input CredentialsInput) (*domain.User, AuthToken, error) {
	email := normalizeEmail(input.Email)
	errs := fieldErrors{}
	errs.email("email", email)
	errs.length("password", input.Password, minPasswordLen, maxPasswordLen)
	if err := errs.err("invalid registration"); err != nil {
		return nil, AuthToken{}, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, AuthToken{}, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, AuthToken{}, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, AuthToken{}, apperrors.NewInternalError(err)
	}
	code, err := s.newCode()
	if err != nil {
		return nil, AuthToken{}, apperrors.NewInternalError(err)
	}

	role := domain.RoleUser
	if _, ok := s.admins[email]; ok {
		role = domain.RoleAdmin
	}
	user := &domain.User{
		Email:            email,
		PasswordHash:     hash,
		Status:           domain.UserStatusPending,
		Role:             role,
		VerificationCode: code,
		Attempts:         domain.DefaultVerificationAttempts,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, AuthToken{}, repoError(err, "user", map[string]any{"email": email})
	}
	s.metrics.RecordCreated("user")

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventUserRegistered,
		SubjectID: user.ID,
		ActorID:   user.ID,
		Payload:   events.UserRegisteredPayload{Email: user.Email, Code: code},
	})

	token, err := s.issue(user)
	if err != nil {
		return nil, AuthToken{}, err
	}
	return user, token, nil
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, input CredentialsInput) (*domain.User, AuthToken, error) {
	email := normalizeEmail(input.Email)
	errs := fieldErrors{}
	errs.email("email", email)
	errs.length("password", input.Password, minPasswordLen, maxPasswordLen)
	if err := errs.err("invalid credentials payload"); err != nil {
		return nil, AuthToken{}, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, AuthToken{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, AuthToken{}, apperrors.NewInternalError(err)
	}
	if user.IsDeleted() {
		return nil, AuthToken{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, input.Password); err != nil {
		return nil, AuthToken{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, AuthToken{}, err
	}
	return user, token, nil
}

// ValidateEmail checks the verification code. Each wrong code consumes an attempt;
// with none left the account can no longer be validated.
func (s *AuthService) ValidateEmail(ctx context.Context, p *auth.Principal, code string) (*domain.User, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	errs := fieldErrors{}
	errs.code("code", code)
	if err := errs.err("invalid verification code"); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, p.ID())
	if err != nil {
		return nil, repoError(err, "user", nil)
	}
	if user.Status == domain.UserStatusValidated {
		return nil, apperrors.NewStateError("email already validated", nil)
	}
	if user.Attempts <= 0 {
		return nil, apperrors.NewForbidden("no verification attempts left")
	}

	if user.VerificationCode == "" || user.VerificationCode != code {
		user.Attempts--
		if err := s.users.Update(ctx, user); err != nil {
			return nil, repoError(err, "user", nil)
		}
		return nil, apperrors.NewValidationError("invalid verification code", map[string]any{
			"code":               "does not match",
			"attempts_remaining": user.Attempts,
		})
	}

	user.Status = domain.UserStatusValidated
	user.VerificationCode = ""
	user.Attempts = domain.DefaultVerificationAttempts
	if err := s.users.Update(ctx, user); err != nil {
		return nil, repoError(err, "user", nil)
	}
	return user, nil
}

// Me returns the caller's current account.
func (s *AuthService) Me(ctx context.Context, p *auth.Principal) (*domain.User, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, p.ID())
	if err != nil {
		return nil, repoError(err, "user", nil)
	}
	return user, nil
}

// Onboarding completes personal and company data.
func (s *AuthService) Onboarding(ctx context.Context, p *auth.Principal, input OnboardingInput) (*domain.User, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	errs := fieldErrors{}
	errs.optionalNonEmpty("name", input.Name)
	errs.optionalNonEmpty("surname", input.Surname)
	errs.optionalNonEmpty("nif", input.NIF)
	if input.Company != nil {
		errs.optionalNonEmpty("company.name", input.Company.Name)
		errs.optionalNonEmpty("company.cif", input.Company.CIF)
		errs.optionalNonEmpty("company.address", input.Company.Address)
	}
	if err := errs.err("invalid onboarding data"); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, p.ID())
	if err != nil {
		return nil, repoError(err, "user", nil)
	}
	assign(&user.Name, input.Name)
	assign(&user.Surname, input.Surname)
	assign(&user.NIF, input.NIF)
	if input.Company != nil {
		if user.Company == nil {
			user.Company = &domain.Company{}
		}
		assign(&user.Company.Name, input.Company.Name)
		assign(&user.Company.CIF, input.Company.CIF)
		assign(&user.Company.Address, input.Company.Address)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, repoError(err, "user", nil)
	}
	return user, nil
}

// DeleteAccount soft-deletes (status deleted) or removes the caller's account and
// revokes the current token.
func (s *AuthService) DeleteAccount(ctx context.Context, p *auth.Principal, hard bool) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	if !auth.HasRole(p, domain.RoleAdmin, domain.RoleUser) {
		return apperrors.NewForbidden("insufficient role")
	}

	if hard {
		if err := s.users.Delete(ctx, p.ID()); err != nil {
			return repoError(err, "user", nil)
		}
	} else {
		user, err := s.users.GetByID(ctx, p.ID())
		if err != nil {
			return repoError(err, "user", nil)
		}
		user.Status = domain.UserStatusDeleted
		if err := s.users.Update(ctx, user); err != nil {
			return repoError(err, "user", nil)
		}
	}
	s.logger.Info("account deleted", zap.String("user_id", p.ID()), zap.Bool("hard", hard))
	return s.revoke(ctx, p)
}

// Logout revokes the caller's token until it expires.
func (s *AuthService) Logout(ctx context.Context, p *auth.Principal) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	return s.revoke(ctx, p)
}

// ForgotPassword stores a one-time reset code and emails it. Unknown and deleted
// accounts get the same result without a mail.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	errs := fieldErrors{}
	errs.email("email", email)
	if err := errs.err("invalid email"); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return apperrors.NewInternalError(err)
	}
	if user.IsDeleted() {
		return nil
	}

	code, err := s.newCode()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	reset := &domain.PasswordReset{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return apperrors.NewInternalError(err)
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventPasswordResetRequested,
		SubjectID: user.ID,
		Payload: events.PasswordResetRequestedPayload{
			Email:     user.Email,
			Code:      code,
			ExpiresAt: reset.ExpiresAt,
		},
	})
	return nil
}

// ResetPassword redeems a reset code and sets a new password.
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	email := normalizeEmail(input.Email)
	errs := fieldErrors{}
	errs.email("email", email)
	errs.code("code", input.Code)
	errs.length("newPassword", input.NewPassword, minPasswordLen, maxPasswordLen)
	if err := errs.err("invalid password reset"); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewValidationError("invalid or expired reset code", map[string]any{"code": "invalid"})
		}
		return apperrors.NewInternalError(err)
	}
	reset, err := s.resets.GetActive(ctx, user.ID, input.Code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewValidationError("invalid or expired reset code", map[string]any{"code": "invalid"})
		}
		return apperrors.NewInternalError(err)
	}
	if !reset.Usable(s.now()) {
		return apperrors.NewValidationError("invalid or expired reset code", map[string]any{"code": "expired"})
	}

	hash, err := auth.HashPassword(input.NewPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return repoError(err, "user", nil)
	}
	if err := s.resets.MarkUsed(ctx, reset.ID); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// UploadLogo pins the logo and stores its URL on the caller's account.
func (s *AuthService) UploadLogo(ctx context.Context, p *auth.Principal, data []byte, filename string) (*domain.User, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := checkUpload("logo", data, s.maxUpload); err != nil {
		return nil, err
	}

	url, err := s.uploader.Upload(ctx, data, filename)
	if err != nil {
		return nil, upstreamFailure(s.logger, s.metrics, "asset storage", err)
	}

	user, err := s.users.GetByID(ctx, p.ID())
	if err != nil {
		return nil, repoError(err, "user", nil)
	}
	user.LogoURL = url
	if err := s.users.Update(ctx, user); err != nil {
		return nil, repoError(err, "user", nil)
	}
	return user, nil
}

// InviteGuest creates a pending guest inside the caller's company and emails the
// credentials. An email that is already registered is a conflict and sends nothing.
func (s *AuthService) InviteGuest(ctx context.Context, p *auth.Principal, email string) (*domain.User, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if !auth.HasRole(p, domain.RoleAdmin) {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	email = normalizeEmail(email)
	errs := fieldErrors{}
	errs.email("email", email)
	if err := errs.err("invalid invitation"); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}

	password, err := auth.NewTemporaryPassword()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	code, err := s.newCode()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	company := p.Scope
	guest := &domain.User{
		Email:            email,
		PasswordHash:     hash,
		CompanyID:        &company,
		Status:           domain.UserStatusPending,
		Role:             domain.RoleGuest,
		VerificationCode: code,
		Attempts:         domain.DefaultVerificationAttempts,
	}
	if err := s.users.Create(ctx, guest); err != nil {
		return nil, repoError(err, "user", map[string]any{"email": email})
	}
	s.metrics.RecordCreated("guest")

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventGuestInvited,
		SubjectID: guest.ID,
		ActorID:   p.ID(),
		Payload: events.GuestInvitedPayload{
			Email:             guest.Email,
			Code:              code,
			TemporaryPassword: password,
			CompanyID:         company,
		},
	})
	return guest, nil
}

// UpdateRole changes the role of an account inside the caller's scope. Only admins
// may do so and only user and admin can be granted.
func (s *AuthService) UpdateRole(ctx context.Context, p *auth.Principal, userID string, role domain.Role) (*domain.User, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if !auth.HasRole(p, domain.RoleAdmin) {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	errs := fieldErrors{}
	errs.id("id", userID)
	if !domain.AssignableRole(role) {
		errs.add("role", "must be admin or user")
	}
	if err := errs.err("invalid role update"); err != nil {
		return nil, err
	}

	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, repoError(err, "user", map[string]any{"id": userID})
	}
	if target.IsDeleted() || !auth.CanManageUser(p, target) {
		return nil, apperrors.NewNotFound("user", map[string]any{"id": userID})
	}

	previous := target.Role
	target.Role = role
	if err := s.users.Update(ctx, target); err != nil {
		return nil, repoError(err, "user", nil)
	}
	s.logger.Info("role updated",
		zap.String("user_id", target.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(role)),
		zap.String("by", p.ID()))
	return target, nil
}

func (s *AuthService) issue(user *domain.User) (AuthToken, error) {
	token, exp, err := s.tokens.GenerateToken(user)
	if err != nil {
		return AuthToken{}, apperrors.NewInternalError(err)
	}
	return AuthToken{Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) revoke(ctx context.Context, p *auth.Principal) error {
	if p.TokenID == "" {
		return nil
	}
	if err := s.revoked.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
		return upstreamFailure(s.logger, s.metrics, "token store", err)
	}
	return nil
}

func assign(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func checkUpload(field string, data []byte, limit int64) error {
	if len(data) == 0 {
		return apperrors.NewValidationError(field+" file required", map[string]any{field: "required"})
	}
	if limit > 0 && int64(len(data)) > limit {
		return apperrors.NewValidationError(field+" too large", map[string]any{field: "exceeds upload limit", "max_bytes": limit})
	}
	return nil
}
