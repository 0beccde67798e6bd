package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/deliverynote-service/internal/auth"
	"github.com/spec-kit/deliverynote-service/internal/domain"
	"github.com/spec-kit/deliverynote-service/internal/events"
	apperrors "github.com/spec-kit/deliverynote-service/pkg/util"
)

func sequentialCodes(f *fixture) {
	n := 0
	f.auth.newCode = func() (string, error) {
		n++
		return fmt.Sprintf("%06d", 100000+n), nil
	}
}

func TestRegisterIssuesFreshCodePerAccount(t *testing.T) {
	f := newFixture(t)
	sequentialCodes(f)
	ctx := context.Background()

	first, token, err := f.auth.Register(ctx, CredentialsInput{Email: "A@Example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", first.Email)
	assert.Equal(t, domain.UserStatusPending, first.Status)
	assert.Equal(t, domain.RoleUser, first.Role)
	assert.Equal(t, domain.DefaultVerificationAttempts, first.Attempts)
	assert.NotEmpty(t, token.Token)

	second, _, err := f.auth.Register(ctx, CredentialsInput{Email: "b@example.com", Password: "password2"})
	require.NoError(t, err)
	assert.NotEqual(t, first.VerificationCode, second.VerificationCode)

	registered := f.events.ofType(events.EventUserRegistered)
	require.Len(t, registered, 2)
	assert.Equal(t, first.VerificationCode, registered[0].Payload.(events.UserRegisteredPayload).Code)
	assert.Equal(t, second.VerificationCode, registered[1].Payload.(events.UserRegisteredPayload).Code)

	claims, err := f.auth.TokenManager().ParseToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, first.ID, claims.Subject)
}

func TestRegisterGrantsConfiguredAdmins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cfg := testConfig()
	cfg.Auth.AdminEmails = []string{"Owner@Example.com"}
	f.auth = NewAuthService(cfg, AuthDependencies{
		UserRepo:          f.store.Users(),
		PasswordResetRepo: f.store.PasswordResets(),
		Uploader:          f.uploader,
		Dispatcher:        f.dispatcher,
	})

	owner, _, err := f.auth.Register(ctx, CredentialsInput{Email: "owner@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, owner.Role)

	member, _, err := f.auth.Register(ctx, CredentialsInput{Email: "member@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, member.Role)

	admin := auth.NewPrincipal(owner)
	guest, err := f.auth.InviteGuest(ctx, admin, "guest@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleGuest, guest.Role)

	promoted, err := f.auth.UpdateRole(ctx, admin, guest.ID, domain.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, promoted.Role)
}

func TestRegisterValidationAndConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.auth.Register(ctx, CredentialsInput{Email: "nope", Password: "password1"})
	requireCode(t, err, apperrors.CodeValidation)
	_, _, err = f.auth.Register(ctx, CredentialsInput{Email: "a@example.com", Password: "short"})
	requireCode(t, err, apperrors.CodeValidation)
	_, _, err = f.auth.Register(ctx, CredentialsInput{Email: "a@example.com", Password: "this-password-is-far-too-long-to-accept"})
	requireCode(t, err, apperrors.CodeValidation)

	_, _, err = f.auth.Register(ctx, CredentialsInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	_, _, err = f.auth.Register(ctx, CredentialsInput{Email: "a@example.com", Password: "password1"})
	requireCode(t, err, apperrors.CodeConflict)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.auth.Register(ctx, CredentialsInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	user, token, err := f.auth.Login(ctx, CredentialsInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", user.Email)
	assert.NotEmpty(t, token.Token)

	_, _, err = f.auth.Login(ctx, CredentialsInput{Email: "a@example.com", Password: "password2"})
	requireCode(t, err, apperrors.CodeUnauthorized)
	_, _, err = f.auth.Login(ctx, CredentialsInput{Email: "ghost@example.com", Password: "password1"})
	requireCode(t, err, apperrors.CodeUnauthorized)
}

func TestValidateEmailConsumesAttempts(t *testing.T) {
	f := newFixture(t)
	sequentialCodes(f)
	ctx := context.Background()
	user, _, err := f.auth.Register(ctx, CredentialsInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	p := auth.NewPrincipal(user)

	_, err = f.auth.ValidateEmail(ctx, p, "12")
	requireCode(t, err, apperrors.CodeValidation)

	for remaining := domain.DefaultVerificationAttempts - 1; remaining >= 0; remaining-- {
		_, err = f.auth.ValidateEmail(ctx, p, "999999")
		requireCode(t, err, apperrors.CodeValidation)
		assert.Equal(t, remaining, apperrors.ToDomainError(err).Details["attempts_remaining"])
	}

	_, err = f.auth.ValidateEmail(ctx, p, user.VerificationCode)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestValidateEmailSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, _, err := f.auth.Register(ctx, CredentialsInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	p := auth.NewPrincipal(user)

	validated, err := f.auth.ValidateEmail(ctx, p, user.VerificationCode)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusValidated, validated.Status)
	assert.Empty(t, validated.VerificationCode)

	_, err = f.auth.ValidateEmail(ctx, p, user.VerificationCode)
	requireCode(t, err, apperrors.CodeState)
}

func TestOnboardingMergesFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.user(t, "a@example.com", domain.RoleUser, "")
	name, nif, company := "Ana", "12345678Z", "Acme SL"

	user, err := f.auth.Onboarding(ctx, p, OnboardingInput{
		Name:    &name,
		NIF:     &nif,
		Company: &CompanyInput{Name: &company},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "12345678Z", user.NIF)
	require.NotNil(t, user.Company)
	assert.Equal(t, "Acme SL", user.Company.Name)
	assert.Equal(t, p.ID(), auth.ScopeOf(user))

	empty := " "
	_, err = f.auth.Onboarding(ctx, p, OnboardingInput{Surname: &empty})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestInviteGuest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "admin@example.com", domain.RoleAdmin, "")
	f.user(t, "taken@example.com", domain.RoleUser, "")

	_, err := f.auth.InviteGuest(ctx, admin, "taken@example.com")
	requireCode(t, err, apperrors.CodeConflict)
	assert.Empty(t, f.events.ofType(events.EventGuestInvited))

	guest, err := f.auth.InviteGuest(ctx, admin, "guest@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleGuest, guest.Role)
	assert.Equal(t, domain.UserStatusPending, guest.Status)
	require.NotNil(t, guest.CompanyID)
	assert.Equal(t, admin.ID(), *guest.CompanyID)

	invited := f.events.ofType(events.EventGuestInvited)
	require.Len(t, invited, 1)
	payload := invited[0].Payload.(events.GuestInvitedPayload)
	assert.Equal(t, "guest@example.com", payload.Email)
	assert.NoError(t, auth.ComparePassword(guest.PasswordHash, payload.TemporaryPassword))

	acme := f.client(t, admin, "Acme")
	_, err = f.clients.Get(ctx, auth.NewPrincipal(guest), acme.ID)
	require.NoError(t, err)

	user := f.user(t, "user@example.com", domain.RoleUser, "")
	_, err = f.auth.InviteGuest(ctx, user, "other@example.com")
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestUpdateRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "admin@example.com", domain.RoleAdmin, "")
	member := f.user(t, "member@example.com", domain.RoleGuest, admin.ID())
	outsider := f.user(t, "out@example.com", domain.RoleUser, "")

	updated, err := f.auth.UpdateRole(ctx, admin, member.ID(), domain.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, updated.Role)

	_, err = f.auth.UpdateRole(ctx, admin, member.ID(), domain.RoleGuest)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.auth.UpdateRole(ctx, admin, outsider.ID(), domain.RoleAdmin)
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = f.auth.UpdateRole(ctx, outsider, admin.ID(), domain.RoleUser)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.auth.Register(ctx, CredentialsInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	require.NoError(t, f.auth.ForgotPassword(ctx, "a@example.com"))
	requested := f.events.ofType(events.EventPasswordResetRequested)
	require.Len(t, requested, 1)
	code := requested[0].Payload.(events.PasswordResetRequestedPayload).Code

	err = f.auth.ResetPassword(ctx, ResetPasswordInput{Email: "a@example.com", Code: "000000", NewPassword: "new-password-1"})
	requireCode(t, err, apperrors.CodeValidation)

	require.NoError(t, f.auth.ResetPassword(ctx, ResetPasswordInput{Email: "a@example.com", Code: code, NewPassword: "new-password-1"}))
	_, _, err = f.auth.Login(ctx, CredentialsInput{Email: "a@example.com", Password: "new-password-1"})
	require.NoError(t, err)

	err = f.auth.ResetPassword(ctx, ResetPasswordInput{Email: "a@example.com", Code: code, NewPassword: "another-pass"})
	requireCode(t, err, apperrors.CodeValidation)

	require.NoError(t, f.auth.ForgotPassword(ctx, "ghost@example.com"))
	assert.Len(t, f.events.ofType(events.EventPasswordResetRequested), 1)
}

func TestForgotPasswordHidesMissingAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gone := f.user(t, "gone@example.com", domain.RoleUser, "")
	require.NoError(t, f.auth.DeleteAccount(ctx, gone, false))

	require.NoError(t, f.auth.ForgotPassword(ctx, "ghost@example.com"))
	require.NoError(t, f.auth.ForgotPassword(ctx, "gone@example.com"))
	assert.Empty(t, f.events.ofType(events.EventPasswordResetRequested))

	requireCode(t, f.auth.ForgotPassword(ctx, "not-an-email"), apperrors.CodeValidation)

	err := f.auth.ResetPassword(ctx, ResetPasswordInput{Email: "ghost@example.com", Code: "123456", NewPassword: "new-password-1"})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestPasswordResetAllowsLoginWithLongPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.auth.Register(ctx, CredentialsInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	require.NoError(t, f.auth.ForgotPassword(ctx, "a@example.com"))
	code := f.events.ofType(events.EventPasswordResetRequested)[0].Payload.(events.PasswordResetRequestedPayload).Code

	const long = "a-twenty-char-passwd"
	require.NoError(t, f.auth.ResetPassword(ctx, ResetPasswordInput{Email: "a@example.com", Code: code, NewPassword: long}))
	_, token, err := f.auth.Login(ctx, CredentialsInput{Email: "a@example.com", Password: long})
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)

	_, _, err = f.auth.Register(ctx, CredentialsInput{Email: "b@example.com", Password: long})
	require.NoError(t, err)
}

func TestPasswordResetExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.auth.Register(ctx, CredentialsInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	require.NoError(t, f.auth.ForgotPassword(ctx, "a@example.com"))
	code := f.events.ofType(events.EventPasswordResetRequested)[0].Payload.(events.PasswordResetRequestedPayload).Code

	f.auth.now = func() time.Time { return time.Now().Add(time.Hour) }
	err = f.auth.ResetPassword(ctx, ResetPasswordInput{Email: "a@example.com", Code: code, NewPassword: "new-password-1"})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestLogoutAndDeleteRevokeToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.user(t, "a@example.com", domain.RoleUser, "")
	p.TokenID = "token-1"
	p.ExpiresAt = time.Now().Add(time.Hour)

	require.NoError(t, f.auth.Logout(ctx, p))
	revoked, err := f.auth.Revocations().IsRevoked(ctx, "token-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	p.TokenID = "token-2"
	require.NoError(t, f.auth.DeleteAccount(ctx, p, false))
	user, err := f.store.Users().GetByID(ctx, p.ID())
	require.NoError(t, err)
	assert.True(t, user.IsDeleted())
	revoked, err = f.auth.Revocations().IsRevoked(ctx, "token-2")
	require.NoError(t, err)
	assert.True(t, revoked)

	hard := f.user(t, "b@example.com", domain.RoleAdmin, "")
	require.NoError(t, f.auth.DeleteAccount(ctx, hard, true))
	_, err = f.store.Users().GetByID(ctx, hard.ID())
	assert.Error(t, err)

	guest := f.user(t, "g@example.com", domain.RoleGuest, hard.ID())
	requireCode(t, f.auth.DeleteAccount(ctx, guest, false), apperrors.CodeForbidden)
}

func TestUploadLogo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.user(t, "a@example.com", domain.RoleUser, "")

	_, err := f.auth.UploadLogo(ctx, p, bytes.Repeat([]byte("x"), 65), "logo.png")
	requireCode(t, err, apperrors.CodeValidation)

	user, err := f.auth.UploadLogo(ctx, p, []byte("png"), "logo.png")
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.test/ipfs/logo.png", user.LogoURL)

	f.uploader.err = fmt.Errorf("gateway timeout")
	_, err = f.auth.UploadLogo(ctx, p, []byte("png"), "logo.png")
	requireCode(t, err, apperrors.CodeUpstream)
}
