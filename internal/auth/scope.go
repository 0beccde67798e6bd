package auth

import "github.com/spec-kit/deliverynote-service/internal/domain"

// ScopeOf returns the tenant scope used to filter a user's queries. Members of
// another user's company are scoped to that company holder; everyone else is
// scoped to their own id, which also keys any company record they hold.
func ScopeOf(user *domain.User) string {
	if user == nil {
		return ""
	}
	if user.CompanyID != nil && *user.CompanyID != "" {
		return *user.CompanyID
	}
	return user.ID
}
