package auth

import (
	"time"

	"github.com/spec-kit/deliverynote-service/internal/domain"
	"github.com/spec-kit/deliverynote-service/internal/repository"
)

// Principal represents the authenticated caller.
type Principal struct {
	User      *domain.User
	Scope     string
	TokenID   string
	ExpiresAt time.Time
}

// NewPrincipal resolves the scope for user.
func NewPrincipal(user *domain.User) *Principal {
	return &Principal{User: user, Scope: ScopeOf(user)}
}

// ID returns the caller's user id.
func (p *Principal) ID() string {
	return p.User.ID
}

// Role returns the caller's role.
func (p *Principal) Role() domain.Role {
	return p.User.Role
}

// Filter returns the visibility filter for the caller.
func (p *Principal) Filter() repository.ScopeFilter {
	return repository.ScopeFilter{CreatedBy: p.User.ID, Company: p.Scope}
}

// Visible reports whether the caller may see a record: the caller created it or
// it belongs to the caller's scope.
func Visible(p *Principal, owner domain.Ownership) bool {
	if p == nil || p.User == nil {
		return false
	}
	return owner.CreatedBy == p.User.ID || owner.Company == p.Scope
}

// CanMutate reports whether the caller may change a visible record. The creator,
// an admin of the scope and the company holder may; other scope members may only read.
func CanMutate(p *Principal, owner domain.Ownership) bool {
	if !Visible(p, owner) {
		return false
	}
	switch {
	case owner.CreatedBy == p.User.ID:
		return true
	case p.User.Role == domain.RoleAdmin:
		return true
	case owner.Company == p.User.ID:
		return true
	}
	return false
}

// HasRole reports whether the caller holds one of the allowed roles.
func HasRole(p *Principal, allowed ...domain.Role) bool {
	if p == nil || p.User == nil {
		return false
	}
	for _, role := range allowed {
		if p.User.Role == role {
			return true
		}
	}
	return false
}

// CanManageUser reports whether the caller may change another account's role:
// only admins, and only for accounts inside their scope.
func CanManageUser(p *Principal, target *domain.User) bool {
	if !HasRole(p, domain.RoleAdmin) || target == nil {
		return false
	}
	return target.ID == p.Scope || ScopeOf(target) == p.Scope
}
