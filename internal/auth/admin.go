package auth

import "strings"

// Roles a user can hold. A user has exactly one.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// AdminPolicy is the admin allowlist: one exact address and/or one domain.
//
// This is the single place the admin check lives. Every privileged route goes
// through RequireAdmin, which calls IsAdmin.
type AdminPolicy struct {
	Email  string // exact match, e.g. "admin@islamkidszone.com"
	Domain string // suffix match on "@"+Domain, e.g. "islamkidszone.com"
}

// NewAdminPolicy normalizes the configured values. A leading "@" on the
// domain is tolerated.
func NewAdminPolicy(email, domain string) AdminPolicy {
	return AdminPolicy{
		Email:  strings.ToLower(strings.TrimSpace(email)),
		Domain: strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "@")),
	}
}

// IsAdmin reports whether email is on the allowlist. An empty policy allows
// nobody, and an empty email is never an admin.
func (p AdminPolicy) IsAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	if p.Email != "" && email == p.Email {
		return true
	}
	// The "@" prefix stops "evilislamkidszone.com" matching "islamkidszone.com".
	if p.Domain != "" && strings.HasSuffix(email, "@"+p.Domain) {
		return true
	}
	return false
}

// RoleFor returns the role a newly registered account with this email gets.
func (p AdminPolicy) RoleFor(email string) string {
	if p.IsAdmin(email) {
		return RoleAdmin
	}
	return RoleUser
}

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin
}
