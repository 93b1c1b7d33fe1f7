package auth

import "testing"

func TestAdminPolicy_IsAdmin(t *testing.T) {
	tests := []struct {
		name   string
		policy AdminPolicy
		email  string
		want   bool
	}{
		{"exact match", NewAdminPolicy("admin@islamkidszone.com", ""), "admin@islamkidszone.com", true},
		{"exact match is case-blind", NewAdminPolicy("Admin@IslamKidsZone.com", ""), "ADMIN@islamkidszone.com", true},
		{"exact match trims", NewAdminPolicy("admin@islamkidszone.com", ""), "  admin@islamkidszone.com ", true},
		{"different address", NewAdminPolicy("admin@islamkidszone.com", ""), "kid@islamkidszone.com", false},
		{"domain suffix", NewAdminPolicy("", "islamkidszone.com"), "ustadha@islamkidszone.com", true},
		{"domain with leading @", NewAdminPolicy("", "@islamkidszone.com"), "ustadha@islamkidszone.com", true},
		{"lookalike domain", NewAdminPolicy("", "islamkidszone.com"), "x@evilislamkidszone.com", false},
		{"subdomain is not the domain", NewAdminPolicy("", "islamkidszone.com"), "x@mail.islamkidszone.com.evil", false},
		{"either rule", NewAdminPolicy("owner@gmail.com", "islamkidszone.com"), "owner@gmail.com", true},
		{"empty policy allows nobody", NewAdminPolicy("", ""), "admin@islamkidszone.com", false},
		{"empty email", NewAdminPolicy("", "islamkidszone.com"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.IsAdmin(tt.email); got != tt.want {
				t.Errorf("IsAdmin(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestAdminPolicy_RoleFor(t *testing.T) {
	p := NewAdminPolicy("admin@islamkidszone.com", "")

	if got := p.RoleFor("admin@islamkidszone.com"); got != RoleAdmin {
		t.Errorf("RoleFor(admin) = %q, want %q", got, RoleAdmin)
	}
	if got := p.RoleFor("kid@example.com"); got != RoleUser {
		t.Errorf("RoleFor(kid) = %q, want %q", got, RoleUser)
	}
}

func TestValidRole(t *testing.T) {
	if !ValidRole(RoleAdmin) || !ValidRole(RoleUser) {
		t.Error("known roles should be valid")
	}
	if ValidRole("superuser") || ValidRole("") {
		t.Error("unknown roles should be invalid")
	}
}
