// Package api implements the HTTP surface of the café scheduler.
package api

import (
	"net/http"
	"strings"
)

const (
	defaultTenant = "t_demo"
	roleAdmin     = "admin"
)

type Principal struct {
	Tenant string
	Role   string // admin, staff
}

// getPrincipal reads tenant and role from headers. Authentication is left to
// the gateway in front of the service.
func (s *Server) getPrincipal(r *http.Request) Principal {
	tenant := strings.TrimSpace(r.Header.Get("X-Tenant-Id"))
	role := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Role")))
	if tenant == "" {
		tenant = defaultTenant
	}
	if role == "" {
		role = roleAdmin
	}
	return Principal{Tenant: tenant, Role: role}
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool { return p.Role == roleAdmin }
