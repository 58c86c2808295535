package model

import "strings"

// Session is the authenticated identity of the current user. It is resolved
// once per process and never changes afterwards.
type Session struct {
	UserID    string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	// Authenticated is set by the client once the identity fetch succeeded.
	Authenticated bool `json:"-"`
}

// DisplayName returns "First Last", falling back to the email address.
func (s Session) DisplayName() string {
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name == "" {
		return s.Email
	}
	return name
}

// Tenant is an organisational workspace the session may act on behalf of.
type Tenant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FindTenant returns the tenant whose ID equals id exactly.
// The comparison is case-sensitive.
func FindTenant(tenants []Tenant, id string) (Tenant, bool) {
	if id == "" {
		return Tenant{}, false
	}
	for _, t := range tenants {
		if t.ID == id {
			return t, true
		}
	}
	return Tenant{}, false
}

// CreateTenantRequest is the body of POST /tenant.
type CreateTenantRequest struct {
	Name string `json:"name"`
}

// ErrorResponse is the body the backend sends with non-2xx responses.
type ErrorResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}
