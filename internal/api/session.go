package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/somesimplify/somectl/internal/model"
)

// GetUser fetches the identity behind the bearer token.
// A 403 response means the identity has no provisioned account.
func (c *Client) GetUser(ctx context.Context) (model.Session, error) {
	var s model.Session
	if err := c.do(ctx, c.logger, request{method: http.MethodGet, path: "/user"}, &s); err != nil {
		return model.Session{}, err
	}
	s.Authenticated = true
	return s, nil
}

// ListTenants returns the tenants the session is entitled to.
func (c *Client) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	if err := c.do(ctx, c.logger, request{method: http.MethodGet, path: "/tenants"}, &tenants); err != nil {
		return nil, err
	}
	return tenants, nil
}

// GetTenant fetches a single tenant by ID.
func (c *Client) GetTenant(ctx context.Context, id string) (model.Tenant, error) {
	var t model.Tenant
	err := c.do(ctx, c.logger, request{method: http.MethodGet, path: "/tenant/" + url.PathEscape(id)}, &t)
	return t, err
}

// CreateTenant creates a tenant and returns its ID.
func (c *Client) CreateTenant(ctx context.Context, name string) (string, error) {
	body, err := jsonBody(model.CreateTenantRequest{Name: name})
	if err != nil {
		return "", err
	}

	var id string
	err = c.do(ctx, c.logger, request{
		method:      http.MethodPost,
		path:        "/tenant",
		body:        body,
		contentType: "application/json",
	}, &id)
	return strings.TrimSpace(id), err
}
