package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/logging"
	"github.com/somesimplify/somectl/internal/model"
)

// dateLayout is the wire format of fromDate/toDate query parameters.
const dateLayout = "2006-01-02"

// TenantClient issues requests on behalf of one tenant.
type TenantClient struct {
	client   *Client
	tenantID string
	logger   *logging.Logger
}

// TenantID returns the tenant this client is scoped to.
func (t *TenantClient) TenantID() string {
	return t.tenantID
}

func (t *TenantClient) do(ctx context.Context, req request, out any) error {
	req.tenantID = t.tenantID
	err := t.client.do(ctx, t.logger, req, out)

	// A 403 on a tenant-scoped call means the stored selection is no longer
	// valid for this session.
	if errors.StatusCode(err) == http.StatusForbidden {
		return errors.NewTenantError("tenant access denied", errors.Join(errors.ErrTenantForbidden, err)).
			WithTenantID(t.tenantID)
	}
	return err
}

// -----------------------------------------------------------------------------
// Posts
// -----------------------------------------------------------------------------

// ListPosts returns the tenant's posts matching filter.
func (t *TenantClient) ListPosts(ctx context.Context, filter model.PostFilter) ([]model.Post, error) {
	q := url.Values{}
	if !filter.From.IsZero() {
		q.Set("fromDate", filter.From.Format(dateLayout))
	}
	if !filter.To.IsZero() {
		q.Set("toDate", filter.To.Format(dateLayout))
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}

	var posts []model.Post
	if err := t.do(ctx, request{method: http.MethodGet, path: "/posts", query: q}, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost fetches a single post.
func (t *TenantClient) GetPost(ctx context.Context, id string) (model.Post, error) {
	var p model.Post
	err := t.do(ctx, request{method: http.MethodGet, path: "/posts/" + url.PathEscape(id)}, &p)
	return p, err
}

// UpdatePost applies a partial update. Every call carries a fresh
// idempotency key.
func (t *TenantClient) UpdatePost(ctx context.Context, id string, update model.UpdatePost) (model.Post, error) {
	body, err := jsonBody(update)
	if err != nil {
		return model.Post{}, err
	}

	var p model.Post
	err = t.do(ctx, request{
		method:      http.MethodPatch,
		path:        "/posts/" + url.PathEscape(id),
		body:        body,
		contentType: "application/json",
		idempotent:  true,
	}, &p)
	return p, err
}

// SuggestedDate asks the backend for the next recommended publish time.
func (t *TenantClient) SuggestedDate(ctx context.Context) (time.Time, error) {
	var sd model.SuggestedDate
	if err := t.do(ctx, request{method: http.MethodGet, path: "/posts/suggested-date"}, &sd); err != nil {
		return time.Time{}, err
	}
	return sd.SuggestedDate, nil
}

// -----------------------------------------------------------------------------
// Images
// -----------------------------------------------------------------------------

// ListImages returns the tenant's content library.
func (t *TenantClient) ListImages(ctx context.Context) ([]model.Image, error) {
	var images []model.Image
	if err := t.do(ctx, request{method: http.MethodGet, path: "/images"}, &images); err != nil {
		return nil, err
	}
	return images, nil
}

// UploadImage sends one file as multipart form field "file".
func (t *TenantClient) UploadImage(ctx context.Context, fileName, contentType string, r io.Reader) (model.Image, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(fileName)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return model.Image{}, fmt.Errorf("create form part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return model.Image{}, fmt.Errorf("read %s: %w", fileName, err)
	}
	if err := mw.Close(); err != nil {
		return model.Image{}, fmt.Errorf("finish form: %w", err)
	}

	var img model.Image
	err = t.do(ctx, request{
		method:      http.MethodPost,
		path:        "/images",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}, &img)
	return img, err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// DeleteImage removes an image from the library.
func (t *TenantClient) DeleteImage(ctx context.Context, id string) error {
	return t.do(ctx, request{method: http.MethodDelete, path: "/images/" + url.PathEscape(id)}, nil)
}

// -----------------------------------------------------------------------------
// Tenant profile and onboarding
// -----------------------------------------------------------------------------

// GetProfile returns the tenant profile. A tenant without a profile yields
// the zero value and no error.
func (t *TenantClient) GetProfile(ctx context.Context) (model.TenantProfile, error) {
	var p model.TenantProfile
	err := t.do(ctx, request{method: http.MethodGet, path: "/tenant/profile"}, &p)
	if errors.Is(err, errors.ErrNotFound) {
		return model.TenantProfile{}, nil
	}
	return p, err
}

// SaveProfile creates or replaces the tenant profile.
func (t *TenantClient) SaveProfile(ctx context.Context, p model.TenantProfile) (model.TenantProfile, error) {
	body, err := jsonBody(p)
	if err != nil {
		return model.TenantProfile{}, err
	}

	var saved model.TenantProfile
	err = t.do(ctx, request{
		method:      http.MethodPut,
		path:        "/tenant/profile",
		body:        body,
		contentType: "application/json",
	}, &saved)
	return saved, err
}

// OnboardingStatus reports which onboarding steps the tenant has completed.
func (t *TenantClient) OnboardingStatus(ctx context.Context) (model.OnboardingStatus, error) {
	var s model.OnboardingStatus
	err := t.do(ctx, request{method: http.MethodGet, path: "/tenant/onboarding-status"}, &s)
	return s, err
}

// -----------------------------------------------------------------------------
// Instagram
// -----------------------------------------------------------------------------

// InstagramConnection returns the tenant's Instagram link, or nil when the
// tenant is not connected.
func (t *TenantClient) InstagramConnection(ctx context.Context) (*model.SocialConnection, error) {
	var c model.SocialConnection
	err := t.do(ctx, request{method: http.MethodGet, path: "/instagram/connection"}, &c)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if c.AccountName == "" && c.Platform == "" {
		return nil, nil
	}
	return &c, nil
}

// InstagramAuthURL returns the URL the user must visit to connect Instagram.
func (t *TenantClient) InstagramAuthURL(ctx context.Context) (string, error) {
	var a model.AuthURL
	if err := t.do(ctx, request{method: http.MethodGet, path: "/instagram/auth-url"}, &a); err != nil {
		return "", err
	}
	return a.AuthURL, nil
}

// DisconnectInstagram removes the tenant's Instagram link.
func (t *TenantClient) DisconnectInstagram(ctx context.Context) error {
	return t.do(ctx, request{method: http.MethodDelete, path: "/instagram/connection"}, nil)
}
