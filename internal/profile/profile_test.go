package profile

import (
	"context"
	"net/http"
	"testing"

	"github.com/somesimplify/somectl/internal/api"
	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/model"
	"github.com/somesimplify/somectl/internal/testutil"
)

func valid() model.TenantProfile {
	return model.TenantProfile{
		Address:        "Storgata 1, Oslo",
		Concept:        "Bakeri",
		TargetAudience: []string{"Studenter"},
		WebsiteURL:     "https://bakeri.example.no",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(*model.TenantProfile)
		wantFields []string
	}{
		{"valid", func(*model.TenantProfile) {}, nil},
		{"missing address", func(p *model.TenantProfile) { p.Address = "" }, []string{"address"}},
		{"unknown concept", func(p *model.TenantProfile) { p.Concept = "Sushi" }, []string{"concept"}},
		{"other concept needs text", func(p *model.TenantProfile) { p.Concept = Other }, []string{"concept_other"}},
		{"other concept with text", func(p *model.TenantProfile) { p.Concept, p.ConceptOther = Other, "Kaffebar" }, nil},
		{"no audience", func(p *model.TenantProfile) { p.TargetAudience = nil }, []string{"target_audience"}},
		{"unknown audience", func(p *model.TenantProfile) { p.TargetAudience = []string{"Pensjonister"} }, []string{"target_audience"}},
		{"other audience needs text", func(p *model.TenantProfile) { p.TargetAudience = []string{"Business", Other} }, []string{"target_audience_other"}},
		{"missing website", func(p *model.TenantProfile) { p.WebsiteURL = "" }, []string{"website_url"}},
		{"relative website", func(p *model.TenantProfile) { p.WebsiteURL = "bakeri.no" }, []string{"website_url"}},
		{"ftp website", func(p *model.TenantProfile) { p.WebsiteURL = "ftp://bakeri.no" }, []string{"website_url"}},
		{"several problems", func(p *model.TenantProfile) { *p = model.TenantProfile{} }, []string{"address", "concept", "target_audience", "website_url"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.modify(&p)
			errs := Validate(p)

			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			if len(fields) != len(tt.wantFields) {
				t.Fatalf("Validate() fields = %v, want %v", fields, tt.wantFields)
			}
			for i := range fields {
				if fields[i] != tt.wantFields[i] {
					t.Errorf("Validate() fields = %v, want %v", fields, tt.wantFields)
				}
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	p := Normalize(model.TenantProfile{
		Address:        "  Storgata 1 ",
		TargetAudience: []string{" Business", "", "Business", "Turister"},
		WebsiteURL:     " https://x.no ",
	})
	if p.Address != "Storgata 1" || p.WebsiteURL != "https://x.no" {
		t.Errorf("Normalize() = %+v", p)
	}
	if len(p.TargetAudience) != 2 || p.TargetAudience[0] != "Business" || p.TargetAudience[1] != "Turister" {
		t.Errorf("TargetAudience = %v", p.TargetAudience)
	}
}

func newTenantClient(t *testing.T) (*testutil.Backend, *api.TenantClient) {
	t.Helper()
	b := testutil.NewBackend(t)
	c, err := api.New(b.URL())
	if err != nil {
		t.Fatal(err)
	}
	return b, c.ForTenant("t-1")
}

func TestSave(t *testing.T) {
	b, tc := newTenantClient(t)
	ctx := context.Background()

	p := valid()
	p.Address = " Storgata 1, Oslo "
	saved, err := Save(ctx, tc, p)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.Address != "Storgata 1, Oslo" {
		t.Errorf("saved address = %q", saved.Address)
	}

	got, status, err := Load(ctx, tc)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Concept != "Bakeri" || !status.ProfileComplete {
		t.Errorf("Load() = %+v, %+v", got, status)
	}
	if n := len(b.RequestsTo(http.MethodPut, "/tenant/profile")); n != 1 {
		t.Errorf("PUT requests = %d, want 1", n)
	}
}

func TestSave_InvalidSendsNothing(t *testing.T) {
	b, tc := newTenantClient(t)
	p := valid()
	p.WebsiteURL = "not a url"

	_, err := Save(context.Background(), tc, p)
	if errors.Classify(err) != errors.CategoryValidation {
		t.Errorf("Save() error = %v, want validation", err)
	}
	if n := len(b.RequestsTo(http.MethodPut, "/tenant/profile")); n != 0 {
		t.Errorf("sent %d requests for an invalid profile", n)
	}
}

func TestSave_BackendFailure(t *testing.T) {
	b, tc := newTenantClient(t)
	b.Fail(http.MethodPut, "/tenant/profile", http.StatusBadGateway)

	_, err := Save(context.Background(), tc, valid())
	if errors.Classify(err) != errors.CategoryMutation {
		t.Errorf("Save() error = %v, want mutation", err)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "profile.yaml", []byte(`address: Storgata 1
concept: Annet
concept_other: Kaffebar
target_audience: [Studenter, Turister]
website_url: https://kaffe.example.no
`))

	p, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if p.ConceptOther != "Kaffebar" || len(p.TargetAudience) != 2 {
		t.Errorf("ReadFile() = %+v", p)
	}
	if errs := Validate(p); len(errs) != 0 {
		t.Errorf("Validate() = %v", errs)
	}

	bad := testutil.WriteFile(t, dir, "bad.yaml", []byte("address: [unclosed"))
	if _, err := ReadFile(bad); err == nil {
		t.Error("ReadFile() should fail on invalid YAML")
	}
}
