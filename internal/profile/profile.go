// Package profile validates and saves the tenant profile collected in the
// first onboarding step.
package profile

import (
	"context"
	"net/url"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/model"
)

// Other is the option that asks for a free-text value instead.
const Other = "Annet"

// Concepts are the accepted business concepts.
var Concepts = []string{"Bakeri", "Brun Pub", "Fine Dining", "Nattklubb", Other}

// Audiences are the accepted target audiences.
var Audiences = []string{"Studenter", "Barnefamilier", "Business", "Turister", Other}

// Backend is the slice of the tenant API the profile uses.
type Backend interface {
	GetProfile(ctx context.Context) (model.TenantProfile, error)
	SaveProfile(ctx context.Context, p model.TenantProfile) (model.TenantProfile, error)
	OnboardingStatus(ctx context.Context) (model.OnboardingStatus, error)
}

// Normalize trims whitespace and drops empty or duplicate audiences.
func Normalize(p model.TenantProfile) model.TenantProfile {
	p.Address = strings.TrimSpace(p.Address)
	p.Concept = strings.TrimSpace(p.Concept)
	p.ConceptOther = strings.TrimSpace(p.ConceptOther)
	p.TargetAudienceOther = strings.TrimSpace(p.TargetAudienceOther)
	p.WebsiteURL = strings.TrimSpace(p.WebsiteURL)

	var audience []string
	for _, a := range p.TargetAudience {
		a = strings.TrimSpace(a)
		if a != "" && !slices.Contains(audience, a) {
			audience = append(audience, a)
		}
	}
	p.TargetAudience = audience
	return p
}

// Validate returns every problem with p, in field order.
func Validate(p model.TenantProfile) []*errors.ValidationError {
	var errs []*errors.ValidationError
	add := func(field, msg string, value any) {
		errs = append(errs, errors.NewValidationError(msg).WithField(field).WithValue(value))
	}

	if p.Address == "" {
		add("address", "address is required", p.Address)
	}
	switch {
	case p.Concept == "":
		add("concept", "concept is required", p.Concept)
	case !slices.Contains(Concepts, p.Concept):
		add("concept", "concept must be one of "+strings.Join(Concepts, ", "), p.Concept)
	case p.Concept == Other && p.ConceptOther == "":
		add("concept_other", "describe the concept", p.ConceptOther)
	}

	if len(p.TargetAudience) == 0 {
		add("target_audience", "choose at least one target audience", p.TargetAudience)
	}
	for _, a := range p.TargetAudience {
		if !slices.Contains(Audiences, a) {
			add("target_audience", "audience must be one of "+strings.Join(Audiences, ", "), a)
		}
	}
	if slices.Contains(p.TargetAudience, Other) && p.TargetAudienceOther == "" {
		add("target_audience_other", "describe the target audience", p.TargetAudienceOther)
	}

	if p.WebsiteURL == "" {
		add("website_url", "website is required", p.WebsiteURL)
	} else if u, err := url.Parse(p.WebsiteURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("website_url", "website must be an http or https URL", p.WebsiteURL)
	}
	return errs
}

// Save normalizes and validates p, then upserts it.
func Save(ctx context.Context, b Backend, p model.TenantProfile) (model.TenantProfile, error) {
	p = Normalize(p)
	if errs := Validate(p); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return model.TenantProfile{}, errors.Join(joined...)
	}
	saved, err := b.SaveProfile(ctx, p)
	if err != nil {
		return model.TenantProfile{}, errors.NewMutationError("save", "profile", "", err)
	}
	return saved, nil
}

// Load returns the tenant profile and onboarding status.
func Load(ctx context.Context, b Backend) (model.TenantProfile, model.OnboardingStatus, error) {
	p, err := b.GetProfile(ctx)
	if err != nil {
		return model.TenantProfile{}, model.OnboardingStatus{}, errors.NewReadError("load", "profile", err)
	}
	status, err := b.OnboardingStatus(ctx)
	if err != nil {
		return model.TenantProfile{}, model.OnboardingStatus{}, errors.NewReadError("load", "onboarding status", err)
	}
	return p, status, nil
}

// ReadFile parses a profile from a YAML file.
func ReadFile(path string) (model.TenantProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.TenantProfile{}, errors.Wrap(err, "read profile")
	}
	var p model.TenantProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return model.TenantProfile{}, errors.NewValidationError("profile file is not valid YAML").WithField(path).WithCause(err)
	}
	return p, nil
}
