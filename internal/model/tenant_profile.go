package model

import "time"

// TenantProfile describes the business behind a tenant. It is collected in
// the first onboarding step.
type TenantProfile struct {
	Address             string   `json:"address" yaml:"address"`
	Concept             string   `json:"concept" yaml:"concept"`
	ConceptOther        string   `json:"conceptOther,omitempty" yaml:"concept_other,omitempty"`
	TargetAudience      []string `json:"targetAudience" yaml:"target_audience"`
	TargetAudienceOther string   `json:"targetAudienceOther,omitempty" yaml:"target_audience_other,omitempty"`
	WebsiteURL          string   `json:"websiteUrl" yaml:"website_url"`
}

// OnboardingStatus reports which onboarding steps are complete.
type OnboardingStatus struct {
	ProfileComplete    bool `json:"step1Completed"`
	InstagramConnected bool `json:"step2Completed"`
}

// Done reports whether every onboarding step is complete.
func (o OnboardingStatus) Done() bool {
	return o.ProfileComplete && o.InstagramConnected
}

// SocialConnection is the tenant's link to a publishing platform.
type SocialConnection struct {
	Platform        Platform   `json:"platform"`
	AccountName     string     `json:"accountName"`
	LastPublishedAt *time.Time `json:"lastPublishedAt,omitempty"`
	LastError       string     `json:"lastError,omitempty"`
}

// AuthURL is the platform authorization link returned by the backend.
type AuthURL struct {
	AuthURL string `json:"authUrl"`
}
