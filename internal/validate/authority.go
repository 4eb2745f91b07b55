// Package validate checks the sources a story cites: authority tiers,
// well-formed links, and optionally whether each link still resolves.
package validate

import (
	"net/url"
	"strings"

	"github.com/ppiankov/ifhere/internal/model"
)

// AuthorityClassifier classifies source URLs into authority tiers
type AuthorityClassifier struct {
	primary   map[string]bool
	secondary map[string]bool
}

// NewAuthorityClassifier builds a classifier from the configured domain lists
func NewAuthorityClassifier(cfg model.SourcesConfig) *AuthorityClassifier {
	a := &AuthorityClassifier{
		primary:   make(map[string]bool),
		secondary: make(map[string]bool),
	}
	for _, d := range cfg.PrimaryDomains {
		a.primary[strings.ToLower(d)] = true
	}
	for _, d := range cfg.SecondaryDomains {
		a.secondary[strings.ToLower(d)] = true
	}
	return a
}

// Classify returns the tier for rawURL. Unparseable URLs are tertiary.
func (a *AuthorityClassifier) Classify(rawURL string) model.AuthorityTier {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return model.TierTertiary
	}
	host := strings.ToLower(parsed.Hostname())

	if matchDomain(a.primary, host) {
		return model.TierPrimary
	}
	if matchDomain(a.secondary, host) {
		return model.TierSecondary
	}

	// Government and academic hosts, including subdomains such as
	// governor.virginia.gov or press.uchicago.edu
	for _, suffix := range []string{".gov", ".edu", ".ac.uk", ".gov.uk", ".int"} {
		if strings.HasSuffix(host, suffix) {
			return model.TierPrimary
		}
	}

	return model.TierTertiary
}

// matchDomain reports whether host is one of domains or a subdomain of one
func matchDomain(domains map[string]bool, host string) bool {
	if domains[host] {
		return true
	}
	for d := range domains {
		if strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
