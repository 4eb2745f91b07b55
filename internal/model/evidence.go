package model

import "time"

// AuthorityTier classifies how authoritative a cited source is
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Official reports, courts, government and academic publishers
	TierSecondary AuthorityTier = 2 // Wire services, major newspapers, encyclopedias
	TierTertiary  AuthorityTier = 3 // Everything else
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// MarshalText renders the tier name in JSON and YAML output
func (t AuthorityTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// SourceCheck is the result of checking one cited source link
type SourceCheck struct {
	StoryID      string        `json:"story_id"`
	SourceID     string        `json:"source_id"`
	URL          string        `json:"url"`
	Host         string        `json:"host,omitempty"`
	Authority    AuthorityTier `json:"authority"`
	Accessible   bool          `json:"accessible"`
	StatusCode   int           `json:"status_code,omitempty"`
	Dead         bool          `json:"dead"`       // 404, 410 or unreachable
	Disallowed   bool          `json:"disallowed"` // robots.txt forbids checking
	RedirectURL  string        `json:"redirect_url,omitempty"`
	LastModified *time.Time    `json:"last_modified,omitempty"`
	Error        string        `json:"error,omitempty"`
}
