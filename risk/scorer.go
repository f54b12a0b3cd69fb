// Package risk derives dynamic-IP-pool features from a geolocation snapshot.
// Scoring is additive over independent signals and clamps to [0,100].
package risk

import (
	"strings"

	"edgegate/geo"
)

// Features describes what kind of network an IP appears to sit on.
type Features struct {
	IsDynamic bool `json:"isDynamic"`
	IsProxy   bool `json:"isProxy"`
	IsVPN     bool `json:"isVPN"`
	IsTor     bool `json:"isTor"`
	IsHosting bool `json:"isHosting"`
	IsMobile  bool `json:"isMobile"`
	RiskScore int  `json:"riskScore"`
}

// Lists holds the case-insensitive substring matchers the scorer consults.
// They are data, not code, so deployments can extend them without touching
// the scoring logic.
type Lists struct {
	VPNProviders   []string
	CloudProviders []string
	TorMarkers     []string
}

// DefaultLists returns the stock provider matchers.
func DefaultLists() Lists {
	return Lists{
		VPNProviders: []string{
			"nordvpn", "expressvpn", "surfshark", "protonvpn",
			"private internet access", "cyberghost",
		},
		CloudProviders: []string{
			"cloudflare", "fastly", "akamai", "aws", "google cloud", "azure",
		},
		TorMarkers: []string{"tor", "exit"},
	}
}

// Signal weights. Dynamic-pool membership is inferred above the isDynamic
// threshold; the high-risk deny policy lives with the caller, not here.
const (
	pointsProxy    = 30
	pointsHosting  = 20
	pointsMobile   = 10
	pointsVPN      = 25
	pointsCloud    = 15
	pointsTor      = 40
	isDynamicAbove = 30
)

type Scorer struct {
	lists Lists
}

func NewScorer(lists Lists) *Scorer {
	return &Scorer{lists: lists}
}

// Score is a pure function of its inputs: the same Location always produces
// the same Features.
func (s *Scorer) Score(ip string, loc *geo.Location) Features {
	score := 0

	if loc.Proxy {
		score += pointsProxy
	}
	if loc.Hosting {
		score += pointsHosting
	}
	if loc.Mobile {
		score += pointsMobile
	}

	isp := strings.ToLower(loc.ISP)
	org := strings.ToLower(loc.Org)

	isVPN := matchesAny(s.lists.VPNProviders, isp, org)
	if isVPN {
		score += pointsVPN
	}
	if matchesAny(s.lists.CloudProviders, isp, org) {
		score += pointsCloud
	}

	as := strings.ToLower(loc.AS)
	isTor := matchesAny(s.lists.TorMarkers, as)
	if isTor {
		score += pointsTor
	}

	if score > 100 {
		score = 100
	}

	return Features{
		IsDynamic: score > isDynamicAbove,
		IsProxy:   loc.Proxy,
		IsVPN:     isVPN,
		IsTor:     isTor,
		IsHosting: loc.Hosting,
		IsMobile:  loc.Mobile,
		RiskScore: score,
	}
}

func matchesAny(patterns []string, fields ...string) bool {
	for _, p := range patterns {
		for _, f := range fields {
			if strings.Contains(f, p) {
				return true
			}
		}
	}
	return false
}
