package fingerprint

import (
	"regexp"
	"strings"
)

// Outcome tags how a score was reached. A known-automation match is a hard
// deny decided by the first matching rule; everything else accumulates.
type Outcome int

const (
	// Scored means the fingerprint went through additive scoring.
	Scored Outcome = iota
	// KnownAutomation means the user-agent matched a crawler/tool pattern
	// and the request is denied outright, whatever the other headers say.
	KnownAutomation
)

// Patterns are the user-agent matchers the scorer consults, injected so the
// detection lists can evolve and be tested apart from the scoring logic.
type Patterns struct {
	// Crawlers are hard-deny matches: tools, libraries and bot identities.
	Crawlers []*regexp.Regexp
	// Suspicious user-agents forfeit the base score but are not hard-denied.
	Suspicious []*regexp.Regexp
}

// DefaultPatterns returns the stock crawler and suspicious matchers.
func DefaultPatterns() Patterns {
	crawlers := []string{
		`(?i)bot`, `(?i)crawler`, `(?i)spider`, `(?i)scraper`,
		`(?i)curl`, `(?i)wget`,
		`(?i)python`, `(?i)java`, `(?i)ruby`, `(?i)perl`, `(?i)php`,
		`(?i)go-http-client`, `(?i)axios`, `(?i)node-fetch`, `(?i)okhttp`,
		`(?i)apache-httpclient`, `(?i)postman`, `(?i)insomnia`,
		`(?i)googlebot`, `(?i)bingbot`, `(?i)slackbot`, `(?i)twitterbot`,
		`(?i)facebookexternalhit`, `(?i)linkedinbot`, `(?i)whatsapp`, `(?i)telegram`,
	}
	suspicious := []string{
		`^$`,
		`^Mozilla/5\.0$`,
		`(?i)HeadlessChrome`, `(?i)PhantomJS`, `(?i)Selenium`, `(?i)WebDriver`,
	}
	return Patterns{Crawlers: compile(crawlers), Suspicious: compile(suspicious)}
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func compile(exprs []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// Scoring weights. A total below DenyBelow classifies the client as
// automated traffic.
const (
	pointsUserAgent     = 30
	pointsLongUserAgent = 5
	pointsLanguage      = 15
	pointsEncoding      = 10
	pointsAccept        = 10
	pointsSecFetch      = 20
	pointsReferer       = 10
	pointsDNT           = 5

	DenyBelow = 50
)

type Scorer struct {
	patterns Patterns
}

func NewScorer(patterns Patterns) *Scorer {
	return &Scorer{patterns: patterns}
}

// Score rates fp in [0,100]; higher means more browser-like. Rule order is
// first-match-wins: a crawler match returns 0 with KnownAutomation before
// any accumulation happens.
func (s *Scorer) Score(fp Fingerprint) (int, Outcome) {
	if fp.UserAgent != "" {
		if matchAny(s.patterns.Crawlers, fp.UserAgent) {
			return 0, KnownAutomation
		}
	}

	score := 0

	if fp.UserAgent != "" {
		if !matchAny(s.patterns.Suspicious, fp.UserAgent) {
			score += pointsUserAgent
		}
		if len(fp.UserAgent) > 50 {
			score += pointsLongUserAgent
		}
	}

	if len(fp.AcceptLanguage) > 2 {
		score += pointsLanguage
	}
	if strings.Contains(fp.AcceptEncoding, "gzip") {
		score += pointsEncoding
	}
	if strings.Contains(fp.Accept, "text/html") || strings.Contains(fp.Accept, "application/json") {
		score += pointsAccept
	}
	if fp.HasSecFetch() {
		score += pointsSecFetch
	}
	if fp.Referer != "" {
		score += pointsReferer
	}
	if fp.DNT != "" {
		score += pointsDNT
	}

	if score > 100 {
		score = 100
	}
	return score, Scored
}
