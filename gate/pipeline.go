// Package gate contains the admission pipeline and the HTTP handlers for the
// gated routes: the full IP check, the country-only gate and the browser
// fingerprint gate.
package gate

import (
	"context"
	"net/http"
	"time"

	"edgegate/geo"
	"edgegate/limiter"
	"edgegate/logger"
	"edgegate/notifier"
	"edgegate/risk"
)

// Machine-readable denial reasons.
const (
	ReasonRateLimited     = "rate_limited"
	ReasonBlocked         = "blocked"
	ReasonGeoLookupFailed = "geo_lookup_failed"
	ReasonRegionDenied    = "region_denied"
	ReasonHighRisk        = "high_risk"
	ReasonBotDetected     = "bot_detected"
)

// Policy thresholds applied by the pipeline, not by the scorers themselves.
const (
	highRiskAbove  = 70
	allowedCountry = "US"
)

// Locator is the slice of geo.Client the pipeline needs.
type Locator interface {
	Lookup(ctx context.Context, ip string) (*geo.Location, error)
}

// Verdict is the pipeline's decision for one request, with the diagnostics
// echoed back to the caller.
type Verdict struct {
	Allowed bool
	Status  int
	Reason  string
	IP      string

	RateLimit limiter.Result
	Geo       *geo.Location
	Risk      *risk.Features
}

// Pipeline runs the admission checks for the IP-gated route in order:
// rate limit, geolocation, country, risk. The first failing check decides.
type Pipeline struct {
	limiter *limiter.RateLimiter
	geo     Locator
	risk    *risk.Scorer

	// alert pushes a webhook notification on block and high-risk denials.
	alert func(msg string, severity string)
}

func NewPipeline(rl *limiter.RateLimiter, locator Locator, scorer *risk.Scorer) *Pipeline {
	return &Pipeline{
		limiter: rl,
		geo:     locator,
		risk:    scorer,
		alert:   notifier.SendAlert,
	}
}

// Evaluate admits or rejects one request from ip.
func (p *Pipeline) Evaluate(ctx context.Context, ip string) Verdict {
	rl := p.limiter.Check(ctx, ip)
	if !rl.Allowed {
		reason := ReasonRateLimited
		if rl.Blocked {
			reason = ReasonBlocked
			p.alert("IP entered penalty block: "+ip, "warning")
		}
		return Verdict{Status: http.StatusTooManyRequests, Reason: reason, IP: ip, RateLimit: rl}
	}

	start := time.Now()
	loc, err := p.geo.Lookup(ctx, ip)
	GeoLookupDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		// A failed lookup is "verification failed", never "low risk".
		return Verdict{Status: http.StatusInternalServerError, Reason: ReasonGeoLookupFailed, IP: ip, RateLimit: rl}
	}

	if loc.CountryCode != allowedCountry {
		logger.Info("request denied by country gate", "ip", ip, "country", loc.CountryCode)
		return Verdict{Status: http.StatusForbidden, Reason: ReasonRegionDenied, IP: ip, RateLimit: rl, Geo: loc}
	}

	features := p.risk.Score(ip, loc)
	if features.RiskScore > highRiskAbove {
		logger.Warn("request denied as high risk", "ip", ip, "score", features.RiskScore,
			"vpn", features.IsVPN, "tor", features.IsTor)
		p.alert("high-risk IP denied: "+ip, "warning")
		return Verdict{Status: http.StatusForbidden, Reason: ReasonHighRisk, IP: ip, RateLimit: rl, Geo: loc, Risk: &features}
	}

	return Verdict{Allowed: true, Status: http.StatusOK, IP: ip, RateLimit: rl, Geo: loc, Risk: &features}
}
