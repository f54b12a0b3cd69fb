package gate

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"edgegate/fingerprint"
	"edgegate/logger"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func queryParams(r *http.Request) map[string]string {
	params := make(map[string]string)
	for k, vals := range r.URL.Query() {
		if len(vals) > 0 {
			params[k] = vals[0]
		}
	}
	return params
}

// geoSummary is the geolocation block echoed on admitted requests.
func geoSummary(v Verdict) map[string]any {
	return map[string]any{
		"country":     v.Geo.Country,
		"countryCode": v.Geo.CountryCode,
		"region":      v.Geo.Region,
		"regionCode":  v.Geo.RegionCode,
		"city":        v.Geo.City,
		"timezone":    v.Geo.Timezone,
		"isp":         v.Geo.ISP,
		"org":         v.Geo.Org,
	}
}

// IPCheckHandler serves the fully gated route: rate limit, geolocation,
// country and risk checks in order, with full diagnostics echoed back.
func IPCheckHandler(p *Pipeline) http.Handler {
	const route = "ipCheck"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		v := p.Evaluate(r.Context(), ip)

		switch v.Reason {
		case ReasonRateLimited, ReasonBlocked:
			DeniedRequests.WithLabelValues(route, v.Reason).Inc()
			errMsg := "request rate exceeded"
			if v.Reason == ReasonBlocked {
				errMsg = "IP is temporarily banned"
			}
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", v.RateLimit.ResetTime.UTC().Format(time.RFC3339))
			writeJSON(w, v.Status, map[string]any{
				"message":   "Too many requests",
				"error":     errMsg,
				"ip":        v.IP,
				"remaining": v.RateLimit.Remaining,
				"resetTime": v.RateLimit.ResetTime.UTC().Format(time.RFC3339),
				"timestamp": timestamp(),
			})
			return

		case ReasonGeoLookupFailed:
			DeniedRequests.WithLabelValues(route, v.Reason).Inc()
			writeJSON(w, v.Status, map[string]any{
				"message":   "Geolocation verification failed",
				"error":     "could not resolve IP geolocation",
				"ip":        v.IP,
				"timestamp": timestamp(),
			})
			return

		case ReasonRegionDenied:
			DeniedRequests.WithLabelValues(route, v.Reason).Inc()
			writeJSON(w, v.Status, map[string]any{
				"message": "Access denied",
				"error":   "this service is limited to US visitors",
				"ip":      v.IP,
				"geoLocation": map[string]any{
					"country":     v.Geo.Country,
					"countryCode": v.Geo.CountryCode,
					"region":      v.Geo.Region,
					"city":        v.Geo.City,
				},
				"timestamp": timestamp(),
			})
			return

		case ReasonHighRisk:
			DeniedRequests.WithLabelValues(route, v.Reason).Inc()
			writeJSON(w, v.Status, map[string]any{
				"message": "Access denied",
				"error":   "high-risk IP characteristics detected",
				"ip":      v.IP,
				"riskAnalysis": map[string]any{
					"riskScore": v.Risk.RiskScore,
					"isProxy":   v.Risk.IsProxy,
					"isVPN":     v.Risk.IsVPN,
					"isTor":     v.Risk.IsTor,
					"isHosting": v.Risk.IsHosting,
				},
				"timestamp": timestamp(),
			})
			return
		}

		AdmittedRequests.WithLabelValues(route).Inc()
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(v.RateLimit.Remaining))
		w.Header().Set("X-RateLimit-Reset", v.RateLimit.ResetTime.UTC().Format(time.RFC3339))
		writeJSON(w, http.StatusOK, map[string]any{
			"method":    r.Method,
			"message":   "Welcome! All checks passed",
			"timestamp": timestamp(),
			"ip":        v.IP,
			"rateLimit": map[string]any{
				"remaining": v.RateLimit.Remaining,
				"resetTime": v.RateLimit.ResetTime.UTC().Format(time.RFC3339),
			},
			"geoLocation":      geoSummary(v),
			"securityAnalysis": v.Risk,
			"queryParams":      queryParams(r),
		})
	})
}

// CountryGateHandler serves the country-only route.
func CountryGateHandler(g *CountryGate) http.Handler {
	const route = "onlyAmerica"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)

		allowed, err := g.Allowed(r.Context(), ip)
		if err != nil {
			logger.Warn("country gate lookup failed, denying", "ip", ip, "err", err)
		}
		if !allowed {
			DeniedRequests.WithLabelValues(route, ReasonRegionDenied).Inc()
			writeJSON(w, http.StatusForbidden, map[string]any{
				"message":   "Access denied",
				"error":     "this service is limited to US visitors",
				"ip":        ip,
				"timestamp": timestamp(),
			})
			return
		}

		AdmittedRequests.WithLabelValues(route).Inc()
		writeJSON(w, http.StatusOK, map[string]any{
			"method":      r.Method,
			"message":     "Welcome, visitor from the United States!",
			"timestamp":   timestamp(),
			"ip":          ip,
			"queryParams": queryParams(r),
		})
	})
}

// FingerprintHandler serves the bot-detection route, which is independent of
// the rate limiter and geolocation.
func FingerprintHandler(s *fingerprint.Scorer) http.Handler {
	const route = "onlyFingerprint"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp := fingerprint.FromRequest(r)
		score, outcome := s.Score(fp)

		if score < fingerprint.DenyBelow {
			reason := "low score"
			if outcome == fingerprint.KnownAutomation {
				reason = "known automation signature"
			}
			logger.Info("fingerprint gate denied request",
				"user_agent", fp.UserAgent, "score", score, "reason", reason)
			DeniedRequests.WithLabelValues(route, ReasonBotDetected).Inc()
			writeJSON(w, http.StatusForbidden, map[string]any{
				"message":   "Access denied",
				"error":     "please use a regular browser",
				"timestamp": timestamp(),
			})
			return
		}

		AdmittedRequests.WithLabelValues(route).Inc()
		writeJSON(w, http.StatusOK, map[string]any{
			"method":    r.Method,
			"message":   "Welcome! Fingerprint check passed",
			"timestamp": timestamp(),
			"fingerprint": map[string]any{
				"score": score,
				"browser": map[string]any{
					"userAgent":         fp.UserAgent,
					"hasModernFeatures": fp.HasSecFetch(),
					"acceptsGzip":       strings.Contains(fp.AcceptEncoding, "gzip"),
					"hasLanguage":       fp.AcceptLanguage != "",
				},
				"network": map[string]any{
					"ip":       ClientIP(r),
					"viaProxy": r.Header.Get("Via") != "",
					"protocol": protocolOf(r),
				},
			},
			"queryParams": queryParams(r),
		})
	})
}

func protocolOf(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	return "unknown"
}
