// Package geo queries an ipapi-style geolocation service for the country,
// network operator and proxy/hosting/mobile reputation flags of an IP.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"edgegate/logger"

	"golang.org/x/time/rate"
)

// ErrLookupFailed means the upstream could not verify the IP. Callers must
// treat it as "verification failed", never as "low risk".
var ErrLookupFailed = errors.New("geo lookup failed")

const unknown = "Unknown"

// Location is an immutable snapshot of one lookup.
type Location struct {
	Country     string
	CountryCode string
	Region      string
	RegionCode  string
	City        string
	Timezone    string
	ISP         string
	Org         string
	AS          string
	Proxy       bool
	Hosting     bool
	Mobile      bool
}

// Local reports whether the location is the synthetic record returned for
// private and loopback addresses.
func (l *Location) Local() bool {
	return l.CountryCode == "LOCAL"
}

// Client performs lookups against a remote provider. Outbound calls run
// through a token bucket so the free-tier upstream is never hammered; an
// empty bucket fails the lookup instead of queueing.
type Client struct {
	baseURL string
	http    *http.Client
	guard   *rate.Limiter
}

// NewClient builds a client for an ipapi-compatible base URL such as
// "https://ipapi.co". upstreamRPS bounds outbound calls per second.
func NewClient(baseURL string, upstreamRPS float64, burst int) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
		guard:   rate.NewLimiter(rate.Limit(upstreamRPS), burst),
	}
}

// wire mirrors the provider's JSON response. Absent fields decode to their
// zero values and are normalized to "Unknown"/false below.
type wire struct {
	CountryName string `json:"country_name"`
	CountryCode string `json:"country_code"`
	Region      string `json:"region"`
	RegionCode  string `json:"region_code"`
	City        string `json:"city"`
	Timezone    string `json:"timezone"`
	Org         string `json:"org"`
	ASN         string `json:"asn"`
	Proxy       bool   `json:"proxy"`
	Hosting     bool   `json:"hosting"`
	Mobile      bool   `json:"mobile"`
}

// Lookup resolves ip to a Location. Private and loopback addresses
// short-circuit to the synthetic Local record without an outbound call.
func (c *Client) Lookup(ctx context.Context, ip string) (*Location, error) {
	if IsPrivate(ip) {
		return localRecord(), nil
	}

	if !c.guard.Allow() {
		logger.Warn("geo lookup suppressed by upstream guard", "ip", ip)
		return nil, fmt.Errorf("%w: upstream quota guard", ErrLookupFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json/", c.baseURL, ip), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	req.Header.Set("User-Agent", "edgegate/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Error("geo lookup transport failure", "ip", ip, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Error("geo provider returned non-success status", "ip", ip, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	}

	var w wire
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrLookupFailed, err)
	}

	loc := &Location{
		Country:     orUnknown(w.CountryName),
		CountryCode: orUnknown(w.CountryCode),
		Region:      orUnknown(w.Region),
		RegionCode:  orUnknown(w.RegionCode),
		City:        orUnknown(w.City),
		Timezone:    orUnknown(w.Timezone),
		ISP:         orUnknown(w.Org),
		Org:         orUnknown(w.Org),
		AS:          orUnknown(w.ASN),
		Proxy:       w.Proxy,
		Hosting:     w.Hosting,
		Mobile:      w.Mobile,
	}
	logger.Debug("geo lookup complete", "ip", ip, "country", loc.CountryCode, "org", loc.Org)
	return loc, nil
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

func localRecord() *Location {
	return &Location{
		Country:     "Local",
		CountryCode: "LOCAL",
		Region:      "Local",
		RegionCode:  "LOCAL",
		City:        "Local",
		Timezone:    "Local",
		ISP:         "Local Network",
		Org:         "Local Network",
		AS:          "Local Network",
	}
}

// IsPrivate covers loopback and RFC1918 space. Unparseable strings fall
// through to the remote lookup, which will reject them upstream.
func IsPrivate(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return parsed.IsLoopback() || parsed.IsPrivate()
}
