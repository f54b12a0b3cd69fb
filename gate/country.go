package gate

import (
	"context"
	"net"

	"edgegate/geo"
	"edgegate/logger"

	"github.com/oschwald/geoip2-golang"
)

// CountryGate answers the single question "is this IP in the allowed
// country". With a local MMDB configured the answer never leaves the
// process; otherwise it falls back to the remote geolocation client.
//
// Private and loopback addresses pass the gate. That is a deliberate
// developer convenience carried over from the service this replaces.
type CountryGate struct {
	geo Locator
	db  *geoip2.Reader
}

func NewCountryGate(locator Locator, dbPath string) *CountryGate {
	g := &CountryGate{geo: locator}
	if dbPath != "" {
		db, err := geoip2.Open(dbPath)
		if err != nil {
			logger.Warn("country gate: MMDB unavailable, falling back to remote lookups",
				"path", dbPath, "err", err)
		} else {
			g.db = db
		}
	}
	return g
}

// Allowed reports whether ip may pass. A failed lookup denies: the gate
// never guesses.
func (g *CountryGate) Allowed(ctx context.Context, ip string) (bool, error) {
	if geo.IsPrivate(ip) {
		logger.Debug("country gate: local address, allowing", "ip", ip)
		return true, nil
	}

	if g.db != nil {
		if parsed := net.ParseIP(ip); parsed != nil {
			record, err := g.db.Country(parsed)
			if err == nil {
				return record.Country.IsoCode == allowedCountry, nil
			}
			logger.Warn("country gate: MMDB lookup failed, trying remote", "ip", ip, "err", err)
		}
	}

	loc, err := g.geo.Lookup(ctx, ip)
	if err != nil {
		return false, err
	}
	return loc.CountryCode == allowedCountry, nil
}

// Close releases the MMDB handle if one was opened.
func (g *CountryGate) Close() error {
	if g.db != nil {
		return g.db.Close()
	}
	return nil
}
