// Package fingerprint estimates how plausible it is that a request came from
// a real browser rather than an automated client, using only the headers the
// client chose to send.
package fingerprint

import "net/http"

// Fingerprint is a snapshot of the headers relevant to browser plausibility.
// Absent headers are empty strings.
type Fingerprint struct {
	UserAgent      string `json:"userAgent"`
	AcceptLanguage string `json:"acceptLanguage"`
	AcceptEncoding string `json:"acceptEncoding"`
	Accept         string `json:"accept"`
	SecFetchDest   string `json:"secFetchDest"`
	SecFetchMode   string `json:"secFetchMode"`
	SecFetchSite   string `json:"secFetchSite"`
	Referer        string `json:"referer"`
	DNT            string `json:"dnt"`
}

// FromRequest captures the fingerprint headers of one request.
func FromRequest(r *http.Request) Fingerprint {
	return Fingerprint{
		UserAgent:      r.Header.Get("User-Agent"),
		AcceptLanguage: r.Header.Get("Accept-Language"),
		AcceptEncoding: r.Header.Get("Accept-Encoding"),
		Accept:         r.Header.Get("Accept"),
		SecFetchDest:   r.Header.Get("Sec-Fetch-Dest"),
		SecFetchMode:   r.Header.Get("Sec-Fetch-Mode"),
		SecFetchSite:   r.Header.Get("Sec-Fetch-Site"),
		Referer:        r.Header.Get("Referer"),
		DNT:            r.Header.Get("DNT"),
	}
}

// HasSecFetch reports whether any Sec-Fetch-* header was sent, a marker of a
// modern browser-issued fetch.
func (f Fingerprint) HasSecFetch() bool {
	return f.SecFetchDest != "" || f.SecFetchMode != "" || f.SecFetchSite != ""
}
