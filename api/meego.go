package api

import (
	"encoding/json"
	"net/http"
	"time"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// MeegoHandler is a diagnostic echo endpoint: it reflects the method, query
// parameters, headers and (for POST) the JSON body back to the caller.
func MeegoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := make(map[string]string, len(r.Header))
		for k := range r.Header {
			headers[k] = r.Header.Get(k)
		}

		params := make(map[string]string)
		for k, vals := range r.URL.Query() {
			if len(vals) > 0 {
				params[k] = vals[0]
			}
		}

		body := map[string]any{
			"method":      r.Method,
			"message":     "Hello from the echo API",
			"timestamp":   timestamp(),
			"queryParams": params,
			"headers":     headers,
		}

		if r.Method == http.MethodPost {
			var received any
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"message":   "invalid request body",
					"error":     err.Error(),
					"timestamp": timestamp(),
				})
				return
			}
			body["receivedData"] = received
		}

		writeJSON(w, http.StatusOK, body)
	})
}
