package api

import "net/http"

// The terminology endpoints are static mocks kept for frontend development.
// Every response uses the {code, message, result} envelope.

type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Result  any    `json:"result"`
}

type terminologyEntry struct {
	TerminologyID   string `json:"terminology_id"`
	TerminologyName string `json:"terminology_name"`
}

// TerminologyListHandler serves POST /yzy-api/terminology/list.
func TerminologyListHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, envelope{Result: map[string]any{
			"page":  2,
			"limit": 10,
			"data": []terminologyEntry{
				{TerminologyID: "efe5646c-0eff-46ca-922f-9e9d98e06624", TerminologyName: "cc"},
				{TerminologyID: "8f2b1a44-31d0-4c2e-9c77-5be0a1f6d210", TerminologyName: "dd"},
			},
		}})
	})
}

// TerminologyDataListHandler serves POST /yzy-api/terminology/data/list.
func TerminologyDataListHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, envelope{Result: map[string]any{
			"page":  1,
			"limit": 10,
			"data":  []map[string]any{},
		}})
	})
}

// TerminologyMutationHandler serves the update and delete endpoints, which
// acknowledge without persisting anything.
func TerminologyMutationHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, envelope{Result: map[string]any{}})
	})
}
