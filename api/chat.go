package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"edgegate/logger"
)

// ChatProxy forwards a fortune-telling prompt built from the caller's birth
// details to an OpenAI-compatible chat-completion API and streams the
// upstream response through unchanged.
type ChatProxy struct {
	URL    string
	APIKey string
	Model  string
	http   *http.Client
}

func NewChatProxy(url, apiKey, model string) *ChatProxy {
	return &ChatProxy{
		URL:    url,
		APIKey: apiKey,
		Model:  model,
		http: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
}

const fortunePrompt = `You are a fortune-telling master. I will provide you with some basic information, and I would like you to use Chinese metaphysics to make some predictions based on it. Please output the prediction in JSON format with the keys fortuneYearScore, careerPersonality, annualFortune, monthlyFortune (one entry per month with score and fortune), careerSignature and annualSummary.`

type birthDetails struct {
	BirthDate  string `json:"birthDate"`
	BirthTime  string `json:"birthTime"`
	BirthPlace string `json:"birthPlace"`
}

// Handler serves POST /api/deepseek.
func (p *ChatProxy) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "Method Not Allowed"})
			return
		}

		var details birthDetails
		if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"message": "invalid request body",
				"error":   err.Error(),
			})
			return
		}

		payload := map[string]any{
			"model":  p.Model,
			"stream": true,
			"response_format": map[string]string{
				"type": "json_object",
			},
			"max_tokens":  2048,
			"temperature": 1.5,
			"messages": []map[string]string{
				{"role": "system", "content": fortunePrompt},
				{"role": "user", "content": fmt.Sprintf(
					"Hello, my birthday is on %s, at %s. I was born in %s.",
					details.BirthDate, details.BirthTime, details.BirthPlace)},
			},
		}

		body, _ := json.Marshal(payload)
		req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, p.URL, bytes.NewReader(body))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Internal Server Error"})
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+p.APIKey)

		resp, err := p.http.Do(req)
		if err != nil {
			logger.Error("chat upstream request failed", "err", err)
			writeJSON(w, http.StatusBadGateway, map[string]any{"error": "upstream request failed"})
			return
		}
		defer resp.Body.Close()

		w.Header().Set("Content-Type", resp.Header.Get("Content-Type"))
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			logger.Warn("chat stream interrupted", "err", err)
		}
	})
}
