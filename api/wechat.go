package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"edgegate/logger"
)

const defaultWeChatBaseURL = "https://api.weixin.qq.com"

// WeChatClient exchanges a mini-program login code for an openid via the
// jscode2session endpoint.
type WeChatClient struct {
	AppID   string
	Secret  string
	BaseURL string
	http    *http.Client
}

func NewWeChatClient(appID, secret, baseURL string) *WeChatClient {
	if baseURL == "" {
		baseURL = defaultWeChatBaseURL
	}
	return &WeChatClient{
		AppID:   appID,
		Secret:  secret,
		BaseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type sessionResponse struct {
	OpenID  string `json:"openid"`
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (c *WeChatClient) exchange(code string) (*sessionResponse, error) {
	q := url.Values{}
	q.Set("appid", c.AppID)
	q.Set("secret", c.Secret)
	q.Set("js_code", code)
	q.Set("grant_type", "authorization_code")

	resp, err := c.http.Get(c.BaseURL + "/sns/jscode2session?" + q.Encode())
	if err != nil {
		return nil, fmt.Errorf("wechat session exchange: %w", err)
	}
	defer resp.Body.Close()

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decoding wechat response: %w", err)
	}
	return &session, nil
}

// OpenIDHandler serves POST /api/openId with body {"code": "..."}.
func OpenIDHandler(c *WeChatClient) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "Method Not Allowed"})
			return
		}

		var body struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing code in request body"})
			return
		}

		session, err := c.exchange(body.Code)
		if err != nil {
			logger.Error("wechat login exchange failed", "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Internal Server Error"})
			return
		}

		if session.OpenID == "" {
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":   "Failed to get openid",
				"details": session,
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"openid": session.OpenID})
	})
}
