package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssets_ServesImageWithCacheHeaders(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "images", "logo.png"), []byte("png-bytes"), 0o644))

	h := Assets{Root: root}.Images()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/images?img=logo", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "png-bytes", rec.Body.String())
}

func TestAssets_MissingFileIs500(t *testing.T) {
	h := Assets{Root: t.TempDir()}.Audio()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/audio?audio=nope", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAssets_TraversalRejected(t *testing.T) {
	h := Assets{Root: t.TempDir()}.Images()
	for _, name := range []string{"../etc/passwd", "a/b", `..\boot`} {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/images", nil)
		q := r.URL.Query()
		q.Set("img", name)
		r.URL.RawQuery = q.Encode()
		h.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestMeego_EchoesPostBody(t *testing.T) {
	h := MeegoHandler()
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/meego?env=dev", strings.NewReader(`{"hello":"world"}`))
	h.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "POST", body["method"])
	assert.Equal(t, "world", body["receivedData"].(map[string]any)["hello"])
	assert.Equal(t, "dev", body["queryParams"].(map[string]any)["env"])
}

func TestMeego_MalformedBodyIs400(t *testing.T) {
	h := MeegoHandler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/meego", strings.NewReader(`{broken`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}

func TestOpenID_Exchange(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sns/jscode2session", r.URL.Path)
		assert.Equal(t, "test-app", r.URL.Query().Get("appid"))
		assert.Equal(t, "the-code", r.URL.Query().Get("js_code"))
		w.Write([]byte(`{"openid": "o6_bmjrPTlm6_2sgVt7hMZOPfL2M"}`))
	}))
	defer upstream.Close()

	h := OpenIDHandler(NewWeChatClient("test-app", "secret", upstream.URL))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/openId", strings.NewReader(`{"code":"the-code"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "o6_bmjrPTlm6_2sgVt7hMZOPfL2M", body["openid"])
}

func TestOpenID_MissingCodeIs400(t *testing.T) {
	h := OpenIDHandler(NewWeChatClient("test-app", "secret", "http://unused.invalid"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/openId", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpenID_UpstreamFailureIs500(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errcode": 40029, "errmsg": "invalid code"}`))
	}))
	defer upstream.Close()

	h := OpenIDHandler(NewWeChatClient("test-app", "secret", upstream.URL))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/openId", strings.NewReader(`{"code":"bad"}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChatProxy_StreamsUpstreamThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "deepseek-chat", payload["model"])
		assert.Equal(t, true, payload["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"choices\":[]}\n\n"))
	}))
	defer upstream.Close()

	p := NewChatProxy(upstream.URL, "sk-test", "deepseek-chat")
	rec := httptest.NewRecorder()
	h := p.Handler()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/deepseek",
		strings.NewReader(`{"birthDate":"1990-01-01","birthTime":"08:00","birthPlace":"Seattle"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "data:")
}

func TestTerminologyMocks(t *testing.T) {
	handlers := map[string]http.Handler{
		"list":      TerminologyListHandler(),
		"data list": TerminologyDataListHandler(),
		"mutation":  TerminologyMutationHandler(),
	}
	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest("POST", "/yzy-api/terminology", nil))
			require.Equal(t, http.StatusOK, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, float64(0), body["code"])
		})
	}
}
