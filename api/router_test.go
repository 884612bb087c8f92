package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/xhsnote/config"
	"github.com/use-agent/xhsnote/extractor"
	"github.com/use-agent/xhsnote/heuristic"
	"github.com/use-agent/xhsnote/models"
	"github.com/use-agent/xhsnote/note"
)

type stubRenderer struct {
	html  string
	err   error
	panic bool
}

func (s *stubRenderer) Render(context.Context, string, []models.Credential) (extractor.Page, error) {
	if s.panic {
		panic("renderer blew up")
	}
	if s.err != nil {
		return nil, s.err
	}
	return &stubPage{html: s.html}, nil
}

func (s *stubRenderer) Available(context.Context) bool { return s.err == nil }

func (s *stubRenderer) ActivePages() int { return 3 }

type stubPage struct{ html string }

func (p *stubPage) Evaluate(_ context.Context, eng *heuristic.Engine) (*models.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.html))
	if err != nil {
		return nil, err
	}
	return eng.Evaluate(doc), nil
}

func (p *stubPage) HTML(context.Context) (string, error) { return p.html, nil }
func (p *stubPage) Close() error                         { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Mode: gin.TestMode},
		Scraper: config.ScraperConfig{RenderMode: "browser"},
		CORS:    config.CORSConfig{AllowOrigins: []string{"*"}},
	}
}

func newTestRouter(r *stubRenderer, cfg *config.Config) *gin.Engine {
	x := extractor.New(r, nil, extractor.Options{})
	return NewRouter(x, r, cfg, time.Now())
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) (*httptest.ResponseRecorder, models.ExtractResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp models.ExtractResponse
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

const fullNote = `<html><body>
<div id="detail-title">Weekend in Dali</div>
<div id="detail-desc">Three days by the lake.</div>
<div class="author-wrapper"><span class="username">Lin</span></div>
</body></html>`

func TestExtract_OK(t *testing.T) {
	h := newTestRouter(&stubRenderer{html: fullNote}, testConfig())

	for _, path := range []string{"/extract", "/api/v1/extract"} {
		w, resp := do(t, h, http.MethodPost, path, `{"url":"https://www.xiaohongshu.com/explore/abc","cookie":"a=1"}`, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Data)
		assert.Equal(t, "Weekend in Dali", resp.Data.Title)
		assert.Equal(t, "Lin", resp.Data.Author)
		assert.Empty(t, resp.Error)
	}
}

func TestExtract_MissingURL(t *testing.T) {
	h := newTestRouter(&stubRenderer{html: fullNote}, testConfig())

	w, resp := do(t, h, http.MethodPost, "/extract", `{"cookie":"a=1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "missing url parameter", resp.Error)
	assert.Equal(t, models.ErrCodeInvalidInput, resp.Code)

	w, _ = do(t, h, http.MethodPost, "/extract", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtract_EmptyPageIs404(t *testing.T) {
	h := newTestRouter(&stubRenderer{html: `<html><body><div></div></body></html>`}, testConfig())

	w, resp := do(t, h, http.MethodPost, "/extract", `{"url":"https://www.xiaohongshu.com/explore/abc"}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, note.EmptyResultMessage, resp.Error)
	assert.Nil(t, resp.Data)
}

func TestExtract_RenderFailuresAre500(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"timeout", context.DeadlineExceeded, "page navigation timed out"},
		{"navigation", errors.New("net::ERR_CONNECTION_RESET at 0x7f"), "failed to load note page"},
		{"internal", models.NewExtractError(models.ErrCodeInternal, "secret detail", nil), "extraction failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(&stubRenderer{err: tt.err}, testConfig())

			w, resp := do(t, h, http.MethodPost, "/extract", `{"url":"https://www.xiaohongshu.com/explore/abc"}`, nil)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantMsg, resp.Error)
			assert.NotContains(t, w.Body.String(), "0x7f")
		})
	}
}

func TestExtract_PanicIsGeneric500(t *testing.T) {
	h := newTestRouter(&stubRenderer{panic: true}, testConfig())

	w, resp := do(t, h, http.MethodPost, "/extract", `{"url":"https://www.xiaohongshu.com/explore/abc"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "extraction failed", resp.Error)
	assert.NotContains(t, w.Body.String(), "blew up")
}

func TestHealth(t *testing.T) {
	h := newTestRouter(&stubRenderer{}, testConfig())

	for _, path := range []string{"/health", "/api/v1/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.True(t, resp.RenderEngineAvailable)
		assert.Equal(t, "browser", resp.RenderMode)
		assert.Equal(t, 3, resp.ActivePages)
	}
}

func TestHealth_EngineDown(t *testing.T) {
	h := newTestRouter(&stubRenderer{err: errors.New("browser gone")}, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.RenderEngineAvailable)
}

func TestManual(t *testing.T) {
	h := newTestRouter(&stubRenderer{}, testConfig())

	w, resp := do(t, h, http.MethodPost, "/manual", `{"content":"typed by hand","images":["https://sns-webpic.xhscdn.com/1.jpg"]}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, note.ManualEntry, resp.Data.Title)
	assert.Equal(t, note.ManualEntry, resp.Data.Author)
	assert.Equal(t, []string{}, resp.Data.Tags)

	w, resp = do(t, h, http.MethodPost, "/manual", `{"title":"","content":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "title and content cannot both be empty", resp.Error)
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.APIKeys = []string{"secret"}
	h := newTestRouter(&stubRenderer{html: fullNote}, cfg)
	body := `{"url":"https://www.xiaohongshu.com/explore/abc"}`

	w, resp := do(t, h, http.MethodPost, "/extract", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, models.ErrCodeUnauthorized, resp.Code)

	w, _ = do(t, h, http.MethodPost, "/extract", body, map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(t, h, http.MethodPost, "/extract", body, map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, h, http.MethodPost, "/api/v1/extract", body, map[string]string{"Authorization": "Bearer secret"})
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS_Preflight(t *testing.T) {
	h := newTestRouter(&stubRenderer{}, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/extract", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
