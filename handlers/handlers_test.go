package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/unified-feedback/unified/backend/internal/accounts"
	"github.com/unified-feedback/unified/backend/internal/config"
	"github.com/unified-feedback/unified/backend/internal/export"
	"github.com/unified-feedback/unified/backend/internal/feedback"
	"github.com/unified-feedback/unified/backend/internal/projects"
	"github.com/unified-feedback/unified/backend/internal/sessions"
	"github.com/unified-feedback/unified/backend/internal/summary"
	"github.com/unified-feedback/unified/backend/internal/tokens"
	"github.com/unified-feedback/unified/backend/internal/widget"
	"github.com/unified-feedback/unified/backend/pkg/middleware"
)

func init() { gin.SetMode(gin.TestMode) }

// claimsToken implements middleware.Token
type claimsToken map[string]interface{}

func (t claimsToken) Claims(v interface{}) error {
	m, ok := v.(*map[string]interface{})
	if !ok {
		return errors.New("unsupported claims type")
	}
	*m = map[string]interface{}(t)
	return nil
}

// idTokens stands in for the identity provider: raw token -> claims.
type idTokens map[string]claimsToken

func (f idTokens) Verify(_ context.Context, raw string) (middleware.Token, error) {
	if t, ok := f[raw]; ok {
		return t, nil
	}
	return nil, errors.New("unknown id token")
}

type fakeGenerator struct {
	reply string
	err   error
}

func (g *fakeGenerator) Generate(context.Context, string, bool) (string, error) { return g.reply, g.err }

type memUploader struct{ objects map[string][]byte }

func (m *memUploader) UploadFile(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = b
	return nil
}

func (m *memUploader) GetPresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://files.example/" + key, nil
}

func (m *memUploader) DeletePrefix(_ context.Context, prefix string) (int, error) {
	n := 0
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			delete(m.objects, k)
			n++
		}
	}
	return n, nil
}

const (
	aliceID = "alice-idtoken"
	bobID   = "bob-idtoken"
)

type testEnv struct {
	r        *gin.Engine
	cfg      *config.Config
	feedback *feedback.MemoryRepository
	up       *memUploader
}

type envOptions struct {
	noModel    bool
	submitRate gin.HandlerFunc
}

func newEnv(t *testing.T, opts ...envOptions) *testEnv {
	t.Helper()
	var o envOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	cfg := &config.Config{}
	cfg.JWT.Secret = "handlers-test-secret"
	cfg.JWT.Issuer = "unified-test"
	cfg.JWT.AccessTokenTTL = 15 * time.Minute
	cfg.JWT.RefreshTokenTTL = time.Hour

	fbRepo := feedback.NewMemoryRepository()
	store := summary.NewMemoryStore()
	projSvc := projects.NewService(projects.NewMemoryRepository(), fbRepo, store)
	fbSvc := feedback.NewService(fbRepo, projSvc)
	up := &memUploader{objects: map[string][]byte{}}
	exp := export.NewExporter(fbSvc, up, time.Hour)
	projSvc.OnDelete(exp)

	var sz *summary.Summarizer
	if !o.noModel {
		sz = summary.NewSummarizer(&fakeGenerator{reply: `{"tldr":"People like it","keyFeatures":["speed"]}`}, "test-model")
	}
	sumSvc := summary.NewService(fbSvc, projSvc, store, sz)
	acctSvc := accounts.NewService(accounts.NewMemoryRepository(), projSvc)
	sessSvc := sessions.NewService(sessions.NewMemoryRepository())

	appTokens, err := tokens.NewVerifier(cfg)
	require.NoError(t, err)
	ids := idTokens{
		aliceID: {"sub": "uid-alice", "email": "alice@example.com", "name": "Alice"},
		bobID:   {"sub": "uid-bob", "email": "bob@example.com"},
	}
	g := Guards{
		Identity: middleware.AuthMiddleware(middleware.ChainVerifier{appTokens, ids}),
		Account:  middleware.RequireAccount(acctSvc),
	}

	r := gin.New()
	r.SetHTMLTemplate(widget.Templates())
	api := r.Group("/api")
	NewAuthHandler(cfg, acctSvc, sessSvc).Register(api, g)
	NewProjectsHandler(projSvc, sumSvc, exp, "https://feedback.example/").Register(api, g)
	NewFeedbackHandler(fbSvc, o.submitRate).Register(api, g)
	NewEmbedHandler(projSvc, fbSvc, o.submitRate).Register(r)
	return &testEnv{r: r, cfg: cfg, feedback: fbRepo, up: up}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(t *testing.T, idToken string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/register", idToken, nil)
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, w.Code, w.Body.String())
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var l []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &l), w.Body.String())
	return l
}

// surveyDraft is an email step followed by a 1..5 slider.
func surveyDraft(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":  name,
		"theme": "dark",
		"fields": []map[string]interface{}{
			{"id": "email", "type": "email", "label": "Email", "required": true},
			{"id": "score", "type": "slider", "label": "Score", "config": map[string]float64{"min": 1, "max": 5, "step": 1}},
		},
	}
}

func (e *testEnv) createProject(t *testing.T, idToken, name string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/projects", idToken, surveyDraft(name))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["id"].(string)
}

func (e *testEnv) submit(t *testing.T, projectID string, answers map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, http.MethodPost, "/api/feedback", "", map[string]interface{}{"projectId": projectID, "formAnswers": answers})
}
