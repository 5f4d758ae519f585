package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyst/internal/app"
	"docanalyst/internal/model"
	"docanalyst/internal/pipeline"
	"docanalyst/internal/transport/http/middleware"
	"docanalyst/internal/transport/http/response"
)

type fakeService struct {
	ingested   []app.IngestInput
	analyzeErr error
	result     *app.AnalyzeResult
}

func (f *fakeService) Ingest(ctx context.Context, input app.IngestInput) (*model.Document, error) {
	if len(input.Content) < 10 {
		return nil, app.ErrEmptyContent
	}
	f.ingested = append(f.ingested, input)
	return &model.Document{ID: 1, UserID: input.UserID, Title: input.Title, FileName: input.FileName}, nil
}

func (f *fakeService) Analyze(ctx context.Context, input app.AnalyzeInput) (*app.AnalyzeResult, error) {
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return f.result, nil
}

func (f *fakeService) ListDocuments(ctx context.Context, userID uint) ([]model.Document, error) {
	return nil, nil
}

func (f *fakeService) GetDocument(ctx context.Context, userID, documentID uint) (*model.Document, error) {
	if documentID != 1 {
		return nil, app.ErrDocumentNotFound
	}
	return &model.Document{ID: 1, Content: "hello world", Chunks: []pipeline.Chunk{{Index: 0, Text: "hello world"}}}, nil
}

func (f *fakeService) DeleteDocument(ctx context.Context, userID, documentID uint) error {
	return nil
}

func (f *fakeService) ListExchanges(ctx context.Context, userID, documentID uint) ([]model.Exchange, error) {
	return nil, nil
}

func newTestRouter(svc AnalysisService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewDocumentHandler(svc, 1<<20)
	g := r.Group("/documents", func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uint(42))
		c.Next()
	})
	g.POST("", h.Create)
	g.POST("/upload", h.Upload)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/analyze", h.Analyze)
	g.GET("/:id/exchanges", h.Exchanges)
	return r
}

func do(t *testing.T, r http.Handler, req *http.Request) (int, response.APIResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body response.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAnalyze_StatusMapping(t *testing.T) {
	var cases = []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{name: "not found", err: app.ErrDocumentNotFound, status: http.StatusNotFound, code: response.CodeDocumentNotFound},
		{name: "synthesis", err: fmt.Errorf("%w: %w", pipeline.ErrSynthesis, context.DeadlineExceeded), status: http.StatusServiceUnavailable, code: response.CodeSynthesisFailed},
		{name: "invalid", err: app.ErrInvalidInput, status: http.StatusBadRequest, code: response.CodeBadRequest},
		{name: "unknown", err: fmt.Errorf("boom"), status: http.StatusInternalServerError, code: response.CodeInternalServer},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := newTestRouter(&fakeService{analyzeErr: c.err})
			status, body := do(t, r, jsonRequest(http.MethodPost, "/documents/1/analyze", `{"question":"Is knee surgery covered?"}`))
			assert.Equal(t, c.status, status)
			assert.Equal(t, c.code, body.Code)
		})
	}
}

func TestAnalyze_OK(t *testing.T) {
	r := newTestRouter(&fakeService{result: &app.AnalyzeResult{
		DocumentID:      1,
		Answer:          "Yes.",
		Evidence:        []string{"Section 1"},
		ConfidenceScore: 75,
		Outcome:         pipeline.OutcomeFallback,
		Warning:         app.ErrPersistence.Error(),
	}})

	status, body := do(t, r, jsonRequest(http.MethodPost, "/documents/1/analyze", `{"question":"covered?"}`))
	require.Equal(t, http.StatusOK, status)

	data := body.Data.(map[string]any)
	assert.Equal(t, "Yes.", data["answer"])
	assert.Equal(t, float64(75), data["confidence_score"])
	assert.Equal(t, "fallback", data["outcome"])
	assert.Equal(t, "exchange not persisted", data["warning"])
}

func TestAnalyze_BadRequests(t *testing.T) {
	r := newTestRouter(&fakeService{})

	status, _ := do(t, r, jsonRequest(http.MethodPost, "/documents/abc/analyze", `{"question":"q"}`))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, r, jsonRequest(http.MethodPost, "/documents/1/analyze", `{}`))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreate_EmptyContent(t *testing.T) {
	r := newTestRouter(&fakeService{})

	status, body := do(t, r, jsonRequest(http.MethodPost, "/documents", `{"content":"tiny"}`))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, response.CodeEmptyContent, body.Code)
}

func TestUpload_TextFile(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "policy.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("Section 1: Knee surgery is covered under plan B."))
	require.NoError(t, mw.WriteField("title", "Plan B"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	status, _ := do(t, r, req)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, svc.ingested, 1)
	assert.Equal(t, uint(42), svc.ingested[0].UserID)
	assert.Equal(t, "policy.txt", svc.ingested[0].FileName)
	assert.Equal(t, "Plan B", svc.ingested[0].Title)
	assert.Equal(t, "txt", svc.ingested[0].Metadata["file_type"])
}

func TestUpload_UnsupportedType(t *testing.T) {
	r := newTestRouter(&fakeService{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "scan.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	status, body := do(t, r, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, response.CodeUnsupportedFile, body.Code)
}

func TestGetAndListDocuments(t *testing.T) {
	r := newTestRouter(&fakeService{})

	status, body := do(t, r, httptest.NewRequest(http.MethodGet, "/documents/1", nil))
	require.Equal(t, http.StatusOK, status)
	data := body.Data.(map[string]any)
	assert.Equal(t, "hello world", data["content"])
	assert.Equal(t, float64(1), data["chunk_count"])

	status, body = do(t, r, httptest.NewRequest(http.MethodGet, "/documents/9", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, response.CodeDocumentNotFound, body.Code)

	status, body = do(t, r, httptest.NewRequest(http.MethodGet, "/documents", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body.Data)

	status, body = do(t, r, httptest.NewRequest(http.MethodGet, "/documents/1/exchanges", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body.Data)
}
