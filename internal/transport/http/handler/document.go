package handler

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"docanalyst/internal/app"
	"docanalyst/internal/model"
	"docanalyst/internal/pkg/textextract"
	"docanalyst/internal/transport/http/response"
)

type AnalysisService interface {
	Ingest(ctx context.Context, input app.IngestInput) (*model.Document, error)
	Analyze(ctx context.Context, input app.AnalyzeInput) (*app.AnalyzeResult, error)
	ListDocuments(ctx context.Context, userID uint) ([]model.Document, error)
	GetDocument(ctx context.Context, userID, documentID uint) (*model.Document, error)
	DeleteDocument(ctx context.Context, userID, documentID uint) error
	ListExchanges(ctx context.Context, userID, documentID uint) ([]model.Exchange, error)
}

type DocumentHandler struct {
	service        AnalysisService
	maxUploadBytes int64
}

type CreateDocumentRequest struct {
	Title    string         `json:"title" binding:"max=256"`
	FileName string         `json:"file_name" binding:"max=256"`
	Content  string         `json:"content" binding:"required"`
	Metadata map[string]any `json:"metadata"`
}

func NewDocumentHandler(service AnalysisService, maxUploadBytes int64) *DocumentHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &DocumentHandler{service: service, maxUploadBytes: maxUploadBytes}
}

func (h *DocumentHandler) Create(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	doc, err := h.service.Ingest(c.Request.Context(), app.IngestInput{
		UserID:   userID,
		FileName: req.FileName,
		Title:    req.Title,
		Content:  req.Content,
		Metadata: req.Metadata,
	})
	if err != nil {
		writeAnalysisError(c, err, "ingest document failed")
		return
	}
	response.OK(c, doc)
}

// Upload accepts a multipart form with "file" (.pdf, .docx, .txt or .md) and an optional "title".
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if file.Size > h.maxUploadBytes {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
		return
	}
	if !textextract.Supported(file.Filename) {
		response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFile, "unsupported file type")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	text, err := textextract.Extract(file.Filename, f)
	if err != nil {
		if errors.Is(err, textextract.ErrUnsupportedType) {
			response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFile, err.Error())
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "failed to extract text: "+err.Error())
		return
	}

	doc, err := h.service.Ingest(c.Request.Context(), app.IngestInput{
		UserID:   userID,
		FileName: filepath.Base(file.Filename),
		Title:    strings.TrimSpace(c.PostForm("title")),
		Content:  text,
		Metadata: map[string]any{
			"source":      "upload",
			"file_type":   strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), "."),
			"upload_size": file.Size,
		},
	})
	if err != nil {
		writeAnalysisError(c, err, "ingest document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	docs, err := h.service.ListDocuments(c.Request.Context(), userID)
	if err != nil {
		writeAnalysisError(c, err, "list documents failed")
		return
	}
	if docs == nil {
		docs = []model.Document{}
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	documentID, err := parseUintParam(c, "id")
	if err != nil || documentID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	doc, err := h.service.GetDocument(c.Request.Context(), userID, documentID)
	if err != nil {
		writeAnalysisError(c, err, "get document failed")
		return
	}
	response.OK(c, gin.H{
		"document":    doc,
		"content":     doc.Content,
		"chunk_count": len(doc.Chunks),
	})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	documentID, err := parseUintParam(c, "id")
	if err != nil || documentID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	if err := h.service.DeleteDocument(c.Request.Context(), userID, documentID); err != nil {
		writeAnalysisError(c, err, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted_document_id": documentID})
}
