package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"docanalyst/internal/model"
	"docanalyst/internal/pipeline"
	"docanalyst/internal/pkg/textextract"
)

const defaultHistoryLimit = 100

var (
	ErrEmptyContent     = errors.New("document has no usable text")
	ErrDocumentNotFound = errors.New("document not found")
	ErrPersistence      = errors.New("exchange not persisted")
	ErrSynthesis        = pipeline.ErrSynthesis
)

type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByIDAndUserID(ctx context.Context, id, userID uint) (*model.Document, error)
	ListByUserID(ctx context.Context, userID uint) ([]model.Document, error)
	DeleteByIDAndUserID(ctx context.Context, id, userID uint) (bool, error)
}

type ExchangeStore interface {
	Create(ctx context.Context, exchange *model.Exchange) error
	ListByDocumentID(ctx context.Context, userID, documentID uint, limit int) ([]model.Exchange, error)
}

// ExchangeRecorder stores a finished exchange, either directly or through a queue.
type ExchangeRecorder interface {
	Record(ctx context.Context, exchange *model.Exchange) error
}

type ExchangeCache interface {
	GetExchanges(ctx context.Context, documentID uint) ([]model.Exchange, bool, error)
	SetExchanges(ctx context.Context, documentID uint, exchanges []model.Exchange) error
	Invalidate(ctx context.Context, documentID uint) error
	IsDirty(ctx context.Context, documentID uint) (bool, error)
}

type RepositoryRecorder struct {
	store ExchangeStore
}

func NewRepositoryRecorder(store ExchangeStore) *RepositoryRecorder {
	return &RepositoryRecorder{store: store}
}

func (r *RepositoryRecorder) Record(ctx context.Context, exchange *model.Exchange) error {
	return r.store.Create(ctx, exchange)
}

type AnalysisConfig struct {
	ChunkSize       int
	MinContentChars int
	RecordFailures  bool
	HistoryLimit    int
}

type AnalysisService struct {
	docs        DocumentStore
	exchanges   ExchangeStore
	recorder    ExchangeRecorder
	cache       ExchangeCache
	ranker      *pipeline.Ranker
	synthesizer *pipeline.Synthesizer
	cfg         AnalysisConfig
	logger      *slog.Logger
}

func NewAnalysisService(
	docs DocumentStore,
	exchanges ExchangeStore,
	recorder ExchangeRecorder,
	cache ExchangeCache,
	ranker *pipeline.Ranker,
	synthesizer *pipeline.Synthesizer,
	cfg AnalysisConfig,
	logger *slog.Logger,
) *AnalysisService {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = pipeline.DefaultChunkSize
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if recorder == nil {
		recorder = NewRepositoryRecorder(exchanges)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		docs:        docs,
		exchanges:   exchanges,
		recorder:    recorder,
		cache:       cache,
		ranker:      ranker,
		synthesizer: synthesizer,
		cfg:         cfg,
		logger:      logger.With("component", "analysis"),
	}
}

type IngestInput struct {
	UserID   uint
	FileName string
	Title    string
	Content  string
	Metadata map[string]any
}

// Ingest cleans the text, splits it once and stores the document with its chunks.
func (s *AnalysisService) Ingest(ctx context.Context, input IngestInput) (*model.Document, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}

	content := textextract.Clean(input.Content)
	chars := utf8.RuneCountInString(content)
	if chars == 0 || chars < s.cfg.MinContentChars {
		return nil, ErrEmptyContent
	}

	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		fileName = "document.txt"
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		base := filepath.Base(fileName)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if title == "" {
		title = "Untitled"
	}

	chunks := pipeline.SplitText(content, s.cfg.ChunkSize)

	metadata := make(map[string]any, len(input.Metadata)+5)
	for k, v := range input.Metadata {
		metadata[k] = v
	}
	metadata["size_bytes"] = len(content)
	metadata["size_chars"] = chars
	metadata["chunk_count"] = len(chunks)
	metadata["chunk_size"] = s.cfg.ChunkSize
	metadata["processed_at"] = time.Now().UTC().Format(time.RFC3339)

	doc := &model.Document{
		UserID:   input.UserID,
		Title:    title,
		FileName: fileName,
		Content:  content,
		Chunks:   chunks,
		Metadata: metadata,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document ingested",
		"document_id", doc.ID,
		"user_id", doc.UserID,
		"chunks", len(chunks),
		"chars", chars,
	)
	return doc, nil
}

type AnalyzeInput struct {
	UserID     uint
	DocumentID uint
	Question   string
}

type AnalyzeResult struct {
	ExchangeID      uint             `json:"exchange_id,omitempty"`
	DocumentID      uint             `json:"document_id"`
	Question        string           `json:"question"`
	Answer          string           `json:"answer"`
	Evidence        []string         `json:"evidence"`
	ConfidenceScore int              `json:"confidence_score"`
	Reasoning       string           `json:"reasoning"`
	Outcome         pipeline.Outcome `json:"outcome"`
	Warning         string           `json:"warning,omitempty"`
}

// Analyze answers a question against one of the user's documents and records
// the exchange. A storage failure does not discard the answer; it is reported
// through Warning instead.
func (s *AnalysisService) Analyze(ctx context.Context, input AnalyzeInput) (*AnalyzeResult, error) {
	question := strings.TrimSpace(input.Question)
	if input.UserID == 0 || input.DocumentID == 0 || question == "" {
		return nil, ErrInvalidInput
	}

	doc, err := s.docs.GetByIDAndUserID(ctx, input.DocumentID, input.UserID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	ranked := s.ranker.Rank(doc.Chunks, question)
	synthesis := s.synthesizer.Synthesize(ctx, question, ranked)

	logger := s.logger.With("document_id", doc.ID, "user_id", input.UserID)

	if synthesis.Outcome == pipeline.OutcomeFailed {
		logger.Warn("synthesis failed", "error", synthesis.Err, "ranked", len(ranked))
		if s.cfg.RecordFailures {
			stub := &model.Exchange{
				UserID:     input.UserID,
				DocumentID: doc.ID,
				Question:   question,
				Evidence:   []string{},
				Outcome:    string(pipeline.OutcomeFailed),
			}
			if err := s.record(ctx, stub); err != nil {
				logger.Warn("record failed exchange", "error", err)
			}
		}
		return nil, synthesis.Err
	}

	answer := synthesis.Answer
	exchange := &model.Exchange{
		UserID:          input.UserID,
		DocumentID:      doc.ID,
		Question:        question,
		Answer:          &answer.Answer,
		Evidence:        answer.Evidence,
		ConfidenceScore: &answer.ConfidenceScore,
		Reasoning:       &answer.Reasoning,
		Outcome:         string(synthesis.Outcome),
	}

	result := &AnalyzeResult{
		DocumentID:      doc.ID,
		Question:        question,
		Answer:          answer.Answer,
		Evidence:        answer.Evidence,
		ConfidenceScore: answer.ConfidenceScore,
		Reasoning:       answer.Reasoning,
		Outcome:         synthesis.Outcome,
	}

	if err := s.record(ctx, exchange); err != nil {
		logger.Warn("record exchange", "error", err)
		result.Warning = ErrPersistence.Error()
	} else {
		result.ExchangeID = exchange.ID
	}

	if answer.Repaired {
		logger.Warn("confidence score repaired", "confidence", answer.ConfidenceScore)
	}
	logger.Info("document analyzed",
		"outcome", synthesis.Outcome,
		"ranked", len(ranked),
		"confidence", answer.ConfidenceScore,
		"confidence_repaired", answer.Repaired,
	)
	return result, nil
}

func (s *AnalysisService) record(ctx context.Context, exchange *model.Exchange) error {
	if err := s.recorder.Record(ctx, exchange); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.invalidate(ctx, exchange.DocumentID)
	return nil
}

func (s *AnalysisService) invalidate(ctx context.Context, documentID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, documentID); err != nil {
		s.logger.Warn("invalidate exchange cache", "error", err, "document_id", documentID)
	}
}

func (s *AnalysisService) ListDocuments(ctx context.Context, userID uint) ([]model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.docs.ListByUserID(ctx, userID)
}

func (s *AnalysisService) GetDocument(ctx context.Context, userID, documentID uint) (*model.Document, error) {
	if userID == 0 || documentID == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.docs.GetByIDAndUserID(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// DeleteDocument removes the document together with its exchanges.
func (s *AnalysisService) DeleteDocument(ctx context.Context, userID, documentID uint) error {
	if userID == 0 || documentID == 0 {
		return ErrInvalidInput
	}
	deleted, err := s.docs.DeleteByIDAndUserID(ctx, documentID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrDocumentNotFound
	}
	s.invalidate(ctx, documentID)
	return nil
}

// ListExchanges returns the newest exchanges first. The cache is skipped while
// the document is marked dirty so a just-recorded exchange is never hidden.
func (s *AnalysisService) ListExchanges(ctx context.Context, userID, documentID uint) ([]model.Exchange, error) {
	if _, err := s.GetDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}

	dirty := false
	if s.cache != nil {
		var err error
		dirty, err = s.cache.IsDirty(ctx, documentID)
		if err != nil {
			s.logger.Warn("check exchange cache", "error", err, "document_id", documentID)
			dirty = true
		}
		if !dirty {
			cached, ok, err := s.cache.GetExchanges(ctx, documentID)
			if err != nil {
				s.logger.Warn("read exchange cache", "error", err, "document_id", documentID)
			} else if ok {
				return cached, nil
			}
		}
	}

	list, err := s.exchanges.ListByDocumentID(ctx, userID, documentID, s.cfg.HistoryLimit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && !dirty {
		if err := s.cache.SetExchanges(ctx, documentID, list); err != nil {
			s.logger.Warn("write exchange cache", "error", err, "document_id", documentID)
		}
	}
	return list, nil
}
