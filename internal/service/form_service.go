package service

import (
	"context"
	"errors"

	"docfill/internal/domain"
	"docfill/internal/logger"
	"docfill/internal/metrics"
	"docfill/internal/port"
)

// FormService drives one browser session from first upload to submission.
type FormService interface {
	// AnalyzeAndStore analyzes a document and records its fields in the session.
	AnalyzeAndStore(ctx context.Context, input AnalyzeInput) (*AnalyzeResult, error)
	// Fetch returns the accumulated record, or false when nothing was analyzed yet.
	Fetch(ctx context.Context, sessionID string) (domain.SessionRecord, bool, error)
	// Finalize destroys the session record and purges its archived uploads.
	Finalize(ctx context.Context, sessionID string) error
}

type formService struct {
	analysis AnalysisService
	store    port.SessionStore
	archive  *ArchiveTarget
	metrics  *metrics.Metrics
	log      logger.Logger
}

// NewFormService creates a new FormService implementation.
// archive should be the same target the AnalysisService writes to; nil skips
// the purge.
func NewFormService(
	analysis AnalysisService,
	store port.SessionStore,
	archive *ArchiveTarget,
	m *metrics.Metrics,
	log logger.Logger,
) FormService {
	return &formService{
		analysis: analysis,
		store:    store,
		archive:  archive,
		metrics:  m,
		log:      log.Named("form"),
	}
}

func (s *formService) AnalyzeAndStore(ctx context.Context, input AnalyzeInput) (*AnalyzeResult, error) {
	result, err := s.analysis.Analyze(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, input.SessionID, result.DocumentType, result.Fields); err != nil {
		s.log.Error("storing extracted fields failed",
			logger.String("session_id", input.SessionID),
			logger.String("document_type", result.DocumentType.String()),
			logger.Error(err),
		)
		return nil, sessionError("form.AnalyzeAndStore", err)
	}
	return result, nil
}

func (s *formService) Fetch(ctx context.Context, sessionID string) (domain.SessionRecord, bool, error) {
	record, ok, err := s.store.Get(ctx, sessionID)
	if err != nil {
		s.log.Error("reading session failed", logger.String("session_id", sessionID), logger.Error(err))
		return nil, false, sessionError("form.Fetch", err)
	}
	if !ok || len(record) == 0 {
		return nil, false, nil
	}
	return record, true, nil
}

func (s *formService) Finalize(ctx context.Context, sessionID string) error {
	if err := s.store.Destroy(ctx, sessionID); err != nil {
		s.metrics.ObserveFinalize(metrics.FinalizeError)
		s.log.Error("destroying session failed", logger.String("session_id", sessionID), logger.Error(err))
		return sessionError("form.Finalize", err)
	}
	s.metrics.ObserveFinalize(metrics.FinalizeOK)
	s.log.Info("session finalized", logger.String("session_id", sessionID))
	s.purgeArchive(ctx, sessionID)
	return nil
}

// purgeArchive removes the session's archived uploads. Failures are logged
// only; the session is already gone.
func (s *formService) purgeArchive(ctx context.Context, sessionID string) {
	if !s.archive.enabled() || sessionID == "" {
		return
	}
	prefix := archivePrefix(sessionID)
	removed, err := s.archive.Storage.DeletePrefix(ctx, s.archive.Bucket, prefix)
	if err != nil {
		s.log.Warn("purging archived uploads failed",
			logger.String("session_id", sessionID),
			logger.String("prefix", prefix),
			logger.Int("removed", removed),
			logger.Error(err),
		)
		return
	}
	s.log.Debug("purged archived uploads",
		logger.String("session_id", sessionID),
		logger.Int("removed", removed),
	)
}

// sessionError makes sure every store failure satisfies errors.Is(err, ErrSessionOperation).
func sessionError(operation string, err error) error {
	if errors.Is(err, domain.ErrSessionOperation) {
		return err
	}
	return domain.WrapError(domain.ErrSessionOperation, operation, err)
}
