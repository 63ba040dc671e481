package importer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"callcenter-platform/internal/company"

	"github.com/google/uuid"
)

var ErrNothingToImport = errors.New("importer: nothing to import")

type Service struct {
	parser     *Parser
	store      PreviewStore
	companies  *company.Service
	previewTTL time.Duration
	log        *slog.Logger
}

func NewService(parser *Parser, store PreviewStore, companies *company.Service, previewTTL time.Duration, log *slog.Logger) *Service {
	if previewTTL <= 0 {
		previewTTL = 30 * time.Minute
	}
	return &Service{
		parser:     parser,
		store:      store,
		companies:  companies,
		previewTTL: previewTTL,
		log:        log,
	}
}

// Preview parses the upload and buffers the rows under a fresh session id.
// Nothing is written to the company table here. An empty file returns an
// empty session: rows buffer nothing and Confirm will reject it.
func (s *Service) Preview(ctx context.Context, raw []byte) (string, []company.Company, error) {
	rows, err := s.parser.Parse(raw)
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()
	if err := s.store.Put(ctx, id, rows, s.previewTTL); err != nil {
		return "", nil, err
	}
	s.log.Info("import preview created", "session_id", id, "rows", len(rows))
	return id, rows, nil
}

// Confirm commits a preview. Inline rows take precedence; otherwise the
// buffered session rows are used. The commit is a destructive replace-all:
// every existing company is deleted and the confirmed rows inserted in one
// transaction. The preview session is cleared afterwards.
func (s *Service) Confirm(ctx context.Context, sessionID string, rows []company.Company) (int, error) {
	if len(rows) == 0 && sessionID != "" {
		stored, err := s.store.Get(ctx, sessionID)
		if err != nil && !errors.Is(err, ErrPreviewNotFound) {
			return 0, err
		}
		rows = stored
	}
	if len(rows) == 0 {
		return 0, ErrNothingToImport
	}

	if err := s.companies.ReplaceAll(ctx, rows); err != nil {
		return 0, err
	}

	if sessionID != "" {
		if err := s.store.Delete(ctx, sessionID); err != nil {
			s.log.Warn("import preview cleanup failed", "session_id", sessionID, "error", err)
		}
	}
	s.log.Info("import confirmed", "rows", len(rows))
	return len(rows), nil
}
