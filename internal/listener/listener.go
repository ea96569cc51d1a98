package listener

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"omnigrade/internal"
	"omnigrade/internal/config"
	"omnigrade/internal/connectors"
	gmailconnector "omnigrade/internal/connectors/gmail"
	imapconnector "omnigrade/internal/connectors/imap"
	"omnigrade/internal/ocr"
	"omnigrade/internal/pipeline"
	"omnigrade/internal/rscore"
	"omnigrade/internal/storage"
)

type Service struct {
	db        *storage.DB
	cfg       config.Config
	engine    ocr.Engine
	log       *slog.Logger
	connector connectors.MailConnector
}

func NewService(db *storage.DB, cfg config.Config, engine ocr.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, cfg: cfg, engine: engine, log: logger}
}

// WithConnector overrides the connector picked from MAIL_LISTENER_PROVIDER.
func (s *Service) WithConnector(c connectors.MailConnector) *Service {
	s.connector = c
	return s
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.MailListenerIntervalSec) * time.Second
	for {
		if err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Error("listener.cycle.failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func (s *Service) RunCycle(ctx context.Context) error {
	start := time.Now()
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	mailConnector, err := s.makeConnector(ctx, provider)
	if err != nil {
		return err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector, s.log)
	fetchResult, err := fetchService.FetchAndStore(ctx, s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return err
	}

	processor := pipeline.NewProcessingService(s.db, s.cfg, s.engine, s.log)
	processedImports, rows, err := processor.ProcessPending(ctx, s.cfg.MailListenerProcessBatch, provider)
	if err != nil {
		return err
	}

	exported := 0
	if s.cfg.MailListenerAutoExport {
		if exported, err = s.exportProcessed(provider); err != nil {
			return err
		}
	}

	s.log.Info("listener.cycle.ok",
		"provider", provider,
		"fetched", fetchResult.Fetched,
		"new", fetchResult.New,
		"processed", processedImports,
		"rows", rows,
		"exported", exported,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *Service) exportProcessed(provider string) (int, error) {
	imports, err := s.db.ListImportsByStatus(internal.ImportProcessed, 200)
	if err != nil {
		return 0, err
	}

	exported := 0
	for _, imp := range imports {
		if imp.Provider != provider {
			continue
		}
		rows, err := s.db.ListCourses(imp.ID)
		if err != nil {
			return exported, err
		}
		if len(rows) == 0 {
			continue
		}
		filename := fmt.Sprintf("%d_%s.xlsx", imp.ID, sanitizeRef(imp.Ref))
		outputPath := filepath.Join(s.cfg.OutputDir, "listener", filename)
		if err := pipeline.ExportRowsToXLSX(rows, rscore.OffsetsFromConfig(s.cfg), outputPath); err != nil {
			return exported, err
		}
		if err := s.db.UpdateImportStatus(imp.ID, internal.ImportExported); err != nil {
			return exported, err
		}
		exported++
		s.log.Debug("listener.export.ok", "import_id", imp.ID, "path", outputPath, "rows", len(rows))
	}
	return exported, nil
}

func (s *Service) makeConnector(ctx context.Context, provider string) (connectors.MailConnector, error) {
	if s.connector != nil {
		return s.connector, nil
	}
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(ctx, s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}

func sanitizeRef(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_", "@", "_")
	out := strings.Trim(repl.Replace(input), "_")
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
