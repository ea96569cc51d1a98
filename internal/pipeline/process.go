package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"omnigrade/internal"
	"omnigrade/internal/config"
	"omnigrade/internal/courses"
	"omnigrade/internal/ingest"
	"omnigrade/internal/ocr"
	"omnigrade/internal/storage"
	"omnigrade/internal/util"
)

const debugPreviewRows = 5

type ProcessingService struct {
	db     *storage.DB
	cfg    config.Config
	reader ingest.Reader
	log    *slog.Logger
}

func NewProcessingService(db *storage.DB, cfg config.Config, engine ocr.Engine, logger *slog.Logger) *ProcessingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessingService{db: db, cfg: cfg, reader: ingest.Reader{Engine: engine}, log: logger}
}

type ProcessResult struct {
	ImportID int
	Sources  int
	Failed   int
	Rows     int
	Credited int
	Warnings []courses.SplitWarning
}

func (s *ProcessingService) ProcessPending(ctx context.Context, limit int, provider string) (int, int, error) {
	pending, err := s.db.ListImportsByStatus(internal.ImportPending, limit)
	if err != nil {
		return 0, 0, err
	}
	processedImports := 0
	processedRows := 0
	for _, imp := range pending {
		if provider != "" && imp.Provider != provider {
			continue
		}
		res, err := s.ProcessImport(ctx, imp)
		if err != nil {
			return processedImports, processedRows, err
		}
		processedImports++
		processedRows += res.Rows
	}
	return processedImports, processedRows, nil
}

func (s *ProcessingService) ProcessByProviderRef(ctx context.Context, provider, ref string) (ProcessResult, error) {
	imp, err := s.db.GetImportByProviderRef(provider, ref)
	if err != nil {
		return ProcessResult{}, err
	}
	if imp == nil {
		return ProcessResult{}, fmt.Errorf("import not found: provider=%s ref=%s", provider, ref)
	}
	return s.ProcessImport(ctx, *imp)
}

// ProcessImport reads every source of an import in upload order, merges the
// rows across sources and stores the result. A source that fails is logged
// and contributes no rows; only storage errors and cancellation abort.
func (s *ProcessingService) ProcessImport(ctx context.Context, imp internal.ImportRow) (ProcessResult, error) {
	start := time.Now()
	trace := traceID()
	log := s.log.With("trace_id", trace, "import_id", imp.ID)

	if err := s.attachMailSources(imp); err != nil {
		_ = s.db.UpdateImportStatus(imp.ID, internal.ImportFailed)
		return ProcessResult{}, err
	}
	if err := s.db.ClearImportProcessing(imp.ID); err != nil {
		return ProcessResult{}, err
	}
	sources, err := s.db.ListSources(imp.ID)
	if err != nil {
		return ProcessResult{}, err
	}

	res := ProcessResult{ImportID: imp.ID, Sources: len(sources)}
	var cands []internal.CourseRecord
	timings := map[string]float64{}
	for _, src := range sources {
		srcStart := time.Now()
		rows, err := s.processSource(ctx, src, log)
		timings[fmt.Sprintf("source%dMs", src.Ordinal)] = float64(time.Since(srcStart).Milliseconds())
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		if err != nil {
			res.Failed++
			log.Warn("import.source.failed", "source_id", src.ID, "name", src.Name, "kind", src.Kind, "err", err)
			continue
		}
		cands = append(cands, rows...)
	}

	merged, warnings := courses.MergeWithReport(cands)
	for _, w := range warnings {
		log.Warn("import.merge.split", "course", w.CourseName, "class_code", w.ClassCode)
	}
	res.Warnings = warnings

	final := courses.Finalize(merged)
	matcher, err := s.creditMatcher()
	if err != nil {
		return res, err
	}
	if matcher != nil {
		final, res.Credited = matcher.Autofill(final)
	}
	res.Rows = len(final)

	if err := s.db.ReplaceCourses(imp.ID, final); err != nil {
		return res, err
	}
	status := internal.ImportProcessed
	if res.Sources > 0 && res.Failed == res.Sources {
		status = internal.ImportFailed
	}
	if err := s.db.UpdateImportStatus(imp.ID, status); err != nil {
		return res, err
	}

	timings["totalMs"] = float64(time.Since(start).Milliseconds())
	counts := map[string]int{"sources": res.Sources, "failed": res.Failed, "candidates": len(cands), "rows": res.Rows, "credited": res.Credited, "splitWarnings": len(warnings)}
	_ = s.db.InsertRun(trace, imp.ID, timings, counts)

	log.Info("import.process.ok", "sources", res.Sources, "failed", res.Failed, "rows", res.Rows, "credited", res.Credited, "duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

func (s *ProcessingService) processSource(ctx context.Context, src internal.SourceRow, log *slog.Logger) ([]internal.CourseRecord, error) {
	src.Engine = engineName(src.Kind, s.reader.Engine)

	content, err := os.ReadFile(src.RawRef)
	if err != nil {
		return nil, s.failSource(src, internal.SourceFailed, err)
	}

	text, err := s.reader.Text(ctx, src.Kind, content)
	if err != nil {
		status := internal.SourceFailed
		if errors.Is(err, ocr.ErrEngineUnavailable) {
			status = internal.SourceOCRUnavailable
		}
		return nil, s.failSource(src, status, err)
	}

	rows, tr := courses.ExtractWithTrace(text)
	src.TextLen = tr.TextLen
	src.TextPreview = tr.Preview
	src.Status = internal.SourceParsed
	if len(rows) == 0 {
		src.Status = internal.SourceEmpty
	}

	if err := s.db.InsertCandidates(src.ID, rows); err != nil {
		return nil, err
	}
	if err := s.db.UpdateSourceResult(src, tr); err != nil {
		return nil, err
	}

	log.Debug("import.source.ok",
		"source_id", src.ID,
		"name", src.Name,
		"kind", src.Kind,
		"engine", src.Engine,
		"rows", len(rows),
		"reason", tr.Reason,
		"codes", len(tr.CodeHits),
		"percents", len(tr.PercentTokens),
		"preview", previewRows(rows),
	)
	return rows, nil
}

func (s *ProcessingService) failSource(src internal.SourceRow, status internal.SourceStatus, cause error) error {
	src.Status = status
	src.Error = cause.Error()
	if err := s.db.UpdateSourceResult(src, nil); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// attachMailSources turns the parts of a stored e-mail into sources the
// first time the import is processed.
func (s *ProcessingService) attachMailSources(imp internal.ImportRow) error {
	if imp.RawRef == "" {
		return nil
	}
	existing, err := s.db.ListSources(imp.ID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	raw, err := os.ReadFile(imp.RawRef)
	if err != nil {
		return err
	}
	env, err := ingest.ReadEmail(raw)
	if err != nil {
		return fmt.Errorf("read email: %w", err)
	}
	for i, part := range env.Sources() {
		kind, err := part.Kind()
		if err != nil {
			continue
		}
		hash, path, err := storeBlob(s.cfg.SourcesDir, part.Name, part.Content)
		if err != nil {
			return err
		}
		if _, err := s.db.AddSource(imp.ID, i+1, part.Name, kind, hash, path); err != nil {
			return err
		}
	}
	return nil
}

func engineName(kind internal.SourceKind, engine ocr.Engine) string {
	if kind != internal.SourceImage {
		return string(kind)
	}
	if engine == nil {
		return "none"
	}
	return engine.Status().Engine
}

func previewRows(rows []internal.CourseRecord) string {
	parts := make([]string, 0, debugPreviewRows)
	for i, r := range rows {
		if i == debugPreviewRows {
			break
		}
		parts = append(parts, fmt.Sprintf("%s [%s] grade=%s avg=%s", r.CourseName, r.ClassCode, formatValue(r.YourGrade), formatValue(r.ClassAvg)))
	}
	return strings.Join(parts, "; ")
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", util.Round2(*v))
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
