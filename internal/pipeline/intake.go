package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"omnigrade/internal"
	"omnigrade/internal/ingest"
)

const ProviderLocal = "local"

// ImportFiles registers local files as one import, in the order given. The
// same set of files maps to the same import so re-running reprocesses it.
func (s *ProcessingService) ImportFiles(paths []string, label string) (internal.ImportRow, error) {
	if len(paths) == 0 {
		return internal.ImportRow{}, fmt.Errorf("no input files")
	}

	type staged struct {
		name, hash, path string
		kind             internal.SourceKind
	}
	var files []staged
	set := sha256.New()
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return internal.ImportRow{}, err
		}
		name := filepath.Base(p)
		kind, err := ingest.DetectKind(name, content)
		if err != nil {
			return internal.ImportRow{}, fmt.Errorf("%s: %w", name, err)
		}
		hash, blob, err := storeBlob(s.cfg.SourcesDir, name, content)
		if err != nil {
			return internal.ImportRow{}, err
		}
		set.Write([]byte(hash))
		files = append(files, staged{name: name, hash: hash, path: blob, kind: kind})
	}
	setHash := hex.EncodeToString(set.Sum(nil))

	imp, err := s.db.UpsertImport(internal.ImportRow{
		Provider:   ProviderLocal,
		Ref:        setHash,
		Label:      firstNonEmpty(label, files[0].name),
		ReceivedAt: time.Now().UTC().Format(time.RFC3339),
		Hash:       setHash,
	})
	if err != nil {
		return internal.ImportRow{}, err
	}
	for i, f := range files {
		if _, err := s.db.AddSource(imp.ID, i+1, f.name, f.kind, f.hash, f.path); err != nil {
			return internal.ImportRow{}, err
		}
	}
	s.log.Info("import.files.ok", "import_id", imp.ID, "sources", len(files), "label", imp.Label)
	return imp, nil
}

// storeBlob writes content under dir as <sha256><ext> and returns the hash
// and path. Existing blobs are left untouched.
func storeBlob(dir, name string, content []byte) (string, string, error) {
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	path := filepath.Join(dir, hash+strings.ToLower(filepath.Ext(name)))
	if _, err := os.Stat(path); err == nil {
		return hash, path, nil
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", "", err
	}
	return hash, path, nil
}
