package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"omnigrade/internal"
	"omnigrade/internal/storage"
)

type MailStoreService struct {
	db         *storage.DB
	rawMailDir string
}

func NewMailStoreService(db *storage.DB, rawMailDir string) *MailStoreService {
	return &MailStoreService{db: db, rawMailDir: rawMailDir}
}

// Store keeps the raw message on disk and registers it as a pending import.
// A message seen before keeps its import and status.
func (s *MailStoreService) Store(msg internal.FetchedMailMessage) (internal.ImportRow, bool, error) {
	hashBytes := sha256.Sum256(msg.Raw)
	hash := hex.EncodeToString(hashBytes[:])

	if err := os.MkdirAll(s.rawMailDir, 0o755); err != nil {
		return internal.ImportRow{}, false, err
	}

	rawPath := filepath.Join(s.rawMailDir, hash+".eml")
	if _, err := os.Stat(rawPath); os.IsNotExist(err) {
		if err := os.WriteFile(rawPath, msg.Raw, 0o644); err != nil {
			return internal.ImportRow{}, false, err
		}
	}

	existing, err := s.db.GetImportByProviderRef(msg.Provider, msg.MessageID)
	if err != nil {
		return internal.ImportRow{}, false, err
	}
	imp, err := s.db.UpsertImport(internal.ImportRow{
		Provider:   msg.Provider,
		Ref:        msg.MessageID,
		Label:      msg.Subject,
		Subject:    msg.Subject,
		Sender:     msg.From,
		ReceivedAt: msg.ReceivedAt,
		Hash:       hash,
		RawRef:     rawPath,
	})
	return imp, existing == nil, err
}
