package connectors

import (
	"context"
	"log/slog"

	"omnigrade/internal/storage"
)

type FetchService struct {
	connector MailConnector
	store     *MailStoreService
	log       *slog.Logger
}

type FetchResult struct {
	Fetched int
	Stored  int
	New     int
}

func NewFetchService(db *storage.DB, rawMailDir string, connector MailConnector, logger *slog.Logger) *FetchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchService{
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
		log:       logger,
	}
}

func (s *FetchService) FetchAndStore(ctx context.Context, label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(ctx, label, max)
	if err != nil {
		return FetchResult{}, err
	}

	res := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		imp, created, err := s.store.Store(msg)
		if err != nil {
			return res, err
		}
		res.Stored++
		if created {
			res.New++
		}
		s.log.Debug("mail.store.ok", "provider", msg.Provider, "message_id", msg.MessageID, "import_id", imp.ID, "new", created)
	}
	return res, nil
}
