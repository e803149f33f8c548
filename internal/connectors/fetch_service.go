package connectors

import (
	"fitout/internal/storage"
	"fitout/internal/util"
)

type FetchService struct {
	db        *storage.DB
	connector MailConnector
	store     *MailStoreService
}

type FetchResult struct {
	Fetched int
	New     int
	Known   int
	Mapped  int
}

func NewFetchService(db *storage.DB, rawMailDir string, connector MailConnector) *FetchService {
	return &FetchService{
		db:        db,
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
	}
}

// FetchAndStore pulls a batch from the mailbox, archives each message and
// tags it with a supplier when the sender is in the mapping table. Unmapped
// senders are left for ingestion to resolve.
func (s *FetchService) FetchAndStore(label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(label, max)
	if err != nil {
		return FetchResult{}, err
	}

	result := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		row, isNew, err := s.store.Store(msg)
		if err != nil {
			return result, err
		}
		if isNew {
			result.New++
		} else {
			result.Known++
		}

		if row.Supplier == "" {
			supplier, err := s.db.SupplierForSender(util.EmailAddress(row.Sender))
			if err != nil {
				return result, err
			}
			if supplier != "" {
				if err := s.db.SetEmailSupplier(row.ID, supplier); err != nil {
					return result, err
				}
				result.Mapped++
			}
		}
	}

	return result, nil
}
