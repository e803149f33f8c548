package listener

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fitout/internal/config"
	"fitout/internal/connectors"
	"fitout/internal/pipeline"
	"fitout/internal/storage"
)

// Service polls a mailbox on an interval and funnels supplier mail into
// catalog ingestion.
type Service struct {
	db     *storage.DB
	cfg    config.Config
	ingest *pipeline.IngestService
}

func NewService(db *storage.DB, cfg config.Config) (*Service, error) {
	ingest, err := pipeline.NewIngestService(db, cfg)
	if err != nil {
		return nil, err
	}
	return &Service{db: db, cfg: cfg, ingest: ingest}, nil
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(); err != nil {
			fmt.Printf("listener cycle error: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.MailListenerIntervalSec) * time.Second):
		}
	}
}

// RunOnce performs a single fetch+ingest cycle, for cron-style invocation.
func (s *Service) RunOnce() error {
	return s.runCycle()
}

// runCycle fetches a batch of mail and, unless auto-ingest is off, pushes
// pending messages through the catalog pipeline. The connector is rebuilt
// each cycle so a transient provider failure heals on the next pass.
func (s *Service) runCycle() error {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	conn, err := connectors.New(s.cfg, provider)
	if err != nil {
		return err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, conn)
	fetchResult, err := fetchService.FetchAndStore(s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return err
	}

	processed, saved := 0, 0
	if s.cfg.MailListenerAutoIngest {
		processed, saved, err = s.ingest.ProcessPending(s.cfg.MailListenerBatch)
		if err != nil {
			return err
		}
	}

	fmt.Printf("listener cycle done provider=%s fetched=%d new=%d mapped=%d processed=%d catalogs=%d\n",
		provider, fetchResult.Fetched, fetchResult.New, fetchResult.Mapped, processed, saved)
	return nil
}
