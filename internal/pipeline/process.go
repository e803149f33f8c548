package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhillyerd/enmime"

	"fitout/internal"
	"fitout/internal/catalog"
	"fitout/internal/config"
	"fitout/internal/storage"
	"fitout/internal/util"
)

type IngestService struct {
	db      *storage.DB
	cfg     config.Config
	prof    Profile
	fetcher *catalog.Fetcher
}

func NewIngestService(db *storage.DB, cfg config.Config) (*IngestService, error) {
	prof, err := LoadProfile(cfg)
	if err != nil {
		return nil, err
	}
	return &IngestService{db: db, cfg: cfg, prof: prof, fetcher: catalog.NewFetcher(cfg)}, nil
}

func (s *IngestService) Profile() Profile {
	return s.prof
}

// IngestFile runs a catalog file through the full pipeline and persists one
// catalog per sheet that yields items. A sheet that fails classification is
// reported in the result and never blocks the other sheets.
func (s *IngestService) IngestFile(path, supplier string) (internal.BulkResult, error) {
	return s.ingestFileAs(path, path, supplier, nil)
}

// IngestURL downloads the catalog first, then ingests the local copy. The
// original URL stays the catalog source on record.
func (s *IngestService) IngestURL(ctx context.Context, rawURL, supplier string) (internal.BulkResult, error) {
	localPath, err := s.fetcher.FetchToFile(ctx, rawURL)
	if err != nil {
		return internal.BulkResult{}, err
	}
	fmt.Printf("fetched %s -> %s\n", rawURL, localPath)
	return s.ingestFileAs(localPath, rawURL, supplier, nil)
}

func (s *IngestService) ingestFileAs(path, source, supplier string, emailID *int) (internal.BulkResult, error) {
	started := nowUTC()

	tables, err := LoadFile(path)
	if err != nil {
		return internal.BulkResult{}, err
	}

	images := ExtractedImages{ByRow: map[ImageKey]string{}}
	if format := formatForPath(path); format == internal.FormatXLSX || format == internal.FormatPDF {
		images = s.extractImages(format, path)
	}

	result, skippedRows, err := s.ingestTables(tables, source, supplier, images)
	if err != nil {
		return result, err
	}

	s.recordRun(source, supplier, emailID, started, result, skippedRows)
	return result, nil
}

func (s *IngestService) ingestTables(tables []internal.RawTable, source, supplier string, images ExtractedImages) (internal.BulkResult, []internal.SkippedRow, error) {
	result := internal.BulkResult{}
	var allSkippedRows []internal.SkippedRow

	for _, table := range tables {
		label := table.Sheet
		if label == "" {
			label = filepath.Base(source)
		}

		if len(table.Rows) == 0 {
			result.Skipped = append(result.Skipped, internal.SkippedSheet{Sheet: label, Reason: "no rows"})
			continue
		}

		normalized := NormalizeTable(table, s.prof)
		if len(normalized.Rows) == 0 {
			result.Skipped = append(result.Skipped, internal.SkippedSheet{Sheet: label, Reason: "no usable rows"})
			continue
		}
		roles := ClassifyColumns(normalized.Columns, s.prof)
		items, skippedRows, err := BuildItems(normalized, roles, supplier, s.prof.DefaultCurrency, images.ByRow)
		if err != nil {
			result.Skipped = append(result.Skipped, internal.SkippedSheet{Sheet: label, Reason: err.Error()})
			continue
		}
		allSkippedRows = append(allSkippedRows, skippedRows...)
		if len(items) == 0 {
			result.Skipped = append(result.Skipped, internal.SkippedSheet{Sheet: label, Reason: "no usable rows"})
			continue
		}

		catalogID, err := s.db.SaveSupplierCatalog(supplier, source, table.Sheet, items)
		if err != nil {
			return result, allSkippedRows, err
		}
		result.Saved = append(result.Saved, internal.SavedCatalog{
			CatalogID: catalogID,
			Supplier:  supplier,
			Source:    source,
			Sheet:     table.Sheet,
			Items:     len(items),
		})
		fmt.Printf("saved catalog: supplier=%s sheet=%q items=%d skippedRows=%d\n", supplier, label, len(items), len(skippedRows))
	}

	return result, allSkippedRows, nil
}

func (s *IngestService) extractImages(format internal.TableFormat, path string) ExtractedImages {
	extractor, err := NewImageExtractor(format, path)
	if err != nil {
		fmt.Printf("image extraction unavailable for %s: %v\n", filepath.Base(path), err)
		return ExtractedImages{ByRow: map[ImageKey]string{}}
	}

	destDir := filepath.Join(s.cfg.UploadDir, "images", uuid.NewString())
	images, err := extractor.Extract(destDir)
	if err != nil {
		fmt.Printf("image extraction failed for %s: %v\n", filepath.Base(path), err)
		return ExtractedImages{ByRow: map[ImageKey]string{}}
	}

	for _, imgPath := range images.ByRow {
		if _, err := MakeThumbnail(imgPath, s.cfg.ThumbnailMaxPx, s.cfg.ThumbnailQuality); err != nil {
			fmt.Printf("thumbnail failed for %s: %v\n", filepath.Base(imgPath), err)
		}
	}
	for _, imgPath := range images.Loose {
		if _, err := MakeThumbnail(imgPath, s.cfg.ThumbnailMaxPx, s.cfg.ThumbnailQuality); err != nil {
			fmt.Printf("thumbnail failed for %s: %v\n", filepath.Base(imgPath), err)
		}
	}
	return images
}

// IngestEmail pulls catalog attachments and HTML body tables out of a
// stored message and runs them through the same ingestion path as file
// uploads. The supplier comes from the sender mapping, falling back to the
// sender domain.
func (s *IngestService) IngestEmail(email internal.EmailRow) (internal.BulkResult, error) {
	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		return internal.BulkResult{}, err
	}
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return internal.BulkResult{}, fmt.Errorf("parse email %d: %w", email.ID, err)
	}

	supplier := email.Supplier
	if supplier == "" {
		supplier, err = s.resolveSupplier(email.Sender)
		if err != nil {
			return internal.BulkResult{}, err
		}
	}

	combined := internal.BulkResult{}
	attachDir := filepath.Join(s.cfg.UploadDir, "mail", fmt.Sprintf("%d", email.ID))
	for _, att := range env.Attachments {
		name := strings.TrimSpace(att.FileName)
		if !catalogAttachment(name) {
			continue
		}
		if err := os.MkdirAll(attachDir, 0o755); err != nil {
			return combined, err
		}
		attPath := filepath.Join(attachDir, sanitizeFileName(name))
		if err := os.WriteFile(attPath, att.Content, 0o644); err != nil {
			return combined, err
		}

		source := fmt.Sprintf("email:%s/%s", email.MessageID, name)
		res, err := s.ingestFileAs(attPath, source, supplier, &email.ID)
		if err != nil {
			combined.Skipped = append(combined.Skipped, internal.SkippedSheet{Sheet: name, Reason: err.Error()})
			continue
		}
		combined.Saved = append(combined.Saved, res.Saved...)
		combined.Skipped = append(combined.Skipped, res.Skipped...)
	}

	if env.HTML != "" {
		source := fmt.Sprintf("email:%s#body", email.MessageID)
		tables := ParseHTMLTables(env.HTML, source)
		if len(tables) > 0 {
			started := nowUTC()
			res, skippedRows, err := s.ingestTables(tables, source, supplier, ExtractedImages{ByRow: map[ImageKey]string{}})
			if err != nil {
				return combined, err
			}
			s.recordRun(source, supplier, &email.ID, started, res, skippedRows)
			combined.Saved = append(combined.Saved, res.Saved...)
			combined.Skipped = append(combined.Skipped, res.Skipped...)
		}
	}

	_ = s.db.SetEmailSupplier(email.ID, supplier)
	if len(combined.Saved) > 0 {
		_ = s.db.UpdateEmailStatus(email.ID, "ingested")
	} else {
		_ = s.db.UpdateEmailStatus(email.ID, "processed")
	}
	return combined, nil
}

// ProcessPending ingests fetched messages one by one. A broken message is
// marked failed and the rest keep going.
func (s *IngestService) ProcessPending(limit int) (int, int, error) {
	pending, err := s.db.ListEmailsByStatus("fetched", limit)
	if err != nil {
		return 0, 0, err
	}

	processed := 0
	saved := 0
	for _, email := range pending {
		res, err := s.IngestEmail(email)
		if err != nil {
			fmt.Printf("email %d failed: %v\n", email.ID, err)
			_ = s.db.UpdateEmailStatus(email.ID, "failed")
			continue
		}
		processed++
		saved += len(res.Saved)
	}
	return processed, saved, nil
}

func (s *IngestService) resolveSupplier(sender string) (string, error) {
	addr := util.EmailAddress(sender)
	if addr == "" {
		return "", fmt.Errorf("cannot infer supplier: empty sender")
	}

	supplier, err := s.db.SupplierForSender(addr)
	if err != nil {
		return "", err
	}
	if supplier != "" {
		return supplier, nil
	}

	if domain := util.EmailDomain(addr); domain != "" {
		return domain, nil
	}
	return addr, nil
}

func catalogAttachment(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range []string{".csv", ".xlsx", ".xlsm", ".pdf"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func sanitizeFileName(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[len(out)-120:]
	}
	if out == "" {
		out = "attachment"
	}
	return out
}

func (s *IngestService) recordRun(source, supplier string, emailID *int, started string, result internal.BulkResult, skippedRows []internal.SkippedRow) {
	run := internal.IngestRun{
		ID:         uuid.NewString(),
		Source:     source,
		Supplier:   supplier,
		EmailID:    emailID,
		StartedAt:  started,
		FinishedAt: nowUTC(),
		Saved:      len(result.Saved),
		Skipped:    len(result.Skipped),
		Detail:     storage.MarshalSkipped(result.Skipped, skippedRows),
	}
	if err := s.db.InsertIngestRun(run); err != nil {
		fmt.Printf("record ingest run: %v\n", err)
	}
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
