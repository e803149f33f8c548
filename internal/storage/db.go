package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"fitout/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS catalogs (
  id TEXT PRIMARY KEY,
  supplier TEXT NOT NULL,
  source TEXT NOT NULL,
  sheet TEXT NOT NULL DEFAULT '',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(supplier, source, sheet)
);
CREATE INDEX IF NOT EXISTS idx_catalogs_supplier ON catalogs(supplier);

CREATE TABLE IF NOT EXISTS catalog_items (
  id TEXT PRIMARY KEY,
  catalogId TEXT NOT NULL,
  supplier TEXT NOT NULL,
  itemName TEXT NOT NULL,
  description TEXT,
  specification TEXT,
  unit TEXT,
  price TEXT,
  currency TEXT,
  priceAvailable INTEGER NOT NULL DEFAULT 0,
  photoRef TEXT,
  imagePath TEXT,
  sourceRow INTEGER NOT NULL DEFAULT 0,
  sourceSheet TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(catalogId) REFERENCES catalogs(id)
);
CREATE INDEX IF NOT EXISTS idx_catalog_items_supplier ON catalog_items(supplier);
CREATE INDEX IF NOT EXISTS idx_catalog_items_catalog ON catalog_items(catalogId);

CREATE TABLE IF NOT EXISTS projects (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  hotel TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS procurement_items (
  id TEXT PRIMARY KEY,
  projectId TEXT NOT NULL,
  department TEXT,
  category TEXT,
  itemName TEXT NOT NULL,
  qty REAL,
  unit TEXT,
  budgetPrice TEXT,
  status TEXT NOT NULL DEFAULT 'planned',
  supplier TEXT,
  poNumber TEXT,
  notes TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(projectId) REFERENCES projects(id)
);
CREATE INDEX IF NOT EXISTS idx_procurement_project ON procurement_items(projectId);

CREATE TABLE IF NOT EXISTS emails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  supplier TEXT NOT NULL DEFAULT '',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS supplier_senders (
  sender TEXT PRIMARY KEY,
  supplier TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ingest_runs (
  id TEXT PRIMARY KEY,
  source TEXT NOT NULL,
  supplier TEXT NOT NULL,
  emailId INTEGER,
  startedAt TEXT NOT NULL,
  finishedAt TEXT,
  savedCount INTEGER NOT NULL DEFAULT 0,
  skippedCount INTEGER NOT NULL DEFAULT 0,
  detailJson TEXT NOT NULL DEFAULT '{}',
  FOREIGN KEY(emailId) REFERENCES emails(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// SaveSupplierCatalog replaces whatever the supplier previously had for the
// same source and sheet with the given items, atomically.
func (d *DB) SaveSupplierCatalog(supplier, source, sheet string, items []internal.CatalogItem) (string, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
DELETE FROM catalog_items WHERE catalogId IN (
  SELECT id FROM catalogs WHERE supplier = ? AND source = ? AND sheet = ?
)`, supplier, source, sheet); err != nil {
		return "", err
	}
	if _, err := tx.Exec(`DELETE FROM catalogs WHERE supplier = ? AND source = ? AND sheet = ?`, supplier, source, sheet); err != nil {
		return "", err
	}

	catalogID := uuid.NewString()
	if _, err := tx.Exec(`INSERT INTO catalogs (id, supplier, source, sheet) VALUES (?, ?, ?, ?)`,
		catalogID, supplier, source, sheet); err != nil {
		return "", err
	}

	stmt, err := tx.Prepare(`
INSERT INTO catalog_items (
  id, catalogId, supplier, itemName, description, specification, unit,
  price, currency, priceAvailable, photoRef, imagePath, sourceRow, sourceSheet
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, item := range items {
		id := item.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := stmt.Exec(
			id, catalogID, supplier, item.ItemName, item.Description, item.Specification, item.Unit,
			priceText(item.Price), item.Currency, boolInt(item.Price != nil),
			item.PhotoRef, item.ImagePath, item.SourceRow, item.SourceSheet,
		); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return catalogID, nil
}

const catalogItemColumns = `id, supplier, itemName, description, specification, unit, price, currency, photoRef, imagePath, sourceRow, sourceSheet`

// GetAllCatalogItems returns every stored item grouped by supplier, with
// suppliers in the order their first item was saved.
func (d *DB) GetAllCatalogItems() ([]internal.SupplierCatalog, error) {
	rows, err := d.conn.Query(`SELECT ` + catalogItemColumns + ` FROM catalog_items ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	index := map[string]int{}
	out := []internal.SupplierCatalog{}
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, err
		}
		idx, ok := index[item.Supplier]
		if !ok {
			idx = len(out)
			index[item.Supplier] = idx
			out = append(out, internal.SupplierCatalog{Supplier: item.Supplier})
		}
		out[idx].Items = append(out[idx].Items, item)
	}
	return out, rows.Err()
}

func (d *DB) ListCatalogItemsBySupplier(supplier string) ([]internal.CatalogItem, error) {
	rows, err := d.conn.Query(`SELECT `+catalogItemColumns+` FROM catalog_items WHERE supplier = ? ORDER BY rowid`, supplier)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CatalogItem
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (d *DB) ListCatalogs() ([]internal.SavedCatalog, error) {
	rows, err := d.conn.Query(`
SELECT c.id, c.supplier, c.source, c.sheet, COUNT(i.id)
FROM catalogs c
LEFT JOIN catalog_items i ON i.catalogId = c.id
GROUP BY c.id
ORDER BY c.rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.SavedCatalog
	for rows.Next() {
		var c internal.SavedCatalog
		if err := rows.Scan(&c.CatalogID, &c.Supplier, &c.Source, &c.Sheet, &c.Items); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCatalogItem(rows *sql.Rows) (internal.CatalogItem, error) {
	var item internal.CatalogItem
	var description, specification, unit, price, currency, photoRef, imagePath, sourceSheet sql.NullString
	if err := rows.Scan(
		&item.ID, &item.Supplier, &item.ItemName, &description, &specification, &unit,
		&price, &currency, &photoRef, &imagePath, &item.SourceRow, &sourceSheet,
	); err != nil {
		return internal.CatalogItem{}, err
	}
	item.Description = description.String
	item.Specification = specification.String
	item.Unit = unit.String
	item.Currency = currency.String
	item.PhotoRef = photoRef.String
	item.ImagePath = imagePath.String
	item.SourceSheet = sourceSheet.String
	if price.Valid && price.String != "" {
		if parsed, err := decimal.NewFromString(price.String); err == nil {
			item.Price = &parsed
		}
	}
	item.PriceAvailable = item.Price != nil
	return item, nil
}

func (d *DB) CreateProject(name, hotel string) (internal.Project, error) {
	project := internal.Project{
		ID:        uuid.NewString(),
		Name:      name,
		Hotel:     hotel,
		CreatedAt: nowUTC(),
	}
	_, err := d.conn.Exec(`INSERT INTO projects (id, name, hotel, createdAt) VALUES (?, ?, ?, ?)`,
		project.ID, project.Name, project.Hotel, project.CreatedAt)
	if err != nil {
		return internal.Project{}, err
	}
	return project, nil
}

func (d *DB) GetProject(id string) (*internal.Project, error) {
	var p internal.Project
	var hotel sql.NullString
	err := d.conn.QueryRow(`SELECT id, name, hotel, createdAt FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &hotel, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Hotel = hotel.String
	return &p, nil
}

func (d *DB) ListProjects() ([]internal.Project, error) {
	rows, err := d.conn.Query(`SELECT id, name, hotel, createdAt FROM projects ORDER BY createdAt`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Project
	for rows.Next() {
		var p internal.Project
		var hotel sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &hotel, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Hotel = hotel.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func (d *DB) InsertProcurementItems(items []internal.ProcurementItem) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO procurement_items (
  id, projectId, department, category, itemName, qty, unit,
  budgetPrice, status, supplier, poNumber, notes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		id := item.ID
		if id == "" {
			id = uuid.NewString()
		}
		status := item.Status
		if status == "" {
			status = internal.ProcPlanned
		}
		if _, err := stmt.Exec(
			id, item.ProjectID, item.Department, item.Category, item.ItemName,
			item.Qty, item.Unit, priceText(item.BudgetPrice), status,
			item.Supplier, item.PONumber, item.Notes,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *DB) ListProcurementItems(projectID, status, department string) ([]internal.ProcurementItem, error) {
	query := `
SELECT id, projectId, department, category, itemName, qty, unit,
       budgetPrice, status, supplier, poNumber, notes, createdAt, updatedAt
FROM procurement_items WHERE projectId = ?`
	args := []any{projectID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if department != "" {
		query += ` AND department = ?`
		args = append(args, department)
	}
	query += ` ORDER BY department, category, itemName`

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ProcurementItem
	for rows.Next() {
		item, err := scanProcurementItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (d *DB) GetProcurementItem(id string) (*internal.ProcurementItem, error) {
	rows, err := d.conn.Query(`
SELECT id, projectId, department, category, itemName, qty, unit,
       budgetPrice, status, supplier, poNumber, notes, createdAt, updatedAt
FROM procurement_items WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	item, err := scanProcurementItem(rows)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateProcurementStatus moves an item to a new status. Supplier, PO
// number and notes only change when a non-nil value is given.
func (d *DB) UpdateProcurementStatus(id, status string, supplier, poNumber, notes *string) error {
	res, err := d.conn.Exec(`
UPDATE procurement_items SET
  status = ?,
  supplier = COALESCE(?, supplier),
  poNumber = COALESCE(?, poNumber),
  notes = COALESCE(?, notes),
  updatedAt = CURRENT_TIMESTAMP
WHERE id = ?`, status, supplier, poNumber, notes, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("procurement item not found: %s", id)
	}
	return nil
}

func scanProcurementItem(rows *sql.Rows) (internal.ProcurementItem, error) {
	var item internal.ProcurementItem
	var department, category, unit, budget, supplier, poNumber, notes sql.NullString
	var qty sql.NullFloat64
	if err := rows.Scan(
		&item.ID, &item.ProjectID, &department, &category, &item.ItemName, &qty, &unit,
		&budget, &item.Status, &supplier, &poNumber, &notes, &item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return internal.ProcurementItem{}, err
	}
	item.Department = department.String
	item.Category = category.String
	item.Unit = unit.String
	item.Supplier = supplier.String
	item.PONumber = poNumber.String
	item.Notes = notes.String
	if qty.Valid {
		v := qty.Float64
		item.Qty = &v
	}
	if budget.Valid && budget.String != "" {
		if parsed, err := decimal.NewFromString(budget.String); err == nil {
			item.BudgetPrice = &parsed
		}
	}
	return item, nil
}

func (d *DB) UpsertEmail(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.EmailRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO emails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.EmailRow{}, err
	}

	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, errors.New("failed to upsert email")
	}
	return *row, nil
}

const emailColumns = `id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef, supplier`

func (d *DB) GetEmailByProviderMessageID(provider, messageID string) (*internal.EmailRow, error) {
	var row internal.EmailRow
	err := d.conn.QueryRow(`
SELECT `+emailColumns+` FROM emails WHERE provider = ? AND messageId = ?
`, provider, messageID).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef, &row.Supplier,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetEmailByID(id int) (*internal.EmailRow, error) {
	var row internal.EmailRow
	err := d.conn.QueryRow(`
SELECT `+emailColumns+` FROM emails WHERE id = ?
`, id).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef, &row.Supplier,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListEmailsByStatus(status string, limit int) ([]internal.EmailRow, error) {
	rows, err := d.conn.Query(`
SELECT `+emailColumns+` FROM emails WHERE status = ? ORDER BY receivedAt ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.EmailRow
	for rows.Next() {
		var row internal.EmailRow
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef, &row.Supplier); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateEmailStatus(emailID int, status string) error {
	_, err := d.conn.Exec(`UPDATE emails SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, emailID)
	return err
}

func (d *DB) SetEmailSupplier(emailID int, supplier string) error {
	_, err := d.conn.Exec(`UPDATE emails SET supplier = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, supplier, emailID)
	return err
}

func (d *DB) MustEmailByProviderMessageID(provider, messageID string) (internal.EmailRow, error) {
	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, fmt.Errorf("email not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}

func (d *DB) MapSender(sender, supplier string) error {
	_, err := d.conn.Exec(`
INSERT INTO supplier_senders (sender, supplier) VALUES (?, ?)
ON CONFLICT(sender) DO UPDATE SET supplier = excluded.supplier
`, strings.ToLower(strings.TrimSpace(sender)), supplier)
	return err
}

// SupplierForSender resolves a sender address to a supplier name. An exact
// address mapping wins; otherwise the bare domain is tried. Returns "" when
// nothing is mapped.
func (d *DB) SupplierForSender(sender string) (string, error) {
	addr := strings.ToLower(strings.TrimSpace(sender))

	var supplier string
	err := d.conn.QueryRow(`SELECT supplier FROM supplier_senders WHERE sender = ?`, addr).Scan(&supplier)
	if err == nil {
		return supplier, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	if at := strings.LastIndex(addr, "@"); at >= 0 {
		domain := addr[at+1:]
		err = d.conn.QueryRow(`SELECT supplier FROM supplier_senders WHERE sender = ?`, domain).Scan(&supplier)
		if err == nil {
			return supplier, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
	}
	return "", nil
}

func (d *DB) InsertIngestRun(run internal.IngestRun) error {
	_, err := d.conn.Exec(`
INSERT INTO ingest_runs (id, source, supplier, emailId, startedAt, finishedAt, savedCount, skippedCount, detailJson)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.ID, run.Source, run.Supplier, run.EmailID, run.StartedAt, run.FinishedAt, run.Saved, run.Skipped, run.Detail)
	return err
}

func (d *DB) ListIngestRuns(limit int) ([]internal.IngestRun, error) {
	rows, err := d.conn.Query(`
SELECT id, source, supplier, emailId, startedAt, finishedAt, savedCount, skippedCount, detailJson
FROM ingest_runs ORDER BY startedAt DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.IngestRun
	for rows.Next() {
		var run internal.IngestRun
		var emailID sql.NullInt64
		var finishedAt sql.NullString
		if err := rows.Scan(&run.ID, &run.Source, &run.Supplier, &emailID, &run.StartedAt, &finishedAt, &run.Saved, &run.Skipped, &run.Detail); err != nil {
			return nil, err
		}
		if emailID.Valid {
			v := int(emailID.Int64)
			run.EmailID = &v
		}
		run.FinishedAt = finishedAt.String
		out = append(out, run)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func priceText(v *decimal.Decimal) any {
	if v == nil {
		return nil
	}
	return v.String()
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// MarshalSkipped packs skipped-row reasons into the run detail blob.
func MarshalSkipped(skippedSheets []internal.SkippedSheet, skippedRows []internal.SkippedRow) string {
	detail := map[string]any{}
	if len(skippedSheets) > 0 {
		detail["sheets"] = skippedSheets
	}
	if len(skippedRows) > 0 {
		detail["rows"] = skippedRows
	}
	blob, _ := json.Marshal(detail)
	return string(blob)
}
