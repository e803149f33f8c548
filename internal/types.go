package internal

import "github.com/shopspring/decimal"

type TableFormat string

const (
	FormatCSV  TableFormat = "csv"
	FormatXLSX TableFormat = "xlsx"
	FormatPDF  TableFormat = "pdf"
	FormatHTML TableFormat = "html"
)

type RawRow struct {
	Cells     map[string]string
	SourceRow int
}

type RawTable struct {
	Source  string
	Format  TableFormat
	Sheet   string
	Columns []string
	Rows    []RawRow
}

type ColumnRole string

const (
	RoleItem          ColumnRole = "item"
	RoleDescription   ColumnRole = "description"
	RoleSpecification ColumnRole = "specification"
	RoleUnit          ColumnRole = "unit"
	RolePrice         ColumnRole = "price"
	RoleCurrency      ColumnRole = "currency"
	RolePhoto         ColumnRole = "photo"
)

type CatalogItem struct {
	ID             string
	Supplier       string
	ItemName       string
	Description    string
	Specification  string
	Unit           string
	Price          *decimal.Decimal
	Currency       string
	PriceAvailable bool
	PhotoRef       string
	ImagePath      string
	SourceRow      int
	SourceSheet    string
}

type SkippedRow struct {
	SourceRow int
	Reason    string
}

type SupplierCatalog struct {
	Supplier string
	Items    []CatalogItem
}

type ScoredItem struct {
	Item  CatalogItem
	Score float64
}

type MatchGroup struct {
	Base    CatalogItem
	Matches map[string]ScoredItem
}

type ComparisonCell struct {
	ItemName  string
	Unit      string
	Price     *decimal.Decimal
	Currency  string
	Available bool
	Score     float64
}

type ComparisonTable struct {
	Suppliers []string
	Rows      []ComparisonRow
}

type ComparisonRow struct {
	BaseItem CatalogItem
	Cells    map[string]ComparisonCell
}

type SavedCatalog struct {
	CatalogID string
	Supplier  string
	Source    string
	Sheet     string
	Items     int
}

type SkippedSheet struct {
	Sheet  string
	Reason string
}

type BulkResult struct {
	Saved   []SavedCatalog
	Skipped []SkippedSheet
}

type Project struct {
	ID        string
	Name      string
	Hotel     string
	CreatedAt string
}

const (
	ProcPlanned   = "planned"
	ProcOrdered   = "ordered"
	ProcReceived  = "received"
	ProcInstalled = "installed"
)

type ProcurementItem struct {
	ID          string
	ProjectID   string
	Department  string
	Category    string
	ItemName    string
	Qty         *float64
	Unit        string
	BudgetPrice *decimal.Decimal
	Status      string
	Supplier    string
	PONumber    string
	Notes       string
	CreatedAt   string
	UpdatedAt   string
}

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
	Supplier   string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

type IngestRun struct {
	ID         string
	Source     string
	Supplier   string
	EmailID    *int
	StartedAt  string
	FinishedAt string
	Saved      int
	Skipped    int
	Detail     string
}
