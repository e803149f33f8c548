package storage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"fitout/internal"
	"fitout/internal/util"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestSaveSupplierCatalogReplaces(t *testing.T) {
	db := openTestDB(t)

	first := []internal.CatalogItem{
		{ItemName: "Bar Stool", Price: dec("120"), Currency: "USD", Unit: "pcs", SourceRow: 2, SourceSheet: "FF&E"},
		{ItemName: "Side Table", Currency: "USD", SourceRow: 3, SourceSheet: "FF&E"},
	}
	id1, err := db.SaveSupplierCatalog("acme", "catalog.xlsx", "FF&E", first)
	if err != nil {
		t.Fatal(err)
	}

	items, err := db.ListCatalogItemsBySupplier("acme")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("items=%d", len(items))
	}
	if items[0].Price == nil || items[0].Price.String() != "120" || !items[0].PriceAvailable {
		t.Fatalf("unexpected item: %+v", items[0])
	}
	if items[1].Price != nil || items[1].PriceAvailable {
		t.Fatalf("unexpected item: %+v", items[1])
	}
	if items[0].SourceRow != 2 || items[0].SourceSheet != "FF&E" || items[0].Currency != "USD" {
		t.Fatalf("unexpected item: %+v", items[0])
	}

	// a re-import of the same sheet replaces the old items entirely
	second := []internal.CatalogItem{{ItemName: "Bar Stool v2", Price: dec("125"), Currency: "USD"}}
	id2, err := db.SaveSupplierCatalog("acme", "catalog.xlsx", "FF&E", second)
	if err != nil {
		t.Fatal(err)
	}
	if id2 == id1 {
		t.Fatalf("catalog id not rotated: %s", id2)
	}

	items, err = db.ListCatalogItemsBySupplier("acme")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ItemName != "Bar Stool v2" {
		t.Fatalf("items=%+v", items)
	}

	catalogs, err := db.ListCatalogs()
	if err != nil {
		t.Fatal(err)
	}
	if len(catalogs) != 1 || catalogs[0].Items != 1 || catalogs[0].Sheet != "FF&E" {
		t.Fatalf("catalogs=%+v", catalogs)
	}
}

func TestGetAllCatalogItemsGroups(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.SaveSupplierCatalog("acme", "a.csv", "", []internal.CatalogItem{
		{ItemName: "Desk"}, {ItemName: "Chair"},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.SaveSupplierCatalog("nordic", "n.csv", "", []internal.CatalogItem{
		{ItemName: "Lamp"},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.SaveSupplierCatalog("acme", "b.csv", "", []internal.CatalogItem{
		{ItemName: "Bench"},
	}); err != nil {
		t.Fatal(err)
	}

	catalogs, err := db.GetAllCatalogItems()
	if err != nil {
		t.Fatal(err)
	}
	if len(catalogs) != 2 {
		t.Fatalf("catalogs=%d", len(catalogs))
	}
	if catalogs[0].Supplier != "acme" || catalogs[1].Supplier != "nordic" {
		t.Fatalf("suppliers=%s,%s", catalogs[0].Supplier, catalogs[1].Supplier)
	}
	if len(catalogs[0].Items) != 3 || len(catalogs[1].Items) != 1 {
		t.Fatalf("items=%d,%d", len(catalogs[0].Items), len(catalogs[1].Items))
	}
	if catalogs[0].Items[0].ItemName != "Desk" {
		t.Fatalf("unexpected order: %+v", catalogs[0].Items)
	}
}

func TestProjects(t *testing.T) {
	db := openTestDB(t)

	project, err := db.CreateProject("Riviera Refit", "Hotel Riviera")
	if err != nil {
		t.Fatal(err)
	}
	if project.ID == "" || project.CreatedAt == "" {
		t.Fatalf("project=%+v", project)
	}

	got, err := db.GetProject(project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Name != "Riviera Refit" || got.Hotel != "Hotel Riviera" {
		t.Fatalf("project=%+v", got)
	}

	missing, err := db.GetProject("nope")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatalf("expected nil, got %+v", missing)
	}

	list, err := db.ListProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("projects=%d", len(list))
	}
}

func TestProcurementItems(t *testing.T) {
	db := openTestDB(t)
	project, err := db.CreateProject("Riviera Refit", "")
	if err != nil {
		t.Fatal(err)
	}

	items := []internal.ProcurementItem{
		{ProjectID: project.ID, Department: "Rooms", Category: "FF&E", ItemName: "King Bed", Qty: util.FloatPtr(120), Unit: "pcs", BudgetPrice: dec("900")},
		{ProjectID: project.ID, Department: "F&B", Category: "OS&E", ItemName: "Wine Glass"},
	}
	if err := db.InsertProcurementItems(items); err != nil {
		t.Fatal(err)
	}

	all, err := db.ListProcurementItems(project.ID, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("items=%d", len(all))
	}
	// ordered by department, so F&B comes first
	if all[0].ItemName != "Wine Glass" || all[0].Status != internal.ProcPlanned {
		t.Fatalf("unexpected item: %+v", all[0])
	}
	if all[1].Qty == nil || *all[1].Qty != 120 || all[1].BudgetPrice.String() != "900" {
		t.Fatalf("unexpected item: %+v", all[1])
	}

	rooms, err := db.ListProcurementItems(project.ID, "", "Rooms")
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 1 || rooms[0].ItemName != "King Bed" {
		t.Fatalf("items=%+v", rooms)
	}

	if err := db.UpdateProcurementStatus(rooms[0].ID, internal.ProcOrdered, util.StringPtr("nordic"), util.StringPtr("PO-1001"), nil); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetProcurementItem(rooms[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Status != internal.ProcOrdered || got.Supplier != "nordic" || got.PONumber != "PO-1001" {
		t.Fatalf("item=%+v", got)
	}

	ordered, err := db.ListProcurementItems(project.ID, internal.ProcOrdered, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(ordered) != 1 {
		t.Fatalf("items=%d", len(ordered))
	}

	if err := db.UpdateProcurementStatus("missing", internal.ProcOrdered, nil, nil, nil); err == nil {
		t.Fatal("expected error for unknown item")
	}
}

func TestEmailLifecycle(t *testing.T) {
	db := openTestDB(t)

	email, err := db.UpsertEmail("imap", "<m1@x>", "Pricelist", "sales@nordic.example",
		"2026-08-01T10:00:00Z", "h1", "/raw/m1.eml", "fetched")
	if err != nil {
		t.Fatal(err)
	}
	if email.ID == 0 || email.Status != "fetched" || email.Supplier != "" {
		t.Fatalf("email=%+v", email)
	}

	if err := db.UpdateEmailStatus(email.ID, "ingested"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetEmailSupplier(email.ID, "nordic"); err != nil {
		t.Fatal(err)
	}

	// a refetch must not reset the lifecycle or the supplier mapping
	again, err := db.UpsertEmail("imap", "<m1@x>", "Pricelist v2", "sales@nordic.example",
		"2026-08-01T10:00:00Z", "h2", "/raw/m1.eml", "fetched")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != email.ID {
		t.Fatalf("id changed: %d -> %d", email.ID, again.ID)
	}
	if again.Status != "ingested" || again.Supplier != "nordic" {
		t.Fatalf("email=%+v", again)
	}
	if again.Subject != "Pricelist v2" || again.Hash != "h2" {
		t.Fatalf("email=%+v", again)
	}

	if _, err := db.UpsertEmail("imap", "<m2@x>", "Older", "a@x",
		"2026-07-31T09:00:00Z", "h3", "/raw/m2.eml", "fetched"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.UpsertEmail("imap", "<m3@x>", "Newer", "b@x",
		"2026-08-02T09:00:00Z", "h4", "/raw/m3.eml", "fetched"); err != nil {
		t.Fatal(err)
	}

	pending, err := db.ListEmailsByStatus("fetched", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 || pending[0].MessageID != "<m2@x>" || pending[1].MessageID != "<m3@x>" {
		t.Fatalf("pending=%+v", pending)
	}

	if _, err := db.MustEmailByProviderMessageID("imap", "<nope@x>"); err == nil {
		t.Fatal("expected error for unknown message")
	} else if !strings.Contains(err.Error(), "email not found") {
		t.Fatalf("err=%v", err)
	}
}

func TestSenderMapping(t *testing.T) {
	db := openTestDB(t)

	if err := db.MapSender("  Sales@Nordic-Supply.example ", "nordic"); err != nil {
		t.Fatal(err)
	}
	if err := db.MapSender("linens.example", "linens"); err != nil {
		t.Fatal(err)
	}

	got, err := db.SupplierForSender("sales@nordic-supply.example")
	if err != nil {
		t.Fatal(err)
	}
	if got != "nordic" {
		t.Fatalf("supplier=%q", got)
	}

	got, err = db.SupplierForSender("offers@linens.example")
	if err != nil {
		t.Fatal(err)
	}
	if got != "linens" {
		t.Fatalf("supplier=%q", got)
	}

	got, err = db.SupplierForSender("unknown@nowhere.example")
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Fatalf("supplier=%q", got)
	}

	if err := db.MapSender("sales@nordic-supply.example", "nordic-eu"); err != nil {
		t.Fatal(err)
	}
	got, err = db.SupplierForSender("sales@nordic-supply.example")
	if err != nil {
		t.Fatal(err)
	}
	if got != "nordic-eu" {
		t.Fatalf("supplier=%q", got)
	}
}

func TestIngestRuns(t *testing.T) {
	db := openTestDB(t)

	emailID := 7
	if err := db.InsertIngestRun(internal.IngestRun{
		ID: "run-1", Source: "catalog.xlsx", Supplier: "acme",
		StartedAt: "2026-08-01T10:00:00Z", FinishedAt: "2026-08-01T10:00:02Z",
		Saved: 2, Skipped: 1, Detail: `{"sheets":[{"sheet":"Terms"}]}`,
	}); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertIngestRun(internal.IngestRun{
		ID: "run-2", Source: "email:<m1>/list.csv", Supplier: "nordic", EmailID: &emailID,
		StartedAt: "2026-08-02T10:00:00Z", FinishedAt: "2026-08-02T10:00:01Z",
		Saved: 1,
	}); err != nil {
		t.Fatal(err)
	}

	runs, err := db.ListIngestRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "run-2" {
		t.Fatalf("runs=%+v", runs)
	}
	if runs[0].EmailID == nil || *runs[0].EmailID != 7 {
		t.Fatalf("emailId=%v", runs[0].EmailID)
	}
	if runs[1].EmailID != nil || runs[1].Saved != 2 || runs[1].Skipped != 1 {
		t.Fatalf("unexpected run: %+v", runs[1])
	}

	limited, err := db.ListIngestRuns(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Fatalf("runs=%d", len(limited))
	}
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)

	missing, err := db.GetMetadata("lastSync")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatalf("expected nil, got %q", *missing)
	}

	if err := db.SetMetadata("lastSync", "2026-08-01T10:00:00Z"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("lastSync", "2026-08-02T10:00:00Z"); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetMetadata("lastSync")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || *got != "2026-08-02T10:00:00Z" {
		t.Fatalf("value=%v", got)
	}
}

func TestMarshalSkipped(t *testing.T) {
	detail := MarshalSkipped(
		[]internal.SkippedSheet{{Sheet: "Terms", Reason: "no item column recognized"}},
		[]internal.SkippedRow{{SourceRow: 4, Reason: "empty item name"}},
	)
	if !strings.Contains(detail, `"Terms"`) || !strings.Contains(detail, `"sheets"`) || !strings.Contains(detail, `"rows"`) {
		t.Fatalf("detail=%s", detail)
	}
	if MarshalSkipped(nil, nil) != "{}" {
		t.Fatalf("detail=%s", MarshalSkipped(nil, nil))
	}
}
