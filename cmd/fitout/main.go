package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"fitout/internal"
	"fitout/internal/config"
	"fitout/internal/connectors"
	"fitout/internal/listener"
	"fitout/internal/pipeline"
	"fitout/internal/procure"
	"fitout/internal/storage"
	"fitout/internal/util"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "catalog:ingest":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "catalog file path")
		url := fs.String("url", "", "catalog URL")
		supplier := fs.String("supplier", "", "supplier name")
		profile := fs.String("profile", "", "ingestion profile yaml")
		currency := fs.String("currency", "", "default currency for items without one")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*supplier) == "" {
			must(fmt.Errorf("--supplier is required"))
		}
		if (*file == "") == (*url == "") {
			must(fmt.Errorf("exactly one of --file or --url is required"))
		}
		if *profile != "" {
			cfg.ProfilePath = *profile
		}
		if *currency != "" {
			cfg.DefaultCurrency = *currency
		}
		svc, err := pipeline.NewIngestService(db, cfg)
		must(err)
		var result internal.BulkResult
		if *file != "" {
			result, err = svc.IngestFile(*file, *supplier)
		} else {
			result, err = svc.IngestURL(context.Background(), *url, *supplier)
		}
		must(err)
		printBulkResult(result)
	case "catalog:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		supplier := fs.String("supplier", "", "filter by supplier")
		_ = fs.Parse(os.Args[2:])
		catalogs, err := db.ListCatalogs()
		must(err)
		shown := 0
		for _, c := range catalogs {
			if *supplier != "" && c.Supplier != *supplier {
				continue
			}
			fmt.Printf("%s  supplier=%s sheet=%q items=%d source=%s\n", c.CatalogID, c.Supplier, c.Sheet, c.Items, c.Source)
			shown++
		}
		fmt.Printf("%d catalogs\n", shown)
	case "match:run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		base := fs.String("base", "", "base supplier")
		project := fs.String("project", "", "project id to match instead of a base supplier")
		threshold := fs.Float64("threshold", 0, "similarity floor, 0 = configured default")
		out := fs.String("out", "", "comparison xlsx path")
		_ = fs.Parse(os.Args[2:])
		if (*base == "") == (*project == "") {
			must(fmt.Errorf("exactly one of --base or --project is required"))
		}

		catalogs, err := db.GetAllCatalogItems()
		must(err)

		var baseCatalog internal.SupplierCatalog
		others := catalogs
		if *base != "" {
			found := false
			others = make([]internal.SupplierCatalog, 0, len(catalogs))
			for _, c := range catalogs {
				if c.Supplier == *base {
					baseCatalog = c
					found = true
					continue
				}
				others = append(others, c)
			}
			if !found {
				must(fmt.Errorf("no catalog stored for supplier %s", *base))
			}
		} else {
			proj, err := db.GetProject(*project)
			must(err)
			if proj == nil {
				must(fmt.Errorf("project not found: %s", *project))
			}
			items, err := db.ListProcurementItems(*project, "", "")
			must(err)
			if len(items) == 0 {
				must(fmt.Errorf("project %s has no procurement items", *project))
			}
			baseCatalog = procure.AsCatalog(*proj, items)
		}

		floor := *threshold
		if floor <= 0 {
			floor = cfg.MatchThreshold
		}
		matcher := pipeline.NewMatcher(floor)
		groups := matcher.MatchCatalogs(baseCatalog, others)
		table := pipeline.BuildComparison(baseCatalog, others, groups)

		matched := 0
		for _, row := range table.Rows {
			if len(row.Cells) > 1 {
				matched++
			}
		}
		fmt.Printf("match run done base=%s items=%d matched=%d suppliers=%d threshold=%.2f\n",
			baseCatalog.Supplier, len(table.Rows), matched, len(table.Suppliers)-1, floor)
		if *out != "" {
			must(pipeline.ExportComparisonXLSX(table, *out))
			fmt.Printf("comparison written to %s\n", *out)
		}
	case "rfp:compose":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		supplier := fs.String("supplier", "", "supplier to address")
		project := fs.String("project", "", "project id for the item list")
		to := fs.String("to", "", "recipient address for the .eml draft")
		out := fs.String("out", "", ".eml draft path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*supplier) == "" {
			must(fmt.Errorf("--supplier is required"))
		}

		var lines []pipeline.RFPLine
		if *project != "" {
			proj, err := db.GetProject(*project)
			must(err)
			if proj == nil {
				must(fmt.Errorf("project not found: %s", *project))
			}
			items, err := db.ListProcurementItems(*project, internal.ProcPlanned, "")
			must(err)
			if len(items) == 0 {
				must(fmt.Errorf("project %s has no planned items", *project))
			}
			lines = procure.RFPLines(items)
		} else {
			items, err := db.ListCatalogItemsBySupplier(*supplier)
			must(err)
			for _, item := range items {
				if item.PriceAvailable {
					continue
				}
				lines = append(lines, pipeline.RFPLine{
					ItemName:      item.ItemName,
					Unit:          item.Unit,
					Specification: item.Specification,
				})
			}
			if len(lines) == 0 {
				must(fmt.Errorf("nothing to request: every stored item for %s has a price (use --project)", *supplier))
			}
		}

		draft := pipeline.ComposeRFP(*supplier, lines, cfg.RFPContactName)
		fmt.Printf("Subject: %s\n\n%s", draft.Subject, draft.Body)
		if *out != "" {
			if strings.TrimSpace(*to) == "" {
				must(fmt.Errorf("--to is required with --out"))
			}
			must(pipeline.WriteRFPDraft(draft, cfg.RFPContactName, cfg.RFPContactEmail, *to, *out))
			fmt.Printf("draft written to %s\n", *out)
		}
	case "project:create":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "project name")
		hotel := fs.String("hotel", "", "hotel name")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*name) == "" {
			must(fmt.Errorf("--name is required"))
		}
		proj, err := db.CreateProject(*name, *hotel)
		must(err)
		fmt.Printf("project created: %s (%s)\n", proj.ID, proj.Name)
	case "project:list":
		projects, err := db.ListProjects()
		must(err)
		for _, p := range projects {
			fmt.Printf("%s  %s hotel=%q created=%s\n", p.ID, p.Name, p.Hotel, p.CreatedAt)
		}
		fmt.Printf("%d projects\n", len(projects))
	case "procure:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		project := fs.String("project", "", "project id")
		file := fs.String("file", "", "procurement sheet path")
		_ = fs.Parse(os.Args[2:])
		if *project == "" || *file == "" {
			must(fmt.Errorf("--project and --file are required"))
		}
		prof, err := pipeline.LoadProfile(cfg)
		must(err)
		stats, err := procure.NewImporter(db, prof).ImportFile(*project, *file)
		must(err)
		fmt.Printf("imported %d procurement items (%d rows skipped)\n", stats.Imported, len(stats.Skipped))
		for _, skip := range stats.Skipped {
			fmt.Printf("  skipped row %d: %s\n", skip.SourceRow, skip.Reason)
		}
	case "procure:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		project := fs.String("project", "", "project id")
		status := fs.String("status", "", "filter by status")
		department := fs.String("department", "", "filter by department")
		_ = fs.Parse(os.Args[2:])
		if *project == "" {
			must(fmt.Errorf("--project is required"))
		}
		items, err := db.ListProcurementItems(*project, *status, *department)
		must(err)
		for _, item := range items {
			qty := "?"
			if item.Qty != nil {
				qty = fmt.Sprintf("%g", *item.Qty)
			}
			fmt.Printf("%s  [%s] %s / %s  %s x%s %s  supplier=%q po=%q\n",
				item.ID, item.Status, item.Department, item.Category, item.ItemName, qty, item.Unit, item.Supplier, item.PONumber)
		}
		fmt.Printf("%d items\n", len(items))
	case "procure:status":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "procurement item id")
		status := fs.String("status", "", strings.Join(procure.ValidStatuses(), "|"))
		supplier := fs.String("supplier", "", "chosen supplier")
		po := fs.String("po", "", "purchase order number")
		notes := fs.String("notes", "", "notes")
		_ = fs.Parse(os.Args[2:])
		if *id == "" || *status == "" {
			must(fmt.Errorf("--id and --status are required"))
		}
		must(procure.UpdateStatus(db, *id, *status, optional(*supplier), optional(*po), optional(*notes)))
		fmt.Printf("procurement item %s -> %s\n", *id, *status)
	case "procure:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		project := fs.String("project", "", "project id")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *project == "" || *out == "" {
			must(fmt.Errorf("--project and --out are required"))
		}
		proj, err := db.GetProject(*project)
		must(err)
		if proj == nil {
			must(fmt.Errorf("project not found: %s", *project))
		}
		items, err := db.ListProcurementItems(*project, "", "")
		must(err)
		must(pipeline.ExportProcurementXLSX(*proj, items, *out))
		fmt.Printf("exported %d items to %s\n", len(items), *out)
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		label := fs.String("label", cfg.MailListenerLabel, "mailbox/label")
		limit := fs.Int("limit", cfg.MailListenerFetchMax, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := connectors.New(cfg, *provider)
		must(err)
		result, err := connectors.NewFetchService(db, cfg.RawMailDir, conn).FetchAndStore(*label, *limit)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d new=%d known=%d mapped=%d\n",
			*provider, result.Fetched, result.New, result.Known, result.Mapped)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		messageID := fs.String("messageId", "", "specific message-id")
		limit := fs.Int("limit", cfg.MailListenerBatch, "batch size")
		_ = fs.Parse(os.Args[2:])
		svc, err := pipeline.NewIngestService(db, cfg)
		must(err)
		if strings.TrimSpace(*messageID) != "" {
			row, err := db.MustEmailByProviderMessageID(*provider, *messageID)
			must(err)
			result, err := svc.IngestEmail(row)
			must(err)
			printBulkResult(result)
			return
		}
		processed, saved, err := svc.ProcessPending(*limit)
		must(err)
		fmt.Printf("processed %d emails, %d catalogs saved\n", processed, saved)
	case "mail:map-sender":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		sender := fs.String("sender", "", "sender address or bare domain")
		supplier := fs.String("supplier", "", "supplier name")
		_ = fs.Parse(os.Args[2:])
		if *sender == "" || *supplier == "" {
			must(fmt.Errorf("--sender and --supplier are required"))
		}
		must(db.MapSender(*sender, *supplier))
		fmt.Printf("mapped %s -> %s\n", *sender, *supplier)
	case "mail:listen":
		svc, err := listener.NewService(db, cfg)
		must(err)
		must(svc.Run(context.Background()))
	case "runs:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs")
		_ = fs.Parse(os.Args[2:])
		runs, err := db.ListIngestRuns(*limit)
		must(err)
		for _, run := range runs {
			fmt.Printf("%s  supplier=%s saved=%d skipped=%d source=%s\n", run.StartedAt, run.Supplier, run.Saved, run.Skipped, run.Source)
		}
		fmt.Printf("%d runs\n", len(runs))
	default:
		usage()
		os.Exit(1)
	}
}

func printBulkResult(result internal.BulkResult) {
	for _, saved := range result.Saved {
		fmt.Printf("saved %s: supplier=%s sheet=%q items=%d\n", saved.CatalogID, saved.Supplier, saved.Sheet, saved.Items)
	}
	for _, skip := range result.Skipped {
		fmt.Printf("skipped %q: %s\n", skip.Sheet, skip.Reason)
	}
	fmt.Printf("ingest done: %d saved, %d skipped\n", len(result.Saved), len(result.Skipped))
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return util.StringPtr(value)
}

func usage() {
	fmt.Println("usage: fitout <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:ingest --file=... | --url=... --supplier=... [--profile=profile.yaml] [--currency=USD]")
	fmt.Println("  catalog:list [--supplier=...]")
	fmt.Println("  match:run --base=SUPPLIER | --project=ID [--threshold=0.55] [--out=comparison.xlsx]")
	fmt.Println("  rfp:compose --supplier=... [--project=ID] [--to=addr --out=draft.eml]")
	fmt.Println("  project:create --name=... [--hotel=...]")
	fmt.Println("  project:list")
	fmt.Println("  procure:import --project=ID --file=...")
	fmt.Println("  procure:list --project=ID [--status=...] [--department=...]")
	fmt.Println("  procure:status --id=ID --status=planned|ordered|received|installed [--supplier=...] [--po=...] [--notes=...]")
	fmt.Println("  procure:export --project=ID --out=items.xlsx")
	fmt.Println("  mail:fetch [--provider=gmail|imap] [--label=INBOX] [--limit=20]")
	fmt.Println("  mail:process [--limit=20] [--provider=gmail|imap --messageId=...]")
	fmt.Println("  mail:map-sender --sender=... --supplier=...")
	fmt.Println("  mail:listen")
	fmt.Println("  runs:list [--limit=20]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
