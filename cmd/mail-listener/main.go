package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fitout/internal/config"
	"fitout/internal/listener"
	"fitout/internal/storage"
)

func main() {
	once := flag.Bool("once", false, "run a single fetch+ingest cycle and exit")
	interval := flag.Int("interval", 0, "poll interval in seconds (overrides MAIL_LISTENER_INTERVAL_SEC)")
	flag.Parse()

	cfg, err := config.Load()
	must(err)
	if *interval > 0 {
		cfg.MailListenerIntervalSec = *interval
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	svc, err := listener.NewService(db, cfg)
	must(err)

	if *once {
		must(svc.RunOnce())
		return
	}

	fmt.Printf("mail-listener started provider=%s label=%s interval=%ds auto-ingest=%t\n",
		cfg.MailListenerProvider, cfg.MailListenerLabel, cfg.MailListenerIntervalSec, cfg.MailListenerAutoIngest)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
