package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"scantrack/internal/config"
	"scantrack/internal/connectivity"
	"scantrack/internal/history"
	"scantrack/internal/kv"
	"scantrack/internal/logging"
	"scantrack/internal/metrics"
	"scantrack/internal/models"
	"scantrack/internal/queue"
	"scantrack/internal/remote"
	"scantrack/internal/scan"
	"scantrack/internal/syncer"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg.Scanner)
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	defer store.Close()

	scanQueue, err := queue.Load(ctx, store, cfg.Scanner.QueueKey)
	if err != nil {
		return fmt.Errorf("load scan queue: %w", err)
	}

	client := remote.NewClient(cfg.Scanner.RemoteURL, cfg.Scanner.APIKey, &logger)
	feed := history.New(cfg.Scanner.HistorySize)

	// Initial state comes from one probe, the same host signal source the
	// watcher uses afterwards.
	monitor := connectivity.NewMonitor(client.Probe(ctx), &logger)
	watcher := connectivity.NewWatcher(monitor, client,
		time.Duration(cfg.Scanner.ProbeInterval)*time.Second, &logger)

	engine := syncer.New(scanQueue, client, feed, &logger)
	monitor.OnOnline(func() {
		engine.TriggerAsync(ctx)
	})

	user := models.User{ID: cfg.Scanner.UserID, FullName: cfg.Scanner.UserName}
	var deviceID *int64
	if cfg.Scanner.DeviceID != 0 {
		deviceID = &cfg.Scanner.DeviceID
	}
	submitter := scan.NewSubmitter(client, scanQueue, feed, monitor, user, deviceID, &logger)

	if monitor.IsOnline() {
		if companies, err := client.ListCompanies(ctx); err == nil {
			submitter.UpdateCompanies(companies)
			printCompanies(companies)
		} else {
			logger.Warn().Err(err).Msg("failed to load companies")
		}
	}

	if scanQueue.Len() > 0 && monitor.IsOnline() {
		fmt.Printf("restored %d unsynced scans, syncing...\n", scanQueue.Len())
		engine.TriggerAsync(ctx)
	} else if scanQueue.Len() > 0 {
		fmt.Printf("restored %d unsynced scans, waiting for connectivity\n", scanQueue.Len())
	}

	go watcher.Run(ctx)

	return console(ctx, submitter, engine, monitor, scanQueue, feed)
}

// console reads operator input: "company <id>" selects the carrier, "sync"
// forces a drain, "status" and "history" inspect state, anything else is a
// barcode for the selected company.
func console(
	ctx context.Context,
	submitter *scan.Submitter,
	engine *syncer.Engine,
	monitor *connectivity.Monitor,
	scanQueue *queue.ScanQueue,
	feed *history.Feed,
) error {
	fmt.Println("ready. commands: company <id> | sync | status | history | quit")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	companyID := ""
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}

			line = strings.TrimSpace(line)
			switch {
			case line == "":
				continue
			case line == "quit" || line == "exit":
				return nil
			case strings.HasPrefix(line, "company "):
				companyID = strings.TrimSpace(strings.TrimPrefix(line, "company "))
				fmt.Printf("company %s selected\n", companyID)
			case line == "sync":
				report := engine.Drain(ctx)
				printReport(report)
			case line == "status":
				state := "offline"
				if monitor.IsOnline() {
					state = "online"
				}
				fmt.Printf("%s, %d scans pending sync\n", state, scanQueue.Len())
			case line == "history":
				printHistory(feed)
			default:
				submit(ctx, submitter, line, companyID)
			}
		}
	}
}

func submit(ctx context.Context, submitter *scan.Submitter, barcode, companyID string) {
	result, err := submitter.Submit(ctx, barcode, companyID)
	switch {
	case errors.Is(err, scan.ErrBarcodeRequired), errors.Is(err, scan.ErrCompanyRequired):
		fmt.Printf("error: %v\n", err)
	case err != nil:
		fmt.Printf("error: could not save scan: %v\n", err)
	case result.Status == scan.StatusConfirmed:
		fmt.Printf("scan confirmed: %s (shipment %d)\n", result.Shipment.Barcode, result.Shipment.ID)
	case result.Status == scan.StatusQueuedOffline:
		fmt.Printf("scan saved offline: %s, will sync when connection returns\n", result.Shipment.Barcode)
	}
}

func printReport(report syncer.Report) {
	switch report.Outcome {
	case syncer.OutcomeNoOp:
		fmt.Println("nothing to sync")
	case syncer.OutcomeSkipped:
		fmt.Println("sync already in progress")
	case syncer.OutcomeFullySynced:
		fmt.Printf("synced %d scans\n", report.Synced)
	case syncer.OutcomePartialFailure:
		fmt.Printf("sync failed after %d scans, %d remaining, will retry: %v\n",
			report.Synced, report.Remaining, report.Err)
	}
}

func printHistory(feed *history.Feed) {
	entries := feed.Entries()
	if len(entries) == 0 {
		fmt.Println("no recent scans")
		return
	}
	for _, e := range entries {
		marker := "confirmed"
		if e.Provisional {
			marker = "pending sync"
		}
		fmt.Printf("%s  %-20s %s (%s)\n",
			e.Shipment.ScannedAt.Format(time.RFC3339), e.Shipment.Barcode, e.Shipment.CompanyName, marker)
	}
}

func printCompanies(companies []models.ShippingCompany) {
	fmt.Println("companies:")
	for _, c := range companies {
		fmt.Printf("  %d  %s\n", c.ID, c.CompanyName)
	}
}

func openStore(cfg config.ScannerConfig) (kv.Store, error) {
	switch cfg.QueueStore {
	case "file":
		return kv.NewFileStore(cfg.QueuePath)
	default:
		return kv.NewSQLiteStore(cfg.QueuePath)
	}
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "scanctl").Logger()

	return cfg, logger, closer, nil
}
