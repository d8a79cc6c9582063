package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fmuoria/vocational-dashboard/internal/api"
	"github.com/fmuoria/vocational-dashboard/internal/auth"
	"github.com/fmuoria/vocational-dashboard/internal/cache"
	"github.com/fmuoria/vocational-dashboard/internal/config"
	"github.com/fmuoria/vocational-dashboard/internal/ingestion"
	"github.com/fmuoria/vocational-dashboard/internal/results"
	"github.com/fmuoria/vocational-dashboard/internal/session"
)

func main() {
	diagnose := flag.Bool("diagnose", false, "check the results worksheet and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	users, records := buildCaches(cfg)
	authManager := auth.NewManager(users)
	resultsService := results.NewService(records)

	if *diagnose {
		printDiagnostic(resultsService.Diagnose(context.Background()))
		return
	}

	sessions, err := session.NewManager(cfg.SecureCookies)
	if err != nil {
		log.Fatalf("Failed to create session manager: %v", err)
	}

	warmUp(authManager, resultsService)

	server := api.NewServer(authManager, resultsService, sessions)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	fmt.Printf("Starting vocational dashboard on %s...\n", cfg.Addr)
	fmt.Printf("Endpoints:\n")
	fmt.Printf("  GET  /login     - Student login\n")
	fmt.Printf("  GET  /dashboard - Vocational test results\n")
	fmt.Printf("  GET  /refresh   - Reload both worksheets\n")
	fmt.Printf("  GET  /health    - Row counts\n")

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// buildCaches picks a local workbook or Google Sheets for each table
func buildCaches(cfg *config.Config) (*cache.Cache, *cache.Cache) {
	var resolver *ingestion.CredentialResolver
	if cfg.NeedsGoogle() {
		resolver = ingestion.NewCredentialResolver(cfg.GoogleCredentialsJSON, cfg.GoogleCredentialsPath)
	}

	var usersSource ingestion.RowSource
	if cfg.UsersWorkbook != "" {
		usersSource = ingestion.NewWorkbookSource(cfg.UsersWorkbook, cfg.UsersSheet, ingestion.Users)
	} else {
		usersSource = ingestion.NewSheetsSource(resolver, ingestion.SheetsTarget{
			SpreadsheetID: cfg.UsersSpreadsheetID,
			Sheet:         cfg.UsersSheet,
		}, ingestion.Users)
	}

	var resultsSource ingestion.RowSource
	if cfg.ResultsWorkbook != "" {
		resultsSource = ingestion.NewWorkbookSource(cfg.ResultsWorkbook, "", ingestion.Results)
	} else {
		resultsSource = ingestion.NewSheetsSource(resolver, ingestion.SheetsTarget{
			SpreadsheetID:   cfg.ResultsSpreadsheetID,
			SpreadsheetName: cfg.ResultsSpreadsheetName,
		}, ingestion.Results)
	}

	return cache.New("usuarios", usersSource, cfg.FetchTimeout),
		cache.New("resultados", resultsSource, cfg.FetchTimeout)
}

// warmUp loads both tables so the first login does not pay for the fetch.
// Failures are logged only; the caches retry on the next request.
func warmUp(authManager *auth.Manager, resultsService *results.Service) {
	ctx := context.Background()
	if err := authManager.Refresh(ctx); err != nil {
		log.Printf("Could not load users: %v", err)
	}
	if err := resultsService.Refresh(ctx); err != nil {
		log.Printf("Could not load results: %v", err)
	}

	fmt.Printf("Users loaded: %d\n", authManager.TotalUsers(ctx))
	fmt.Printf("Results loaded: %d\n", resultsService.TotalRecords(ctx))
	if t, ok := resultsService.LastRefresh(); ok {
		fmt.Printf("Last refresh: %s\n", t.Format("2006-01-02 15:04:05"))
	}
}

func printDiagnostic(d results.Diagnostic) {
	if d.Err != nil {
		fmt.Printf("Connection to %s failed: %v\n", d.Worksheet, d.Err)
		os.Exit(1)
	}

	fmt.Printf("Connected to %s worksheet\n", d.Worksheet)
	fmt.Printf("  Records: %d\n", d.Records)
	fmt.Printf("  Columns: %d\n", d.Columns)
	for _, col := range d.ColumnNames {
		fmt.Printf("    - %s\n", col)
	}
	if !d.LastRefresh.IsZero() {
		fmt.Printf("  Last refresh: %s\n", d.LastRefresh.Format("2006-01-02 15:04:05"))
	}

	fmt.Printf("  Columns read by the dashboard:\n")
	for _, col := range results.ImportantColumns {
		mark := "OK"
		if !d.Present[col] {
			mark = "MISSING"
		}
		fmt.Printf("  %-40s %s\n", col, mark)
	}
}
