/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the records engine server: settings, workbook
  store, change poller, HTTP API, graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and parse command-line flags
  2. Load settings.json (created with defaults when absent)
  3. Ensure the workbook exists, repairing sheet structure
  4. Start the mtime poller (external-edit detection)
  5. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS (each falls back to the matching env var):
  -port      HTTP server port               (PORT, default 8080)
  -data      workbook path                  (DATA_XLSX_PATH, default school_data.xlsx)
  -settings  settings document path         (SETTINGS_JSON_PATH, default settings.json)
  -errlog    error log path                 (ERROR_LOG_PATH, default error_log.txt)
  -poll      poll interval, e.g. 2s         (POLL_INTERVAL)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, drain for up to 30s,
  stop the poller, exit.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/schoolworks/records-engine/api"
	"github.com/schoolworks/records-engine/errlog"
	"github.com/schoolworks/records-engine/settings"
	"github.com/schoolworks/records-engine/store/xlsx"
	"github.com/schoolworks/records-engine/watch"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// .env is optional; flags still win over it.
	_ = godotenv.Load()

	port := flag.Int("port", intEnvOr("PORT", 8080), "HTTP server port")
	dataPath := flag.String("data", envOr("DATA_XLSX_PATH", "school_data.xlsx"), "workbook path")
	settingsPath := flag.String("settings", envOr("SETTINGS_JSON_PATH", "settings.json"), "settings document path")
	errLogPath := flag.String("errlog", envOr("ERROR_LOG_PATH", "error_log.txt"), "error log path")
	pollInterval := flag.Duration("poll", durationEnvOr("POLL_INTERVAL", watch.DefaultInterval), "external-change poll interval")
	flag.Parse()

	errLog := errlog.New(*errLogPath)

	settingsStore := settings.NewStore(*settingsPath)
	cfg, err := settingsStore.Load()
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	store := xlsx.New(*dataPath, xlsx.Config{
		StudentIDPrefix:     cfg.StudentIDPrefix,
		TeacherIDPrefix:     cfg.TeacherIDPrefix,
		StudentCustomFields: cfg.StudentCustomFields,
		TeacherCustomFields: cfg.TeacherCustomFields,
	})
	if err := store.EnsureWorkbook(); err != nil {
		errLog.Log("ensure_workbook", err)
		log.Fatalf("Failed to prepare workbook: %v", err)
	}

	// External edits invalidate the cache; the next read reloads from disk.
	poller := watch.NewPoller(store.Path(), *pollInterval, store.Invalidate)
	poller.Start()

	handler := api.NewHandler(store, settingsStore, errLog, cfg)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Records engine on http://localhost:%d (workbook: %s)", *port, *dataPath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	poller.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Stopped")
}

func intEnvOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}

func durationEnvOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
