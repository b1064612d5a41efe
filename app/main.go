package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/litong-notes/ytb-chat-downloader/app/api"
	"github.com/litong-notes/ytb-chat-downloader/app/cfg"
	"github.com/litong-notes/ytb-chat-downloader/app/database"
	"github.com/litong-notes/ytb-chat-downloader/app/rss"
	"github.com/litong-notes/ytb-chat-downloader/app/watch"
	"github.com/litong-notes/ytb-chat-downloader/app/youtube"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appConfig, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appConfig.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	log.Printf("Starting watcher for %s (version %s)...", appConfig.ChannelURL, appConfig.Version)

	// Database connection
	log.Println("Opening history database...")
	db, err := database.NewConnection(appConfig.DBPath)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	log.Printf("Database ready (schema version %d, dirty: %t)", version, dirty)

	historyRepo := database.NewHistoryRepository(db)

	// Shared HTTP client. The cookie jar keeps session cookies YouTube
	// sets during the page fetch available to the browse calls.
	jar, err := cookiejar.New(nil)
	if err != nil {
		log.Fatal("Failed to create cookie jar: ", err)
	}
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Jar:     jar,
	}

	client := youtube.NewClient(httpClient, youtube.Options{
		ChannelURL: appConfig.ChannelURL,
		UserAgent:  appConfig.UserAgent,
		Cookie:     appConfig.Cookie,
	})
	coordinator := youtube.NewCoordinator(client,
		time.Duration(appConfig.PageDelayMs)*time.Millisecond, appConfig.MaxPages)

	var fallback watch.FallbackSource
	if appConfig.ChannelID != "" {
		fallback = rss.NewReader(httpClient, appConfig.ChannelID, appConfig.UserAgent)
		log.Printf("RSS fallback enabled for channel ID %s", appConfig.ChannelID)
	}

	loginChecker := watch.NewPageLoginChecker(httpClient, appConfig.ChannelURL, appConfig.UserAgent, appConfig.Cookie)

	watcher := watch.NewWatcher(coordinator, loginChecker, watch.WatcherOptions{
		Recorder:     historyRepo,
		Fallback:     fallback,
		MinInterval:  time.Duration(appConfig.RefreshInterval) * time.Second,
		TickInterval: time.Duration(appConfig.PollInterval) * time.Second,
	})
	watcher.Start()
	defer watcher.Stop()

	// Initialize HTTP server
	log.Println("Initializing HTTP server...")
	apiHandler := api.NewHandler(watcher, historyRepo, appConfig.ChannelURL)
	server := api.NewServer(apiHandler, appConfig.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appConfig.Port)
		log.Printf("Endpoints available:")
		log.Printf("  Videos:        http://localhost:%s/videos", appConfig.Port)
		log.Printf("  Health check:  http://localhost:%s/health", appConfig.Port)
		log.Printf("  Statistics:    http://localhost:%s/stats", appConfig.Port)

		if appConfig.APIAccessKey != "" {
			log.Printf("  Refresh:       http://localhost:%s/api/refresh (POST, requires API key)", appConfig.Port)
			log.Printf("  Cycle history: http://localhost:%s/api/history/cycles (requires API key)", appConfig.Port)
			log.Printf("  Video history: http://localhost:%s/api/history/videos (requires API key)", appConfig.Port)
		} else {
			log.Printf("  API endpoints: DISABLED (API_ACCESS_KEY not set)")
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Watcher started successfully!")
	log.Println("Press Ctrl+C to shutdown gracefully...")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	// Watcher is stopped via defer
	log.Println("Shutdown complete")
}
