package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pedromiglou/JARR/app/api"
	"github.com/pedromiglou/JARR/app/cfg"
	"github.com/pedromiglou/JARR/app/crawler"
	"github.com/pedromiglou/JARR/app/database"
	"github.com/pedromiglou/JARR/app/icon"
	"github.com/pedromiglou/JARR/app/notify"
	"github.com/pedromiglou/JARR/app/readability"
	"github.com/pedromiglou/JARR/app/view"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if appCfg == nil {
		// help was printed
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	log.Printf("Starting JARR server (version %s)...", appCfg.Version)

	db, err := database.NewConnection(
		appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Printf("Database schema at version %d (dirty: %v)", version, dirty)

	userRepo := database.NewUserRepository(db)
	categoryRepo := database.NewCategoryRepository(db)
	feedRepo := database.NewFeedRepository(db)
	articleRepo := database.NewArticleRepository(db)
	clusterRepo := database.NewClusterRepository(db)
	linkRepo := database.NewLinkRepository(db)

	httpClient := &http.Client{}
	icons := icon.NewURLBuilder()
	iconProxy := icon.NewProxy(httpClient, appCfg.UserAgent)
	notifier := notify.NewNotifier(feedRepo, appCfg.ErrorThreshold)
	contentParser := readability.NewParser(httpClient, appCfg.ReadabilityEndpoint, appCfg.UserAgent)

	clusterService := view.NewClusterService(clusterRepo, articleRepo, feedRepo, userRepo,
		contentParser, icons, notifier, appCfg.ReadabilityKey)
	articleService := view.NewArticleService(articleRepo, feedRepo, userRepo,
		contentParser, icons, notifier, appCfg.ReadabilityKey)
	menuBuilder := view.NewMenuBuilder(userRepo, categoryRepo, feedRepo,
		clusterRepo, clusterRepo, icons, notifier, appCfg)

	log.Printf("Starting crawler with %d workers...", appCfg.WorkerCount)
	scheduler := crawler.NewScheduler(feedRepo, articleRepo, clusterRepo, linkRepo, httpClient, appCfg)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(userRepo, feedRepo, menuBuilder, clusterService,
		articleService, iconProxy, scheduler, appCfg)
	server := api.NewServer(handler, userRepo)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrChan:
		log.Fatal("HTTP server error:", err)
	case sig := <-quit:
		log.Printf("Received signal %v, shutting down...", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
