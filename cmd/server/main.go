package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/cosmic-community/community-support-hub/internal/config"
	"github.com/cosmic-community/community-support-hub/internal/cosmic"
	"github.com/cosmic-community/community-support-hub/internal/data"
	"github.com/cosmic-community/community-support-hub/internal/handler"
	"github.com/cosmic-community/community-support-hub/internal/logger"
	"github.com/cosmic-community/community-support-hub/internal/middleware"
	"github.com/cosmic-community/community-support-hub/internal/service"
	"github.com/cosmic-community/community-support-hub/internal/view"
	"github.com/cosmic-community/community-support-hub/web"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, nil)

	// --- Pre-flight Checks ---
	// The bucket credentials are the only hard requirement: every page
	// reads from the remote store, so a missing read key cannot be
	// deferred to the first request.
	if cfg.Cosmic.BucketSlug == "" || cfg.Cosmic.ReadKey == "" {
		log.Fatal(errors.New("cosmic credentials not set"), "Please set HUB_COSMIC_BUCKET_SLUG and HUB_COSMIC_READ_KEY.")
	}
	if cfg.Cosmic.WriteKey == "" {
		log.Warn("HUB_COSMIC_WRITE_KEY is not set; signup will be unavailable.")
	}

	// --- Remote Content Client ---
	// One handle, created here and shared for the process lifetime.
	cosmicClient, err := cosmic.New(cfg.Cosmic, nil)
	if err != nil {
		log.Fatal(err, "Failed to initialize content client")
	}
	log.Info(fmt.Sprintf("Content client ready for bucket %q.", cfg.Cosmic.BucketSlug))

	// --- Session Management Setup ---
	// Sessions only carry flash messages, so the default in-memory store
	// is enough.
	sessionManager := scs.New()
	sessionManager.Lifetime = time.Duration(cfg.Session.Lifetime) * time.Hour
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.Server.TLS.Enabled

	// --- View Template Initialization ---
	log.Info("Initializing view templates...")
	viewService, err := view.New(web.TemplateFS)
	if err != nil {
		log.Fatal(err, "Failed to initialize view templates")
	}
	log.Info("View templates initialized.")

	// --- Dependency Injection and Handler Initialization ---
	// Initialize the application layers, injecting dependencies from top to bottom.
	contentRepository := data.NewContentRepository(cosmicClient)
	communityService := service.NewCommunityService(contentRepository)
	signupService := service.NewSignupService(contentRepository, log)
	pageHandler := handler.NewPageHandler(communityService, viewService, sessionManager, log)
	signupHandler := handler.NewSignupHandler(signupService, viewService, sessionManager, log)
	seoHandler := handler.NewSeoHandler(communityService)

	errorMiddleware := middleware.Error(log, viewService)

	// --- Router Setup ---
	// The router is the central hub that directs incoming requests to the correct handlers.
	router := handler.NewRouter(pageHandler, signupHandler, seoHandler, errorMiddleware, sessionManager)

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal(err, "Server forced to shutdown")
	}
	log.Info("Server exiting")
}
