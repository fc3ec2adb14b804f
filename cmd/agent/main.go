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

	"github.com/newrelic/go-agent/v3/newrelic"

	"haul/internal/api"
	"haul/internal/app"
	"haul/internal/config"
	"haul/internal/domain"
	"haul/internal/handler"
	"haul/internal/location"
	"haul/internal/logging"
	"haul/internal/realtime"
	"haul/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()
	logger := logging.New(cfg.NewRelic.AppName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before storage so we can instrument it).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	stores, err := app.NewStores(ctx, cfg, nrApp)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer stores.Close()
	log.Printf("Storage ready: state=%s cache=%s", cfg.Storage.Backend, cfg.Loads.CacheBackend)

	agent := wireAgent(stores, nrApp, cfg, logger)
	agent.start(ctx)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting local API on port %s", cfg.Server.Port)
		if err := agent.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down agent...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := agent.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
	agent.stop(shutdownCtx)
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Println("Agent exited")
}

// agent holds the long-lived components that outlive a single request.
type agent struct {
	server    *http.Server
	sessions  *service.SessionService
	channel   *realtime.Client
	journeys  *service.JourneyService
	messaging *service.MessagingService
	log       *slog.Logger
}

// wireAgent wires all dependencies and returns the agent.
func wireAgent(stores *app.Stores, nrApp *newrelic.Application, cfg *config.Config, logger *slog.Logger) *agent {
	// Backend clients.
	httpClient := &http.Client{Timeout: cfg.API.Timeout}
	if nrApp != nil {
		httpClient.Transport = newrelic.NewRoundTripper(nil)
	}
	apiClient := api.NewClient(cfg.API.BaseURL, httpClient)

	sessions := service.NewSessionService(apiClient, stores.State, logger)
	apiClient.SetTokenSource(sessions)

	channel := realtime.NewClient(cfg.API.RealtimeURL, sessions, logger, realtime.Options{
		ReconnectAttempts: cfg.API.ReconnectAttempts,
		ReconnectDelay:    cfg.API.ReconnectDelay,
	})
	feed := location.NewDeviceFeed(cfg.Tracking.FixMaxAge)

	// Initialize services.
	alerts := service.NewAlertService(logger, 0)
	loads := service.NewLoadService(apiClient, stores.Loads, cfg.Loads.PageSize, logger)
	applications := service.NewApplicationService(apiClient, stores.Loads, logger)
	journeys := service.NewJourneyService(apiClient, feed, channel, alerts, cfg.Tracking.Interval, logger)
	messaging := service.NewMessagingService(apiClient, channel, sessions, cfg.Chat.PollInterval, logger)
	reviews := service.NewReviewService(apiClient, sessions)
	languages := service.NewLanguageService(stores.State, logger)
	verification := service.NewVerificationService(apiClient, logger)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		SessionHandler:      handler.NewSessionHandler(sessions, alerts),
		LoadHandler:         handler.NewLoadHandler(loads, applications, alerts),
		ApplicationHandler:  handler.NewApplicationHandler(applications, alerts),
		JourneyHandler:      handler.NewJourneyHandler(journeys, alerts),
		DeviceHandler:       handler.NewDeviceHandler(feed, alerts),
		ConversationHandler: handler.NewConversationHandler(messaging, alerts),
		ProfileHandler:      handler.NewProfileHandler(reviews, languages, verification, alerts),
		AlertHandler:        handler.NewAlertHandler(alerts),
		Sessions:            sessions,
		ReplayStore:         stores.Replay,
		NewRelicApp:         nrApp,
	})

	return &agent{
		server: &http.Server{
			Addr:         "127.0.0.1:" + cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		sessions:  sessions,
		channel:   channel,
		journeys:  journeys,
		messaging: messaging,
		log:       logger,
	}
}

// start restores the persisted session and ties the realtime channel to it:
// the channel is open exactly while a driver is signed in.
func (a *agent) start(ctx context.Context) {
	a.channel.OnModeChange(func(m realtime.Mode) {
		logging.Info(context.Background(), a.log, "realtime_mode", "channel mode changed", "mode", string(m))
	})

	a.sessions.OnChange(func(user *domain.User) {
		bg := context.Background()
		if user != nil {
			// A restored session with an expired token stays offline until
			// the driver signs in again.
			if a.sessions.IsAuthenticated(bg) {
				go a.connect()
			}
			return
		}
		a.journeys.Close(bg)
		a.messaging.CloseAll()
		a.channel.Disconnect()
	})

	a.sessions.Load(ctx)
}

func (a *agent) connect() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Dial failures schedule reconnection inside the client.
	_ = a.channel.Connect(ctx)
}

func (a *agent) stop(ctx context.Context) {
	a.journeys.Close(ctx)
	a.messaging.CloseAll()
	a.channel.Disconnect()
}
