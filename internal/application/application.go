package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/auth"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/config"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/database"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/handler"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/kafka"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/router"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/searchindex"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/service"
)

// API is the HTTP application (api mode).
type API struct {
	cfg      *config.Config
	httpSrv  *http.Server
	producer *kafka.Producer
}

// NewAPI validates config, runs migrations and wires the full service graph.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicCase)
	searchClient := searchindex.NewClient(cfg.SearchServiceURL)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	userSvc := service.NewUserService(db)
	accessSvc := service.NewCategoryAccessService(db)
	caseSvc := service.NewCaseService(db, producer, searchClient)
	refSvc := service.NewReferenceService(db)
	statsSvc := service.NewStatsService(db)

	h := router.Handlers{
		Auth:      handler.NewAuthHandler(tokens, userSvc),
		Cases:     handler.NewCaseHandler(caseSvc),
		Users:     handler.NewUserHandler(userSvc, accessSvc),
		Reference: handler.NewReferenceHandler(refSvc),
		Dashboard: handler.NewDashboardHandler(statsSvc),
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.New(h, handler.AuthMiddleware(tokens, userSvc)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{
		cfg:      cfg,
		httpSrv:  httpSrv,
		producer: producer,
	}, nil
}

// Run starts the HTTP server and blocks until ctx is canceled.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", a.httpSrv.Addr)
	log.Printf("  Swagger UI:    %s/swagger", base)
	log.Printf("  Swagger spec:  %s/swagger/openapi.json", base)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  Ready:         %s/ready", base)
	log.Printf("  API v1:        %s/api/v1/", base)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := a.producer.Close(); err != nil {
		log.Printf("kafka: close: %v", err)
	}
	return nil
}
