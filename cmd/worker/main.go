// Standalone optimization worker. Accepts fire-and-forget submissions over a
// small internal HTTP endpoint, runs the generation workers, and shuts down
// gracefully on SIGTERM. Used for local runs and long generation jobs that
// outlive a Lambda invocation.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"menuwise-backend/internal/config"
	"menuwise-backend/internal/domain"
	"menuwise-backend/internal/observability"
	"menuwise-backend/internal/provider/ai"
	"menuwise-backend/internal/repository/ddb"
	"menuwise-backend/internal/service/optimization"
	"menuwise-backend/pkg/api"
	appErrors "menuwise-backend/pkg/errors"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Fatal("unable to load SDK config", zap.Error(err))
	}

	dbClient := dynamodb.NewFromConfig(awsCfg)

	menuItems := ddb.NewMenuItemRepository(dbClient, cfg.DynamoDBTable, logger)
	revisions := ddb.NewRevisionCandidateRepository(dbClient, cfg.DynamoDBTable, logger)
	suggestions := ddb.NewSuggestionCandidateRepository(dbClient, cfg.DynamoDBTable, logger)
	demographics := ddb.NewDemographicSnapshotRepository(dbClient, cfg.DynamoDBTable, logger)
	competitors := ddb.NewCompetitorSnapshotRepository(dbClient, cfg.DynamoDBTable, logger)

	var generator ai.Provider
	if cfg.UseMockAI {
		generator = ai.NewMockProvider()
	} else {
		generator = ai.NewGeminiProvider(cfg.AIAPIKey, cfg.AIModel)
	}

	svc := optimization.NewService(menuItems, revisions, suggestions,
		demographics, competitors, ai.NewService(generator), logger)

	collector := observability.NewCollector("menuwise")
	svc.SetMetrics(collector)

	logger.Info("Starting optimization worker service",
		zap.String("environment", cfg.Environment),
		zap.String("address", cfg.ServerAddress))
	svc.Start(ctx)

	server := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: submissionRouter(svc, collector, logger),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("submission server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down worker service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("submission server shutdown failed", zap.Error(err))
	}

	cancel()

	done := make(chan struct{})
	go func() {
		svc.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("All workers stopped gracefully")
	case <-time.After(30 * time.Second):
		logger.Warn("Worker shutdown timeout exceeded")
	}

	if err := logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}
	log.Println("Worker service stopped")
}

// submissionRouter exposes the internal fire-and-forget submission endpoint
// and the Prometheus scrape endpoint.
func submissionRouter(svc *optimization.Service, collector *observability.Collector, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", collector.Handler())

	r.Post("/internal/restaurants/{restaurantId}/optimizations", func(w http.ResponseWriter, req *http.Request) {
		var body api.SubmitOptimizationRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			api.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		ack, err := svc.Submit(req.Context(), optimization.Request{
			RestaurantID: chi.URLParam(req, "restaurantId"),
			Mode:         domain.OptimizationMode(body.Mode),
			Criteria: optimization.Criteria{
				Segments:    body.Segments,
				CuisineHint: body.CuisineHint,
			},
		})
		if err != nil {
			if appErrors.IsValidation(err) {
				api.Error(w, http.StatusBadRequest, err.Error())
				return
			}
			logger.Error("submission failed", zap.Error(err))
			api.Error(w, http.StatusInternalServerError, "An internal error occurred")
			return
		}
		api.Success(w, http.StatusAccepted, ack)
	})

	return r
}
