package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"menuwise-backend/internal/config"
	"menuwise-backend/internal/domain"
	"menuwise-backend/internal/observability"
	"menuwise-backend/internal/provider/ai"
	"menuwise-backend/internal/provider/marketdata"
	"menuwise-backend/internal/repository"
	"menuwise-backend/internal/repository/ddb"
	"menuwise-backend/internal/service/menu"
	"menuwise-backend/internal/service/optimization"
	"menuwise-backend/internal/service/review"
	"menuwise-backend/internal/storage"
	"menuwise-backend/pkg/api"
	appErrors "menuwise-backend/pkg/errors"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Context key for the authenticated user. The empty struct allocates no memory.
type contextKey struct {
	name string
}

var userIDKey = contextKey{"userID"}

var (
	chiLambda *chiadapter.ChiLambdaV2

	logger   *zap.Logger
	validate *validator.Validate

	restaurantRepo repository.RestaurantRepository
	menuItemRepo   repository.MenuItemRepository
	revisionRepo   repository.RevisionCandidateRepository
	suggestionRepo repository.SuggestionCandidateRepository
	analyticsRepo  repository.AnalyticsRepository

	menuService *menu.Service
	optSvc      *optimization.Service
	dispatcher  optimization.Dispatcher
	metrics     *observability.Collector
)

func init() {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO(), awsConfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Fatal("unable to load SDK config", zap.Error(err))
	}

	dbClient := dynamodb.NewFromConfig(awsCfg)
	s3Client := s3.NewFromConfig(awsCfg)

	restaurantRepo = ddb.NewRestaurantRepository(dbClient, cfg.DynamoDBTable, logger)
	menuItemRepo = ddb.NewMenuItemRepository(dbClient, cfg.DynamoDBTable, logger)
	revisionRepo = ddb.NewRevisionCandidateRepository(dbClient, cfg.DynamoDBTable, logger)
	suggestionRepo = ddb.NewSuggestionCandidateRepository(dbClient, cfg.DynamoDBTable, logger)
	analyticsRepo = ddb.NewAnalyticsRepository(dbClient, cfg.DynamoDBTable, logger)
	demographicRepo := ddb.NewDemographicSnapshotRepository(dbClient, cfg.DynamoDBTable, logger)
	competitorRepo := ddb.NewCompetitorSnapshotRepository(dbClient, cfg.DynamoDBTable, logger)

	var generator ai.Provider
	if cfg.UseMockAI {
		generator = ai.NewMockProvider()
	} else {
		generator = ai.NewGeminiProvider(cfg.AIAPIKey, cfg.AIModel)
	}
	aiService := ai.NewService(generator)

	var marketClient marketdata.Provider
	if cfg.MarketDataURL != "" {
		marketClient = marketdata.NewClient(cfg.MarketDataURL, cfg.MarketDataAPIKey, logger)
	} else {
		marketClient = marketdata.NewMockClient()
	}

	uploader := storage.NewS3Uploader(s3Client, cfg.MenuBucket)

	menuService = menu.NewService(menuItemRepo, restaurantRepo, demographicRepo, competitorRepo,
		marketClient, aiService, uploader, logger)

	metrics = observability.NewCollector("menuwise")

	// optSvc serves the candidate read paths only. Generation runs in the
	// standalone worker process: a job queued inside the Lambda sandbox would
	// be frozen with it after the response and lost on reclaim, so
	// submissions hop to the worker instead of an in-process queue.
	optSvc = optimization.NewService(menuItemRepo, revisionRepo, suggestionRepo,
		demographicRepo, competitorRepo, aiService, logger)
	dispatcher = optimization.NewWorkerDispatcher(cfg.WorkerURL, logger)

	validate = validator.New()

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticator)

		r.Post("/restaurants", createRestaurantHandler)
		r.Get("/restaurants/{restaurantId}", getRestaurantHandler)
		r.Post("/restaurants/{restaurantId}/snapshots/refresh", refreshSnapshotsHandler)

		r.Route("/restaurants/{restaurantId}/menu", func(r chi.Router) {
			r.Get("/items", listMenuItemsHandler)
			r.Post("/items", createMenuItemHandler)
			r.Post("/items/batch", batchCreateMenuItemsHandler)
			r.Get("/items/{itemId}", getMenuItemHandler)
			r.Put("/items/{itemId}", updateMenuItemHandler)
			r.Delete("/items/{itemId}", deleteMenuItemHandler)
			r.Post("/upload-url", uploadURLHandler)
			r.Post("/import", importMenuHandler)
		})

		r.Route("/restaurants/{restaurantId}/optimizations", func(r chi.Router) {
			r.Post("/", submitOptimizationHandler)
			r.Get("/candidates", listCandidatesHandler)
			r.Get("/candidates/wait", waitForCandidatesHandler)
			r.Post("/candidates/{candidateId}/decision", decideCandidateHandler)
			r.Post("/candidates/commit", commitDecisionsHandler)
		})
	})

	chiLambda = chiadapter.NewV2(r)

	logger.Info("service initialized")
}

// Authenticator extracts the caller identity from the API Gateway authorizer
// context and rejects unauthenticated requests.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxyCtx, ok := core.GetAPIGatewayV2ContextFromContext(r.Context())
		if !ok {
			logger.Error("could not get proxy request context")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if proxyCtx.Authorizer == nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		userID, ok := proxyCtx.Authorizer.Lambda["sub"].(string)
		if !ok || userID == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return chiLambda.ProxyWithContextV2(ctx, req)
}

func main() {
	lambda.Start(Handler)
}

// --- Handler Functions ---

func createRestaurantHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)

	var req api.CreateRestaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	restaurant, err := restaurantRepo.Create(r.Context(), &domain.Restaurant{
		OwnerID:     userID,
		Name:        req.Name,
		CuisineType: req.CuisineType,
		City:        req.City,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, restaurant)
}

func getRestaurantHandler(w http.ResponseWriter, r *http.Request) {
	restaurant, err := ownedRestaurant(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, restaurant)
}

func refreshSnapshotsHandler(w http.ResponseWriter, r *http.Request) {
	restaurant, err := ownedRestaurant(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := menuService.RefreshSnapshots(r.Context(), restaurant.ID); err != nil {
		handleServiceError(w, err)
		return
	}
	api.Success(w, http.StatusNoContent, nil)
}

func listMenuItemsHandler(w http.ResponseWriter, r *http.Request) {
	restaurant, err := ownedRestaurant(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	filters := repository.Filters{}
	if category := r.URL.Query().Get("category"); category != "" {
		filters["Category"] = category
	}
	if active := r.URL.Query().Get("active"); active != "" {
		filters["IsActive"] = active == "true"
	}

	items, err := menuService.ListItems(r.Context(), restaurant.ID, filters)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, items)
}

func createMenuItemHandler(w http.ResponseWriter, r *http.Request) {
	restaurant, err := ownedRestaurant(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req api.CreateMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := menuService.CreateItem(r.Context(), &domain.MenuItem{
		RestaurantID: restaurant.ID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		Ingredients:  req.Ingredients,
		DietaryTags:  req.DietaryTags,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, item)
}

func getMenuItemHandler(w http.ResponseWriter, r *http.Request) {
	restaurant, err := ownedRestaurant(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	item, err := menuService.GetItem(r.Context(), restaurant.ID, chi.URLParam(r, "itemId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, item)
}

func updateMenuItemHandler(w http.ResponseWriter, r *http.Request) {
	restaurant, err := ownedRestaurant(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req api.UpdateMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	patch := repository.Patch{}
	if req.Name != nil {
		patch["Name"] = *req.Name
	}
	if req.Description != nil {
		patch["Description"] = *req.Description
	}
	if req.Price != nil {
		patch["Price"] = *req.Price
	}
	if req.Category != nil {
		patch["Category"] = *req.Category
	}
	if req.IsActive != nil {
		patch["IsActive"] = *req.IsActive
	}

	item, err := menuService.UpdateItem(r.Context(), restaurant.ID, chi.URLParam(r, "itemId"), patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, item)
}

func deleteMenuItemHandler(w http.ResponseWriter, r *http.Request) {
	restaurant, err := ownedRestaurant(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := menuService.DeleteItem(r.Context(), restaurant.ID, chi.URLParam(r, "itemId")); err != nil {
		handleServiceError(w, err)
		return
	}
	api.Success(w, http.StatusNoContent, nil)
}

func batchCreateMenuItemsHandler(w http.ResponseWriter, r *http.Request) {
	restaurant, err := ownedRestaurant(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req api.BatchCreateMenuItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	items := make([]domain.MenuItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = domain.MenuItem{
			Name:        it.Name,
			Description: it.Description,
			Price:       it.Price,
			Category:    it.Category,
			Ingredients: it.Ingredients,
			DietaryTags: it.DietaryTags,
		}
	}

	_, written, err := menuService.BatchCreateItems(r.Context(), restaurant.ID, items)
	resp := api.BatchCreateMenuItemsResponse{Requested: len(items), Written: written}
	if err != nil {
		// Earlier chunks stay committed; report the partial outcome.
		resp.Error = err.Error()
		api.Success(w, http.StatusMultiStatus, resp)
		return
	}
	api.Success(w, http.StatusCreated, resp)
}

func uploadURLHandler(w http.ResponseWriter, r *http.Request) {
	restaurant, err := ownedRestaurant(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req api.UploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	upload, err := menuService.RequestUploadURL(r.Context(), restaurant.ID, req.FileName, req.ContentType)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, upload)
}

func importMenuHandler(w http.ResponseWriter, r *http.Request) {
	restaurant, err := ownedRestaurant(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req api.ImportMenuRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := menuService.ImportMenu(r.Context(), restaurant.ID, req.FileKey, req.MenuText)
	if err != nil {
		if result != nil && result.Written > 0 {
			api.Success(w, http.StatusMultiStatus, result)
			return
		}
		handleServiceError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, result)
}

func submitOptimizationHandler(w http.ResponseWriter, r *http.Request) {
	restaurant, err := ownedRestaurant(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req api.SubmitOptimizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ack, err := dispatcher.Dispatch(r.Context(), optimization.Request{
		RestaurantID: restaurant.ID,
		Mode:         domain.OptimizationMode(req.Mode),
		Criteria: optimization.Criteria{
			Segments:    req.Segments,
			CuisineHint: req.CuisineHint,
		},
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	api.Success(w, http.StatusAccepted, ack)
}

func listCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	restaurant, err := ownedRestaurant(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	mode := domain.OptimizationMode(r.URL.Query().Get("mode"))
	candidates, err := optSvc.ListPendingCandidates(r.Context(), restaurant.ID, mode)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if candidates == nil {
		candidates = []domain.Candidate{}
	}
	api.Success(w, http.StatusOK, candidates)
}

// waitForCandidatesHandler long-polls until pending candidates exist for the
// restaurant and mode, bounded by a request-scoped deadline. Clients retry
// after a 204; the generation job keeps running regardless.
func waitForCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	restaurant, err := ownedRestaurant(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	mode := domain.OptimizationMode(r.URL.Query().Get("mode"))

	ctx, cancel := context.WithTimeout(r.Context(), 25*time.Second)
	defer cancel()

	poller := optimization.NewPoller(optSvc, nil, optimization.DefaultPollInterval, logger)
	candidates, err := poller.WaitForCandidates(ctx, restaurant.ID, mode)
	if err != nil {
		if ctx.Err() != nil {
			api.Success(w, http.StatusNoContent, nil)
			return
		}
		handleServiceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, candidates)
}

func decideCandidateHandler(w http.ResponseWriter, r *http.Request) {
	restaurant, err := ownedRestaurant(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req api.DecideCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	controller := newReviewController()
	if _, err := controller.Load(r.Context(), restaurant.ID, domain.OptimizationMode(req.Mode)); err != nil {
		handleServiceError(w, err)
		return
	}

	decision := review.DecisionReject
	if req.Approved {
		decision = review.DecisionApprove
	}
	if err := controller.Decide(r.Context(), chi.URLParam(r, "candidateId"), decision); err != nil {
		handleServiceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]bool{"ok": true})
}

func commitDecisionsHandler(w http.ResponseWriter, r *http.Request) {
	restaurant, err := ownedRestaurant(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req api.CommitDecisionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	controller := newReviewController()
	if _, err := controller.Load(r.Context(), restaurant.ID, domain.OptimizationMode(req.Mode)); err != nil {
		handleServiceError(w, err)
		return
	}

	for id, approved := range req.Decisions {
		decision := review.DecisionReject
		if approved {
			decision = review.DecisionApprove
		}
		if err := controller.SetIntent(id, decision); err != nil {
			handleServiceError(w, err)
			return
		}
	}

	result := controller.CommitAll(r.Context())
	status := http.StatusOK
	if result.Failed > 0 {
		status = http.StatusMultiStatus
	}
	api.Success(w, status, result)
}

// --- Helpers ---

func newReviewController() *review.Controller {
	controller := review.NewController(revisionRepo, suggestionRepo, menuItemRepo, analyticsRepo, logger)
	controller.SetMetrics(metrics)
	return controller
}

// ownedRestaurant loads the restaurant in the URL and verifies the caller owns it.
func ownedRestaurant(r *http.Request) (*domain.Restaurant, error) {
	userID := r.Context().Value(userIDKey).(string)
	restaurantID := chi.URLParam(r, "restaurantId")
	if restaurantID == "" {
		return nil, appErrors.NewValidation("restaurant id is required")
	}

	restaurant, err := restaurantRepo.GetByID(r.Context(), restaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant.OwnerID != userID {
		return nil, appErrors.NewNotFound("restaurant " + restaurantID + " not found")
	}
	return restaurant, nil
}

func handleServiceError(w http.ResponseWriter, err error) {
	if repository.IsNotFound(err) {
		api.Error(w, http.StatusNotFound, err.Error())
		return
	}
	if appErrors.IsValidation(err) {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if appErrors.IsNotFound(err) {
		api.Error(w, http.StatusNotFound, err.Error())
		return
	}
	if appErrors.IsConflict(err) {
		api.Error(w, http.StatusConflict, err.Error())
		return
	}
	logger.Error("internal error", zap.Error(err))
	api.Error(w, http.StatusInternalServerError, "An internal error occurred")
}
