package optimization

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"menuwise-backend/pkg/api"
	appErrors "menuwise-backend/pkg/errors"
)

// Dispatcher hands an optimization request to whatever executes it. The
// in-process Service satisfies it for the standalone worker; callers whose
// process cannot be trusted to keep running (the API Lambda) use the
// WorkerDispatcher instead.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) (*Acknowledgment, error)
}

// Dispatch validates and enqueues the request on the service's own queue.
func (s *Service) Dispatch(ctx context.Context, req Request) (*Acknowledgment, error) {
	return s.Submit(ctx, req)
}

// WorkerDispatcher forwards submissions to the standalone worker over its
// internal HTTP endpoint. Generation then survives the submitting process:
// a frozen or reclaimed API sandbox cannot lose an accepted job.
type WorkerDispatcher struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewWorkerDispatcher creates a dispatcher targeting the worker at baseURL.
func NewWorkerDispatcher(baseURL string, logger *zap.Logger) *WorkerDispatcher {
	return &WorkerDispatcher{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// Dispatch posts the request to the worker and relays its verdict. The worker
// performs the synchronous validation; a 400 surfaces as a validation error
// with the worker's message.
func (d *WorkerDispatcher) Dispatch(ctx context.Context, req Request) (*Acknowledgment, error) {
	if req.RestaurantID == "" {
		return nil, appErrors.NewValidation("restaurant id is required")
	}

	body, err := json.Marshal(api.SubmitOptimizationRequest{
		Mode:        string(req.Mode),
		Segments:    req.Criteria.Segments,
		CuisineHint: req.Criteria.CuisineHint,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to encode submission")
	}

	endpoint := d.baseURL + "/internal/restaurants/" + url.PathEscape(req.RestaurantID) + "/optimizations"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to build submission request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, appErrors.Wrap(err, "worker submission failed")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
		var ack Acknowledgment
		if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
			return nil, appErrors.Wrap(err, "failed to decode worker acknowledgment")
		}
		return &ack, nil
	case http.StatusBadRequest:
		var errResp api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error == "" {
			return nil, appErrors.NewValidation("worker rejected the submission")
		}
		return nil, appErrors.NewValidation(errResp.Error)
	default:
		d.logger.Error("worker submission returned unexpected status",
			zap.Int("status", resp.StatusCode),
			zap.String("restaurant_id", req.RestaurantID))
		return nil, appErrors.NewInternal(fmt.Sprintf("worker returned status %d", resp.StatusCode), nil)
	}
}
