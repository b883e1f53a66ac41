package optimization

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"menuwise-backend/internal/domain"
	"menuwise-backend/pkg/api"
	appErrors "menuwise-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Submissions from the HTTP API must reach the standalone worker process, not
// an in-process queue, so an accepted job survives the submitting process.
func TestWorkerDispatcherForwardsSubmission(t *testing.T) {
	var gotPath string
	var gotBody api.SubmitOptimizationRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(Acknowledgment{
			RestaurantID: "rest-1",
			Mode:         domain.ModeReviseExisting,
			SubmittedAt:  time.Now().UTC(),
		})
	}))
	defer server.Close()

	d := NewWorkerDispatcher(server.URL, zap.NewNop())
	ack, err := d.Dispatch(context.Background(), Request{
		RestaurantID: "rest-1",
		Mode:         domain.ModeReviseExisting,
		Criteria:     Criteria{Segments: []string{"young professionals"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "/internal/restaurants/rest-1/optimizations", gotPath)
	assert.Equal(t, string(domain.ModeReviseExisting), gotBody.Mode)
	assert.Equal(t, []string{"young professionals"}, gotBody.Segments)
	assert.Equal(t, "rest-1", ack.RestaurantID)
	assert.Equal(t, domain.ModeReviseExisting, ack.Mode)
}

func TestWorkerDispatcherRelaysValidationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "revision requires at least one active menu item"})
	}))
	defer server.Close()

	d := NewWorkerDispatcher(server.URL, zap.NewNop())
	_, err := d.Dispatch(context.Background(), Request{
		RestaurantID: "rest-1",
		Mode:         domain.ModeReviseExisting,
	})
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
	assert.Contains(t, err.Error(), "active menu item")
}

func TestWorkerDispatcherSurfacesWorkerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	d := NewWorkerDispatcher(server.URL, zap.NewNop())
	_, err := d.Dispatch(context.Background(), Request{
		RestaurantID: "rest-1",
		Mode:         domain.ModeSuggestNew,
	})
	require.Error(t, err)
	assert.False(t, appErrors.IsValidation(err))
}

func TestWorkerDispatcherRequiresRestaurantID(t *testing.T) {
	d := NewWorkerDispatcher("http://worker.invalid", zap.NewNop())
	_, err := d.Dispatch(context.Background(), Request{Mode: domain.ModeReviseExisting})
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
}
