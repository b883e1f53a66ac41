package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authTestRequest(t *testing.T, reqCtx events.APIGatewayV2HTTPRequestContext) *http.Request {
	t.Helper()
	accessor := core.RequestAccessorV2{}
	httpReq, err := accessor.EventToRequestWithContext(context.Background(), events.APIGatewayV2HTTPRequest{
		RawPath:        "/api/restaurants/rest-1",
		RequestContext: reqCtx,
	})
	require.NoError(t, err)
	return httpReq
}

func TestAuthenticatorRejectsMissingAuthorizerContext(t *testing.T) {
	nextCalled := false
	handler := Authenticator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authTestRequest(t, events.APIGatewayV2HTTPRequestContext{
		HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: http.MethodGet, Path: "/api/restaurants/rest-1"},
	}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, nextCalled)
}

func TestAuthenticatorRejectsMissingSubject(t *testing.T) {
	nextCalled := false
	handler := Authenticator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authTestRequest(t, events.APIGatewayV2HTTPRequestContext{
		HTTP:       events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: http.MethodGet, Path: "/api/restaurants/rest-1"},
		Authorizer: &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{Lambda: map[string]interface{}{}},
	}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, nextCalled)
}

func TestAuthenticatorThreadsUserID(t *testing.T) {
	var gotUserID string
	handler := Authenticator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = r.Context().Value(userIDKey).(string)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authTestRequest(t, events.APIGatewayV2HTTPRequestContext{
		HTTP:       events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: http.MethodGet, Path: "/api/restaurants/rest-1"},
		Authorizer: &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{Lambda: map[string]interface{}{"sub": "user-1"}},
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", gotUserID)
}
