package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

func checkHealth(kafka, store Pinger) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", NewHealthHandler("order-ledger", kafka, store).Check)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	return rec
}

func TestHealthCheck_AllDependenciesUp(t *testing.T) {
	t.Parallel()

	rec := checkHealth(stubPinger{}, stubPinger{})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"kafka":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"store":"healthy"`)
}

func TestHealthCheck_KafkaDown(t *testing.T) {
	t.Parallel()

	rec := checkHealth(stubPinger{err: errors.New("broker unreachable")}, stubPinger{})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
	assert.Contains(t, rec.Body.String(), `"kafka":"unhealthy"`)
	assert.Contains(t, rec.Body.String(), `"store":"healthy"`)
}

func TestHealthCheck_StoreDown(t *testing.T) {
	t.Parallel()

	rec := checkHealth(stubPinger{}, stubPinger{err: errors.New("table unreachable")})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"store":"unhealthy"`)
}
