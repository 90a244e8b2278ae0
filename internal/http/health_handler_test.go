package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendgate/sendgate/pkg/logger"
)

func TestHealthHandler_handleHealth(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()

		handler := NewHealthHandler(db, "1.4.0", logger.NewTestLogger(t))

		req := httptest.NewRequest("GET", "/health", nil)
		rec := httptest.NewRecorder()

		handler.handleHealth(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response map[string]interface{}
		err = json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)
		assert.Equal(t, "ok", response["status"])
		assert.Equal(t, "1.4.0", response["version"])
		assert.NotEmpty(t, response["uptime"])

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database unreachable", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		handler := NewHealthHandler(db, "1.4.0", logger.NewTestLogger(t))

		req := httptest.NewRequest("GET", "/health", nil)
		rec := httptest.NewRecorder()

		handler.handleHealth(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var response map[string]interface{}
		err = json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)
		assert.Equal(t, "unhealthy", response["status"])
	})

	t.Run("No database configured", func(t *testing.T) {
		handler := NewHealthHandler(nil, "1.4.0", logger.NewTestLogger(t))

		req := httptest.NewRequest("GET", "/health", nil)
		rec := httptest.NewRecorder()

		handler.handleHealth(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Method not allowed", func(t *testing.T) {
		handler := NewHealthHandler(nil, "1.4.0", logger.NewTestLogger(t))

		req := httptest.NewRequest("POST", "/health", nil)
		rec := httptest.NewRecorder()

		handler.handleHealth(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestHealthHandler_RegisterRoutes(t *testing.T) {
	handler := NewHealthHandler(nil, "1.4.0", logger.NewTestLogger(t))

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	_, pattern := mux.Handler(httptest.NewRequest("GET", "/health", nil))
	assert.NotEmpty(t, pattern)
}
