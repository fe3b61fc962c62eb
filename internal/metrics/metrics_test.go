package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveHTTPRequest(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest("/contacts", "GET", "200", 5*time.Millisecond)
	m.ObserveHTTPRequest("/contacts", "GET", "200", 7*time.Millisecond)
	m.ObserveHTTPRequest("/contacts/lookup/:id", "GET", "404", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/contacts", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/contacts/lookup/:id", "GET", "404")))
}

func TestObserveStorageOperation(t *testing.T) {
	m := New()
	m.ObserveStorageOperation("insert", "ok", time.Millisecond)
	m.ObserveStorageOperation("find_by_id", "not_found", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.storageOperations.WithLabelValues("insert", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storageOperations.WithLabelValues("find_by_id", "not_found")))
}

// TestHandler verifies that the exposition endpoint serves the registered collectors.
func TestHandler(t *testing.T) {
	m := New()
	m.ObserveStorageOperation("delete", "ok", time.Millisecond)

	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `contacts_storage_operations_total{operation="delete",outcome="ok"} 1`)
	assert.Contains(t, recorder.Body.String(), "go_goroutines")
}
