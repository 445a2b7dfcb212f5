package shared

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := SetTraceID(context.Background())
	traceID := GetTraceID(ctx)
	assert.Len(t, traceID, 32)

	// A second call produces a distinct ID.
	assert.NotEqual(t, traceID, GetTraceID(SetTraceID(context.Background())))

	assert.Empty(t, GetTraceID(context.Background()))
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"arjuna"}`))
	var p payload
	require.NoError(t, DecodeJSON(req, &p))
	assert.Equal(t, "arjuna", p.Name)

	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":`))
	assert.Error(t, DecodeJSON(req, &p))
}

type selfValidating struct {
	err error
}

func (s selfValidating) Validate() error { return s.err }

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	type tagged struct {
		Name string `validate:"required"`
	}

	assert.NoError(t, ValidateRequest(tagged{Name: "ok"}))
	assert.Error(t, ValidateRequest(tagged{}))

	// A Validate method takes precedence over struct tags.
	wantErr := errors.New("custom validation failed")
	assert.ErrorIs(t, ValidateRequest(selfValidating{err: wantErr}), wantErr)
	assert.NoError(t, ValidateRequest(selfValidating{}))
}

func TestRespondWithErrorIncludesTraceID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(SetTraceID(req.Context()))
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, http.StatusBadRequest, "bad input")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "bad input", resp.Error)
	assert.Equal(t, GetTraceID(req.Context()), resp.TraceID)
}

func TestRespondWithErrorAndLogSanitizesBody(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	internal := errors.New("dial tcp 10.0.0.5:5432: connection refused")
	RespondWithErrorAndLog(rec, req, http.StatusInternalServerError, "An unexpected error occurred", internal)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Contains(t, rec.Body.String(), "An unexpected error occurred")
}
