package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
	"github.com/yashikart/gurukul-backend--sub000/internal/service"
)

func evaluateBody(t *testing.T, subjectID string) *bytes.Buffer {
	t.Helper()

	body, err := json.Marshal(map[string]interface{}{
		"subject_id": subjectID,
		"action":     "complete_lesson",
		"intensity":  0.8,
		"context":    "gurukul",
		"history": []map[string]interface{}{
			{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
				"channel":   "forum",
				"text":      "offered to teach and help a newcomer",
			},
		},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestEvaluateHandler(t *testing.T) {
	t.Parallel()

	subjectID := uuid.New()
	svc := &fakeKarmaService{result: &service.EvaluationResult{
		SubjectID: subjectID,
		Score:     35,
		Role:      domain.RoleLearner,
		Outcome:   domain.OutcomeAllowed,
		Applied:   true,
	}}
	handler := NewKarmaHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/karma/evaluate", evaluateBody(t, subjectID.String()))
	rec := httptest.NewRecorder()
	handler.Evaluate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result service.EvaluationResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, subjectID, result.SubjectID)
	assert.True(t, result.Applied)

	assert.Equal(t, subjectID, svc.lastReq.SubjectID)
	assert.Len(t, svc.lastReq.History, 1)
	assert.Equal(t, domain.ContextGurukul, svc.lastReq.Context)
}

func TestEvaluateHandlerRejectsBadPayload(t *testing.T) {
	t.Parallel()

	handler := NewKarmaHandler(&fakeKarmaService{})

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"missing subject", `{"action":"x","context":"gurukul"}`},
		{"bad context", `{"subject_id":"` + uuid.NewString() + `","action":"x","context":"casino"}`},
		{"intensity out of range", `{"subject_id":"` + uuid.NewString() + `","action":"x","intensity":1.5,"context":"gurukul"}`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/api/karma/evaluate", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			handler.Evaluate(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestEvaluateHandlerMapsServiceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown subject", service.ErrSubjectNotFound, http.StatusNotFound},
		{"deceased subject", service.ErrSubjectDeceased, http.StatusConflict},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			handler := NewKarmaHandler(&fakeKarmaService{err: tc.err})
			req := httptest.NewRequest(http.MethodPost, "/api/karma/evaluate", evaluateBody(t, uuid.NewString()))
			rec := httptest.NewRecorder()
			handler.Evaluate(rec, req)
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}
