package gate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
)

func testSignal() *domain.KarmaSignal {
	return &domain.KarmaSignal{
		SubjectID:        uuid.NewString(),
		Context:          domain.ContextGurukul,
		Signal:           domain.SignalNudge,
		Severity:         0.5,
		OpaqueReasonCode: "KC-101",
		TTLSeconds:       300,
		Nonce:            uuid.New(),
		Timestamp:        time.Now().UTC(),
	}
}

func TestSendSynchronousDecision(t *testing.T) {
	t.Parallel()

	nonce := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/signals" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(domain.AuthorizationDecision{
			Outcome:   domain.OutcomeAllowed,
			Nonce:     nonce,
			DecidedAt: time.Now().UTC(),
		})
	}))
	t.Cleanup(server.Close)

	client := NewHTTPAuthorityClient(server.URL, time.Second)
	decision, err := client.Send(context.Background(), testSignal())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if decision == nil || !decision.Allowed() {
		t.Fatalf("expected allowed decision, got %+v", decision)
	}
	if decision.Nonce != nonce {
		t.Errorf("nonce = %s, want %s", decision.Nonce, nonce)
	}
}

func TestSendAsynchronousAcceptance(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(server.Close)

	client := NewHTTPAuthorityClient(server.URL, time.Second)
	decision, err := client.Send(context.Background(), testSignal())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if decision != nil {
		t.Errorf("202 must yield no synchronous decision, got %+v", decision)
	}
}

func TestSendRejectsMalformedDecisions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"truncated json", `{not-json`},
		{"missing nonce", `{"outcome":"allowed"}`},
		{"unrecognized outcome", `{"outcome":"sideways","nonce":"` + uuid.NewString() + `"}`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(server.Close)

			client := NewHTTPAuthorityClient(server.URL, time.Second)
			_, err := client.Send(context.Background(), testSignal())
			if !errors.Is(err, ErrMalformedDecision) {
				t.Errorf("expected ErrMalformedDecision, got %v", err)
			}
			// Transport-level retry logic keys off this distinction.
			if errors.Is(err, ErrAuthorityUnavailable) {
				t.Error("a decoded 200 must not read as an unavailable authority")
			}
		})
	}
}

func TestSendMapsServerErrorsToUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := NewHTTPAuthorityClient(server.URL, time.Second)
	_, err := client.Send(context.Background(), testSignal())
	if !errors.Is(err, ErrAuthorityUnavailable) {
		t.Errorf("expected ErrAuthorityUnavailable, got %v", err)
	}
}

func TestCheckHealth(t *testing.T) {
	t.Parallel()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(healthy.Close)

	if err := NewHTTPAuthorityClient(healthy.URL, time.Second).CheckHealth(context.Background()); err != nil {
		t.Errorf("CheckHealth failed against healthy authority: %v", err)
	}

	sick := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(sick.Close)

	err := NewHTTPAuthorityClient(sick.URL, time.Second).CheckHealth(context.Background())
	if !errors.Is(err, ErrAuthorityUnavailable) {
		t.Errorf("expected ErrAuthorityUnavailable, got %v", err)
	}
}
