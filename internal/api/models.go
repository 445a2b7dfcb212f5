package api

import (
	"time"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain/scoring"
)

// CreateSubjectRequest is the request body for registering a new subject.
type CreateSubjectRequest struct {
	Role string `json:"role" validate:"required,oneof=beginner learner volunteer seva guru"`
}

// InteractionRecord is one history entry submitted for evaluation.
type InteractionRecord struct {
	Timestamp  time.Time         `json:"timestamp"  validate:"required"`
	Channel    string            `json:"channel"    validate:"required"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes"`
}

// EvaluateKarmaRequest is the request body for a karma evaluation.
type EvaluateKarmaRequest struct {
	SubjectID string              `json:"subject_id" validate:"required,uuid"`
	Action    string              `json:"action"     validate:"required,min=1,max=64"`
	Intensity float64             `json:"intensity"  validate:"gte=0,lte=1"`
	Context   string              `json:"context"    validate:"required,oneof=assistant game finance gurukul infra workflow"`
	History   []InteractionRecord `json:"history"    validate:"dive"`
}

// CreateDebtRequest is the request body for opening a debt edge.
type CreateDebtRequest struct {
	DebtorID   string  `json:"debtor_id"   validate:"required,uuid"`
	ReceiverID string  `json:"receiver_id" validate:"required,uuid"`
	Severity   string  `json:"severity"    validate:"required,oneof=minor medium maha"`
	Amount     float64 `json:"amount"      validate:"required,gt=0"`
}

// RepayDebtRequest is the request body for a debt repayment.
type RepayDebtRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// TransferDebtRequest is the request body for a debt transfer.
type TransferDebtRequest struct {
	NewDebtorID string `json:"new_debtor_id" validate:"required,uuid"`
}

// DecisionRequest is the asynchronous decision callback posted by the
// authority for a previously proposed signal.
type DecisionRequest struct {
	Nonce        string    `json:"nonce"         validate:"required,uuid"`
	Outcome      string    `json:"outcome"       validate:"required,oneof=allowed denied timeout"`
	OpaqueReason string    `json:"opaque_reason" validate:"max=256"`
	DecidedAt    time.Time `json:"decided_at"`
}

// HealthResponse reports process liveness and the authority link state.
type HealthResponse struct {
	Status           string `json:"status"`
	AuthorityHealthy bool   `json:"authority_healthy"`
	SafeMode         bool   `json:"safe_mode"`
}

func historyToRecords(history []InteractionRecord) []scoring.Record {
	records := make([]scoring.Record, len(history))
	for i, h := range history {
		records[i] = scoring.Record{
			Timestamp:  h.Timestamp,
			Channel:    h.Channel,
			Text:       h.Text,
			Attributes: h.Attributes,
		}
	}
	return records
}
