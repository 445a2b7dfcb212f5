package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AfterlifeBucket is the classification assigned at death from the subject's
// net karma. Buckets cover fixed, non-overlapping ranges.
type AfterlifeBucket string

const (
	// BucketNaraka: net karma below -200.
	BucketNaraka AfterlifeBucket = "naraka"

	// BucketPreta: net karma in [-200, 0).
	BucketPreta AfterlifeBucket = "preta"

	// BucketManushya: net karma in [0, 200).
	BucketManushya AfterlifeBucket = "manushya"

	// BucketSvarga: net karma in [200, 1000).
	BucketSvarga AfterlifeBucket = "svarga"

	// BucketMoksha: net karma of 1000 or above.
	BucketMoksha AfterlifeBucket = "moksha"
)

// LifecycleRecord is the immutable snapshot taken when a subject dies.
// Once persisted it is never updated.
type LifecycleRecord struct {
	ID        uuid.UUID       `json:"id"`
	SubjectID uuid.UUID       `json:"subject_id"`
	Bucket    AfterlifeBucket `json:"bucket"`

	// NetKarma is the subject's final lifetime position.
	NetKarma float64 `json:"net_karma"`

	// Inheritance is the carry-over seeded into the next life, already
	// reduced by the fixed merit/debt fractions.
	Inheritance float64 `json:"inheritance"`

	// FinalBalances captures the ledger state at the moment of death.
	FinalBalances TokenBalance `json:"final_balances"`

	DiedAt time.Time `json:"died_at"`
}

// NewLifecycleRecord builds the death snapshot for a subject.
// Returns an error if validation fails.
func NewLifecycleRecord(
	subjectID uuid.UUID,
	bucket AfterlifeBucket,
	netKarma, inheritance float64,
	finalBalances TokenBalance,
	diedAt time.Time,
) (*LifecycleRecord, error) {
	record := &LifecycleRecord{
		ID:            uuid.New(),
		SubjectID:     subjectID,
		Bucket:        bucket,
		NetKarma:      netKarma,
		Inheritance:   inheritance,
		FinalBalances: finalBalances,
		DiedAt:        diedAt,
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks the structural invariants of the record.
func (r *LifecycleRecord) Validate() error {
	if r.ID == uuid.Nil || r.SubjectID == uuid.Nil {
		return fmt.Errorf("%w: record and subject IDs cannot be empty", ErrInvalidID)
	}

	switch r.Bucket {
	case BucketNaraka, BucketPreta, BucketManushya, BucketSvarga, BucketMoksha:
	default:
		return fmt.Errorf("%w: unknown afterlife bucket %q", ErrValidation, r.Bucket)
	}

	if r.DiedAt.IsZero() {
		return fmt.Errorf("%w: death timestamp cannot be zero", ErrValidation)
	}

	return nil
}
