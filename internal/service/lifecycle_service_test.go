package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
	"github.com/yashikart/gurukul-backend--sub000/internal/domain/lifecycle"
)

type lifecycleFixture struct {
	service  LifecycleService
	subjects *fakeSubjectStore
	balances *fakeBalanceStore
	records  *fakeRecordStore
	nonces   *fakeNonceStore
}

func newLifecycleFixture(t *testing.T, authorizer *fakeAuthorizer) *lifecycleFixture {
	t.Helper()

	subjects := newFakeSubjectStore()
	balances := newFakeBalanceStore()
	records := newFakeRecordStore()
	nonces := newFakeNonceStore()

	svc, err := NewLifecycleService(
		new(sql.DB),
		subjects,
		balances,
		records,
		nonces,
		authorizer,
		lifecycle.DefaultParams(),
		newEmitter(),
		nil,
	)
	if err != nil {
		t.Fatalf("NewLifecycleService failed: %v", err)
	}

	return &lifecycleFixture{
		service:  svc,
		subjects: subjects,
		balances: balances,
		records:  records,
		nonces:   nonces,
	}
}

func (f *lifecycleFixture) addSubjectWithKarma(t *testing.T, inEffect, carryOver float64) *domain.Subject {
	t.Helper()

	subject, err := domain.NewSubject(domain.RoleLearner)
	if err != nil {
		t.Fatalf("NewSubject failed: %v", err)
	}
	if err := f.subjects.Create(context.Background(), subject); err != nil {
		t.Fatalf("creating subject failed: %v", err)
	}

	balance, err := domain.NewTokenBalance(subject.ID)
	if err != nil {
		t.Fatalf("NewTokenBalance failed: %v", err)
	}
	balance.InEffect = inEffect
	balance.CarryOver = carryOver
	if err := f.balances.Put(context.Background(), balance); err != nil {
		t.Fatalf("storing balance failed: %v", err)
	}
	return subject
}

func TestCheckDeathThreshold(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t, allowAll())

	// The threshold is inclusive: -100 triggers, anything above does not.
	above := f.addSubjectWithKarma(t, -99.9, 0)
	below := f.addSubjectWithKarma(t, -105, 0)

	check, err := f.service.CheckDeathThreshold(context.Background(), above.ID)
	if err != nil {
		t.Fatalf("CheckDeathThreshold failed: %v", err)
	}
	if check.Eligible {
		t.Error("in-effect karma of -99.9 must not be eligible for death")
	}

	check, err = f.service.CheckDeathThreshold(context.Background(), below.ID)
	if err != nil {
		t.Fatalf("CheckDeathThreshold failed: %v", err)
	}
	if !check.Eligible {
		t.Error("in-effect karma of -105 must be eligible for death")
	}
	if check.InEffect != -105 {
		t.Errorf("in-effect = %f, want -105", check.InEffect)
	}
}

func TestProcessDeathCommitsRecordAndStatus(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t, allowAll())
	subject := f.addSubjectWithKarma(t, -250, 30)

	record, err := f.service.ProcessDeath(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("ProcessDeath failed: %v", err)
	}

	// Net karma -220 lands in naraka.
	if record.Bucket != domain.BucketNaraka {
		t.Errorf("bucket = %s, want naraka", record.Bucket)
	}
	if record.NetKarma != -220 {
		t.Errorf("net karma = %f, want -220", record.NetKarma)
	}
	// Negative net inherits at the debt fraction.
	if record.Inheritance != -110 {
		t.Errorf("inheritance = %f, want -110", record.Inheritance)
	}

	stored, err := f.subjects.GetByID(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("loading subject failed: %v", err)
	}
	if stored.Alive() {
		t.Error("subject must be DECEASED after death processing")
	}
	if f.nonces.count() != 1 {
		t.Errorf("consumed nonces = %d, want 1", f.nonces.count())
	}
}

func TestProcessDeathDeniedLeavesSubjectAlive(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t, denyAll())
	subject := f.addSubjectWithKarma(t, -250, 0)

	if _, err := f.service.ProcessDeath(context.Background(), subject.ID); err == nil {
		t.Fatal("expected denial to surface as an error")
	}

	stored, err := f.subjects.GetByID(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("loading subject failed: %v", err)
	}
	if !stored.Alive() {
		t.Error("denied death must leave the subject ALIVE")
	}
	if _, err := f.records.GetBySubject(context.Background(), subject.ID); err == nil {
		t.Error("no lifecycle record may exist after a denied death")
	}
	if f.nonces.count() != 0 {
		t.Error("no nonce may be consumed for a denied death")
	}
}

func TestProcessDeathRequiresThreshold(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t, allowAll())
	subject := f.addSubjectWithKarma(t, -50, 0)

	if _, err := f.service.ProcessDeath(context.Background(), subject.ID); !errors.Is(err, ErrThresholdNotCrossed) {
		t.Errorf("expected ErrThresholdNotCrossed, got %v", err)
	}
}

func TestRebirthSeedsOnlyInheritance(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t, allowAll())

	// Die with positive net karma: 20% of +300 carries over.
	subject := f.addSubjectWithKarma(t, -120, 420)
	record, err := f.service.ProcessDeath(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("ProcessDeath failed: %v", err)
	}
	if record.Inheritance != 60 {
		t.Fatalf("inheritance = %f, want 60", record.Inheritance)
	}

	result, err := f.service.Rebirth(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("Rebirth failed: %v", err)
	}

	if result.Subject.ID == subject.ID {
		t.Error("successor must have a fresh identity")
	}
	if result.Subject.RebirthCount != subject.RebirthCount+1 {
		t.Errorf("rebirth count = %d, want %d", result.Subject.RebirthCount, subject.RebirthCount+1)
	}
	// Inheritance 60 ≥ 50 starts the successor as learner.
	if result.Subject.Role != domain.RoleLearner {
		t.Errorf("starting role = %s, want learner", result.Subject.Role)
	}

	balance := result.Balance
	if balance.CarryOver != 60 {
		t.Errorf("carry-over = %f, want 60", balance.CarryOver)
	}
	if balance.InEffect != 0 || balance.Dharma != 0 || balance.Seva != 0 || balance.Punya != 0 {
		t.Error("transactional counters must start at zero")
	}
	for severity, n := range balance.Penalties {
		if n != 0 {
			t.Errorf("penalty %s = %d, want 0", severity, n)
		}
	}
}

func TestRebirthRequiresDeceasedSubject(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(t, allowAll())
	subject := f.addSubjectWithKarma(t, 10, 0)

	if _, err := f.service.Rebirth(context.Background(), subject.ID); !errors.Is(err, ErrSubjectAlive) {
		t.Errorf("expected ErrSubjectAlive, got %v", err)
	}
}
