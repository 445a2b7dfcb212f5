package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
)

type debtFixture struct {
	service  DebtService
	subjects *fakeSubjectStore
	debts    *fakeDebtStore
	nonces   *fakeNonceStore
}

func newDebtFixture(t *testing.T, authorizer *fakeAuthorizer) *debtFixture {
	t.Helper()

	subjects := newFakeSubjectStore()
	debts := newFakeDebtStore()
	nonces := newFakeNonceStore()

	svc, err := NewDebtService(
		new(sql.DB),
		subjects,
		debts,
		nonces,
		authorizer,
		newEmitter(),
		nil,
	)
	if err != nil {
		t.Fatalf("NewDebtService failed: %v", err)
	}

	return &debtFixture{service: svc, subjects: subjects, debts: debts, nonces: nonces}
}

func (f *debtFixture) addSubject(t *testing.T) *domain.Subject {
	t.Helper()

	subject, err := domain.NewSubject(domain.RoleLearner)
	if err != nil {
		t.Fatalf("NewSubject failed: %v", err)
	}
	if err := f.subjects.Create(context.Background(), subject); err != nil {
		t.Fatalf("creating subject failed: %v", err)
	}
	return subject
}

func (f *debtFixture) addEdge(t *testing.T, debtorID, receiverID uuid.UUID, amount float64) *domain.DebtEdge {
	t.Helper()

	edge, err := domain.NewDebtEdge(debtorID, receiverID, domain.SeverityMedium, amount)
	if err != nil {
		t.Fatalf("NewDebtEdge failed: %v", err)
	}
	if err := f.debts.Create(context.Background(), edge); err != nil {
		t.Fatalf("storing edge failed: %v", err)
	}
	return edge
}

func TestCreateDebtEdge(t *testing.T) {
	t.Parallel()

	f := newDebtFixture(t, allowAll())
	debtor := f.addSubject(t)
	receiver := f.addSubject(t)

	edge, err := f.service.Create(context.Background(), debtor.ID, receiver.ID, domain.SeverityMinor, 40)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if edge.Status != domain.DebtActive {
		t.Errorf("status = %s, want active", edge.Status)
	}
	if edge.Remaining != 40 {
		t.Errorf("remaining = %f, want 40", edge.Remaining)
	}
	if f.nonces.count() != 1 {
		t.Errorf("consumed nonces = %d, want 1", f.nonces.count())
	}
}

func TestCreateDebtRejectsSelfEdge(t *testing.T) {
	t.Parallel()

	f := newDebtFixture(t, allowAll())
	debtor := f.addSubject(t)

	if _, err := f.service.Create(context.Background(), debtor.ID, debtor.ID, domain.SeverityMinor, 40); !errors.Is(err, domain.ErrSelfDebt) {
		t.Errorf("expected ErrSelfDebt, got %v", err)
	}
	if f.nonces.count() != 0 {
		t.Error("invalid edge must never reach the authority")
	}
}

func TestRepayInvalidAmountLeavesEdgeUnchanged(t *testing.T) {
	t.Parallel()

	f := newDebtFixture(t, allowAll())
	debtor := f.addSubject(t)
	receiver := f.addSubject(t)
	edge := f.addEdge(t, debtor.ID, receiver.ID, 50)

	if _, err := f.service.Repay(context.Background(), edge.ID, 80); err == nil {
		t.Fatal("expected over-repayment to fail")
	}

	stored, err := f.debts.GetByID(context.Background(), edge.ID)
	if err != nil {
		t.Fatalf("loading edge failed: %v", err)
	}
	if stored.Remaining != 50 || len(stored.History) != 0 {
		t.Error("failed repayment must leave the edge unchanged")
	}
	if f.nonces.count() != 0 {
		t.Error("invalid repayment must never reach the authority")
	}
}

func TestRepayTerminalEdgeRejected(t *testing.T) {
	t.Parallel()

	f := newDebtFixture(t, allowAll())
	debtor := f.addSubject(t)
	receiver := f.addSubject(t)
	edge := f.addEdge(t, debtor.ID, receiver.ID, 50)

	if _, err := f.service.Repay(context.Background(), edge.ID, 50); err != nil {
		t.Fatalf("Repay failed: %v", err)
	}
	if _, err := f.service.Repay(context.Background(), edge.ID, 10); !errors.Is(err, domain.ErrEdgeTerminal) {
		t.Errorf("expected ErrEdgeTerminal, got %v", err)
	}
}

func TestFullRepaymentMarksEdgeRepaid(t *testing.T) {
	t.Parallel()

	f := newDebtFixture(t, allowAll())
	debtor := f.addSubject(t)
	receiver := f.addSubject(t)
	edge := f.addEdge(t, debtor.ID, receiver.ID, 50)

	partial, err := f.service.Repay(context.Background(), edge.ID, 20)
	if err != nil {
		t.Fatalf("Repay failed: %v", err)
	}
	if partial.Status != domain.DebtActive || partial.Remaining != 30 {
		t.Errorf("after partial repayment: status %s remaining %f", partial.Status, partial.Remaining)
	}

	full, err := f.service.Repay(context.Background(), edge.ID, 30)
	if err != nil {
		t.Fatalf("Repay failed: %v", err)
	}
	if full.Status != domain.DebtRepaid || full.Remaining != 0 {
		t.Errorf("after full repayment: status %s remaining %f", full.Status, full.Remaining)
	}
	if len(full.History) != 2 {
		t.Errorf("history length = %d, want 2", len(full.History))
	}
}

func TestRepayDeniedLeavesEdgeUnchanged(t *testing.T) {
	t.Parallel()

	f := newDebtFixture(t, denyAll())
	debtor := f.addSubject(t)
	receiver := f.addSubject(t)
	edge := f.addEdge(t, debtor.ID, receiver.ID, 50)

	if _, err := f.service.Repay(context.Background(), edge.ID, 20); err == nil {
		t.Fatal("expected denial to surface as an error")
	}

	stored, err := f.debts.GetByID(context.Background(), edge.ID)
	if err != nil {
		t.Fatalf("loading edge failed: %v", err)
	}
	if stored.Remaining != 50 || len(stored.History) != 0 {
		t.Error("denied repayment must leave the edge unchanged")
	}
}

func TestTransferCreatesSuccessorAndTerminatesOriginal(t *testing.T) {
	t.Parallel()

	f := newDebtFixture(t, allowAll())
	debtor := f.addSubject(t)
	receiver := f.addSubject(t)
	newDebtor := f.addSubject(t)
	edge := f.addEdge(t, debtor.ID, receiver.ID, 50)

	if _, err := f.service.Repay(context.Background(), edge.ID, 10); err != nil {
		t.Fatalf("Repay failed: %v", err)
	}

	result, err := f.service.Transfer(context.Background(), edge.ID, newDebtor.ID)
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}

	if result.Original.Status != domain.DebtTransferred {
		t.Errorf("original status = %s, want transferred", result.Original.Status)
	}
	if result.Successor.DebtorID != newDebtor.ID {
		t.Error("successor must owe from the new debtor")
	}
	if result.Successor.Remaining != 40 {
		t.Errorf("successor remaining = %f, want 40", result.Successor.Remaining)
	}
	// Prior repayment history travels with the debt.
	if len(result.Successor.History) != 1 {
		t.Errorf("successor history length = %d, want 1", len(result.Successor.History))
	}

	// The transfer requested core acknowledgment.
	auth := f.nonces.count()
	if auth != 2 {
		t.Errorf("consumed nonces = %d, want 2", auth)
	}
}

func TestTransferRequiresCoreAck(t *testing.T) {
	t.Parallel()

	authorizer := allowAll()
	f := newDebtFixture(t, authorizer)
	debtor := f.addSubject(t)
	receiver := f.addSubject(t)
	newDebtor := f.addSubject(t)
	edge := f.addEdge(t, debtor.ID, receiver.ID, 50)

	if _, err := f.service.Transfer(context.Background(), edge.ID, newDebtor.ID); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if !authorizer.lastRequest().RequiresCoreAck {
		t.Error("transfer must request core acknowledgment")
	}
}

func TestTransferDeniedLeavesBothEdgesUntouched(t *testing.T) {
	t.Parallel()

	f := newDebtFixture(t, denyAll())
	debtor := f.addSubject(t)
	receiver := f.addSubject(t)
	newDebtor := f.addSubject(t)
	edge := f.addEdge(t, debtor.ID, receiver.ID, 50)

	if _, err := f.service.Transfer(context.Background(), edge.ID, newDebtor.ID); err == nil {
		t.Fatal("expected denial to surface as an error")
	}

	stored, err := f.debts.GetByID(context.Background(), edge.ID)
	if err != nil {
		t.Fatalf("loading edge failed: %v", err)
	}
	if stored.Status != domain.DebtActive {
		t.Error("denied transfer must leave the original edge active")
	}
	edges, err := f.debts.ListBySubject(context.Background(), newDebtor.ID)
	if err != nil {
		t.Fatalf("listing edges failed: %v", err)
	}
	if len(edges) != 0 {
		t.Error("denied transfer must not create a successor edge")
	}
}

func TestTransferToDeceasedDebtorRejected(t *testing.T) {
	t.Parallel()

	f := newDebtFixture(t, allowAll())
	debtor := f.addSubject(t)
	receiver := f.addSubject(t)
	edge := f.addEdge(t, debtor.ID, receiver.ID, 50)

	deceased := f.addSubject(t)
	deceased.Status = domain.StatusDeceased
	if err := f.subjects.Update(context.Background(), deceased); err != nil {
		t.Fatalf("updating subject failed: %v", err)
	}

	if _, err := f.service.Transfer(context.Background(), edge.ID, deceased.ID); !errors.Is(err, ErrSubjectDeceased) {
		t.Errorf("expected ErrSubjectDeceased, got %v", err)
	}
}
