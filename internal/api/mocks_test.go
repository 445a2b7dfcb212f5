package api

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/debtgraph"
	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
	"github.com/yashikart/gurukul-backend--sub000/internal/gate"
	"github.com/yashikart/gurukul-backend--sub000/internal/service"
)

// fakeKarmaService returns a canned result or error.
type fakeKarmaService struct {
	result  *service.EvaluationResult
	err     error
	lastReq service.EvaluateRequest
}

func (f *fakeKarmaService) Evaluate(
	_ context.Context,
	req service.EvaluateRequest,
) (*service.EvaluationResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeSubjectService struct {
	profile *service.SubjectProfile
	err     error
}

func (f *fakeSubjectService) Create(
	_ context.Context,
	role domain.Role,
) (*service.SubjectProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func (f *fakeSubjectService) Get(
	_ context.Context,
	_ uuid.UUID,
) (*service.SubjectProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

type fakeLifecycleService struct {
	check   *service.DeathCheck
	record  *domain.LifecycleRecord
	rebirth *service.RebirthResult
	err     error
}

func (f *fakeLifecycleService) CheckDeathThreshold(
	_ context.Context,
	_ uuid.UUID,
) (*service.DeathCheck, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.check, nil
}

func (f *fakeLifecycleService) ProcessDeath(
	_ context.Context,
	_ uuid.UUID,
) (*domain.LifecycleRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

func (f *fakeLifecycleService) Rebirth(
	_ context.Context,
	_ uuid.UUID,
) (*service.RebirthResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rebirth, nil
}

type fakeNetworkService struct {
	view *service.NetworkView
	err  error
}

func (f *fakeNetworkService) NetworkSummary(
	_ context.Context,
	subjectID uuid.UUID,
) (*service.NetworkView, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.view != nil {
		return f.view, nil
	}
	return &service.NetworkView{
		Summary: debtgraph.Summary{SubjectID: subjectID, Community: subjectID, CommunitySize: 1},
		Edges:   []*domain.DebtEdge{},
	}, nil
}

type fakeDebtService struct {
	edge     *domain.DebtEdge
	transfer *service.TransferResult
	err      error
}

func (f *fakeDebtService) Create(
	_ context.Context,
	_, _ uuid.UUID,
	_ domain.Severity,
	_ float64,
) (*domain.DebtEdge, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.edge, nil
}

func (f *fakeDebtService) Repay(
	_ context.Context,
	_ uuid.UUID,
	_ float64,
) (*domain.DebtEdge, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.edge, nil
}

func (f *fakeDebtService) Transfer(
	_ context.Context,
	_, _ uuid.UUID,
) (*service.TransferResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.transfer, nil
}

type fakeResolver struct {
	decision *domain.AuthorizationDecision
	err      error
}

func (f *fakeResolver) Resolve(decision *domain.AuthorizationDecision) error {
	f.decision = decision
	return f.err
}

type fakeHealthClient struct {
	healthy bool
}

func (f *fakeHealthClient) Send(
	_ context.Context,
	_ *domain.KarmaSignal,
) (*domain.AuthorizationDecision, error) {
	return nil, nil
}

func (f *fakeHealthClient) CheckHealth(_ context.Context) error {
	if f.healthy {
		return nil
	}
	return gate.ErrAuthorityUnavailable
}

// serveWithURLParam routes the request through a throwaway chi router so
// URL parameters resolve the way they do in production.
func serveWithURLParam(pattern, method string, handler http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.MethodFunc(method, pattern, handler)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)
	return rec
}
