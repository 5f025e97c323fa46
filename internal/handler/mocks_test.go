package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/expertauto/expertise/internal/auth"
	"github.com/expertauto/expertise/internal/domain"
	"github.com/expertauto/expertise/internal/valuation"
	"github.com/google/uuid"
)

// =============================================================================
// Mock Services
// =============================================================================

type mockReportService struct {
	CreateFunc       func(ctx context.Context, params domain.CreateReportParams) (*domain.Report, error)
	GetByIDFunc      func(ctx context.Context, id uuid.UUID) (*domain.Report, error)
	ListFunc         func(ctx context.Context, params domain.ListReportsParams) (*domain.ListReportsResult, error)
	UpdateFunc       func(ctx context.Context, id uuid.UUID, params domain.UpdateReportParams) (*domain.Report, error)
	UpdateStatusFunc func(ctx context.Context, id uuid.UUID, status domain.ReportStatus) (*domain.Report, error)
	RecalculateFunc  func(ctx context.Context, id uuid.UUID) (*domain.Report, error)
	DeleteFunc       func(ctx context.Context, id uuid.UUID) error
	SettleFunc       func(zones []domain.DamageZoneParams, firstRegistration *time.Time) valuation.Settlement
}

func (m *mockReportService) Create(ctx context.Context, params domain.CreateReportParams) (*domain.Report, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *mockReportService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.NotFound("report.get", "report", id.String())
}

func (m *mockReportService) List(ctx context.Context, params domain.ListReportsParams) (*domain.ListReportsResult, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, params)
	}
	return &domain.ListReportsResult{Page: 1, Limit: 20}, nil
}

func (m *mockReportService) Update(ctx context.Context, id uuid.UUID, params domain.UpdateReportParams) (*domain.Report, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, params)
	}
	return nil, nil
}

func (m *mockReportService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReportStatus) (*domain.Report, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil, nil
}

func (m *mockReportService) Recalculate(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	if m.RecalculateFunc != nil {
		return m.RecalculateFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockReportService) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockReportService) Settle(zones []domain.DamageZoneParams, firstRegistration *time.Time) valuation.Settlement {
	if m.SettleFunc != nil {
		return m.SettleFunc(zones, firstRegistration)
	}
	return valuation.Settlement{}
}

type mockOfficeService struct {
	CreateFunc    func(ctx context.Context, params domain.CreateOfficeParams) (*domain.Office, error)
	GetByIDFunc   func(ctx context.Context, id uuid.UUID) (*domain.Office, error)
	GetByCodeFunc func(ctx context.Context, code string) (*domain.Office, error)
	UpdateFunc    func(ctx context.Context, id uuid.UUID, params domain.UpdateOfficeParams) (*domain.Office, error)
	ListFunc      func(ctx context.Context, search string) ([]domain.Office, error)
	DeleteFunc    func(ctx context.Context, id uuid.UUID) error
}

func (m *mockOfficeService) Create(ctx context.Context, params domain.CreateOfficeParams) (*domain.Office, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *mockOfficeService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Office, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.NotFound("office.get", "office", id.String())
}

func (m *mockOfficeService) GetByCode(ctx context.Context, code string) (*domain.Office, error) {
	if m.GetByCodeFunc != nil {
		return m.GetByCodeFunc(ctx, code)
	}
	return nil, domain.NotFound("office.get_by_code", "office", code)
}

func (m *mockOfficeService) Update(ctx context.Context, id uuid.UUID, params domain.UpdateOfficeParams) (*domain.Office, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, params)
	}
	return nil, nil
}

func (m *mockOfficeService) List(ctx context.Context, search string) ([]domain.Office, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, search)
	}
	return nil, nil
}

func (m *mockOfficeService) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type mockExportService struct {
	RequestFunc func(ctx context.Context, reportID uuid.UUID, actor *domain.Actor, format domain.ExportFormat) (uuid.UUID, error)
	ListFunc    func(ctx context.Context, reportID uuid.UUID) ([]domain.StatementExport, error)
}

func (m *mockExportService) Request(ctx context.Context, reportID uuid.UUID, actor *domain.Actor, format domain.ExportFormat) (uuid.UUID, error) {
	if m.RequestFunc != nil {
		return m.RequestFunc(ctx, reportID, actor, format)
	}
	return uuid.New(), nil
}

func (m *mockExportService) List(ctx context.Context, reportID uuid.UUID) ([]domain.StatementExport, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, reportID)
	}
	return nil, nil
}

// =============================================================================
// Helpers
// =============================================================================

var testActor = &domain.Actor{
	UserID: uuid.MustParse("7d1f0c9e-3b5a-4f7e-9a61-2c4d8e0b1a23"),
	Email:  "expert@cabinet.example",
	Role:   domain.RoleExpert,
}

// passActor stands in for the token middleware: it attaches testActor to
// every request that does not set the X-Anonymous header. X-Role overrides
// the actor's role.
func passActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Anonymous") == "" {
			actor := *testActor
			if role := r.Header.Get("X-Role"); role != "" {
				actor.Role = domain.Role(role)
			}
			r = r.WithContext(auth.SetActor(r.Context(), &actor))
		}
		next.ServeHTTP(w, r)
	})
}

// passRole stands in for the token middleware's role gate.
func passRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return passActor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := auth.GetActor(r.Context())
			if actor == nil {
				UnauthorizedResponse(w, r, discardLogger())
				return
			}
			if !actor.HasRole(roles...) {
				ErrorResponse(w, r, discardLogger(), domain.Forbidden("auth.require_role", "your role does not permit this action"))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func noLimit(next http.Handler) http.Handler { return next }

func newTestMux(reports *mockReportService, offices *mockOfficeService, exports *mockExportService) *http.ServeMux {
	logger := discardLogger()
	mux := http.NewServeMux()
	NewReportHandler(reports, logger).RegisterRoutes(mux, passActor, noLimit)
	NewValuationHandler(reports, logger).RegisterRoutes(mux, passActor)
	NewOfficeHandler(offices, logger).RegisterRoutes(mux, passActor, passRole)
	NewExportHandler(exports, logger).RegisterRoutes(mux, passActor)
	return mux
}
