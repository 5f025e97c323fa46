package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/expertauto/expertise/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOffice() domain.Office {
	created := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	return domain.Office{
		ID:         uuid.New(),
		Code:       "ABJ01",
		AgencyName: "Assurances du Plateau",
		Email:      "sinistres@plateau.example",
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestOfficeHandler_Create(t *testing.T) {
	var got domain.CreateOfficeParams
	offices := &mockOfficeService{
		CreateFunc: func(_ context.Context, params domain.CreateOfficeParams) (*domain.Office, error) {
			got = params
			o := sampleOffice()
			return &o, nil
		},
	}
	mux := newTestMux(&mockReportService{}, offices, &mockExportService{})

	rec := do(mux, http.MethodPost, "/api/bureaux", `{"code":"abj01","nomAgence":"Assurances du Plateau","responsableSinistres":"A. Traoré","email":"sinistres@plateau.example"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, domain.CreateOfficeParams{
		Code:          "abj01",
		AgencyName:    "Assurances du Plateau",
		ClaimsManager: "A. Traoré",
		Email:         "sinistres@plateau.example",
	}, got)

	body := decodeBody[officeResponse](t, rec)
	assert.Equal(t, "ABJ01", body.Code)
	assert.Equal(t, "Assurances du Plateau", body.NomAgence)
}

func TestOfficeHandler_Create_Conflict(t *testing.T) {
	offices := &mockOfficeService{
		CreateFunc: func(context.Context, domain.CreateOfficeParams) (*domain.Office, error) {
			return nil, domain.Conflict("office.create", "an office with this code already exists")
		},
	}
	mux := newTestMux(&mockReportService{}, offices, &mockExportService{})

	rec := do(mux, http.MethodPost, "/api/bureaux", `{"code":"ABJ01","nomAgence":"Doublon"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody[ErrorBody](t, rec)
	assert.Equal(t, "an office with this code already exists", body.Error.Message)
}

func TestOfficeHandler_List(t *testing.T) {
	var gotSearch string
	offices := &mockOfficeService{
		ListFunc: func(_ context.Context, search string) ([]domain.Office, error) {
			gotSearch = search
			return []domain.Office{sampleOffice(), sampleOffice()}, nil
		},
	}
	mux := newTestMux(&mockReportService{}, offices, &mockExportService{})

	rec := do(mux, http.MethodGet, "/api/bureaux?search=plateau", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "plateau", gotSearch)
	body := decodeBody[listOfficesResponse](t, rec)
	assert.Len(t, body.Bureaux, 2)
}

func TestOfficeHandler_List_EmptyIsArray(t *testing.T) {
	mux := newTestMux(&mockReportService{}, &mockOfficeService{}, &mockExportService{})

	rec := do(mux, http.MethodGet, "/api/bureaux", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"bureaux":[]}`, rec.Body.String())
}

func TestOfficeHandler_GetAndDelete(t *testing.T) {
	office := sampleOffice()
	referenced := uuid.New()
	offices := &mockOfficeService{
		GetByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Office, error) {
			if id == office.ID {
				return &office, nil
			}
			return nil, domain.NotFound("office.get", "office", id.String())
		},
		DeleteFunc: func(_ context.Context, id uuid.UUID) error {
			switch id {
			case office.ID:
				return nil
			case referenced:
				return domain.Conflict("office.delete", "the office still has reports")
			}
			return domain.NotFound("office.delete", "office", id.String())
		},
	}
	mux := newTestMux(&mockReportService{}, offices, &mockExportService{})

	tests := []struct {
		name       string
		method     string
		id         string
		role       string
		wantStatus int
	}{
		{"get existing", http.MethodGet, office.ID.String(), "assistant", http.StatusOK},
		{"get unknown", http.MethodGet, uuid.NewString(), "expert", http.StatusNotFound},
		{"get malformed id", http.MethodGet, "abc", "expert", http.StatusBadRequest},
		{"delete unused", http.MethodDelete, office.ID.String(), "admin", http.StatusNoContent},
		{"delete referenced", http.MethodDelete, referenced.String(), "admin", http.StatusConflict},
		{"delete unknown", http.MethodDelete, uuid.NewString(), "admin", http.StatusNotFound},
		{"delete as expert", http.MethodDelete, office.ID.String(), "expert", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(mux, tt.method, "/api/bureaux/"+tt.id, "", "X-Role", tt.role)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestOfficeHandler_RoleGates(t *testing.T) {
	var calls int
	offices := &mockOfficeService{
		CreateFunc: func(context.Context, domain.CreateOfficeParams) (*domain.Office, error) {
			calls++
			o := sampleOffice()
			return &o, nil
		},
		UpdateFunc: func(context.Context, uuid.UUID, domain.UpdateOfficeParams) (*domain.Office, error) {
			calls++
			o := sampleOffice()
			return &o, nil
		},
		DeleteFunc: func(context.Context, uuid.UUID) error {
			calls++
			return nil
		},
	}
	mux := newTestMux(&mockReportService{}, offices, &mockExportService{})
	target := "/api/bureaux/" + uuid.NewString()

	tests := []struct {
		name       string
		method     string
		target     string
		headers    []string
		wantStatus int
	}{
		{"assistant cannot create", http.MethodPost, "/api/bureaux", []string{"X-Role", "assistant"}, http.StatusForbidden},
		{"assistant cannot update", http.MethodPut, target, []string{"X-Role", "assistant"}, http.StatusForbidden},
		{"expert cannot delete", http.MethodDelete, target, []string{"X-Role", "expert"}, http.StatusForbidden},
		{"anonymous cannot create", http.MethodPost, "/api/bureaux", []string{"X-Anonymous", "1"}, http.StatusUnauthorized},
		{"expert creates", http.MethodPost, "/api/bureaux", []string{"X-Role", "expert"}, http.StatusCreated},
		{"admin updates", http.MethodPut, target, []string{"X-Role", "admin"}, http.StatusOK},
		{"admin deletes", http.MethodDelete, target, []string{"X-Role", "admin"}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := calls
			rec := do(mux, tt.method, tt.target, `{"code":"ABJ01","nomAgence":"Agence"}`, tt.headers...)
			assert.Equal(t, tt.wantStatus, rec.Code)

			reached := calls > before
			assert.Equal(t, rec.Code < 400, reached)
		})
	}
}

func TestOfficeHandler_GetByCode(t *testing.T) {
	office := sampleOffice()
	var gotCode string
	offices := &mockOfficeService{
		GetByCodeFunc: func(_ context.Context, code string) (*domain.Office, error) {
			gotCode = code
			if code == "abj01" {
				return &office, nil
			}
			return nil, domain.NotFound("office.get_by_code", "office", code)
		},
	}
	mux := newTestMux(&mockReportService{}, offices, &mockExportService{})

	rec := do(mux, http.MethodGet, "/api/bureaux/code/abj01", "", "X-Role", "assistant")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abj01", gotCode)
	assert.Equal(t, office.ID, decodeBody[officeResponse](t, rec).ID)

	rec = do(mux, http.MethodGet, "/api/bureaux/code/XXX", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOfficeHandler_Update(t *testing.T) {
	office := sampleOffice()
	var gotID uuid.UUID
	var got domain.UpdateOfficeParams
	offices := &mockOfficeService{
		UpdateFunc: func(_ context.Context, id uuid.UUID, params domain.UpdateOfficeParams) (*domain.Office, error) {
			gotID, got = id, params
			updated := office
			updated.AgencyName = *params.AgencyName
			return &updated, nil
		},
	}
	mux := newTestMux(&mockReportService{}, offices, &mockExportService{})

	rec := do(mux, http.MethodPut, "/api/bureaux/"+office.ID.String(), `{"nomAgence":"Plateau Centre","telephone":""}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, office.ID, gotID)
	require.NotNil(t, got.AgencyName)
	assert.Equal(t, "Plateau Centre", *got.AgencyName)
	require.NotNil(t, got.Phone)
	assert.Empty(t, *got.Phone)
	assert.Nil(t, got.Code)
	assert.Nil(t, got.Email)
	assert.Equal(t, "Plateau Centre", decodeBody[officeResponse](t, rec).NomAgence)
}

func TestOfficeHandler_Update_Errors(t *testing.T) {
	offices := &mockOfficeService{
		UpdateFunc: func(context.Context, uuid.UUID, domain.UpdateOfficeParams) (*domain.Office, error) {
			return nil, domain.Conflict("office.update", "an office with this code already exists")
		},
	}
	mux := newTestMux(&mockReportService{}, offices, &mockExportService{})

	rec := do(mux, http.MethodPut, "/api/bureaux/abc", `{"code":"X"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, http.MethodPut, "/api/bureaux/"+uuid.NewString(), `{"code":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, http.MethodPut, "/api/bureaux/"+uuid.NewString(), `{"code":"ABJ01"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
