package service

import (
	"context"
	"testing"

	"github.com/expertauto/expertise/internal/domain"
	"github.com/expertauto/expertise/internal/repository/repotest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfficeService_Create(t *testing.T) {
	ctx := context.Background()
	store := repotest.New()
	svc := NewOfficeService(store, discardLogger())

	office, err := svc.Create(ctx, domain.CreateOfficeParams{
		Code:          " bky-02 ",
		AgencyName:    "Agence Bouaké",
		ClaimsManager: "M. Traoré",
		Email:         "bouake@assur.example",
	})
	require.NoError(t, err)
	assert.Equal(t, "BKY-02", office.Code)
	assert.Equal(t, "M. Traoré", office.ClaimsManager)

	got, err := svc.GetByID(ctx, office.ID)
	require.NoError(t, err)
	assert.Equal(t, office, got)

	_, err = svc.Create(ctx, domain.CreateOfficeParams{Code: "bky-02", AgencyName: "Autre"})
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
}

func TestOfficeService_Create_Validation(t *testing.T) {
	svc := NewOfficeService(repotest.New(), discardLogger())

	_, err := svc.Create(context.Background(), domain.CreateOfficeParams{Email: "nope"})
	require.Error(t, err)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"code", "email", "nomAgence"}, ve.FieldNames())
}

func TestOfficeService_List(t *testing.T) {
	ctx := context.Background()
	store := repotest.New()
	store.SeedBureau("ABJ-01", "Agence Plateau")
	store.SeedBureau("SPD-01", "Agence San Pedro")
	svc := NewOfficeService(store, discardLogger())

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := svc.List(ctx, "pedro")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "SPD-01", found[0].Code)
}

func TestOfficeService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture(t)
	svc := NewOfficeService(f.store, discardLogger())

	_, err := f.svc.Create(ctx, f.validParams())
	require.NoError(t, err)

	// Still referenced by a report
	err = svc.Delete(ctx, f.office.ID)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

	err = svc.Delete(ctx, uuid.New())
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	unused := f.store.SeedBureau("UNUSED", "Agence vide")
	require.NoError(t, svc.Delete(ctx, unused.ID))
	_, err = svc.GetByID(ctx, unused.ID)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestOfficeService_GetByCode(t *testing.T) {
	ctx := context.Background()
	store := repotest.New()
	seeded := store.SeedBureau("ABJ-01", "Agence Plateau")
	svc := NewOfficeService(store, discardLogger())

	got, err := svc.GetByCode(ctx, " abj-01 ")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, got.ID)

	_, err = svc.GetByCode(ctx, "XXX-99")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestOfficeService_Update(t *testing.T) {
	ctx := context.Background()
	store := repotest.New()
	svc := NewOfficeService(store, discardLogger())

	office, err := svc.Create(ctx, domain.CreateOfficeParams{
		Code:       "BKY-02",
		AgencyName: "Agence Bouaké",
		Phone:      "0102030405",
		Email:      "bouake@assur.example",
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, office.ID, domain.UpdateOfficeParams{
		Code:       strp("bky-03"),
		AgencyName: strp("Agence Bouaké Centre"),
		Phone:      strp(""),
	})
	require.NoError(t, err)

	assert.Equal(t, office.ID, updated.ID)
	assert.Equal(t, "BKY-03", updated.Code)
	assert.Equal(t, "Agence Bouaké Centre", updated.AgencyName)
	assert.Empty(t, updated.Phone)
	assert.Equal(t, "bouake@assur.example", updated.Email)

	got, err := svc.GetByCode(ctx, "BKY-03")
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestOfficeService_Update_Errors(t *testing.T) {
	tests := []struct {
		name       string
		id         func(target uuid.UUID) uuid.UUID
		params     domain.UpdateOfficeParams
		wantCode   string
		wantFields []string
	}{
		{
			name:     "code taken by another office",
			params:   domain.UpdateOfficeParams{Code: strp("abj-01")},
			wantCode: domain.ECONFLICT,
		},
		{
			name:       "blank name and bad email",
			params:     domain.UpdateOfficeParams{AgencyName: strp(" "), Email: strp("nope")},
			wantCode:   domain.EINVALID,
			wantFields: []string{"email", "nomAgence"},
		},
		{
			name:     "unknown office",
			id:       func(uuid.UUID) uuid.UUID { return uuid.New() },
			params:   domain.UpdateOfficeParams{AgencyName: strp("Agence")},
			wantCode: domain.ENOTFOUND,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := repotest.New()
			store.SeedBureau("ABJ-01", "Agence Plateau")
			target := store.SeedBureau("BKY-02", "Agence Bouaké")
			svc := NewOfficeService(store, discardLogger())

			id := target.ID
			if tt.id != nil {
				id = tt.id(target.ID)
			}
			_, err := svc.Update(ctx, id, tt.params)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, domain.ErrorCode(err))

			if tt.wantFields != nil {
				var ve *domain.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.wantFields, ve.FieldNames())
			}

			// The stored office is unchanged
			got, err := svc.GetByID(ctx, target.ID)
			require.NoError(t, err)
			assert.Equal(t, "BKY-02", got.Code)
			assert.Equal(t, "Agence Bouaké", got.AgencyName)
		})
	}
}
