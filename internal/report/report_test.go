package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/expertauto/expertise/internal/domain"
	"github.com/expertauto/expertise/internal/valuation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexToRGB(t *testing.T) {
	tests := []struct {
		hex     string
		r, g, b int
	}{
		{"#1F3A5F", 31, 58, 95},
		{"ffffff", 255, 255, 255},
		{"#abc", 0, 0, 0},
		{"", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			r, g, b := HexToRGB(tt.hex)
			assert.Equal(t, []int{tt.r, tt.g, tt.b}, []int{r, g, b})
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{950, "950"},
		{38000, "38 000"},
		{130000, "130 000"},
		{1234567, "1 234 567"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.in))
		})
	}
}

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0,00"},
		{"2.5", "2,50"},
		{"4000", "4 000,00"},
		{"1234567.891", "1 234 567,89"},
		{"-12.3", "-12,30"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDecimal(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestTitleName(t *testing.T) {
	assert.Equal(t, "Jean-Pierre Kouassi", TitleName("  jean-PIERRE kouassi "))
	assert.Equal(t, "", TitleName(""))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "pare-ch...", TruncateText("pare-chocs avant", 10))
	assert.Equal(t, "éé", TruncateText("ééé", 2))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "07/03/2024", FormatDate(time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "-", FormatDate(time.Time{}))
}

func statementFixture() *StatementData {
	reg := time.Date(2017, 5, 10, 0, 0, 0, 0, time.UTC)
	visit := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	r := &domain.Report{
		ID:                 uuid.New(),
		Type:               domain.ReportTypeRepairEstimate,
		ServiceOrderNumber: "OS-2024-001",
		ClaimNumber:        "SIN-42",
		IncidentDate:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		VisitDate:          &visit,
		Status:             domain.ReportStatusInProgress,
		Office:             &domain.Office{Code: "ABJ", AgencyName: "Agence Plateau", ClaimsManager: "awa koné"},
		Vehicle: &domain.Vehicle{
			Make: "toyota", Model: "Corolla", Category: "VP", Registration: "AB-123-CD",
			VIN: "JTDBR32E720123456", FirstRegistration: reg, Mileage: 84000,
		},
		Insured: &domain.InsuredParty{LastName: "kouassi", FirstName: "jean", Phone: "0700000000", Address: "Cocody"},
		Zones: []domain.DamageZone{
			{
				Name: "Avant gauche", Order: 1, Description: "Choc frontal, pare-chocs déformé",
				Hours: decimal.NewFromInt(5), HourlyRate: decimal.NewFromInt(4000), Paint: decimal.NewFromInt(10000),
				Parts: []domain.Part{
					{Designation: "Pare-chocs", Reference: "PC-1", Quantity: 1, UnitPrice: decimal.NewFromInt(50000), LineTotal: decimal.NewFromInt(50000)},
					{Designation: "Phare", Quantity: 2, UnitPrice: decimal.NewFromInt(25000), LineTotal: decimal.NewFromInt(50000)},
				},
			},
		},
	}
	return &StatementData{
		Report:      r,
		Settlement:  valuation.Compute(r.ValuationZones(), reg, r.IncidentDate),
		GeneratedAt: time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC),
	}
}

func TestPDFGenerator_Generate(t *testing.T) {
	gen := NewPDFGenerator()
	assert.Equal(t, domain.ExportFormatPDF, gen.Format())

	var buf bytes.Buffer
	n, err := gen.Generate(context.Background(), statementFixture(), &buf)
	require.NoError(t, err)

	assert.Equal(t, int64(buf.Len()), n)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestPDFGenerator_GenerateWithoutDependents(t *testing.T) {
	data := statementFixture()
	data.Report.Vehicle = nil
	data.Report.Insured = nil
	data.Report.Office = nil
	data.Report.Zones = nil

	var buf bytes.Buffer
	_, err := NewPDFGenerator().Generate(context.Background(), data, &buf)
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())
}

func TestPDFGenerator_Errors(t *testing.T) {
	gen := NewPDFGenerator()

	_, err := gen.Generate(context.Background(), nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNoReport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = gen.Generate(ctx, statementFixture(), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}
