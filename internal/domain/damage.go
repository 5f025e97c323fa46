package domain

import (
	"github.com/expertauto/expertise/internal/valuation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DamageZone ("choc") is one damaged area of the vehicle with its own labor
// time, labor rate and paint cost.
type DamageZone struct {
	ID          uuid.UUID
	ReportID    uuid.UUID
	Name        string          // nomChoc
	Description string          // Free-text description of the damage
	DiagramSVG  string          // Optional: vehicle diagram with the zone marked
	Hours       decimal.Decimal // Repair time in hours
	HourlyRate  decimal.Decimal // Labor rate for this zone only
	Paint       decimal.Decimal // Paint cost
	Order       int             // 1-based position within the report
	Parts       []Part
}

// ValuationZone converts the zone to engine input.
func (z *DamageZone) ValuationZone() valuation.Zone {
	lines := make([]valuation.Line, 0, len(z.Parts))
	for _, p := range z.Parts {
		lines = append(lines, valuation.Line{Quantity: p.Quantity, UnitPrice: p.UnitPrice})
	}
	return valuation.Zone{
		Hours:      z.Hours,
		HourlyRate: z.HourlyRate,
		Paint:      z.Paint,
		Parts:      lines,
	}
}

// Part ("fourniture") is one replacement-parts line item of a damage zone.
type Part struct {
	ID          uuid.UUID
	ZoneID      uuid.UUID
	Designation string
	Reference   string // Optional manufacturer reference
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal // Always Quantity x UnitPrice
}

// LineTotal returns quantity x unit price.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// DamageZoneParams is one zone of a report submission. Nil numeric fields
// take their defaults during normalization.
type DamageZoneParams struct {
	Name        string
	Description string
	DiagramSVG  string
	Hours       *decimal.Decimal
	HourlyRate  *decimal.Decimal
	Paint       *decimal.Decimal
	Parts       []PartParams
}

// PartParams is one parts line of a report submission.
type PartParams struct {
	Designation string
	Reference   string
	Quantity    *int
	UnitPrice   *decimal.Decimal
}
