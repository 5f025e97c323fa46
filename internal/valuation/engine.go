// Package valuation computes the settlement amount of a damage assessment.
//
// The engine is pure: it performs no I/O and never mutates its input. Costs
// are accumulated with fixed-point decimals and only rounded to whole
// currency units when the settlement is produced.
package valuation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Base selects which cost component the depreciation rate applies to.
type Base int

const (
	// BaseParts applies depreciation to the parts cost only.
	BaseParts Base = iota
	// BaseSubtotal applies depreciation to labor, parts and paint together.
	BaseSubtotal
)

func (b Base) String() string {
	if b == BaseSubtotal {
		return "subtotal"
	}
	return "parts"
}

// ParseBase resolves a configured depreciation base.
func ParseBase(s string) (Base, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "parts":
		return BaseParts, nil
	case "subtotal":
		return BaseSubtotal, nil
	}
	return BaseParts, fmt.Errorf("unknown depreciation base %q", s)
}

// Line is one parts line item.
type Line struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// Total returns quantity x unit price.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Zone is one damaged area with its own labor time, labor rate and paint
// cost. HourlyRate is never averaged across zones.
type Zone struct {
	Hours      decimal.Decimal
	HourlyRate decimal.Decimal
	Paint      decimal.Decimal
	Parts      []Line
}

// Settlement is the breakdown of a computed settlement. All amounts are whole
// currency units.
type Settlement struct {
	Labor              int64  `json:"labor"`
	Parts              int64  `json:"parts"`
	Paint              int64  `json:"paint"`
	Subtotal           int64  `json:"subtotal"`
	AgeYears           int    `json:"ageYears"`
	DepreciationRate   int    `json:"depreciationRate"`
	DepreciationAmount int64  `json:"depreciationAmount"`
	Total              int64  `json:"total"`
	Schedule           string `json:"schedule"`
	Base               string `json:"base"`
}

// Engine computes settlements with a given depreciation schedule and base.
type Engine struct {
	Schedule Schedule
	Base     Base
}

// DefaultEngine uses the standard schedule on the parts cost.
func DefaultEngine() Engine {
	return Engine{Schedule: StandardSchedule, Base: BaseParts}
}

// Compute returns the settlement for the given zones on a vehicle first
// registered at firstRegistration, evaluated at asOf.
func (e Engine) Compute(zones []Zone, firstRegistration, asOf time.Time) Settlement {
	sum := foldZones(zones)
	subtotal := sum.labor.Add(sum.parts).Add(sum.paint)

	age := AgeInYears(firstRegistration, asOf)
	rate := e.Schedule.Rate(age)

	base := sum.parts
	if e.Base == BaseSubtotal {
		base = subtotal
	}
	depreciation := base.Mul(decimal.NewFromInt(int64(rate))).Div(decimal.NewFromInt(100))

	return Settlement{
		Labor:              roundUnits(sum.labor),
		Parts:              roundUnits(sum.parts),
		Paint:              roundUnits(sum.paint),
		Subtotal:           roundUnits(subtotal),
		AgeYears:           age,
		DepreciationRate:   rate,
		DepreciationAmount: roundUnits(depreciation),
		Total:              roundUnits(subtotal.Sub(depreciation)),
		Schedule:           e.Schedule.Name,
		Base:               e.Base.String(),
	}
}

// Compute runs the default engine.
func Compute(zones []Zone, firstRegistration, asOf time.Time) Settlement {
	return DefaultEngine().Compute(zones, firstRegistration, asOf)
}

// ZoneCosts is the unrounded labor, parts and paint cost of a single zone.
type ZoneCosts struct {
	Labor decimal.Decimal
	Parts decimal.Decimal
	Paint decimal.Decimal
}

// CostsOf returns the unrounded costs of one zone.
func CostsOf(z Zone) ZoneCosts {
	return addZone(costs{}, z).ZoneCosts()
}

type costs struct {
	labor decimal.Decimal
	parts decimal.Decimal
	paint decimal.Decimal
}

func (c costs) ZoneCosts() ZoneCosts {
	return ZoneCosts{Labor: c.labor, Parts: c.parts, Paint: c.paint}
}

func foldZones(zones []Zone) costs {
	acc := costs{}
	for _, z := range zones {
		acc = addZone(acc, z)
	}
	return acc
}

// addZone returns acc extended with one zone's costs.
func addZone(acc costs, z Zone) costs {
	parts := decimal.Zero
	for _, l := range z.Parts {
		parts = addLine(parts, l)
	}
	return costs{
		labor: acc.labor.Add(z.Hours.Mul(z.HourlyRate)),
		parts: acc.parts.Add(parts),
		paint: acc.paint.Add(z.Paint),
	}
}

func addLine(acc decimal.Decimal, l Line) decimal.Decimal {
	return acc.Add(l.Total())
}

// roundUnits rounds half away from zero to a whole currency unit.
func roundUnits(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
