package domain

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VINLength is the exact length of a vehicle identification number.
const VINLength = 17

// Vehicle is the vehicle assessed by a report. A report has at most one.
type Vehicle struct {
	ID                uuid.UUID
	ReportID          uuid.UUID
	Make              string           // marque
	Model             string           // type
	Category          string           // genre
	Registration      string           // immatriculation
	VIN               string           // numeroChassis, exactly 17 characters
	Mileage           int              // kilometrage
	FirstRegistration time.Time        // dateMiseCirculation, drives depreciation
	Color             string           // couleur
	FuelType          string           // sourceEnergie
	FiscalPower       int              // puissanceFiscale
	NewValue          decimal.Decimal  // valeurNeuve
	Payload           *decimal.Decimal // chargeUtile, utility vehicles only
}

// VehicleParams is the vehicle part of a report submission.
type VehicleParams struct {
	Make              string
	Model             string
	Category          string
	Registration      string
	VIN               string
	Mileage           int
	FirstRegistration *time.Time
	Color             string
	FuelType          string
	FiscalPower       int
	NewValue          decimal.Decimal
	Payload           *decimal.Decimal
}

// ValidVIN reports whether vin has exactly VINLength characters.
func ValidVIN(vin string) bool {
	return utf8.RuneCountInString(vin) == VINLength
}
