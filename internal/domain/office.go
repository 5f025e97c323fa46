package domain

import (
	"time"

	"github.com/google/uuid"
)

// Office ("bureau") is an insurer's claims office that commissions reports.
type Office struct {
	ID            uuid.UUID
	Code          string // Unique short code
	AgencyName    string
	ClaimsManager string // Optional
	Phone         string // Optional
	Email         string // Optional
	Address       string // Optional
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateOfficeParams contains parameters for creating an office.
type CreateOfficeParams struct {
	Code          string
	AgencyName    string
	ClaimsManager string
	Phone         string
	Email         string
	Address       string
}

// UpdateOfficeParams contains the fields to change on an office. Nil fields
// keep their stored value; an empty string clears an optional field.
type UpdateOfficeParams struct {
	Code          *string
	AgencyName    *string
	ClaimsManager *string
	Phone         *string
	Email         *string
	Address       *string
}
