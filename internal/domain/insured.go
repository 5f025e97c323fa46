package domain

import (
	"strings"

	"github.com/google/uuid"
)

// InsuredParty is the policyholder named on a report. A report has at most one.
type InsuredParty struct {
	ID        uuid.UUID
	ReportID  uuid.UUID
	LastName  string // nom
	FirstName string // prenom
	Phone     string
	Email     string // Optional
	Address   string
}

// FullName returns "FirstName LastName", skipping empty parts.
func (p *InsuredParty) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// InsuredPartyParams is the insured-party part of a report submission.
type InsuredPartyParams struct {
	LastName  string
	FirstName string
	Phone     string
	Email     string
	Address   string
}
