// Package domain contains core business types and interfaces.
//
// This file defines the Report aggregate: a damage-assessment report for one
// insurance claim together with its vehicle, insured party and damage zones.
package domain

import (
	"fmt"
	"time"

	"github.com/expertauto/expertise/internal/valuation"
	"github.com/google/uuid"
)

// =============================================================================
// Report Type
// =============================================================================

// ReportType is the kind of assessment a report records.
type ReportType string

const (
	// ReportTypeRepairEstimate estimates the cost of repairing the vehicle.
	ReportTypeRepairEstimate ReportType = "estimatif_reparation"

	// ReportTypeMarketValue establishes the market value of the vehicle.
	ReportTypeMarketValue ReportType = "valeur_venale"

	// ReportTypeCounterAppraisal is a third-party assessment settling a
	// disagreement between two earlier reports.
	ReportTypeCounterAppraisal ReportType = "tierce_expertise"
)

// String returns the string representation of the type.
func (t ReportType) String() string {
	return string(t)
}

// IsValid returns true if the type is a recognized value.
func (t ReportType) IsValid() bool {
	switch t {
	case ReportTypeRepairEstimate, ReportTypeMarketValue, ReportTypeCounterAppraisal:
		return true
	}
	return false
}

// Label returns the display label used on generated documents.
func (t ReportType) Label() string {
	switch t {
	case ReportTypeRepairEstimate:
		return "Estimatif de réparation"
	case ReportTypeMarketValue:
		return "Valeur vénale"
	case ReportTypeCounterAppraisal:
		return "Tierce expertise"
	}
	return string(t)
}

// =============================================================================
// Report Status
// =============================================================================

// ReportStatus represents the lifecycle state of a report.
type ReportStatus string

const (
	// ReportStatusDraft is the initial state; all fields are editable.
	ReportStatusDraft ReportStatus = "brouillon"

	// ReportStatusInProgress indicates the assessment is under way.
	ReportStatusInProgress ReportStatus = "en_cours"

	// ReportStatusCompleted indicates the assessment is finished.
	ReportStatusCompleted ReportStatus = "termine"

	// ReportStatusArchived is terminal.
	ReportStatusArchived ReportStatus = "archive"
)

// String returns the string representation of the status.
func (s ReportStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized value.
func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusDraft, ReportStatusInProgress,
		ReportStatusCompleted, ReportStatusArchived:
		return true
	}
	return false
}

// Label returns the display label used on generated documents.
func (s ReportStatus) Label() string {
	switch s {
	case ReportStatusDraft:
		return "Brouillon"
	case ReportStatusInProgress:
		return "En cours"
	case ReportStatusCompleted:
		return "Terminé"
	case ReportStatusArchived:
		return "Archivé"
	}
	return string(s)
}

// CanTransitionTo checks if a report can move to the target status.
//
// Valid transitions:
// - brouillon -> en_cours
// - en_cours -> termine, or back to brouillon
// - termine -> archive, or back to en_cours (reopen)
// - archive is terminal
func (s ReportStatus) CanTransitionTo(target ReportStatus) bool {
	switch s {
	case ReportStatusDraft:
		return target == ReportStatusInProgress
	case ReportStatusInProgress:
		return target == ReportStatusCompleted || target == ReportStatusDraft
	case ReportStatusCompleted:
		return target == ReportStatusArchived || target == ReportStatusInProgress
	}
	return false
}

// =============================================================================
// Report Aggregate
// =============================================================================

// DefaultHourlyRate is the labor rate applied to a damage zone that does not
// specify one, in currency units per hour.
const DefaultHourlyRate = 4000

// Report is a damage-assessment report with its dependents.
//
// Office, Vehicle, Insured and Zones are populated when the report is loaded
// as a full aggregate; list queries only fill Office and Vehicle.
type Report struct {
	ID                 uuid.UUID    // Unique identifier, generated by the writer
	Type               ReportType   // Kind of assessment
	ServiceOrderNumber string       // Insurer's service order number
	OfficeID           uuid.UUID    // Office that commissioned the report
	ClaimNumber        string       // Insurance claim number
	IncidentDate       time.Time    // Date of the incident
	VisitDate          *time.Time   // Optional: date the vehicle was inspected
	Status             ReportStatus // Lifecycle state
	TotalAmount        int64        // Settlement total, written only by the valuation engine
	UserID             uuid.UUID    // Expert who created the report
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Last computed settlement breakdown (nil until computed)
	Settlement *valuation.Settlement

	Office  *Office
	Vehicle *Vehicle
	Insured *InsuredParty
	Zones   []DamageZone
}

// TransitionTo moves the report to the target status if the lifecycle allows it.
func (r *Report) TransitionTo(target ReportStatus) error {
	if !r.Status.CanTransitionTo(target) {
		return fmt.Errorf("cannot transition report from %s to %s", r.Status, target)
	}
	r.Status = target
	return nil
}

// FirstRegistration returns the vehicle's first registration date, or the
// zero time when the report has no vehicle.
func (r *Report) FirstRegistration() time.Time {
	if r.Vehicle == nil {
		return time.Time{}
	}
	return r.Vehicle.FirstRegistration
}

// ValuationZones converts the report's damage zones to engine input.
func (r *Report) ValuationZones() []valuation.Zone {
	zones := make([]valuation.Zone, 0, len(r.Zones))
	for _, z := range r.Zones {
		zones = append(zones, z.ValuationZone())
	}
	return zones
}

// PartCount returns the number of parts lines across all zones.
func (r *Report) PartCount() int {
	n := 0
	for _, z := range r.Zones {
		n += len(z.Parts)
	}
	return n
}

// =============================================================================
// Report Service Parameters
// =============================================================================

// CreateReportParams is the submission payload for a new report aggregate.
// String identifiers are kept raw so that every missing or malformed field can
// be reported in a single validation pass.
type CreateReportParams struct {
	UserID             uuid.UUID    // From the auth context
	Type               ReportType   // Required
	ServiceOrderNumber string       // Required
	OfficeID           string       // Required, UUID of an existing office
	ClaimNumber        string       // Required
	IncidentDate       *time.Time   // Required
	VisitDate          *time.Time   // Optional
	Status             ReportStatus // Optional, defaults to brouillon

	Vehicle *VehicleParams      // Optional
	Insured *InsuredPartyParams // Optional
	Zones   []DamageZoneParams  // Optional, kept in submission order
}

// UpdateReportParams edits an existing report. Nil fields keep their stored
// value. Vehicle and Insured replace the stored dependent when set; Zones
// replaces every zone and part when ReplaceZones is true.
type UpdateReportParams struct {
	Type               *ReportType
	ServiceOrderNumber *string
	OfficeID           *string
	ClaimNumber        *string
	IncidentDate       *time.Time
	VisitDate          *time.Time
	Status             *ReportStatus // Subject to the lifecycle transitions

	Vehicle      *VehicleParams
	Insured      *InsuredPartyParams
	Zones        []DamageZoneParams
	ReplaceZones bool
}

// ListReportsParams contains parameters for listing reports.
type ListReportsParams struct {
	Search string       // Matches claim number or service order number
	Status ReportStatus // Optional filter
	Type   ReportType   // Optional filter
	Page   int          // 1-indexed
	Limit  int          // Page size
}

// ListReportsResult contains a page of reports.
type ListReportsResult struct {
	Reports []Report
	Total   int64
	Page    int
	Limit   int
}

// TotalPages returns the total number of pages.
func (r *ListReportsResult) TotalPages() int {
	if r.Limit == 0 {
		return 1
	}
	pages := r.Total / int64(r.Limit)
	if r.Total%int64(r.Limit) > 0 {
		pages++
	}
	return int(pages)
}
