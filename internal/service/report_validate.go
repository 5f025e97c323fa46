package service

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/expertauto/expertise/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	msgRequired = "is required"

	maxNumberLength = 50
	maxNameLength   = 100
)

// maxRepairHours is the largest value the repair-time column holds.
var maxRepairHours = decimal.RequireFromString("9999.99")

// fieldErrors collects every invalid field of a submission before any write.
type fieldErrors map[string]string

func (f fieldErrors) add(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

func (f fieldErrors) require(field, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		f.add(field, msgRequired)
	}
	return value
}

func (f fieldErrors) maxLength(field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		f.add(field, fmt.Sprintf("must be %d characters or less", max))
	}
}

// fitsInt32 records a field error when n overflows the integer columns.
func (f fieldErrors) fitsInt32(field string, n int) {
	if n > math.MaxInt32 {
		f.add(field, fmt.Sprintf("must be %d or less", math.MaxInt32))
	}
}

func (f fieldErrors) err(op string) error {
	if len(f) == 0 {
		return nil
	}
	return &domain.ValidationError{Op: op, Fields: f}
}

// buildAggregate validates a submission and returns the normalized, unsaved
// aggregate with every identity already assigned. The returned report carries
// no settlement yet.
func (s *reportService) buildAggregate(op string, params domain.CreateReportParams) (*domain.Report, error) {
	errs := fieldErrors{}

	report := &domain.Report{
		ID:     uuid.New(),
		Status: domain.ReportStatusDraft,
		UserID: params.UserID,
	}

	// Required report fields
	if params.Type == "" {
		errs.add("typeRapport", msgRequired)
	} else if !params.Type.IsValid() {
		errs.add("typeRapport", "must be one of estimatif_reparation, valeur_venale, tierce_expertise")
	}
	report.Type = params.Type

	report.ServiceOrderNumber = errs.require("numeroOrdreService", params.ServiceOrderNumber)
	errs.maxLength("numeroOrdreService", report.ServiceOrderNumber, maxNumberLength)

	if officeID := errs.require("bureauId", params.OfficeID); officeID != "" {
		id, err := uuid.Parse(officeID)
		if err != nil {
			errs.add("bureauId", "must be a valid UUID")
		}
		report.OfficeID = id
	}

	report.ClaimNumber = errs.require("numeroSinistre", params.ClaimNumber)
	errs.maxLength("numeroSinistre", report.ClaimNumber, maxNumberLength)

	if params.IncidentDate == nil {
		errs.add("dateSinistre", msgRequired)
	} else {
		report.IncidentDate = *params.IncidentDate
	}
	report.VisitDate = params.VisitDate

	if params.Status != "" {
		if !params.Status.IsValid() {
			errs.add("statut", "must be one of brouillon, en_cours, termine, archive")
		}
		report.Status = params.Status
	}

	if params.UserID == uuid.Nil {
		errs.add("userId", msgRequired)
	}

	if params.Vehicle != nil {
		report.Vehicle = buildVehicle(errs, report.ID, params.Vehicle)
	}
	if params.Insured != nil {
		report.Insured = buildInsured(errs, report.ID, params.Insured)
	}

	report.Zones = make([]domain.DamageZone, 0, len(params.Zones))
	for i, zp := range params.Zones {
		report.Zones = append(report.Zones, s.buildZone(errs, fmt.Sprintf("chocs[%d]", i), report.ID, i+1, zp))
	}

	if err := errs.err(op); err != nil {
		return nil, err
	}
	return report, nil
}

// applyEdit validates an update and merges it into the loaded report. The
// status change is left to the caller so that it goes through the lifecycle.
func (s *reportService) applyEdit(op string, r *domain.Report, p domain.UpdateReportParams) error {
	errs := fieldErrors{}

	if p.Type != nil {
		if !p.Type.IsValid() {
			errs.add("typeRapport", "must be one of estimatif_reparation, valeur_venale, tierce_expertise")
		}
		r.Type = *p.Type
	}
	if p.ServiceOrderNumber != nil {
		r.ServiceOrderNumber = errs.require("numeroOrdreService", *p.ServiceOrderNumber)
		errs.maxLength("numeroOrdreService", r.ServiceOrderNumber, maxNumberLength)
	}
	if p.OfficeID != nil {
		if officeID := errs.require("bureauId", *p.OfficeID); officeID != "" {
			id, err := uuid.Parse(officeID)
			if err != nil {
				errs.add("bureauId", "must be a valid UUID")
			}
			r.OfficeID = id
		}
	}
	if p.ClaimNumber != nil {
		r.ClaimNumber = errs.require("numeroSinistre", *p.ClaimNumber)
		errs.maxLength("numeroSinistre", r.ClaimNumber, maxNumberLength)
	}
	if p.IncidentDate != nil {
		r.IncidentDate = *p.IncidentDate
	}
	if p.VisitDate != nil {
		r.VisitDate = p.VisitDate
	}
	if p.Status != nil && !p.Status.IsValid() {
		errs.add("statut", "must be one of brouillon, en_cours, termine, archive")
	}

	if p.Vehicle != nil {
		r.Vehicle = buildVehicle(errs, r.ID, p.Vehicle)
	}
	if p.Insured != nil {
		r.Insured = buildInsured(errs, r.ID, p.Insured)
	}
	if p.ReplaceZones {
		r.Zones = make([]domain.DamageZone, 0, len(p.Zones))
		for i, zp := range p.Zones {
			r.Zones = append(r.Zones, s.buildZone(errs, fmt.Sprintf("chocs[%d]", i), r.ID, i+1, zp))
		}
	}

	return errs.err(op)
}

func buildVehicle(errs fieldErrors, reportID uuid.UUID, p *domain.VehicleParams) *domain.Vehicle {
	v := &domain.Vehicle{
		ID:           uuid.New(),
		ReportID:     reportID,
		Make:         errs.require("vehicule.marque", p.Make),
		Model:        errs.require("vehicule.type", p.Model),
		Category:     errs.require("vehicule.genre", p.Category),
		Registration: errs.require("vehicule.immatriculation", p.Registration),
		Color:        strings.TrimSpace(p.Color),
		FuelType:     strings.TrimSpace(p.FuelType),
		Mileage:      nonNegativeInt(p.Mileage),
		FiscalPower:  nonNegativeInt(p.FiscalPower),
		NewValue:     nonNegative(p.NewValue).Round(2),
	}
	errs.maxLength("vehicule.immatriculation", v.Registration, 20)
	errs.fitsInt32("vehicule.kilometrage", v.Mileage)
	errs.fitsInt32("vehicule.puissanceFiscale", v.FiscalPower)

	vin := strings.ToUpper(strings.TrimSpace(p.VIN))
	if vin == "" {
		errs.add("vehicule.numeroChassis", msgRequired)
	} else if !domain.ValidVIN(vin) {
		errs.add("vehicule.numeroChassis", fmt.Sprintf("must be exactly %d characters", domain.VINLength))
	}
	v.VIN = vin

	if p.FirstRegistration == nil {
		errs.add("vehicule.dateMiseCirculation", msgRequired)
	} else {
		v.FirstRegistration = *p.FirstRegistration
	}

	if p.Payload != nil {
		payload := nonNegative(*p.Payload).Round(2)
		v.Payload = &payload
	}
	return v
}

func buildInsured(errs fieldErrors, reportID uuid.UUID, p *domain.InsuredPartyParams) *domain.InsuredParty {
	ip := &domain.InsuredParty{
		ID:        uuid.New(),
		ReportID:  reportID,
		LastName:  errs.require("assure.nom", p.LastName),
		FirstName: errs.require("assure.prenom", p.FirstName),
		Phone:     errs.require("assure.telephone", p.Phone),
		Email:     strings.TrimSpace(p.Email),
		Address:   errs.require("assure.adresse", p.Address),
	}
	errs.maxLength("assure.nom", ip.LastName, maxNameLength)
	errs.maxLength("assure.prenom", ip.FirstName, maxNameLength)
	errs.maxLength("assure.telephone", ip.Phone, 20)
	if ip.Email != "" && !strings.Contains(ip.Email, "@") {
		errs.add("assure.email", "must be a valid email address")
	}
	return ip
}

func (s *reportService) buildZone(errs fieldErrors, prefix string, reportID uuid.UUID, order int, p domain.DamageZoneParams) domain.DamageZone {
	z := s.normalizeZone(p)
	z.ID = uuid.New()
	z.ReportID = reportID
	z.Order = order

	z.Name = errs.require(prefix+".nomChoc", p.Name)
	errs.maxLength(prefix+".nomChoc", z.Name, maxNameLength)
	if z.Hours.GreaterThan(maxRepairHours) {
		errs.add(prefix+".tempsReparation", "must be 9999.99 hours or less")
	}

	for i := range z.Parts {
		field := fmt.Sprintf("%s.fournitures[%d].designation", prefix, i)
		if z.Parts[i].Designation == "" {
			errs.add(field, msgRequired)
		}
		errs.fitsInt32(fmt.Sprintf("%s.fournitures[%d].quantite", prefix, i), z.Parts[i].Quantity)
		z.Parts[i].ID = uuid.New()
		z.Parts[i].ZoneID = z.ID
	}
	return z
}

// normalizeZone applies the numeric defaults of a damage zone: missing or
// negative amounts become zero, a missing hourly rate takes the configured
// default, quantities below one become one. Amounts are kept to two decimals
// so that line totals match what the database stores.
func (s *reportService) normalizeZone(p domain.DamageZoneParams) domain.DamageZone {
	rate := s.defaultHourlyRate
	if p.HourlyRate != nil {
		rate = nonNegative(*p.HourlyRate)
	}

	z := domain.DamageZone{
		Description: strings.TrimSpace(p.Description),
		DiagramSVG:  p.DiagramSVG,
		Hours:       nonNegativePtr(p.Hours).Round(2),
		HourlyRate:  rate.Round(2),
		Paint:       nonNegativePtr(p.Paint).Round(2),
		Parts:       make([]domain.Part, 0, len(p.Parts)),
	}

	for _, pp := range p.Parts {
		qty := 1
		if pp.Quantity != nil && *pp.Quantity > 1 {
			qty = *pp.Quantity
		}
		price := nonNegativePtr(pp.UnitPrice).Round(2)
		z.Parts = append(z.Parts, domain.Part{
			Designation: strings.TrimSpace(pp.Designation),
			Reference:   strings.TrimSpace(pp.Reference),
			Quantity:    qty,
			UnitPrice:   price,
			LineTotal:   domain.LineTotal(qty, price),
		})
	}
	return z
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func nonNegativePtr(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return nonNegative(*d)
}

func nonNegativeInt(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
