package service

import (
	"encoding/json"

	"github.com/expertauto/expertise/internal/domain"
	"github.com/expertauto/expertise/internal/repository"
	"github.com/expertauto/expertise/internal/valuation"
)

// Conversions from repository rows to domain types.

func (s *reportService) rowToReport(row repository.Rapport) *domain.Report {
	r := &domain.Report{
		ID:                 row.ID,
		Type:               domain.ReportType(row.TypeRapport),
		ServiceOrderNumber: row.NumeroOrdreService,
		OfficeID:           row.BureauID,
		ClaimNumber:        row.NumeroSinistre,
		IncidentDate:       row.DateSinistre,
		VisitDate:          domain.NullTimeValue(row.DateVisite),
		Status:             domain.ReportStatus(row.Statut),
		TotalAmount:        row.MontantTotal,
		UserID:             row.UserID,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
	if row.Valuation.Valid {
		var st valuation.Settlement
		if err := json.Unmarshal(row.Valuation.RawMessage, &st); err != nil {
			s.logger.Warn("ignoring unreadable settlement breakdown", "report_id", row.ID, "error", err)
		} else {
			r.Settlement = &st
		}
	}
	return r
}

func rowToOffice(row repository.Bureau) *domain.Office {
	return &domain.Office{
		ID:            row.ID,
		Code:          row.Code,
		AgencyName:    row.NomAgence,
		ClaimsManager: domain.NullStringValue(row.ResponsableSinistres),
		Phone:         domain.NullStringValue(row.Telephone),
		Email:         domain.NullStringValue(row.Email),
		Address:       domain.NullStringValue(row.Adresse),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func rowToVehicle(row repository.Vehicule) *domain.Vehicle {
	return &domain.Vehicle{
		ID:                row.ID,
		ReportID:          row.RapportID,
		Make:              row.Marque,
		Model:             row.Type,
		Category:          row.Genre,
		Registration:      row.Immatriculation,
		VIN:               row.NumeroChassis,
		Mileage:           int(row.Kilometrage),
		FirstRegistration: row.DateMiseCirculation,
		Color:             row.Couleur,
		FuelType:          row.SourceEnergie,
		FiscalPower:       int(row.PuissanceFiscale),
		NewValue:          row.ValeurNeuve,
		Payload:           domain.NullDecimalValue(row.ChargeUtile),
	}
}

func rowToInsured(row repository.Assure) *domain.InsuredParty {
	return &domain.InsuredParty{
		ID:        row.ID,
		ReportID:  row.RapportID,
		LastName:  row.Nom,
		FirstName: row.Prenom,
		Phone:     row.Telephone,
		Email:     domain.NullStringValue(row.Email),
		Address:   row.Adresse,
	}
}

func rowToZone(row repository.Choc) domain.DamageZone {
	return domain.DamageZone{
		ID:          row.ID,
		ReportID:    row.RapportID,
		Name:        row.NomChoc,
		Description: row.Description,
		DiagramSVG:  domain.NullStringValue(row.ModeleVehiculeSvg),
		Hours:       row.TempsReparation,
		HourlyRate:  row.TauxHoraire,
		Paint:       row.MontantPeinture,
		Order:       int(row.Ordre),
	}
}

func rowToPart(row repository.Fourniture) domain.Part {
	return domain.Part{
		ID:          row.ID,
		ZoneID:      row.ChocID,
		Designation: row.Designation,
		Reference:   domain.NullStringValue(row.Reference),
		Quantity:    int(row.Quantite),
		UnitPrice:   row.PrixUnitaire,
		LineTotal:   row.PrixTotal,
	}
}

func rowToExport(row repository.RapportExport) domain.StatementExport {
	return domain.StatementExport{
		ID:          row.ID,
		ReportID:    row.RapportID,
		UserID:      row.UserID,
		Format:      domain.ExportFormat(row.Format),
		StorageKey:  row.StorageKey,
		SizeBytes:   row.SizeBytes,
		TotalAmount: row.MontantTotal,
		GeneratedAt: row.GeneratedAt,
	}
}
