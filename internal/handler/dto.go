package handler

import (
	"time"

	"github.com/expertauto/expertise/internal/domain"
	"github.com/expertauto/expertise/internal/valuation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Requests
// =============================================================================

type createReportRequest struct {
	TypeRapport        domain.ReportType   `json:"typeRapport"`
	NumeroOrdreService string              `json:"numeroOrdreService"`
	BureauID           string              `json:"bureauId"`
	NumeroSinistre     string              `json:"numeroSinistre"`
	DateSinistre       *jsonDate           `json:"dateSinistre"`
	DateVisite         *jsonDate           `json:"dateVisite"`
	Statut             domain.ReportStatus `json:"statut"`
	Vehicule           *vehicleRequest     `json:"vehicule"`
	Assure             *insuredRequest     `json:"assure"`
	Chocs              []zoneRequest       `json:"chocs"`
}

type vehicleRequest struct {
	Marque          string `json:"marque"`
	Type            string `json:"type"`
	Genre           string `json:"genre"`
	Immatriculation string `json:"immatriculation"`
	NumeroChassis   string `json:"numeroChassis"`
	// Older clients spell the field with a single s.
	NumeroChasis        string           `json:"numeroChasis"`
	Kilometrage         int              `json:"kilometrage"`
	DateMiseCirculation *jsonDate        `json:"dateMiseCirculation"`
	Couleur             string           `json:"couleur"`
	SourceEnergie       string           `json:"sourceEnergie"`
	PuissanceFiscale    int              `json:"puissanceFiscale"`
	ValeurNeuve         decimal.Decimal  `json:"valeurNeuve"`
	ChargeUtile         *decimal.Decimal `json:"chargeUtile"`
}

type insuredRequest struct {
	Nom       string `json:"nom"`
	Prenom    string `json:"prenom"`
	Telephone string `json:"telephone"`
	Email     string `json:"email"`
	Adresse   string `json:"adresse"`
}

type zoneRequest struct {
	NomChoc           string           `json:"nomChoc"`
	Description       string           `json:"description"`
	ModeleVehiculeSvg string           `json:"modeleVehiculeSvg"`
	TempsReparation   *decimal.Decimal `json:"tempsReparation"`
	TauxHoraire       *decimal.Decimal `json:"tauxHoraire"`
	MontantPeinture   *decimal.Decimal `json:"montantPeinture"`
	Fournitures       []partRequest    `json:"fournitures"`
}

type partRequest struct {
	Designation  string           `json:"designation"`
	Reference    string           `json:"reference"`
	Quantite     *int             `json:"quantite"`
	PrixUnitaire *decimal.Decimal `json:"prixUnitaire"`
}

func (req *createReportRequest) params(userID uuid.UUID) domain.CreateReportParams {
	p := domain.CreateReportParams{
		UserID:             userID,
		Type:               req.TypeRapport,
		ServiceOrderNumber: req.NumeroOrdreService,
		OfficeID:           req.BureauID,
		ClaimNumber:        req.NumeroSinistre,
		IncidentDate:       req.DateSinistre.timePtr(),
		VisitDate:          req.DateVisite.timePtr(),
		Status:             req.Statut,
		Zones:              zoneParams(req.Chocs),
	}
	p.Vehicle = req.Vehicule.params()
	p.Insured = req.Assure.params()
	return p
}

func (v *vehicleRequest) params() *domain.VehicleParams {
	if v == nil {
		return nil
	}
	vin := v.NumeroChassis
	if vin == "" {
		vin = v.NumeroChasis
	}
	return &domain.VehicleParams{
		Make:              v.Marque,
		Model:             v.Type,
		Category:          v.Genre,
		Registration:      v.Immatriculation,
		VIN:               vin,
		Mileage:           v.Kilometrage,
		FirstRegistration: v.DateMiseCirculation.timePtr(),
		Color:             v.Couleur,
		FuelType:          v.SourceEnergie,
		FiscalPower:       v.PuissanceFiscale,
		NewValue:          v.ValeurNeuve,
		Payload:           v.ChargeUtile,
	}
}

func (a *insuredRequest) params() *domain.InsuredPartyParams {
	if a == nil {
		return nil
	}
	return &domain.InsuredPartyParams{
		LastName:  a.Nom,
		FirstName: a.Prenom,
		Phone:     a.Telephone,
		Email:     a.Email,
		Address:   a.Adresse,
	}
}

func zoneParams(zones []zoneRequest) []domain.DamageZoneParams {
	out := make([]domain.DamageZoneParams, 0, len(zones))
	for _, z := range zones {
		zp := domain.DamageZoneParams{
			Name:        z.NomChoc,
			Description: z.Description,
			DiagramSVG:  z.ModeleVehiculeSvg,
			Hours:       z.TempsReparation,
			HourlyRate:  z.TauxHoraire,
			Paint:       z.MontantPeinture,
			Parts:       make([]domain.PartParams, 0, len(z.Fournitures)),
		}
		for _, f := range z.Fournitures {
			zp.Parts = append(zp.Parts, domain.PartParams{
				Designation: f.Designation,
				Reference:   f.Reference,
				Quantity:    f.Quantite,
				UnitPrice:   f.PrixUnitaire,
			})
		}
		out = append(out, zp)
	}
	return out
}

// updateReportRequest carries only the fields to change. A present chocs
// array, even empty, replaces every zone.
type updateReportRequest struct {
	TypeRapport        *domain.ReportType   `json:"typeRapport"`
	NumeroOrdreService *string              `json:"numeroOrdreService"`
	BureauID           *string              `json:"bureauId"`
	NumeroSinistre     *string              `json:"numeroSinistre"`
	DateSinistre       *jsonDate            `json:"dateSinistre"`
	DateVisite         *jsonDate            `json:"dateVisite"`
	Statut             *domain.ReportStatus `json:"statut"`
	Vehicule           *vehicleRequest      `json:"vehicule"`
	Assure             *insuredRequest      `json:"assure"`
	Chocs              *[]zoneRequest       `json:"chocs"`
}

func (req *updateReportRequest) params() domain.UpdateReportParams {
	p := domain.UpdateReportParams{
		Type:               req.TypeRapport,
		ServiceOrderNumber: req.NumeroOrdreService,
		OfficeID:           req.BureauID,
		ClaimNumber:        req.NumeroSinistre,
		IncidentDate:       req.DateSinistre.timePtr(),
		VisitDate:          req.DateVisite.timePtr(),
		Status:             req.Statut,
		Vehicle:            req.Vehicule.params(),
		Insured:            req.Assure.params(),
	}
	if req.Chocs != nil {
		p.ReplaceZones = true
		p.Zones = zoneParams(*req.Chocs)
	}
	return p
}

type updateStatusRequest struct {
	Statut domain.ReportStatus `json:"statut"`
}

type settleRequest struct {
	DateMiseCirculation *jsonDate     `json:"dateMiseCirculation"`
	Chocs               []zoneRequest `json:"chocs"`
}

type createOfficeRequest struct {
	Code                 string `json:"code"`
	NomAgence            string `json:"nomAgence"`
	ResponsableSinistres string `json:"responsableSinistres"`
	Telephone            string `json:"telephone"`
	Email                string `json:"email"`
	Adresse              string `json:"adresse"`
}

func (req *createOfficeRequest) params() domain.CreateOfficeParams {
	return domain.CreateOfficeParams{
		Code:          req.Code,
		AgencyName:    req.NomAgence,
		ClaimsManager: req.ResponsableSinistres,
		Phone:         req.Telephone,
		Email:         req.Email,
		Address:       req.Adresse,
	}
}

type updateOfficeRequest struct {
	Code                 *string `json:"code"`
	NomAgence            *string `json:"nomAgence"`
	ResponsableSinistres *string `json:"responsableSinistres"`
	Telephone            *string `json:"telephone"`
	Email                *string `json:"email"`
	Adresse              *string `json:"adresse"`
}

func (req *updateOfficeRequest) params() domain.UpdateOfficeParams {
	return domain.UpdateOfficeParams{
		Code:          req.Code,
		AgencyName:    req.NomAgence,
		ClaimsManager: req.ResponsableSinistres,
		Phone:         req.Telephone,
		Email:         req.Email,
		Address:       req.Adresse,
	}
}

type requestExportRequest struct {
	Format domain.ExportFormat `json:"format"`
}

// =============================================================================
// Responses
// =============================================================================

type reportResponse struct {
	ID                 uuid.UUID             `json:"id"`
	TypeRapport        domain.ReportType     `json:"typeRapport"`
	NumeroOrdreService string                `json:"numeroOrdreService"`
	BureauID           uuid.UUID             `json:"bureauId"`
	NumeroSinistre     string                `json:"numeroSinistre"`
	DateSinistre       jsonDate              `json:"dateSinistre"`
	DateVisite         *jsonDate             `json:"dateVisite"`
	Statut             domain.ReportStatus   `json:"statut"`
	MontantTotal       int64                 `json:"montantTotal"`
	UserID             uuid.UUID             `json:"userId"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
	Valuation          *valuation.Settlement `json:"valuation,omitempty"`
	Bureau             *officeResponse       `json:"bureau,omitempty"`
	Vehicule           *vehicleResponse      `json:"vehicule,omitempty"`
	Assure             *insuredResponse      `json:"assure,omitempty"`
	Chocs              []zoneResponse        `json:"chocs,omitempty"`
}

type vehicleResponse struct {
	ID                  uuid.UUID        `json:"id"`
	RapportID           uuid.UUID        `json:"rapportId"`
	Marque              string           `json:"marque"`
	Type                string           `json:"type"`
	Genre               string           `json:"genre"`
	Immatriculation     string           `json:"immatriculation"`
	NumeroChassis       string           `json:"numeroChassis"`
	Kilometrage         int              `json:"kilometrage"`
	DateMiseCirculation jsonDate         `json:"dateMiseCirculation"`
	Couleur             string           `json:"couleur"`
	SourceEnergie       string           `json:"sourceEnergie"`
	PuissanceFiscale    int              `json:"puissanceFiscale"`
	ValeurNeuve         decimal.Decimal  `json:"valeurNeuve"`
	ChargeUtile         *decimal.Decimal `json:"chargeUtile,omitempty"`
}

type insuredResponse struct {
	ID        uuid.UUID `json:"id"`
	RapportID uuid.UUID `json:"rapportId"`
	Nom       string    `json:"nom"`
	Prenom    string    `json:"prenom"`
	Telephone string    `json:"telephone"`
	Email     string    `json:"email,omitempty"`
	Adresse   string    `json:"adresse"`
}

type zoneResponse struct {
	ID                uuid.UUID       `json:"id"`
	RapportID         uuid.UUID       `json:"rapportId"`
	NomChoc           string          `json:"nomChoc"`
	Description       string          `json:"description"`
	ModeleVehiculeSvg string          `json:"modeleVehiculeSvg,omitempty"`
	TempsReparation   decimal.Decimal `json:"tempsReparation"`
	TauxHoraire       decimal.Decimal `json:"tauxHoraire"`
	MontantPeinture   decimal.Decimal `json:"montantPeinture"`
	Ordre             int             `json:"ordre"`
	Fournitures       []partResponse  `json:"fournitures"`
}

type partResponse struct {
	ID           uuid.UUID       `json:"id"`
	ChocID       uuid.UUID       `json:"chocId"`
	Designation  string          `json:"designation"`
	Reference    string          `json:"reference,omitempty"`
	Quantite     int             `json:"quantite"`
	PrixUnitaire decimal.Decimal `json:"prixUnitaire"`
	PrixTotal    decimal.Decimal `json:"prixTotal"`
}

type officeResponse struct {
	ID                   uuid.UUID `json:"id"`
	Code                 string    `json:"code"`
	NomAgence            string    `json:"nomAgence"`
	ResponsableSinistres string    `json:"responsableSinistres,omitempty"`
	Telephone            string    `json:"telephone,omitempty"`
	Email                string    `json:"email,omitempty"`
	Adresse              string    `json:"adresse,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

type listReportsResponse struct {
	Rapports   []reportResponse `json:"rapports"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

type listOfficesResponse struct {
	Bureaux []officeResponse `json:"bureaux"`
}

type exportResponse struct {
	ID           uuid.UUID           `json:"id"`
	RapportID    uuid.UUID           `json:"rapportId"`
	Format       domain.ExportFormat `json:"format"`
	SizeBytes    int64               `json:"sizeBytes"`
	MontantTotal int64               `json:"montantTotal"`
	GeneratedAt  time.Time           `json:"generatedAt"`
	URL          string              `json:"url,omitempty"`
}

type listExportsResponse struct {
	Exports []exportResponse `json:"exports"`
}

type exportRequestedResponse struct {
	JobID uuid.UUID `json:"jobId"`
}

func toReportResponse(r *domain.Report) reportResponse {
	resp := reportResponse{
		ID:                 r.ID,
		TypeRapport:        r.Type,
		NumeroOrdreService: r.ServiceOrderNumber,
		BureauID:           r.OfficeID,
		NumeroSinistre:     r.ClaimNumber,
		DateSinistre:       jsonDate{Time: r.IncidentDate},
		DateVisite:         datePtr(r.VisitDate),
		Statut:             r.Status,
		MontantTotal:       r.TotalAmount,
		UserID:             r.UserID,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		Valuation:          r.Settlement,
	}
	if r.Office != nil {
		o := toOfficeResponse(r.Office)
		resp.Bureau = &o
	}
	if v := r.Vehicle; v != nil {
		resp.Vehicule = &vehicleResponse{
			ID:                  v.ID,
			RapportID:           v.ReportID,
			Marque:              v.Make,
			Type:                v.Model,
			Genre:               v.Category,
			Immatriculation:     v.Registration,
			NumeroChassis:       v.VIN,
			Kilometrage:         v.Mileage,
			DateMiseCirculation: jsonDate{Time: v.FirstRegistration},
			Couleur:             v.Color,
			SourceEnergie:       v.FuelType,
			PuissanceFiscale:    v.FiscalPower,
			ValeurNeuve:         v.NewValue,
			ChargeUtile:         v.Payload,
		}
	}
	if a := r.Insured; a != nil {
		resp.Assure = &insuredResponse{
			ID:        a.ID,
			RapportID: a.ReportID,
			Nom:       a.LastName,
			Prenom:    a.FirstName,
			Telephone: a.Phone,
			Email:     a.Email,
			Adresse:   a.Address,
		}
	}
	if len(r.Zones) > 0 {
		resp.Chocs = make([]zoneResponse, 0, len(r.Zones))
		for _, z := range r.Zones {
			zr := zoneResponse{
				ID:                z.ID,
				RapportID:         z.ReportID,
				NomChoc:           z.Name,
				Description:       z.Description,
				ModeleVehiculeSvg: z.DiagramSVG,
				TempsReparation:   z.Hours,
				TauxHoraire:       z.HourlyRate,
				MontantPeinture:   z.Paint,
				Ordre:             z.Order,
				Fournitures:       make([]partResponse, 0, len(z.Parts)),
			}
			for _, p := range z.Parts {
				zr.Fournitures = append(zr.Fournitures, partResponse{
					ID:           p.ID,
					ChocID:       p.ZoneID,
					Designation:  p.Designation,
					Reference:    p.Reference,
					Quantite:     p.Quantity,
					PrixUnitaire: p.UnitPrice,
					PrixTotal:    p.LineTotal,
				})
			}
			resp.Chocs = append(resp.Chocs, zr)
		}
	}
	return resp
}

func toOfficeResponse(o *domain.Office) officeResponse {
	return officeResponse{
		ID:                   o.ID,
		Code:                 o.Code,
		NomAgence:            o.AgencyName,
		ResponsableSinistres: o.ClaimsManager,
		Telephone:            o.Phone,
		Email:                o.Email,
		Adresse:              o.Address,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}

func toExportResponse(e domain.StatementExport) exportResponse {
	return exportResponse{
		ID:           e.ID,
		RapportID:    e.ReportID,
		Format:       e.Format,
		SizeBytes:    e.SizeBytes,
		MontantTotal: e.TotalAmount,
		GeneratedAt:  e.GeneratedAt,
		URL:          e.URL,
	}
}
