package report

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/expertauto/expertise/internal/domain"
	"github.com/expertauto/expertise/internal/valuation"
	"github.com/go-pdf/fpdf"
)

// =============================================================================
// PDF Generator
// =============================================================================

// PDFGenerator renders settlement statements as A4 PDF documents.
type PDFGenerator struct {
	pageWidth    float64
	margin       float64
	contentWidth float64
}

// NewPDFGenerator creates a new PDF generator with default settings.
func NewPDFGenerator() *PDFGenerator {
	margin := 15.0
	pageWidth := 210.0
	return &PDFGenerator{
		pageWidth:    pageWidth,
		margin:       margin,
		contentWidth: pageWidth - (2 * margin),
	}
}

// Format returns the output format of this generator.
func (g *PDFGenerator) Format() domain.ExportFormat {
	return domain.ExportFormatPDF
}

// statementPDF bundles the document with its UTF-8 to cp1252 translator,
// since the core fonts do not accept UTF-8.
type statementPDF struct {
	*fpdf.Fpdf
	tr func(string) string
}

func (p statementPDF) text(w, h float64, s string) {
	p.Cell(w, h, p.tr(s))
}

// Generate renders the statement and writes it to w.
func (g *PDFGenerator) Generate(ctx context.Context, data *StatementData, w io.Writer) (int64, error) {
	if data == nil || data.Report == nil {
		return 0, ErrNoReport
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	doc := fpdf.New("P", "mm", "A4", "")
	pdf := statementPDF{Fpdf: doc, tr: doc.UnicodeTranslatorFromDescriptor("")}
	r := data.Report

	pdf.SetTitle("Rapport d'expertise "+r.ClaimNumber, true)
	pdf.SetCreator("expertise", true)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() {
		g.addFooter(pdf, data)
	})

	pdf.AddPage()
	g.addHeader(pdf, r)
	g.addReportBlock(pdf, r)
	g.addVehicleBlock(pdf, r.Vehicle)
	g.addInsuredBlock(pdf, r.Insured)
	g.addZones(pdf, r.Zones)
	g.addSettlement(pdf, data.Settlement)

	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("pdf generation error: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return 0, fmt.Errorf("pdf output error: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// =============================================================================
// Sections
// =============================================================================

func (g *PDFGenerator) addHeader(pdf statementPDF, r *domain.Report) {
	cr, cg, cb := HexToRGB(Colors.Header)
	pdf.SetFillColor(cr, cg, cb)
	pdf.Rect(0, 0, g.pageWidth, 38, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(g.margin, 10)
	pdf.text(0, 10, "Rapport d'expertise automobile")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetXY(g.margin, 22)
	pdf.text(0, 8, r.Type.Label()+" - Sinistre n° "+r.ClaimNumber)

	cr, cg, cb = HexToRGB(Colors.TextDark)
	pdf.SetTextColor(cr, cg, cb)
	pdf.SetXY(g.margin, 48)
}

func (g *PDFGenerator) addReportBlock(pdf statementPDF, r *domain.Report) {
	g.addSectionHeader(pdf, "Mission")

	if r.Office != nil {
		g.addLabelValue(pdf, "Bureau", r.Office.Code+" - "+r.Office.AgencyName)
		g.addLabelValue(pdf, "Gestionnaire", TitleName(r.Office.ClaimsManager))
	}
	g.addLabelValue(pdf, "Ordre de service", r.ServiceOrderNumber)
	g.addLabelValue(pdf, "Date du sinistre", FormatDate(r.IncidentDate))
	if r.VisitDate != nil {
		g.addLabelValue(pdf, "Date de visite", FormatDate(*r.VisitDate))
	}
	g.addLabelValue(pdf, "Statut", r.Status.Label())
	pdf.Ln(4)
}

func (g *PDFGenerator) addVehicleBlock(pdf statementPDF, v *domain.Vehicle) {
	if v == nil {
		return
	}
	g.addSectionHeader(pdf, "Véhicule")

	g.addLabelValue(pdf, "Marque / Type", TitleName(v.Make)+" "+v.Model)
	g.addLabelValue(pdf, "Genre", v.Category)
	g.addLabelValue(pdf, "Immatriculation", v.Registration)
	g.addLabelValue(pdf, "N° de châssis", v.VIN)
	g.addLabelValue(pdf, "1ère mise en circulation", FormatDate(v.FirstRegistration))
	if v.Mileage > 0 {
		g.addLabelValue(pdf, "Kilométrage", FormatAmount(int64(v.Mileage))+" km")
	}
	g.addLabelValue(pdf, "Couleur", v.Color)
	g.addLabelValue(pdf, "Énergie", v.FuelType)
	pdf.Ln(4)
}

func (g *PDFGenerator) addInsuredBlock(pdf statementPDF, ip *domain.InsuredParty) {
	if ip == nil {
		return
	}
	g.addSectionHeader(pdf, "Assuré")

	g.addLabelValue(pdf, "Nom", TitleName(ip.FullName()))
	g.addLabelValue(pdf, "Téléphone", ip.Phone)
	g.addLabelValue(pdf, "Email", ip.Email)
	g.addLabelValue(pdf, "Adresse", ip.Address)
	pdf.Ln(4)
}

func (g *PDFGenerator) addZones(pdf statementPDF, zones []domain.DamageZone) {
	g.addSectionHeader(pdf, "Chocs et réparations")

	if len(zones) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.text(0, 8, "Aucun choc relevé.")
		pdf.Ln(10)
		return
	}

	for _, z := range zones {
		if pdf.GetY() > 240 {
			pdf.AddPage()
		}
		g.addZone(pdf, z)
		pdf.Ln(4)
	}
}

func (g *PDFGenerator) addZone(pdf statementPDF, z domain.DamageZone) {
	costs := valuation.CostsOf(z.ValuationZone())

	cr, cg, cb := HexToRGB(Colors.Accent)
	pdf.SetFillColor(cr, cg, cb)
	pdf.Rect(g.margin, pdf.GetY(), 3, 7, "F")
	pdf.SetX(g.margin + 6)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.text(0, 7, fmt.Sprintf("Choc %d : %s", z.Order, z.Name))
	pdf.Ln(8)

	if z.Description != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(g.contentWidth, 5, pdf.tr(TruncateText(z.Description, 600)), "", "L", false)
		pdf.Ln(1)
	}

	pdf.SetFont("Helvetica", "", 10)
	g.addLabelValue(pdf, "Main d'oeuvre",
		fmt.Sprintf("%s h x %s = %s", FormatDecimal(z.Hours), FormatDecimal(z.HourlyRate), FormatDecimal(costs.Labor)))
	g.addLabelValue(pdf, "Peinture", FormatDecimal(costs.Paint))

	if len(z.Parts) == 0 {
		return
	}

	widths := []float64{80, 35, 15, 25, 25}
	headers := []string{"Désignation", "Référence", "Qté", "P.U.", "Total"}

	pdf.SetFont("Helvetica", "B", 9)
	fr, fg, fb := HexToRGB(Colors.RowFill)
	pdf.SetFillColor(fr, fg, fb)
	for i, h := range headers {
		align := "L"
		if i >= 2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, pdf.tr(h), "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, p := range z.Parts {
		pdf.CellFormat(widths[0], 6, pdf.tr(TruncateText(p.Designation, 45)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, pdf.tr(TruncateText(p.Reference, 18)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%d", p.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, FormatDecimal(p.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, FormatDecimal(p.LineTotal), "1", 1, "R", false, 0, "")
	}
}

func (g *PDFGenerator) addSettlement(pdf statementPDF, s valuation.Settlement) {
	if pdf.GetY() > 210 {
		pdf.AddPage()
	}
	g.addSectionHeader(pdf, "Décompte")

	rows := []struct {
		label  string
		amount int64
	}{
		{"Main d'oeuvre", s.Labor},
		{"Fournitures", s.Parts},
		{"Peinture", s.Paint},
		{"Sous-total", s.Subtotal},
		{fmt.Sprintf("Vétusté %d %% (%d ans)", s.DepreciationRate, s.AgeYears), -s.DepreciationAmount},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.CellFormat(130, 7, pdf.tr(row.label), "B", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, FormatAmount(row.amount), "B", 1, "R", false, 0, "")
	}

	cr, cg, cb := HexToRGB(Colors.Header)
	pdf.SetFillColor(cr, cg, cb)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(130, 9, pdf.tr("Montant total"), "", 0, "L", true, 0, "")
	pdf.CellFormat(50, 9, FormatAmount(s.Total), "", 1, "R", true, 0, "")

	cr, cg, cb = HexToRGB(Colors.TextDark)
	pdf.SetTextColor(cr, cg, cb)
}

// =============================================================================
// Helper Methods
// =============================================================================

func (g *PDFGenerator) addSectionHeader(pdf statementPDF, title string) {
	cr, cg, cb := HexToRGB(Colors.Header)
	pdf.SetDrawColor(cr, cg, cb)
	pdf.SetLineWidth(0.4)
	pdf.SetTextColor(cr, cg, cb)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.text(0, 8, title)
	pdf.Ln(9)
	pdf.Line(g.margin, pdf.GetY(), g.pageWidth-g.margin, pdf.GetY())
	pdf.Ln(3)

	cr, cg, cb = HexToRGB(Colors.TextDark)
	pdf.SetTextColor(cr, cg, cb)
}

func (g *PDFGenerator) addLabelValue(pdf statementPDF, label, value string) {
	if value == "" {
		return
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.text(50, 6, label+" :")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(g.contentWidth-50, 6, pdf.tr(value), "", "L", false)
}

func (g *PDFGenerator) addFooter(pdf statementPDF, data *StatementData) {
	pdf.SetY(-15)

	cr, cg, cb := HexToRGB(Colors.Border)
	pdf.SetDrawColor(cr, cg, cb)
	pdf.Line(g.margin, pdf.GetY()-3, g.pageWidth-g.margin, pdf.GetY()-3)

	cr, cg, cb = HexToRGB(Colors.TextMuted)
	pdf.SetTextColor(cr, cg, cb)
	pdf.SetFont("Helvetica", "", 8)
	pdf.text(0, 10, "Édité le "+FormatDateTime(data.GeneratedAt))

	pdf.SetX(-g.margin - 30)
	pdf.CellFormat(30, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
}
