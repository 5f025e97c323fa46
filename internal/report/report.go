// Package report renders settlement statements for damage-assessment reports.
//
// A Generator turns a report aggregate and its computed settlement into a
// document. PDFGenerator is the only implementation.
package report

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/expertauto/expertise/internal/domain"
	"github.com/expertauto/expertise/internal/valuation"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// =============================================================================
// Generator Interface
// =============================================================================

// Generator defines the interface for statement generators.
type Generator interface {
	// Generate renders the statement and writes it to w.
	// Returns the number of bytes written and any error.
	Generate(ctx context.Context, data *StatementData, w io.Writer) (int64, error)

	// Format returns the output format of this generator.
	Format() domain.ExportFormat
}

// StatementData is everything printed on a settlement statement.
type StatementData struct {
	Report      *domain.Report
	Settlement  valuation.Settlement
	GeneratedAt time.Time
}

// ErrNoReport is returned when a statement is requested without a report.
var ErrNoReport = errors.New("statement data has no report")

// =============================================================================
// Colors
// =============================================================================

// Colors is the statement palette.
var Colors = struct {
	Header    string
	Accent    string
	TextDark  string
	TextMuted string
	Border    string
	RowFill   string
}{
	Header:    "#1F3A5F",
	Accent:    "#C0392B",
	TextDark:  "#1F2937",
	TextMuted: "#6B7280",
	Border:    "#D1D5DB",
	RowFill:   "#F3F4F6",
}

// HexToRGB converts "#RRGGBB" or "RRGGBB" to RGB components.
// Malformed input yields black.
func HexToRGB(hex string) (r, g, b int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0
	}
	return hexToDec(hex[0:2]), hexToDec(hex[2:4]), hexToDec(hex[4:6])
}

func hexToDec(hex string) int {
	val := 0
	for _, c := range hex {
		val *= 16
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			val += int(c - 'A' + 10)
		}
	}
	return val
}

// =============================================================================
// Text Formatting Helpers
// =============================================================================

var (
	titleCaser = cases.Title(language.French)
	printer    = message.NewPrinter(language.French)
)

// TitleName title-cases a person or make name: "jean-PIERRE kouassi" becomes
// "Jean-Pierre Kouassi".
func TitleName(s string) string {
	return titleCaser.String(strings.TrimSpace(s))
}

// FormatAmount formats whole currency units with French digit grouping,
// e.g. 130000 becomes "130 000".
func FormatAmount(n int64) string {
	return plainSpaces(printer.Sprintf("%d", n))
}

// FormatDecimal formats a quantity with two decimals and a decimal comma.
func FormatDecimal(d decimal.Decimal) string {
	s := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(c)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}

// plainSpaces replaces the narrow and non-breaking spaces CLDR uses for
// French grouping; the PDF core fonts have no glyph for U+202F.
func plainSpaces(s string) string {
	return strings.NewReplacer("\u202f", " ", "\u00a0", " ").Replace(s)
}

// FormatDate formats a date the way French documents print it.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}

// FormatDateTime formats a timestamp for the statement footer.
func FormatDateTime(t time.Time) string {
	return t.Format("02/01/2006 à 15:04")
}

// TruncateText shortens text to maxLen runes, adding an ellipsis when cut.
func TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
