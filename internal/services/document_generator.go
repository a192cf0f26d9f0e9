package services

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/hypernova-labs/agency-invoicing/internal/models"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PDFContentType es el tipo MIME de los documentos generados
const PDFContentType = "application/pdf"

const fallbackLineDescription = "Professional services"

// Medidas en mm sobre A4 (210 x 297)
const (
	pageMargin    = 15.0
	contentWidth  = 180.0
	contentBottom = 252.0
	footerTop     = 258.0
	cellPad       = 2.0
	rowLineHeight = 4.6
	rowPadding    = 1.8
	headingHeight = 8.0
)

var (
	colWidths  = []float64{100, 20, 30, 30}
	colHeaders = []string{"Description", "Qty", "Unit Price", "Amount"}
	colAligns  = []string{"L", "R", "R", "R"}

	colorText   = [3]int{33, 37, 41}
	colorMuted  = [3]int{108, 117, 125}
	colorRule   = [3]int{206, 212, 218}
	colorStripe = [3]int{248, 249, 250}
	colorHead   = [3]int{233, 236, 239}
	colorAccent = [3]int{31, 58, 96}

	vatNumberPattern = regexp.MustCompile(`^[A-Z]{2}[0-9A-Z+*]{2,12}$`)
)

// DocumentGenerator genera el PDF de las facturas
type DocumentGenerator struct {
	currencySymbol string
	logger         *logrus.Logger
}

// NewDocumentGenerator crea una nueva instancia del generador
func NewDocumentGenerator(currencySymbol string, logger *logrus.Logger) *DocumentGenerator {
	return &DocumentGenerator{
		currencySymbol: currencySymbol,
		logger:         logger,
	}
}

// Render genera el PDF de la factura. Con los mismos datos produce los mismos bytes.
func (d *DocumentGenerator) Render(meta models.InvoiceMetadata, breakdown models.VATBreakdown, issuer models.IssuerProfile) (*models.RenderedDocument, error) {
	if strings.TrimSpace(meta.Number) == "" {
		return nil, fmt.Errorf("%w: invoice number is required", ErrRenderFailure)
	}
	if !meta.IssueDate.IsValid() {
		return nil, fmt.Errorf("%w: issue date is required", ErrRenderFailure)
	}
	if strings.TrimSpace(issuer.LegalName) == "" {
		return nil, fmt.Errorf("%w: issuer legal name is required", ErrRenderFailure)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	stamp := meta.IssueDate.In(time.UTC)
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)
	pdf.SetCatalogSort(true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AliasNbPages("")

	l := &invoiceLayout{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		symbol: d.currencySymbol,
	}

	pdf.SetTitle("Invoice "+meta.Number, true)
	pdf.SetAuthor(issuer.LegalName, true)
	pdf.SetFooterFunc(func() { l.footer(issuer) })

	pdf.AddPage()
	l.header(meta, issuer)
	l.lineItems(tableRows(meta, breakdown))
	l.totals(meta, breakdown)
	l.paymentTerms(meta, breakdown)
	pages := pdf.PageNo()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}

	doc := &models.RenderedDocument{
		Bytes:       buf.Bytes(),
		ContentType: PDFContentType,
		FileName:    meta.Number + ".pdf",
		PageCount:   pages,
		Warnings:    renderWarnings(meta, breakdown, issuer),
	}

	d.logger.WithFields(logrus.Fields{
		"invoice_number": meta.Number,
		"pages":          doc.PageCount,
		"size":           len(doc.Bytes),
		"warnings":       len(doc.Warnings),
	}).Info("Invoice document rendered successfully")

	return doc, nil
}

// invoiceLayout lleva la cuenta del espacio de página mientras se dibuja
type invoiceLayout struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	symbol string
	placed []placedBlock
}

// placedBlock es un bloque ya dibujado: fila de la tabla, totales o condiciones de pago
type placedBlock struct {
	kind   string
	page   int
	top    float64
	bottom float64
	lines  int
}

func (l *invoiceLayout) place(kind string, top float64, lines int) {
	l.placed = append(l.placed, placedBlock{
		kind:   kind,
		page:   l.pdf.PageNo(),
		top:    top,
		bottom: l.pdf.GetY(),
		lines:  lines,
	})
}

// rowLinesPerPage es el máximo de líneas de una fila en una página recién abierta
func rowLinesPerPage() int {
	return int(math.Floor((contentBottom-pageMargin-headingHeight-2*rowPadding)/rowLineHeight - 1e-6))
}

func (l *invoiceLayout) textColor(c [3]int) { l.pdf.SetTextColor(c[0], c[1], c[2]) }
func (l *invoiceLayout) fillColor(c [3]int) { l.pdf.SetFillColor(c[0], c[1], c[2]) }
func (l *invoiceLayout) drawColor(c [3]int) { l.pdf.SetDrawColor(c[0], c[1], c[2]) }

// ensureSpace abre página nueva si el bloque no cabe; retorna true en ese caso
func (l *invoiceLayout) ensureSpace(h float64) bool {
	if l.pdf.GetY()+h <= contentBottom {
		return false
	}
	l.pdf.AddPage()
	l.pdf.SetY(pageMargin)
	return true
}

func (l *invoiceLayout) header(meta models.InvoiceMetadata, issuer models.IssuerProfile) {
	pdf := l.pdf

	mark := issuer.Mark
	if mark == "" {
		mark = issuer.LegalName
	}
	l.textColor(colorAccent)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(pageMargin, pageMargin)
	pdf.CellFormat(contentWidth, 10, l.tr(mark), "", 1, "R", false, 0, "")

	top := 35.0

	// Bill To
	pdf.SetXY(pageMargin, top)
	l.label("BILL TO", 85)
	l.textColor(colorText)
	for i, line := range billToLines(meta.Client) {
		style := ""
		if i == 0 && meta.Client.LegalName != "" {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(85, 5, l.tr(line), "", 2, "L", false, 0, "")
	}
	leftBottom := pdf.GetY()

	// Datos de la factura
	x := 110.0
	pdf.SetXY(x, top)
	l.textColor(colorAccent)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(85, 9, "INVOICE", "", 2, "L", false, 0, "")
	l.textColor(colorText)
	rows := [][2]string{
		{"Invoice No.", meta.Number},
		{"Issue Date", formatDate(meta.IssueDate)},
		{"Due Date", formatDate(meta.DueDate)},
	}
	for _, row := range rows {
		pdf.SetX(x)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(28, 5, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(57, 5, l.tr(row[1]), "", 1, "L", false, 0, "")
	}
	if ref := referenceLine(meta.Client); ref != "" {
		pdf.SetX(x)
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(85, 5, l.tr(ref), "", 1, "L", false, 0, "")
	}

	// Prepared By
	if lines := preparedByLines(issuer.PreparedBy); len(lines) > 0 {
		pdf.SetXY(x, pdf.GetY()+4)
		l.label("PREPARED BY", 85)
		l.textColor(colorText)
		pdf.SetFont("Helvetica", "", 10)
		for _, line := range lines {
			pdf.CellFormat(85, 5, l.tr(line), "", 2, "L", false, 0, "")
		}
	}
	rightBottom := pdf.GetY()

	if leftBottom > rightBottom {
		pdf.SetY(leftBottom + 10)
	} else {
		pdf.SetY(rightBottom + 10)
	}
}

func (l *invoiceLayout) label(text string, w float64) {
	l.textColor(colorMuted)
	l.pdf.SetFont("Helvetica", "B", 9)
	l.pdf.CellFormat(w, 5, text, "", 2, "L", false, 0, "")
}

func (l *invoiceLayout) tableHeading() {
	pdf := l.pdf
	l.fillColor(colorHead)
	l.textColor(colorText)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetX(pageMargin)
	for i, heading := range colHeaders {
		pdf.CellFormat(colWidths[i], headingHeight, heading, "", 0, colAligns[i], true, 0, "")
	}
	pdf.Ln(headingHeight)
}

// lineItems dibuja la tabla. Una fila que cabe en una página nunca se parte;
// si es más alta que una página, su descripción sigue en las páginas siguientes.
func (l *invoiceLayout) lineItems(items []models.LineItem) {
	pdf := l.pdf
	l.tableHeading()
	perPage := rowLinesPerPage()

	for i, item := range items {
		pdf.SetFont("Helvetica", "", 9.5)
		lines := pdf.SplitLines([]byte(l.tr(item.Description)), colWidths[0]-2*cellPad)
		if len(lines) == 0 {
			lines = [][]byte{{}}
		}

		first := true
		for len(lines) > 0 {
			n := min(len(lines), perPage)
			h := float64(n)*rowLineHeight + 2*rowPadding
			if l.ensureSpace(h) {
				l.tableHeading()
				pdf.SetFont("Helvetica", "", 9.5)
			}
			l.row(i, item, lines[:n], h, first)
			lines = lines[n:]
			first = false
		}
	}
}

// row dibuja una fila o un tramo de ella; los importes sólo van en el primer tramo
func (l *invoiceLayout) row(index int, item models.LineItem, lines [][]byte, h float64, withValues bool) {
	pdf := l.pdf
	y := pdf.GetY()
	if index%2 == 1 {
		l.fillColor(colorStripe)
		pdf.Rect(pageMargin, y, contentWidth, h, "F")
	}
	l.textColor(colorText)
	for j, line := range lines {
		pdf.SetXY(pageMargin+cellPad, y+rowPadding+float64(j)*rowLineHeight)
		pdf.CellFormat(colWidths[0]-2*cellPad, rowLineHeight, string(line), "", 0, "L", false, 0, "")
	}

	if withValues {
		x := pageMargin + colWidths[0]
		values := []string{
			item.Quantity.String(),
			models.FormatMoney(l.symbol, item.UnitRate),
			models.FormatMoney(l.symbol, item.Amount),
		}
		for k, value := range values {
			pdf.SetXY(x, y+rowPadding)
			pdf.CellFormat(colWidths[k+1]-cellPad, rowLineHeight, l.tr(value), "", 0, "R", false, 0, "")
			x += colWidths[k+1]
		}
	}

	l.drawColor(colorRule)
	pdf.Line(pageMargin, y+h, pageMargin+contentWidth, y+h)
	pdf.SetXY(pageMargin, y+h)
	l.place("row", y, len(lines))
}

func (l *invoiceLayout) totals(meta models.InvoiceMetadata, b models.VATBreakdown) {
	pdf := l.pdf
	l.ensureSpace(4 + 7 + 7 + 10)
	pdf.SetY(pdf.GetY() + 4)
	top := pdf.GetY()

	x := 115.0
	rows := [][2]string{
		{"Subtotal", models.FormatMoney(l.symbol, b.Subtotal)},
		{fmt.Sprintf("VAT (%s%%)", meta.VATRate.String()), models.FormatMoney(l.symbol, b.VATAmount)},
	}
	l.textColor(colorText)
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.SetX(x)
		pdf.CellFormat(45, 7, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, l.tr(row[1]), "", 1, "R", false, 0, "")
	}

	l.fillColor(colorAccent)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetX(x)
	pdf.CellFormat(45, 10, " TOTAL DUE", "", 0, "L", true, 0, "")
	pdf.CellFormat(35, 10, l.tr(models.FormatMoney(l.symbol, b.TotalAmount))+" ", "", 1, "R", true, 0, "")
	l.textColor(colorText)
	l.place("totals", top, len(rows)+1)
}

func (l *invoiceLayout) paymentTerms(meta models.InvoiceMetadata, b models.VATBreakdown) {
	pdf := l.pdf
	text := fmt.Sprintf(
		"Please transfer %s no later than %s. Use invoice number %s as the payment reference so that we can match your payment.",
		models.FormatMoney(l.symbol, b.TotalAmount), formatDate(meta.DueDate), meta.Number,
	)
	text = l.tr(text)

	pdf.SetFont("Helvetica", "", 9.5)
	lines := pdf.SplitLines([]byte(text), contentWidth)
	l.ensureSpace(8 + 5 + float64(len(lines))*5)

	pdf.SetXY(pageMargin, pdf.GetY()+8)
	top := pdf.GetY()
	l.label("PAYMENT TERMS", contentWidth)
	l.textColor(colorText)
	pdf.SetFont("Helvetica", "", 9.5)
	pdf.MultiCell(contentWidth, 5, text, "", "L", false)
	l.place("terms", top, len(lines))
}

// footer se dibuja en cada página: datos legales, contacto, banco y numeración
func (l *invoiceLayout) footer(issuer models.IssuerProfile) {
	pdf := l.pdf
	l.drawColor(colorRule)
	pdf.Line(pageMargin, footerTop, pageMargin+contentWidth, footerTop)

	columns := [][]string{
		nonEmpty(
			issuer.LegalName,
			prefixed("Reg. No. ", issuer.RegistrationNumber),
			prefixed("VAT ", issuer.VATNumber),
			issuer.Street,
			strings.TrimSpace(issuer.PostalCode+" "+issuer.City),
			issuer.Country,
		),
		nonEmpty(issuer.Email, issuer.Phone, issuer.Website),
		nonEmpty(
			issuer.Bank.BankName,
			prefixed("Account holder: ", issuer.Bank.AccountHolder),
			prefixed("IBAN ", issuer.Bank.IBAN),
			prefixed("BIC ", issuer.Bank.BIC),
		),
	}

	l.textColor(colorMuted)
	pdf.SetFont("Helvetica", "", 7.5)
	colW := contentWidth / float64(len(columns))
	for i, lines := range columns {
		x := pageMargin + float64(i)*colW
		for j, line := range lines {
			pdf.SetXY(x, footerTop+2+float64(j)*3.6)
			pdf.CellFormat(colW, 3.6, l.tr(line), "", 0, "L", false, 0, "")
		}
	}

	pdf.SetXY(pageMargin, 285)
	pdf.CellFormat(contentWidth, 4, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
}

// tableRows retorna las líneas explícitas o una fila sintética por el subtotal
func tableRows(meta models.InvoiceMetadata, b models.VATBreakdown) []models.LineItem {
	if len(meta.LineItems) > 0 {
		return meta.LineItems
	}
	desc := strings.TrimSpace(meta.Description)
	if desc == "" {
		desc = fallbackLineDescription
	}
	return []models.LineItem{{
		Description: desc,
		Quantity:    decimal.NewFromInt(1),
		UnitRate:    b.Subtotal,
		Amount:      b.Subtotal,
	}}
}

func billToLines(c models.ClientProfile) []string {
	return nonEmpty(
		c.LegalName,
		prefixed("Attn: ", c.Attention),
		c.Street,
		strings.TrimSpace(c.PostalCode+" "+c.City),
		c.Country,
	)
}

func referenceLine(c models.ClientProfile) string {
	return strings.Join(nonEmpty(
		prefixed("Customer Ref: ", c.CustomerReference),
		prefixed("VAT: ", c.VATNumber),
	), "  |  ")
}

func preparedByLines(p models.PreparedBy) []string {
	return nonEmpty(p.Name, p.Email, p.Phone)
}

func renderWarnings(meta models.InvoiceMetadata, b models.VATBreakdown, issuer models.IssuerProfile) []string {
	var warnings []string
	if strings.TrimSpace(meta.Client.LegalName) == "" {
		warnings = append(warnings, "client legal name is missing from the Bill To block")
	}
	if vat := strings.ToUpper(strings.ReplaceAll(meta.Client.VATNumber, " ", "")); vat != "" && !vatNumberPattern.MatchString(vat) {
		warnings = append(warnings, fmt.Sprintf("client VAT number %q looks malformed", meta.Client.VATNumber))
	}
	if len(meta.LineItems) > 0 {
		sum := decimal.Zero
		for _, item := range meta.LineItems {
			sum = sum.Add(item.Amount)
		}
		if !sum.Equal(b.Subtotal) {
			warnings = append(warnings, fmt.Sprintf("line item amounts add up to %s but the subtotal is %s", sum.StringFixed(2), b.Subtotal.StringFixed(2)))
		}
	}
	if issuer.Bank.IBAN == "" {
		warnings = append(warnings, "issuer bank details are missing from the footer")
	}
	return warnings
}

func formatDate(d civil.Date) string {
	if !d.IsValid() {
		return ""
	}
	return d.In(time.UTC).Format("02 Jan 2006")
}

func prefixed(prefix, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return prefix + value
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
