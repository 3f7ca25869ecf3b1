package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Patient is the identity block printed at the top of a record report.
type Patient struct {
	Name        string
	Email       string
	Address     string
	Gender      string
	DateOfBirth string
	Age         *int
}

// Row is one line of the vital-signs table.
type Row struct {
	Measurement string
	Value       string
	Status      string
	Color       string // #RRGGBB, empty prints in black
}

// RecordDoc is everything a single-record PDF shows.
type RecordDoc struct {
	Title   string
	Date    time.Time
	Patient Patient
	Rows    []Row
	Notes   []string
	Footer  string
}

// WritePDF renders doc as an A4 PDF into w.
func WritePDF(w io.Writer, doc RecordDoc) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	footer := doc.Footer
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 10, fmt.Sprintf("%s  -  page %d", footer, pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	title := doc.Title
	if title == "" {
		title = "Medical Record"
	}
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, title, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Date: "+doc.Date.Format("January 2, 2006"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	section(pdf, "Patient Information")
	age := "-"
	if doc.Patient.Age != nil {
		age = strconv.Itoa(*doc.Patient.Age)
	}
	for _, kv := range [][2]string{
		{"Name", doc.Patient.Name},
		{"Date of Birth", dash(doc.Patient.DateOfBirth)},
		{"Age", age},
		{"Gender", dash(doc.Patient.Gender)},
		{"Email", doc.Patient.Email},
		{"Address", dash(doc.Patient.Address)},
	} {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, kv[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, kv[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	section(pdf, "Vital Signs")
	widths := []float64{70, 55, 55}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 240, 250)
	for i, h := range []string{"Measurement", "Value", "Status"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	for _, r := range doc.Rows {
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(widths[0], 7, r.Measurement, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, r.Value, "1", 0, "L", false, 0, "")
		cr, cg, cb := hexRGB(r.Color)
		pdf.SetTextColor(cr, cg, cb)
		pdf.CellFormat(widths[2], 7, dash(r.Status), "1", 1, "L", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)

	if len(doc.Notes) > 0 {
		pdf.Ln(4)
		section(pdf, "Notes")
		pdf.SetFont("Helvetica", "", 9)
		for _, n := range doc.Notes {
			pdf.MultiCell(0, 5, "- "+n, "", "L", false)
		}
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func section(pdf *fpdf.Fpdf, name string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, name, "B", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func hexRGB(s string) (int, int, int) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
