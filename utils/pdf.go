package utils

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// LoanProfileData carries everything the bank-facing loan report shows.
type LoanProfileData struct {
	Name                    string
	Email                   string
	Phone                   string
	CropName                string
	AcresOfLand             string
	PlantingDate            string
	ExpectedHarvestDate     string
	SoilType                string
	IrrigationMethod        string
	PredictedYieldKgPerAcre float64
	YieldCategory           string
	SoilHealthScore         float64
	SoilHealthCategory      string
	ClimateScore            float64
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// GenerateLoanProfilePDF renders the one-page loan profile report attached to
// every bank notification email.
func GenerateLoanProfilePDF(data LoanProfileData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Loan Profile Report", false)
	pdf.AddPage()

	// Header band
	pdf.SetFillColor(46, 125, 50)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(10, 8)
	pdf.CellFormat(190, 12, "Farmer Loan Profile - AgroSure", "", 1, "L", false, 0, "")

	pdf.SetTextColor(33, 33, 33)
	pdf.SetY(36)

	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.SetTextColor(46, 125, 50)
		pdf.CellFormat(190, 9, title, "B", 1, "L", false, 0, "")
		pdf.SetTextColor(33, 33, 33)
		pdf.Ln(2)
	}

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(70, 8, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(120, 8, value, "", 1, "L", false, 0, "")
	}

	section("Applicant")
	row("Farmer Name", orNA(data.Name))
	row("Email", orNA(data.Email))
	row("Phone", orNA(data.Phone))
	pdf.Ln(4)

	section("Crop Details")
	row("Crop", orNA(data.CropName))
	row("Land Area", orNA(data.AcresOfLand)+" acres")
	row("Planting Date", orNA(data.PlantingDate))
	row("Expected Harvest", orNA(data.ExpectedHarvestDate))
	row("Soil Type", orNA(data.SoilType))
	row("Irrigation Method", orNA(data.IrrigationMethod))
	pdf.Ln(4)

	section("AI Assessment")
	row("Estimated Yield", fmt.Sprintf("%.2f kg/acre", data.PredictedYieldKgPerAcre))
	row("Yield Category", orNA(data.YieldCategory))
	row("Soil Health", fmt.Sprintf("%s (%.1f/100)", orNA(data.SoilHealthCategory), data.SoilHealthScore*20))
	row("Climate Score", fmt.Sprintf("%.1f", data.ClimateScore))
	pdf.Ln(3)

	// Yield bar, capped to the report scale
	yieldPercent := data.PredictedYieldKgPerAcre / 100
	if yieldPercent > 100 {
		yieldPercent = 100
	}
	if yieldPercent < 0 {
		yieldPercent = 0
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(70, 8, "Yield Indicator", "", 0, "L", false, 0, "")
	barX, barY := pdf.GetXY()
	pdf.SetFillColor(238, 238, 238)
	pdf.Rect(barX, barY+1.5, 100, 5, "F")
	pdf.SetFillColor(46, 125, 50)
	pdf.Rect(barX, barY+1.5, yieldPercent, 5, "F")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated by AgroSure on %s", time.Now().Format("02 Jan 2006 15:04")), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
