package services

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/uddalak2005/AgroSure/models"
	"github.com/uddalak2005/AgroSure/storage"
	"github.com/uddalak2005/AgroSure/utils"

	"gopkg.in/gomail.v2"
)

const notAvailable = "Not available"

// signedURLTTL is how long refetch links for claim attachments stay valid.
const signedURLTTL = int64(300)

// DialAndSend hands a composed message to the SMTP transport. Package
// variable so tests can intercept the send without a live server.
var DialAndSend = func(m *gomail.Message) error {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && p > 0 {
		port = p
	}
	dialer := gomail.NewDialer(host, port, os.Getenv("ALERT_EMAIL"), os.Getenv("ALERT_PASS"))
	return dialer.DialAndSend(m)
}

// FetchAttachment pulls a stored file back through its signed URL so it can be
// re-attached to an outbound email.
var FetchAttachment = func(url string) ([]byte, error) {
	res, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", res.StatusCode)
	}
	return io.ReadAll(res.Body)
}

// NotificationService composes and sends the outbound bank and insurer emails.
type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// Notifier is the process-wide instance used by the request handlers.
var Notifier = NewNotificationService()

var loanEmailTmpl = template.Must(template.New("loanEmail").Parse(`
<div style="font-family:Arial, sans-serif; padding: 20px; background:#f4f4f4;">
  <div style="max-width:600px; margin:auto; background:white; border-radius:10px; overflow:hidden;">
    <div style="background:#2e7d32; color:white; padding:20px;">
      <h2 style="margin:0;">🌱 New Farmer Loan Application - AgroSure</h2>
    </div>
    <div style="padding:20px;">
      <p>Hello,</p>
      <p>A new loan profile has been submitted by a farmer. Here are the details:</p>
      <table style="width:100%; border-collapse:collapse;">
        <tr><td><strong>👤 Farmer Name:</strong></td><td>{{.Name}}</td></tr>
        <tr><td><strong>📧 Email:</strong></td><td>{{.Email}}</td></tr>
        <tr><td><strong>📞 Phone:</strong></td><td>{{.Phone}}</td></tr>
        <tr><td><strong>📐 Land Area:</strong></td><td>{{.AcresOfLand}} acres</td></tr>
        <tr><td><strong>🌾 Crop:</strong></td><td>{{.CropName}}</td></tr>
        <tr><td><strong>💰 Estimated Yield:</strong></td><td>{{printf "%.2f" .PredictedYieldKgPerAcre}} kg/acre</td></tr>
        <tr><td><strong>📊 Climate Score:</strong></td><td>{{printf "%.1f" .ClimateScore}}</td></tr>
      </table>
      <p style="margin-top:20px;">You can contact the farmer via the contact number provided. The full profile report is attached as a PDF.</p>
    </div>
    <div style="background:#eeeeee; text-align:center; padding:10px; font-size:12px; color:#666;">
      © {{.Year}} AgroSure | Empowering Farmers with Smart Finance
    </div>
  </div>
</div>`))

type loanEmailView struct {
	LoanProfile
	Year int
}

// LoanProfile is the flattened farmer + crop + assessment snapshot sent to a
// bank. It is assembled by the loan handler from the User and Crop records.
type LoanProfile struct {
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

func generateLoanPDF(p LoanProfile) ([]byte, error) {
	return utils.GenerateLoanProfilePDF(utils.LoanProfileData{
		Name:                    p.Name,
		Email:                   p.Email,
		Phone:                   p.Phone,
		CropName:                p.CropName,
		AcresOfLand:             p.AcresOfLand,
		PlantingDate:            p.PlantingDate,
		ExpectedHarvestDate:     p.ExpectedHarvestDate,
		SoilType:                p.SoilType,
		IrrigationMethod:        p.IrrigationMethod,
		PredictedYieldKgPerAcre: p.PredictedYieldKgPerAcre,
		YieldCategory:           p.YieldCategory,
		SoilHealthScore:         p.SoilHealthScore,
		SoilHealthCategory:      p.SoilHealthCategory,
		ClimateScore:            p.ClimateScore,
	})
}

// SendLoanNotificationEmail renders the loan report and emails it to one
// bank. Returns false on any failure; the caller decides whether to continue
// the fan-out.
func (ns *NotificationService) SendLoanNotificationEmail(bankEmail string, profile LoanProfile) bool {
	var body bytes.Buffer
	if err := loanEmailTmpl.Execute(&body, loanEmailView{LoanProfile: profile, Year: time.Now().Year()}); err != nil {
		log.Println("❌ Failed to render loan email:", err)
		return false
	}

	pdfBuffer, err := generateLoanPDF(profile)
	if err != nil {
		log.Println("❌ Failed to generate PDF:", err)
		return false
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", os.Getenv("ALERT_EMAIL"), "AgroSure")
	m.SetHeader("To", bankEmail)
	m.SetHeader("Subject", "📄 Loan Profile Report – AgroSure")
	m.SetBody("text/html", body.String())
	m.Attach("Loan-Profile.pdf", gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(pdfBuffer)
		return err
	}), gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}))

	if err := DialAndSend(m); err != nil {
		log.Println("❌ Failed to send email:", err)
		return false
	}

	log.Println("✅ Email sent to:", bankEmail)
	return true
}

var claimEmailTmpl = template.Must(template.New("claimEmail").Parse(`
<div style="font-family:Arial,sans-serif; padding:20px; background:#f4f4f4;">
  <div style="max-width:800px; margin:auto; background:white; border-radius:8px;">
    <div style="background:#0277bd; color:white; padding:16px;">
      <h2 style="margin:0;">🌾 New Insurance Claim - AgroSure</h2>
    </div>
    <div style="padding:20px;">
      <p>Hello,</p>
      <p>A new insurance claim has been submitted by a farmer. Please find the details below:</p>

      <h3 style="color:#0277bd; border-bottom:2px solid #0277bd; padding-bottom:5px;">📋 Basic Claim Information</h3>
      <table style="width:100%; border-collapse:collapse; margin-bottom:20px;">
        <tr><td style="padding:8px; border:1px solid #ddd;"><strong>👤 Farmer Name:</strong></td><td style="padding:8px; border:1px solid #ddd;">{{.FarmerName}}</td></tr>
        <tr><td style="padding:8px; border:1px solid #ddd;"><strong>🆔 UID:</strong></td><td style="padding:8px; border:1px solid #ddd;">{{.UID}}</td></tr>
        <tr><td style="padding:8px; border:1px solid #ddd;"><strong>🏢 Provider:</strong></td><td style="padding:8px; border:1px solid #ddd;">{{.Provider}}</td></tr>
        <tr><td style="padding:8px; border:1px solid #ddd;"><strong>🪪 UIN:</strong></td><td style="padding:8px; border:1px solid #ddd;">{{.UIN}}</td></tr>
        <tr><td style="padding:8px; border:1px solid #ddd;"><strong>📄 Policy No.:</strong></td><td style="padding:8px; border:1px solid #ddd;">{{.PolicyNumber}}</td></tr>
      </table>

      <h3 style="color:#0277bd; border-bottom:2px solid #0277bd; padding-bottom:5px;">🔍 AI Analysis Results</h3>

      <h4 style="color:#2e7d32; margin-top:20px;">📸 Image Metadata Analysis</h4>
      <table style="width:100%; border-collapse:collapse; margin-bottom:20px;">
        <tr><td style="padding:8px; border:1px solid #ddd;"><strong>📍 Location Address:</strong></td><td style="padding:8px; border:1px solid #ddd;">{{.Address}}</td></tr>
        <tr><td style="padding:8px; border:1px solid #ddd;"><strong>📱 Device Model:</strong></td><td style="padding:8px; border:1px solid #ddd;">{{.DeviceModel}}</td></tr>
        <tr><td style="padding:8px; border:1px solid #ddd;"><strong>📅 Timestamp:</strong></td><td style="padding:8px; border:1px solid #ddd;">{{.Timestamp}}</td></tr>
        <tr><td style="padding:8px; border:1px solid #ddd;"><strong>🎯 GPS Coordinates:</strong></td><td style="padding:8px; border:1px solid #ddd;">Lat: {{.GPSLatitude}}, Long: {{.GPSLongitude}}</td></tr>
        <tr><td style="padding:8px; border:1px solid #ddd;"><strong>🔒 Authenticity Score:</strong></td><td style="padding:8px; border:1px solid #ddd;">{{.AuthenticityScore}}/100</td></tr>
        <tr><td style="padding:8px; border:1px solid #ddd;"><strong>⚠️ Suspicious Reasons:</strong></td><td style="padding:8px; border:1px solid #ddd;">{{.SuspiciousReasons}}</td></tr>
      </table>

      <h4 style="color:#2e7d32; margin-top:20px;">🌾 Crop Damage Assessment</h4>
      <table style="width:100%; border-collapse:collapse; margin-bottom:20px;">
        <tr><td style="padding:8px; border:1px solid #ddd;"><strong>🔍 Damage Status:</strong></td><td style="padding:8px; border:1px solid #ddd;">{{.DamageStatus}}</td></tr>
        <tr><td style="padding:8px; border:1px solid #ddd;"><strong>📊 Confidence Level:</strong></td><td style="padding:8px; border:1px solid #ddd;">{{.DamageConfidence}}</td></tr>
        <tr><td style="padding:8px; border:1px solid #ddd;"><strong>🤖 AI Model Used:</strong></td><td style="padding:8px; border:1px solid #ddd;">{{.DamageModel}}</td></tr>
        <tr><td style="padding:8px; border:1px solid #ddd;"><strong>✅ Analysis Status:</strong></td><td style="padding:8px; border:1px solid #ddd;">{{.DamageAnalysisStatus}}</td></tr>
      </table>

      <h4 style="color:#2e7d32; margin-top:20px;">🌱 Crop Type Identification</h4>
      <table style="width:100%; border-collapse:collapse; margin-bottom:20px;">
        <tr><td style="padding:8px; border:1px solid #ddd;"><strong>🌾 Identified Crop:</strong></td><td style="padding:8px; border:1px solid #ddd;">{{.CropClass}}</td></tr>
        <tr><td style="padding:8px; border:1px solid #ddd;"><strong>📊 Confidence Level:</strong></td><td style="padding:8px; border:1px solid #ddd;">{{.CropConfidence}}</td></tr>
        <tr><td style="padding:8px; border:1px solid #ddd;"><strong>✅ Analysis Status:</strong></td><td style="padding:8px; border:1px solid #ddd;">{{.CropAnalysisStatus}}</td></tr>
      </table>

      <div style="background:#fff3cd; border:1px solid #ffeaa7; padding:15px; border-radius:5px; margin:20px 0;">
        <h4 style="margin:0; color:#856404;">📋 Audit Summary</h4>
        <ul style="margin:10px 0; padding-left:20px;">
          <li><strong>Image Authenticity:</strong> {{.AuditAuthenticity}}</li>
          <li><strong>Damage Detection:</strong> {{.AuditDamage}}</li>
          <li><strong>Crop Verification:</strong> {{.AuditCrop}}</li>
          <li><strong>Location Verification:</strong> {{.AuditLocation}}</li>
        </ul>
      </div>

      <p style="margin-top:20px;"><strong>📎 Supporting Documents:</strong> Relevant documents are attached below for detailed review.</p>
    </div>
    <div style="background:#eeeeee; text-align:center; padding:10px; font-size:12px; color:#666;">
      © {{.Year}} AgroSure | Smart Crop Insurance
    </div>
  </div>
</div>`))

type claimEmailView struct {
	FarmerName   string
	UID          string
	Provider     string
	UIN          string
	PolicyNumber string

	Address           string
	DeviceModel       string
	Timestamp         string
	GPSLatitude       string
	GPSLongitude      string
	AuthenticityScore string
	SuspiciousReasons string

	DamageStatus         string
	DamageConfidence     string
	DamageModel          string
	DamageAnalysisStatus string

	CropClass          string
	CropConfidence     string
	CropAnalysisStatus string

	AuditAuthenticity string
	AuditDamage       string
	AuditCrop         string
	AuditLocation     string

	Year int
}

func fallback(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func floatOrNA(v *float64, format string) string {
	if v == nil {
		return notAvailable
	}
	return fmt.Sprintf(format, *v)
}

func buildClaimEmailView(rec models.Insurance, payload *DocScorePayload, name string) claimEmailView {
	view := claimEmailView{
		FarmerName:   fallback(name),
		UID:          fallback(rec.UID),
		Provider:     fallback(rec.Provider),
		UIN:          fallback(rec.UIN),
		PolicyNumber: fallback(rec.PolicyNumber),

		Address:           notAvailable,
		DeviceModel:       notAvailable,
		Timestamp:         notAvailable,
		GPSLatitude:       notAvailable,
		GPSLongitude:      notAvailable,
		AuthenticityScore: notAvailable,
		SuspiciousReasons: "None detected",

		DamageStatus:         notAvailable,
		DamageConfidence:     notAvailable,
		DamageModel:          notAvailable,
		DamageAnalysisStatus: notAvailable,

		CropClass:          notAvailable,
		CropConfidence:     notAvailable,
		CropAnalysisStatus: notAvailable,

		AuditAuthenticity: notAvailable,
		AuditDamage:       notAvailable,
		AuditCrop:         notAvailable,
		AuditLocation:     "❌ Location data missing",

		Year: time.Now().Year(),
	}

	if payload == nil {
		return view
	}

	if md := payload.Metadata; md != nil {
		view.Address = fallback(md.Address)
		view.DeviceModel = fallback(md.DeviceModel)
		view.Timestamp = fallback(md.Timestamp)
		view.GPSLatitude = floatOrNA(md.GPSLatitude, "%.6f")
		view.GPSLongitude = floatOrNA(md.GPSLongitude, "%.6f")
		view.AuthenticityScore = floatOrNA(md.AuthenticityScore, "%.0f")
		if len(md.SuspiciousReasons) > 0 {
			view.SuspiciousReasons = ""
			for i, reason := range md.SuspiciousReasons {
				if i > 0 {
					view.SuspiciousReasons += ", "
				}
				view.SuspiciousReasons += reason
			}
		}

		// Authenticity threshold bands: >=70 good, 50-69 moderate, <50 low.
		if md.AuthenticityScore != nil {
			switch score := *md.AuthenticityScore; {
			case score >= 70:
				view.AuditAuthenticity = "✅ Good"
			case score >= 50:
				view.AuditAuthenticity = "⚠️ Moderate"
			default:
				view.AuditAuthenticity = "❌ Low"
			}
		}
		if md.Address != "" {
			view.AuditLocation = "✅ Location data available"
		}
	}

	if dd := payload.DamageDetection; dd != nil {
		view.DamageStatus = fallback(dd.Prediction)
		view.DamageConfidence = floatOrNA(dd.Confidence, "%.2f%%")
		view.DamageModel = fallback(dd.Model)
		view.DamageAnalysisStatus = fallback(dd.Status)

		switch dd.Prediction {
		case "damaged":
			view.AuditDamage = "✅ Damage confirmed"
		case "non_damaged":
			view.AuditDamage = "❌ No damage detected"
		}
	}

	if ct := payload.CropType; ct != nil {
		view.CropClass = fallback(ct.PredictedClass)
		view.CropConfidence = floatOrNA(ct.ConfidencePercent, "%.2f%%")
		view.CropAnalysisStatus = fallback(ct.Status)

		if ct.PredictedClass != "" {
			view.AuditCrop = "✅ Identified as " + ct.PredictedClass
		}
	}

	return view
}

// SendInsuranceClaimNotificationEmail emails the resolved insurer one claim
// summary with the AI analysis embedded and the original files re-fetched via
// short-lived signed URLs and re-attached. An attachment that fails to fetch
// is skipped, not fatal; only a rejected send fails the whole operation.
func (ns *NotificationService) SendInsuranceClaimNotificationEmail(insurerEmail string, rec models.Insurance, payload *DocScorePayload, name string) bool {
	var body bytes.Buffer
	if err := claimEmailTmpl.Execute(&body, buildClaimEmailView(rec, payload, name)); err != nil {
		log.Println("❌ Failed to render claim email:", err)
		return false
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", os.Getenv("ALERT_EMAIL"), "AgroSure")
	m.SetHeader("To", insurerEmail)
	m.SetHeader("Subject", "📑 New Insurance Claim Submitted – AgroSure")
	m.SetBody("text/html", body.String())

	for _, doc := range []models.FileRef{rec.PolicyDoc, rec.DamageImage, rec.CropImage, rec.FieldImage} {
		if doc.PublicID == "" {
			continue
		}

		signedURL := storage.SignedURL(doc, signedURLTTL)
		content, err := FetchAttachment(signedURL)
		if err != nil {
			log.Printf("⚠️ Failed to attach %s: %v", doc.FieldName, err)
			continue
		}

		filename := doc.OriginalName
		if filename == "" {
			filename = doc.FieldName + ".file"
		}
		contentType := "application/pdf"
		if doc.FileType == "image" {
			contentType = "image/png"
		}

		fileContent := content
		m.Attach(filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(fileContent)
			return err
		}), gomail.SetHeader(map[string][]string{"Content-Type": {contentType}}))

		log.Println("✅ Attached", doc.FieldName)
	}

	if err := DialAndSend(m); err != nil {
		log.Println("❌ Error sending insurance email:", err)
		return false
	}

	log.Println("✅ Insurance claim email sent to:", insurerEmail)
	return true
}
