package routes

import (
	"encoding/json"
	"net/http"
	nethttptest "net/http/httptest"
	"strings"
	"testing"

	"github.com/uddalak2005/AgroSure/models"
	"github.com/uddalak2005/AgroSure/services"
	"github.com/uddalak2005/AgroSure/storage"
	"github.com/uddalak2005/AgroSure/utils"

	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/iris-contrib/httpexpect/v2"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/httptest"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Crop{},
		&models.Loan{},
		&models.Insurance{},
		&models.Bank{},
		&models.InsuranceCompany{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	storage.DB = db
	return db
}

func newTestApp(t *testing.T) *httpexpect.Expect {
	t.Helper()

	app := iris.New()
	app.Validator = validator.New()

	user := app.Party("/user")
	{
		user.Post("/register", Register)
		user.Get("/dashboard/{uid}", utils.VerifyIdentity, GetUserByUID)
	}
	crop := app.Party("/crop")
	{
		crop.Post("/addNewCrop", utils.VerifyIdentity, AddNewCrop)
		crop.Get("/getPredictions/{id:uint}", GetPredictions)
		crop.Get("/getAllCrops/{uid}", utils.VerifyIdentity, GetAllCrops)
	}
	loan := app.Party("/loan")
	{
		loan.Post("/submit/{id:uint}", utils.VerifyIdentity, SubmitLoan)
	}
	insurance := app.Party("/insurance")
	{
		insurance.Post("/create", utils.VerifyIdentity, CreateInsurance)
		insurance.Put("/update/{id:uint}", UpdateInsurance)
	}
	bank := app.Party("/bank")
	{
		bank.Get("/nearby", GetNearbyBanks)
	}
	admin := app.Party("/admin")
	{
		admin.Post("/export", AdminCreateExport)
		admin.Get("/export/{id}", AdminGetExport)
	}

	return httptest.New(t, app)
}

// stubMailer replaces the SMTP seam for the duration of a test and returns a
// counter of attempted sends.
func stubMailer(t *testing.T, succeed bool) *int {
	t.Helper()

	sends := 0
	original := services.DialAndSend
	services.DialAndSend = func(m *gomail.Message) error {
		sends++
		if !succeed {
			return errStubMailer
		}
		return nil
	}
	t.Cleanup(func() { services.DialAndSend = original })
	return &sends
}

var errStubMailer = &stubMailerError{}

type stubMailerError struct{}

func (e *stubMailerError) Error() string { return "smtp transport rejected the message" }

// stubAttachmentFetch makes signed-URL refetches succeed without a network.
func stubAttachmentFetch(t *testing.T) {
	t.Helper()

	original := services.FetchAttachment
	services.FetchAttachment = func(url string) ([]byte, error) {
		return []byte("stub-bytes"), nil
	}
	t.Cleanup(func() { services.FetchAttachment = original })
}

// stubAIServer serves the prediction endpoints from a canned response map
// keyed by request path.
func stubAIServer(t *testing.T, responses map[string]interface{}) {
	t.Helper()

	srv := nethttptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "unknown endpoint"})
			return
		}
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("FLASK_URL", srv.URL)
}

// stubCloudinary routes uploads to a local server that accepts everything and
// returns a counter of destroy calls.
func stubCloudinary(t *testing.T) *int {
	t.Helper()

	destroys := 0
	srv := nethttptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if strings.HasSuffix(r.URL.Path, "/destroy") {
			destroys++
			json.NewEncoder(w).Encode(map[string]string{"result": "ok"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"public_id":  r.FormValue("public_id"),
			"secure_url": "https://res.example.com/" + r.FormValue("public_id"),
		})
	}))
	t.Cleanup(srv.Close)

	t.Setenv("CLOUDINARY_API_BASE", srv.URL)
	t.Setenv("CLOUDINARY_CLOUD_NAME", "test-cloud")
	t.Setenv("CLOUDINARY_API_KEY", "test-key")
	t.Setenv("CLOUDINARY_API_SECRET", "test-secret")
	t.Setenv("CLOUDINARY_FOLDER", "")
	return &destroys
}

func seedUser(t *testing.T, uid string, lat, lng float64) models.User {
	t.Helper()

	user := models.User{
		UID:          uid,
		Name:         "Asha Devi",
		Email:        "asha@example.com",
		Phone:        "+91-90000-00001",
		TotalLand:    3,
		Crops:        []byte(`["rice"]`),
		Aadhar:       123412341234,
		LocationLat:  lat,
		LocationLong: lng,
	}
	user.IsSmallFarmer = user.TotalLand < 5
	if err := storage.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedCrop(t *testing.T, uid string, lat, lng float64) models.Crop {
	t.Helper()

	crop := models.Crop{
		UID:                 uid,
		CropName:            "rice",
		AcresOfLand:         "3",
		PlantingDate:        "2026-06-10",
		ExpectedHarvestDate: "2026-11-02",
		SoilType:            "alluvial",
		IrrigationMethod:    "canal",
		LocationLat:         lat,
		LocationLong:        lng,
	}
	if err := storage.DB.Create(&crop).Error; err != nil {
		t.Fatalf("failed to seed crop: %v", err)
	}
	return crop
}

func seedBank(t *testing.T, branchCode string, lat, lng float64) models.Bank {
	t.Helper()

	bank := models.Bank{
		Name:       "Test Bank " + branchCode,
		BranchCode: branchCode,
		Email:      branchCode + "@bank.example.com",
		Lat:        lat,
		Lng:        lng,
	}
	if err := storage.DB.Create(&bank).Error; err != nil {
		t.Fatalf("failed to seed bank: %v", err)
	}
	return bank
}

func seedInsurer(t *testing.T, name, prefix, email string) models.InsuranceCompany {
	t.Helper()

	insurer := models.InsuranceCompany{
		Name:      name,
		UINPrefix: prefix,
		Email:     email,
	}
	if err := storage.DB.Create(&insurer).Error; err != nil {
		t.Fatalf("failed to seed insurer: %v", err)
	}
	return insurer
}
