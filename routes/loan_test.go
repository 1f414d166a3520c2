package routes

import (
	"testing"

	"github.com/uddalak2005/AgroSure/models"
	"github.com/uddalak2005/AgroSure/services"
	"github.com/uddalak2005/AgroSure/storage"

	qt "github.com/frankban/quicktest"
	"github.com/kataras/iris/v12"
	"gopkg.in/gomail.v2"
)

func submitLoanBody(uid string) map[string]interface{} {
	return map[string]interface{}{
		"uid":             uid,
		"loanPurpose":     "seeds and fertilizer",
		"requestedAmount": 50000,
		"loanTenure":      12,
	}
}

func TestSubmitLoanFansOutToNearbyBanks(t *testing.T) {
	c := qt.New(t)
	setupTestDB(t)
	e := newTestApp(t)
	seedUser(t, "farmer-1", 22.57, 88.36)
	crop := seedCrop(t, "farmer-1", 22.57, 88.36)

	// Two branches in range, one ~540 km away in Patna.
	seedBank(t, "KOL001", 22.58, 88.37)
	seedBank(t, "KOL002", 22.56, 88.35)
	seedBank(t, "PAT001", 25.59, 85.13)

	sends := stubMailer(t, true)

	e.POST("/loan/submit/{id}", crop.ID).WithJSON(submitLoanBody("farmer-1")).
		Expect().Status(iris.StatusOK).
		JSON().Object().
		HasValue("message", "Loan Application Submitted & Sent to Nearby Banks").
		HasValue("banksMatched", 2).
		HasValue("emailsSent", 2)

	c.Assert(*sends, qt.Equals, 2)

	var loan models.Loan
	c.Assert(storage.DB.Where("crop_id = ?", crop.ID).First(&loan).Error, qt.IsNil)
	c.Assert(loan.Status, qt.Equals, models.LoanStatusSubmitted)
}

func TestSubmitLoanMailFailureStillSubmits(t *testing.T) {
	c := qt.New(t)
	setupTestDB(t)
	e := newTestApp(t)
	seedUser(t, "farmer-1", 22.57, 88.36)
	crop := seedCrop(t, "farmer-1", 22.57, 88.36)
	seedBank(t, "KOL001", 22.58, 88.37)

	stubMailer(t, false)

	// A dead SMTP relay must not block the application itself; the counts in
	// the response are the only signal of the partial failure.
	e.POST("/loan/submit/{id}", crop.ID).WithJSON(submitLoanBody("farmer-1")).
		Expect().Status(iris.StatusOK).
		JSON().Object().
		HasValue("banksMatched", 1).
		HasValue("emailsSent", 0)

	var loan models.Loan
	c.Assert(storage.DB.Where("crop_id = ?", crop.ID).First(&loan).Error, qt.IsNil)
	c.Assert(loan.Status, qt.Equals, models.LoanStatusSubmitted)
}

func TestSubmitLoanNoBanksInRange(t *testing.T) {
	c := qt.New(t)
	setupTestDB(t)
	e := newTestApp(t)
	seedUser(t, "farmer-1", 22.57, 88.36)
	crop := seedCrop(t, "farmer-1", 22.57, 88.36)
	seedBank(t, "PAT001", 25.59, 85.13)

	e.POST("/loan/submit/{id}", crop.ID).WithJSON(submitLoanBody("farmer-1")).
		Expect().Status(iris.StatusNotFound).
		JSON().Object().HasValue("message", "No nearby banks found within 10 km")

	// The loan row was created before matching and stays orphaned.
	var loan models.Loan
	c.Assert(storage.DB.Where("crop_id = ?", crop.ID).First(&loan).Error, qt.IsNil)
	c.Assert(loan.Status, qt.Equals, models.LoanStatusNotSubmitted)
}

func TestSubmitLoanRejectsSecondApplication(t *testing.T) {
	c := qt.New(t)
	setupTestDB(t)
	e := newTestApp(t)
	seedUser(t, "farmer-1", 22.57, 88.36)
	crop := seedCrop(t, "farmer-1", 22.57, 88.36)
	seedBank(t, "KOL001", 22.58, 88.37)
	stubMailer(t, true)

	e.POST("/loan/submit/{id}", crop.ID).WithJSON(submitLoanBody("farmer-1")).
		Expect().Status(iris.StatusOK)

	e.POST("/loan/submit/{id}", crop.ID).WithJSON(submitLoanBody("farmer-1")).
		Expect().Status(iris.StatusBadRequest).
		JSON().Object().HasValue("message", "Failed to submit loan")

	var count int64
	storage.DB.Model(&models.Loan{}).Where("crop_id = ?", crop.ID).Count(&count)
	c.Assert(count, qt.Equals, int64(1))
}

func TestSubmitLoanStatusWriteFailure(t *testing.T) {
	setupTestDB(t)
	e := newTestApp(t)
	seedUser(t, "farmer-1", 22.57, 88.36)
	crop := seedCrop(t, "farmer-1", 22.57, 88.36)
	seedBank(t, "KOL001", 22.58, 88.37)

	// The email goes out but the table is gone by the time the status flip
	// runs; the failed write must surface, not report success.
	original := services.DialAndSend
	services.DialAndSend = func(m *gomail.Message) error {
		return storage.DB.Migrator().DropTable(&models.Loan{})
	}
	t.Cleanup(func() { services.DialAndSend = original })

	e.POST("/loan/submit/{id}", crop.ID).WithJSON(submitLoanBody("farmer-1")).
		Expect().Status(iris.StatusInternalServerError).
		JSON().Object().HasValue("message", "Internal Server Error")
}

func TestSubmitLoanValidation(t *testing.T) {
	setupTestDB(t)
	e := newTestApp(t)
	seedUser(t, "farmer-1", 22.57, 88.36)
	crop := seedCrop(t, "farmer-1", 22.57, 88.36)

	body := submitLoanBody("farmer-1")
	delete(body, "requestedAmount")

	e.POST("/loan/submit/{id}", crop.ID).WithJSON(body).
		Expect().Status(iris.StatusUnprocessableEntity).
		JSON().Object().HasValue("message", "Missing required fields")
}
