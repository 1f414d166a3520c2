package routes

import (
	"log"
	"time"

	"github.com/uddalak2005/AgroSure/models"
	"github.com/uddalak2005/AgroSure/services"
	"github.com/uddalak2005/AgroSure/storage"
	"github.com/uddalak2005/AgroSure/utils"

	"github.com/kataras/iris/v12"
)

// SubmitLoan files a loan application against a crop and fans the profile
// out to every bank within 10 km of the farmer.
//
// The loan row is created first, before anything downstream can fail, so a
// later failure leaves it orphaned at "not-submitted". Each bank email is
// attempted independently; one failure never aborts the rest. The loan is
// marked "submitted" even when zero emails went out — the response carries
// banksMatched and emailsSent so callers can see partial failure.
func SubmitLoan(ctx iris.Context) {
	cropID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "crop id not found", ctx)
		return
	}

	var loanInput SubmitLoanInput
	if err := ctx.ReadJSON(&loanInput); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !utils.UIDAllowed(ctx, loanInput.UID) {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	newLoan := models.Loan{
		UID:             loanInput.UID,
		CropID:          cropID,
		LoanPurpose:     loanInput.LoanPurpose,
		RequestedAmount: *loanInput.RequestedAmount,
		LoanTenure:      *loanInput.LoanTenure,
		ApplicationDate: time.Now(),
		Status:          models.LoanStatusNotSubmitted,
	}

	if err := storage.DB.Create(&newLoan).Error; err != nil {
		// Most likely the crop already has a loan (unique index on crop_id).
		log.Println("❌ Failed to create loan:", err)
		utils.CreateError(iris.StatusBadRequest, "Submission Error", "Failed to submit loan", ctx)
		return
	}

	var userRecord models.User
	if err := storage.DB.Where("uid = ?", loanInput.UID).First(&userRecord).Error; err != nil {
		utils.CreateError(iris.StatusBadRequest, "Not Found", "No user found linked with the crop", ctx)
		return
	}

	var cropRecord models.Crop
	if err := storage.DB.First(&cropRecord, cropID).Error; err != nil {
		utils.CreateError(iris.StatusBadRequest, "Not Found", "No crop found with given ID", ctx)
		return
	}

	nearbyBanks := services.NearbyBanks(
		userRecord.LocationLat, userRecord.LocationLong, services.LoanSearchRadiusMeters)

	if len(nearbyBanks) == 0 {
		utils.CreateNotFound(ctx, "No nearby banks found within 10 km")
		return
	}

	profile := services.LoanProfile{
		Name:                userRecord.Name,
		Email:               userRecord.Email,
		Phone:               userRecord.Phone,
		CropName:            cropRecord.CropName,
		AcresOfLand:         cropRecord.AcresOfLand,
		PlantingDate:        cropRecord.PlantingDate,
		ExpectedHarvestDate: cropRecord.ExpectedHarvestDate,
		SoilType:            cropRecord.SoilType,
		IrrigationMethod:    cropRecord.IrrigationMethod,
	}
	if cropRecord.PredictedYieldKgPerAcre != nil {
		profile.PredictedYieldKgPerAcre = *cropRecord.PredictedYieldKgPerAcre
	}
	if cropRecord.YieldCategory != nil {
		profile.YieldCategory = *cropRecord.YieldCategory
	}
	if cropRecord.SoilHealthScore != nil {
		profile.SoilHealthScore = *cropRecord.SoilHealthScore
	}
	if cropRecord.SoilHealthCategory != nil {
		profile.SoilHealthCategory = *cropRecord.SoilHealthCategory
	}
	if cropRecord.ClimateScore != nil {
		profile.ClimateScore = *cropRecord.ClimateScore
	}

	emailsSent := 0
	for _, bank := range nearbyBanks {
		if ok := services.Notifier.SendLoanNotificationEmail(bank.Email, profile); !ok {
			log.Printf("❌ Mail sending failed to %s (%s)", bank.Name, bank.Email)
			continue
		}
		log.Printf("✅ Loan email sent to %s", bank.Name)
		emailsSent++
	}

	if err := storage.DB.Model(&newLoan).Update("status", models.LoanStatusSubmitted).Error; err != nil {
		log.Println("❌ Failed to mark loan submitted:", err)
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"message":      "Loan Application Submitted & Sent to Nearby Banks",
		"banksMatched": len(nearbyBanks),
		"emailsSent":   emailsSent,
	})
}

type SubmitLoanInput struct {
	UID             string   `json:"uid" validate:"required"`
	LoanPurpose     string   `json:"loanPurpose" validate:"required"`
	RequestedAmount *float64 `json:"requestedAmount" validate:"required,gte=0"`
	LoanTenure      *int     `json:"loanTenure" validate:"required,min=1"`
}
