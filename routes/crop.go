package routes

import (
	"encoding/json"
	"log"

	"github.com/uddalak2005/AgroSure/models"
	"github.com/uddalak2005/AgroSure/services"
	"github.com/uddalak2005/AgroSure/storage"
	"github.com/uddalak2005/AgroSure/utils"

	"github.com/kataras/iris/v12"
)

// AddNewCrop records one planting cycle for a farmer. The crop's coordinates
// are always copied from the owning user's stored location, never taken from
// the request. Resubmitting identical data creates a new record (no
// duplicate protection, known gap).
func AddNewCrop(ctx iris.Context) {
	var cropInput AddCropInput
	if err := ctx.ReadJSON(&cropInput); err != nil {
		utils.CreateError(iris.StatusUnprocessableEntity, "Validation Error", "Missing required fields", ctx)
		return
	}

	if !utils.UIDAllowed(ctx, cropInput.UID) {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	var userRecord models.User
	if err := storage.DB.Where("uid = ?", cropInput.UID).First(&userRecord).Error; err != nil {
		utils.CreateError(iris.StatusBadRequest, "Not Found", "uid not found", ctx)
		return
	}

	newCrop := models.Crop{
		UID:                 cropInput.UID,
		CropName:            cropInput.CropName,
		AcresOfLand:         cropInput.AcresOfLand,
		PlantingDate:        cropInput.PlantingDate,
		ExpectedHarvestDate: cropInput.ExpectedHarvestDate,
		SoilType:            cropInput.SoilType,
		IrrigationMethod:    cropInput.IrrigationMethod,
		AdditionalNotes:     cropInput.AdditionalNotes,
		LocationLat:         userRecord.LocationLat,
		LocationLong:        userRecord.LocationLong,
	}

	if err := storage.DB.Create(&newCrop).Error; err != nil {
		log.Println("❌ Error creating crop:", err)
		utils.CreateError(iris.StatusBadRequest, "Creation Error", "error occured while creating new crop", ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"message": "Crop Saved Successfully", "newCrop": newCrop})
}

// GetPredictions runs the yield-scoring model against a stored crop and
// merges the result into the record. A gateway failure leaves the crop
// unmodified. Two concurrent requests for the same crop race; the later
// write wins.
func GetPredictions(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Not Found", "No Crop Record Found", ctx)
		return
	}

	var cropRecord models.Crop
	if err := storage.DB.First(&cropRecord, id).Error; err != nil {
		utils.CreateError(iris.StatusBadRequest, "Not Found", "No Crop Record Found", ctx)
		return
	}

	prediction := services.AI.PredictCropScore(
		ctx.Request().Context(), cropRecord.CropName, cropRecord.LocationLat, cropRecord.LocationLong)

	if prediction == nil || prediction.Error != "" {
		errMsg := "Unknown error"
		if prediction != nil && prediction.Error != "" {
			errMsg = prediction.Error
		}
		ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{
			"message": "Failed to get Response from AI",
			"error":   errMsg,
		})
		return
	}

	updates := map[string]interface{}{}

	if analysis := prediction.InputCropAnalysis; analysis != nil {
		if analysis.PredictedYield != nil && analysis.PredictedYield.KgPerAcre != nil {
			updates["predicted_yield_kg_per_acre"] = *analysis.PredictedYield.KgPerAcre
		}
		if analysis.YieldCategory != "" {
			updates["yield_category"] = analysis.YieldCategory
		}
	}
	if soil := prediction.SoilHealth; soil != nil {
		if soil.Score != nil {
			updates["soil_health_score"] = *soil.Score
		}
		if soil.Category != "" {
			updates["soil_health_category"] = soil.Category
		}
	}
	if prediction.ClimateScore != nil {
		updates["climate_score"] = *prediction.ClimateScore
	}

	// Keep at most the first five suggestions, upstream order preserved.
	priorityList := prediction.CropPriorityList
	if len(priorityList) > 5 {
		priorityList = priorityList[:5]
	}
	suggested := make([]models.SuggestedCrop, 0, len(priorityList))
	for _, entry := range priorityList {
		s := models.SuggestedCrop{CropName: entry.Crop}
		if entry.PredictedYield != nil && entry.PredictedYield.KgPerAcre != nil {
			s.PredictedYieldKgPerAcre = *entry.PredictedYield.KgPerAcre
		}
		suggested = append(suggested, s)
	}
	if suggestedJSON, err := json.Marshal(suggested); err == nil {
		updates["suggested_crops"] = suggestedJSON
	}

	if err := storage.DB.Model(&cropRecord).Updates(updates).Error; err != nil {
		log.Println("❌ Failed to store prediction:", err)
		utils.CreateInternalServerError(ctx)
		return
	}

	var updatedCropRecord models.Crop
	storage.DB.First(&updatedCropRecord, id)

	ctx.JSON(iris.Map{"updatedCropRecord": updatedCropRecord})
}

// cropWithLoanStatus flattens a crop record plus the derived status of its
// loan, if one exists.
type cropWithLoanStatus struct {
	models.Crop
	LoanStatus *string `json:"loanStatus,omitempty"`
}

// GetAllCrops lists a farmer's past crop records with each crop's loan
// status attached. Loan statuses are resolved in one batched query.
func GetAllCrops(ctx iris.Context) {
	uid := ctx.Params().Get("uid")
	if uid == "" {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "No uid found", ctx)
		return
	}

	if !utils.UIDAllowed(ctx, uid) {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	var crops []models.Crop
	if err := storage.DB.Where("uid = ?", uid).Find(&crops).Error; err != nil {
		utils.CreateError(iris.StatusBadRequest, "Fetch Error", "Unable to fetch past records", ctx)
		return
	}

	cropIDs := make([]uint, 0, len(crops))
	for _, crop := range crops {
		cropIDs = append(cropIDs, crop.ID)
	}

	statusByCrop := map[uint]string{}
	if len(cropIDs) > 0 {
		var loans []models.Loan
		storage.DB.Where("crop_id IN ?", cropIDs).Find(&loans)
		for _, loan := range loans {
			statusByCrop[loan.CropID] = loan.Status
		}
	}

	records := make([]cropWithLoanStatus, 0, len(crops))
	for _, crop := range crops {
		record := cropWithLoanStatus{Crop: crop}
		if status, ok := statusByCrop[crop.ID]; ok {
			record.LoanStatus = &status
		}
		records = append(records, record)
	}

	ctx.JSON(iris.Map{"cropRecord": records})
}

type AddCropInput struct {
	UID                 string `json:"uid" validate:"required"`
	CropName            string `json:"cropName" validate:"required"`
	AcresOfLand         string `json:"acresOfLand" validate:"required"`
	PlantingDate        string `json:"plantingDate" validate:"required"`
	ExpectedHarvestDate string `json:"expectedHarvestDate" validate:"required"`
	SoilType            string `json:"soilType" validate:"required"`
	IrrigationMethod    string `json:"irrigationMethod" validate:"required"`
	AdditionalNotes     string `json:"additionalNotes"`
}
