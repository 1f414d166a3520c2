package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Crop struct {
	gorm.Model
	UID                     string         `json:"uid" gorm:"index"`
	CropName                string         `json:"cropName"`
	AcresOfLand             string         `json:"acresOfLand"`
	PlantingDate            string         `json:"plantingDate"`
	ExpectedHarvestDate     string         `json:"expectedHarvestDate"`
	SoilType                string         `json:"soilType"`
	IrrigationMethod        string         `json:"irrigationMethod"`
	AdditionalNotes         string         `json:"additionalNotes"`
	LocationLat             float64        `json:"locationLat"`
	LocationLong            float64        `json:"locationLong"`
	PredictedYieldKgPerAcre *float64       `json:"predictedYieldKgPerAcre"`
	YieldCategory           *string        `json:"yieldCategory"`
	SoilHealthScore         *float64       `json:"soilHealthScore"`
	SoilHealthCategory      *string        `json:"soilHealthCategory"`
	ClimateScore            *float64       `json:"climateScore"`
	SuggestedCrops          datatypes.JSON `json:"suggestedCrops"` // JSON array of SuggestedCrop, at most 5
}

// SuggestedCrop is one entry of the alternative-crop list the prediction
// service returns, stored in upstream order.
type SuggestedCrop struct {
	CropName                string  `json:"cropName"`
	PredictedYieldKgPerAcre float64 `json:"predictedYieldKgPerAcre"`
}
