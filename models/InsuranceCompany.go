package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type InsuranceCompany struct {
	gorm.Model
	Name                      string         `json:"name" gorm:"uniqueIndex"`
	UINPrefix                 string         `json:"uinPrefix" gorm:"column:uin_prefix;index"` // stored uppercase, 3 chars
	Email                     string         `json:"email"`
	Phone                     string         `json:"phone"`
	Website                   string         `json:"website"`
	SupportedCrops            datatypes.JSON `json:"supportedCrops"` // JSON array of crop names
	ClaimProcessingTimeInDays int            `json:"claimProcessingTimeInDays" gorm:"default:15"`
	Active                    *bool          `json:"active" gorm:"default:true"`
	Notes                     string         `json:"notes"`
}
