package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	UID           string         `json:"uid" gorm:"uniqueIndex"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone"`
	TotalLand     float64        `json:"totalLand"`
	Crops         datatypes.JSON `json:"crops"` // JSON array of crop names
	IsSmallFarmer bool           `json:"isSmallFarmer"`
	Aadhar        int64          `json:"aadhar"`
	LocationLat   float64        `json:"locationLat"`
	LocationLong  float64        `json:"locationLong"`
}
