package models

import (
	"gorm.io/gorm"
)

// Bank rows are seeded out of band (cmd/seed) and read-only in the loan flow.
type Bank struct {
	gorm.Model
	Name       string  `json:"name"`
	BranchCode string  `json:"branchCode" gorm:"uniqueIndex"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Address    string  `json:"address"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
}
