package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	LoanStatusNotSubmitted = "not-submitted"
	LoanStatusSubmitted    = "submitted"
	LoanStatusUnderReview  = "under-review"
)

type Loan struct {
	gorm.Model
	UID             string    `json:"uid" gorm:"index"`
	CropID          uint      `json:"cropId" gorm:"uniqueIndex"` // at most one loan per crop
	LoanPurpose     string    `json:"loanPurpose"`
	RequestedAmount float64   `json:"requestedAmount"`
	ApplicationDate time.Time `json:"applicationDate"`
	LoanTenure      int       `json:"loanTenure"` // months
	Status          string    `json:"status" gorm:"default:not-submitted"`
}
