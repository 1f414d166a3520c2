package models

import (
	"gorm.io/gorm"
)

const (
	ClaimStatusInstantiated = "instantiated"
	ClaimStatusSubmitted    = "submitted"
)

// FileRef points at a privately stored upload. The bytes live in Cloudinary;
// retrieval goes through a short-lived signed URL generated on demand.
type FileRef struct {
	PublicID     string `json:"publicId"`
	FileType     string `json:"fileType"` // "image" or "raw"
	OriginalName string `json:"originalName"`
	FieldName    string `json:"fieldName"`
	FraudFlag    *bool  `json:"fraudFlag,omitempty"`
}

type Insurance struct {
	gorm.Model
	UID          string  `json:"uid" gorm:"index"`
	Provider     string  `json:"provider"`
	UIN          string  `json:"uin"`
	PolicyNumber string  `json:"policyNumber"`
	ClaimStatus  string  `json:"claimStatus" gorm:"default:instantiated"`
	PolicyDoc    FileRef `json:"policyDoc" gorm:"embedded;embeddedPrefix:policy_doc_"`
	DamageImage  FileRef `json:"damageImage" gorm:"embedded;embeddedPrefix:damage_image_"`
	CropImage    FileRef `json:"cropImage" gorm:"embedded;embeddedPrefix:crop_image_"`
	FieldImage   FileRef `json:"fieldImage" gorm:"embedded;embeddedPrefix:field_image_"`
}
