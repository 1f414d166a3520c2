package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/uddalak2005/AgroSure/models"
	"github.com/uddalak2005/AgroSure/services"
	"github.com/uddalak2005/AgroSure/storage"
	"github.com/uddalak2005/AgroSure/utils"

	"github.com/kataras/iris/v12"
	"golang.org/x/exp/slices"
)

// claimFileFields are the multipart fields a claim must carry, one file each.
var claimFileFields = []string{"policyDoc", "damageImage", "cropImage", "fieldImage"}

const insurerCacheTTL = 10 * time.Minute

// CreateInsurance files a crop-insurance claim: uploads the four evidence
// files, persists the claim, runs the three AI analyses, resolves the insurer
// from the UIN prefix and sends one notification email. The claim flips to
// "submitted" only after a confirmed send; every earlier failure leaves
// whatever was already persisted in place (uploads and the claim row are
// never rolled back).
func CreateInsurance(ctx iris.Context) {
	uid := ctx.FormValue("uid")
	provider := ctx.FormValue("provider")
	uin := ctx.FormValue("uin")
	policyNumber := ctx.FormValue("policyNumber")

	if uid == "" || provider == "" || uin == "" || policyNumber == "" {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Field mismatch", ctx)
		return
	}

	if !utils.UIDAllowed(ctx, uid) {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	fileRefs := map[string]*models.FileRef{}
	form := ctx.Request().MultipartForm
	if form != nil {
		for fieldName, headers := range form.File {
			if !slices.Contains(claimFileFields, fieldName) || len(headers) == 0 {
				continue
			}

			publicID := fmt.Sprintf("claims/%s/%s-%d", uid, fieldName, time.Now().UnixNano())
			ref, err := storage.UploadFile(headers[0], fieldName, publicID)
			if err != nil {
				log.Printf("❌ Failed to upload %s: %v", fieldName, err)
				continue
			}
			fileRefs[fieldName] = ref
		}
	}

	for _, fieldName := range claimFileFields {
		if fileRefs[fieldName] == nil {
			utils.CreateError(iris.StatusBadRequest, "Validation Error",
				"All required files (policyDoc, damageImage, cropImage, fieldImage) must be uploaded", ctx)
			return
		}
	}

	newInsurance := models.Insurance{
		UID:          uid,
		Provider:     provider,
		UIN:          uin,
		PolicyNumber: policyNumber,
		ClaimStatus:  models.ClaimStatusInstantiated,
		PolicyDoc:    *fileRefs["policyDoc"],
		DamageImage:  *fileRefs["damageImage"],
		CropImage:    *fileRefs["cropImage"],
		FieldImage:   *fileRefs["fieldImage"],
	}

	if err := storage.DB.Create(&newInsurance).Error; err != nil {
		log.Println("❌ Failed to persist insurance claim:", err)
		// Best-effort cleanup: without a claim row the uploads are unreachable.
		for _, ref := range fileRefs {
			if !storage.DeleteFile(*ref) {
				log.Println("⚠️ Failed to clean up upload", ref.PublicID)
			}
		}
		utils.CreateError(iris.StatusBadRequest, "Creation Error", "Failed to instantiate insurance", ctx)
		return
	}

	// Display name only; a missing user does not block the claim.
	var name string
	var userRecord models.User
	if err := storage.DB.Where("uid = ?", uid).First(&userRecord).Error; err == nil {
		name = userRecord.Name
	}

	// AI analysis failures degrade to "Not available" text in the email
	// rather than aborting the claim.
	payload := services.AI.GetDocScore(ctx.Request().Context(),
		newInsurance.DamageImage, newInsurance.CropImage, newInsurance.FieldImage)

	insurer, found := resolveInsurerByUIN(ctx.Request().Context(), uin)
	if !found || insurer.Email == "" {
		utils.CreateNotFound(ctx, "No matching insurer found for UIN prefix.")
		return
	}

	emailSent := services.Notifier.SendInsuranceClaimNotificationEmail(insurer.Email, newInsurance, payload, name)
	if !emailSent {
		utils.CreateError(iris.StatusInternalServerError, "Notification Error", "Failed to send insurance email.", ctx)
		return
	}

	if err := storage.DB.Model(&newInsurance).Update("claim_status", models.ClaimStatusSubmitted).Error; err != nil {
		log.Println("❌ Failed to mark claim submitted:", err)
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{
		"message": "Successfully instantiated insurance",
		"payLoad": payload,
	})
}

// resolveInsurerByUIN matches an insurer on the first three UIN characters,
// case-insensitive. The insurer directory is seeded out of band and changes
// rarely, so resolved prefixes are cached in Redis.
func resolveInsurerByUIN(ctx context.Context, uin string) (*models.InsuranceCompany, bool) {
	prefix := strings.ToUpper(uin)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}

	cacheKey := "insurer:" + prefix

	if storage.Redis != nil {
		if cached, err := storage.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var insurer models.InsuranceCompany
			if json.Unmarshal([]byte(cached), &insurer) == nil {
				return &insurer, true
			}
		}
	}

	var insurer models.InsuranceCompany
	if err := storage.DB.Where("uin_prefix = ?", prefix).First(&insurer).Error; err != nil {
		return nil, false
	}

	if storage.Redis != nil {
		if encoded, err := json.Marshal(insurer); err == nil {
			storage.Redis.Set(ctx, cacheKey, encoded, insurerCacheTTL)
		}
	}

	return &insurer, true
}

// UpdateInsurance applies a partial update to a claim record.
func UpdateInsurance(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateNotFound(ctx, "Insurance not found")
		return
	}

	var insurance models.Insurance
	if err := storage.DB.First(&insurance, id).Error; err != nil {
		utils.CreateNotFound(ctx, "Insurance not found")
		return
	}

	var input UpdateInsuranceInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	updates := map[string]interface{}{}
	if input.Provider != nil {
		updates["provider"] = *input.Provider
	}
	if input.UIN != nil {
		updates["uin"] = *input.UIN
	}
	if input.PolicyNumber != nil {
		updates["policy_number"] = *input.PolicyNumber
	}
	if input.ClaimStatus != nil {
		updates["claim_status"] = *input.ClaimStatus
	}

	if len(updates) > 0 {
		if err := storage.DB.Model(&insurance).Updates(updates).Error; err != nil {
			utils.CreateError(iris.StatusBadRequest, "Update Error", err.Error(), ctx)
			return
		}
	}

	storage.DB.First(&insurance, id)
	ctx.JSON(insurance)
}

type UpdateInsuranceInput struct {
	Provider     *string `json:"provider"`
	UIN          *string `json:"uin"`
	PolicyNumber *string `json:"policyNumber"`
	ClaimStatus  *string `json:"claimStatus" validate:"omitempty,oneof=instantiated submitted"`
}
