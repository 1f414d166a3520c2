package routes

import (
	"encoding/json"
	"log"

	"github.com/uddalak2005/AgroSure/models"
	"github.com/uddalak2005/AgroSure/storage"
	"github.com/uddalak2005/AgroSure/utils"

	"github.com/kataras/iris/v12"
)

// Register creates a farmer profile keyed by the external identity uid. The
// profile is effectively immutable after registration.
func Register(ctx iris.Context) {
	var userInput RegisterUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Missing or invalid fields", ctx)
		return
	}

	cropsJSON, err := json.Marshal(userInput.Crops)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	newUser := models.User{
		UID:           userInput.UID,
		Name:          userInput.Name,
		Email:         userInput.Email,
		Phone:         userInput.Phone,
		TotalLand:     *userInput.TotalLand,
		Crops:         cropsJSON,
		IsSmallFarmer: *userInput.TotalLand < 5,
		Aadhar:        userInput.Aadhar,
		LocationLat:   *userInput.LocationLat,
		LocationLong:  *userInput.LocationLong,
	}

	if err := storage.DB.Create(&newUser).Error; err != nil {
		log.Println("❌ Error registering user:", err)
		utils.CreateError(iris.StatusBadRequest, "Registration Error", "Unable to register user", ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"message": "User registered successfully!"})
}

// GetUserByUID serves the farmer dashboard lookup.
func GetUserByUID(ctx iris.Context) {
	uid := ctx.Params().Get("uid")
	if uid == "" {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "UID is required", ctx)
		return
	}

	if !utils.UIDAllowed(ctx, uid) {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	var user models.User
	if err := storage.DB.Where("uid = ?", uid).First(&user).Error; err != nil {
		utils.CreateError(iris.StatusBadRequest, "Not Found", "User not found", ctx)
		return
	}

	ctx.JSON(iris.Map{"user": user})
}

type RegisterUserInput struct {
	UID          string   `json:"uid" validate:"required"`
	Email        string   `json:"email" validate:"required,email"`
	Name         string   `json:"name" validate:"required"`
	Phone        string   `json:"phone" validate:"required"`
	TotalLand    *float64 `json:"totalLand" validate:"required"`
	LocationLat  *float64 `json:"locationLat" validate:"required"`
	LocationLong *float64 `json:"locationLong" validate:"required"`
	Aadhar       int64    `json:"aadhar" validate:"required"`
	Crops        []string `json:"crops" validate:"required"`
}
