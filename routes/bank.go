package routes

import (
	"github.com/uddalak2005/AgroSure/services"
	"github.com/uddalak2005/AgroSure/utils"

	"github.com/kataras/iris/v12"
)

// GetNearbyBanks exposes the proximity search the loan flow uses: every bank
// within 10 km of the given point, closest first.
func GetNearbyBanks(ctx iris.Context) {
	lat, latErr := ctx.URLParamFloat64("lat")
	lng, lngErr := ctx.URLParamFloat64("lng")
	if latErr != nil || lngErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "lat and lng query params are required", ctx)
		return
	}

	banks := services.NearbyBanks(lat, lng, services.LoanSearchRadiusMeters)
	ctx.JSON(iris.Map{"banks": banks, "count": len(banks)})
}
