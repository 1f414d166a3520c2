package routes

import (
	"testing"

	"github.com/kataras/iris/v12"
)

func TestGetNearbyBanks(t *testing.T) {
	setupTestDB(t)
	e := newTestApp(t)

	seedBank(t, "KOL001", 22.58, 88.37)
	seedBank(t, "PAT001", 25.59, 85.13)

	body := e.GET("/bank/nearby").
		WithQuery("lat", 22.57).WithQuery("lng", 88.36).
		Expect().Status(iris.StatusOK).
		JSON().Object()

	body.HasValue("count", 1)
	body.Value("banks").Array().Value(0).Object().
		HasValue("branchCode", "KOL001")
}

func TestGetNearbyBanksMissingParams(t *testing.T) {
	setupTestDB(t)
	e := newTestApp(t)

	e.GET("/bank/nearby").WithQuery("lat", 22.57).
		Expect().Status(iris.StatusBadRequest).
		JSON().Object().HasValue("message", "lat and lng query params are required")
}
