package services

import (
	"testing"

	"github.com/uddalak2005/AgroSure/models"
	"github.com/uddalak2005/AgroSure/storage"

	qt "github.com/frankban/quicktest"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupBankDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Bank{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	storage.DB = db
}

func addBank(t *testing.T, branchCode string, lat, lng float64) {
	t.Helper()

	bank := models.Bank{
		Name:       "Bank " + branchCode,
		BranchCode: branchCode,
		Email:      branchCode + "@bank.example.com",
		Lat:        lat,
		Lng:        lng,
	}
	if err := storage.DB.Create(&bank).Error; err != nil {
		t.Fatalf("failed to seed bank: %v", err)
	}
}

func TestCalculateDistance(t *testing.T) {
	c := qt.New(t)

	// Howrah station to Esplanade, Kolkata: roughly 3.2 km.
	d := CalculateDistance(22.5839, 88.3434, 22.5626, 88.3509)
	c.Assert(d > 2000.0, qt.IsTrue)
	c.Assert(d < 4500.0, qt.IsTrue)

	c.Assert(CalculateDistance(22.57, 88.36, 22.57, 88.36), qt.Equals, 0.0)
}

func TestNearbyBanksFiltersByRadius(t *testing.T) {
	c := qt.New(t)
	setupBankDB(t)

	addBank(t, "NEAR1", 22.58, 88.37)  // ~1.5 km
	addBank(t, "NEAR2", 22.63, 88.40)  // ~8 km
	addBank(t, "FAR1", 22.75, 88.60)   // ~32 km
	addBank(t, "PATNA", 25.59, 85.13)  // ~540 km

	matches := NearbyBanks(22.57, 88.36, LoanSearchRadiusMeters)

	c.Assert(len(matches), qt.Equals, 2)
	for _, m := range matches {
		c.Assert(m.DistanceM <= int(LoanSearchRadiusMeters), qt.IsTrue)
	}
}

func TestNearbyBanksOrdersClosestFirst(t *testing.T) {
	c := qt.New(t)
	setupBankDB(t)

	addBank(t, "MID", 22.61, 88.39)
	addBank(t, "CLOSE", 22.575, 88.365)
	addBank(t, "EDGE", 22.64, 88.41)

	matches := NearbyBanks(22.57, 88.36, LoanSearchRadiusMeters)

	c.Assert(len(matches), qt.Equals, 3)
	c.Assert(matches[0].BranchCode, qt.Equals, "CLOSE")
	c.Assert(matches[1].BranchCode, qt.Equals, "MID")
	c.Assert(matches[2].BranchCode, qt.Equals, "EDGE")
	c.Assert(matches[0].DistanceM <= matches[1].DistanceM, qt.IsTrue)
	c.Assert(matches[1].DistanceM <= matches[2].DistanceM, qt.IsTrue)
}

func TestNearbyBanksEmpty(t *testing.T) {
	c := qt.New(t)
	setupBankDB(t)

	matches := NearbyBanks(22.57, 88.36, LoanSearchRadiusMeters)
	c.Assert(len(matches), qt.Equals, 0)
}
