package storage

import (
	"log"
	"os"

	"github.com/uddalak2005/AgroSure/models"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func connectToDB() *gorm.DB {
	// Only load .env in development (when RENDER env var is not set)
	if os.Getenv("RENDER") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Could not load .env file (this is normal in production)")
		}
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		// Local development fallback: file-backed sqlite, same schema.
		log.Println("⚠️  DB_CONNECTION_STRING not set, falling back to sqlite ./agrosure.db")
		db, dbError := gorm.Open(sqlite.Open("agrosure.db"), &gorm.Config{})
		if dbError != nil {
			log.Panic("error connecting to sqlite: " + dbError.Error())
		}
		DB = db
		return db
	}

	db, dbError := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if dbError != nil {
		log.Panic("error connection to db: " + dbError.Error())
	}

	DB = db
	return db
}

func performMigrations(db *gorm.DB) {
	db.AutoMigrate(
		&models.User{},
		&models.Crop{},
		&models.Loan{},
		&models.Insurance{},
		&models.Bank{},
		&models.InsuranceCompany{},
	)
}

func InitializeDB() *gorm.DB {
	db := connectToDB()
	performMigrations(db)
	return db
}
