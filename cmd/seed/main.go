package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/uddalak2005/AgroSure/models"
	"github.com/uddalak2005/AgroSure/storage"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm/clause"
)

// Seeds the bank and insurer directories from YAML fixtures. Both directories
// are administered out of band and read-only in the request flows.

type bankFixture struct {
	Name       string  `yaml:"name"`
	BranchCode string  `yaml:"branchCode"`
	Email      string  `yaml:"email"`
	Phone      string  `yaml:"phone"`
	Address    string  `yaml:"address"`
	Lat        float64 `yaml:"lat"`
	Lng        float64 `yaml:"lng"`
}

type insurerFixture struct {
	Name                      string   `yaml:"name"`
	UINPrefix                 string   `yaml:"uinPrefix"`
	Email                     string   `yaml:"email"`
	Phone                     string   `yaml:"phone"`
	Website                   string   `yaml:"website"`
	SupportedCrops            []string `yaml:"supportedCrops"`
	ClaimProcessingTimeInDays int      `yaml:"claimProcessingTimeInDays"`
	Notes                     string   `yaml:"notes"`
}

var (
	banksFile    string
	insurersFile string
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the AgroSure bank and insurer directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		godotenv.Load()
		storage.InitializeDB()

		if banksFile != "" {
			if err := seedBanks(banksFile); err != nil {
				return err
			}
		}
		if insurersFile != "" {
			if err := seedInsurers(insurersFile); err != nil {
				return err
			}
		}
		if banksFile == "" && insurersFile == "" {
			return fmt.Errorf("nothing to do: pass --banks and/or --insurers")
		}

		color.Green("✔ seeding complete")
		return nil
	},
}

func seedBanks(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var fixtures []bankFixture
	if err := yaml.Unmarshal(raw, &fixtures); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	for _, fx := range fixtures {
		bank := models.Bank{
			Name:       fx.Name,
			BranchCode: fx.BranchCode,
			Email:      strings.ToLower(fx.Email),
			Phone:      fx.Phone,
			Address:    fx.Address,
			Lat:        fx.Lat,
			Lng:        fx.Lng,
		}
		result := storage.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "branch_code"}},
			DoNothing: true,
		}).Create(&bank)
		if result.Error != nil {
			color.Red("✘ bank %s: %v", fx.BranchCode, result.Error)
			continue
		}
		if result.RowsAffected == 0 {
			color.Yellow("– bank %s already present", fx.BranchCode)
			continue
		}
		color.Green("✔ bank %s (%s)", fx.Name, fx.BranchCode)
	}

	return nil
}

func seedInsurers(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var fixtures []insurerFixture
	if err := yaml.Unmarshal(raw, &fixtures); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	for _, fx := range fixtures {
		crops, err := json.Marshal(fx.SupportedCrops)
		if err != nil {
			return err
		}

		processingDays := fx.ClaimProcessingTimeInDays
		if processingDays == 0 {
			processingDays = 15
		}

		insurer := models.InsuranceCompany{
			Name:                      fx.Name,
			UINPrefix:                 strings.ToUpper(fx.UINPrefix),
			Email:                     strings.ToLower(fx.Email),
			Phone:                     fx.Phone,
			Website:                   fx.Website,
			SupportedCrops:            crops,
			ClaimProcessingTimeInDays: processingDays,
			Notes:                     fx.Notes,
		}
		result := storage.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&insurer)
		if result.Error != nil {
			color.Red("✘ insurer %s: %v", fx.Name, result.Error)
			continue
		}
		if result.RowsAffected == 0 {
			color.Yellow("– insurer %s already present", fx.Name)
			continue
		}
		color.Green("✔ insurer %s (prefix %s)", fx.Name, insurer.UINPrefix)
	}

	return nil
}

func main() {
	rootCmd.Flags().StringVar(&banksFile, "banks", "", "YAML file with bank branches")
	rootCmd.Flags().StringVar(&insurersFile, "insurers", "", "YAML file with insurance companies")

	if err := rootCmd.Execute(); err != nil {
		color.Red("✘ %v", err)
		os.Exit(1)
	}
}
