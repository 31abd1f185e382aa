package config

import (
	"log"

	"gymdesk/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DemoCompanyID is the tenant the dev seeder writes to
const DemoCompanyID uint = 1

// SeedMasterData seeds a demo plan catalog and members (dev mode only)
func SeedMasterData(db *gorm.DB) error {
	if err := seedPlans(db); err != nil {
		return err
	}

	if err := seedMembers(db); err != nil {
		return err
	}

	log.Println("✅ Master data seeded successfully")
	return nil
}

func seedPlans(db *gorm.DB) error {
	plans := []models.MembershipPlan{
		{CompanyID: DemoCompanyID, Name: "Monthly", DurationMonths: 1, Price: decimal.NewFromInt(1500), IsActive: true},
		{CompanyID: DemoCompanyID, Name: "Quarterly", DurationMonths: 3, Price: decimal.NewFromInt(4000), IsActive: true},
		{CompanyID: DemoCompanyID, Name: "Half Yearly", DurationMonths: 6, Price: decimal.NewFromInt(7500), IsActive: true},
		{CompanyID: DemoCompanyID, Name: "Annual", DurationMonths: 12, Price: decimal.NewFromInt(13500), IsActive: true},
	}

	for _, p := range plans {
		var existing models.MembershipPlan
		if err := db.Where("company_id = ? AND name = ?", p.CompanyID, p.Name).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := db.Create(&p).Error; err != nil {
					return err
				}
				log.Printf("   Created plan: %s", p.Name)
			}
		}
	}
	return nil
}

func seedMembers(db *gorm.DB) error {
	members := []models.Member{
		{CompanyID: DemoCompanyID, FullName: "Demo Member", Email: "member@gymdesk.local", Phone: "0000000000"},
	}

	for _, m := range members {
		var existing models.Member
		if err := db.Where("company_id = ? AND email = ?", m.CompanyID, m.Email).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := db.Create(&m).Error; err != nil {
					return err
				}
				log.Printf("   Created member: %s", m.FullName)
			}
		}
	}
	return nil
}
