package calculator

import (
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// defaultMotors is the starter selection table for common sliding-gate
// automation motors, banded by gate weight.
var defaultMotors = []MotorModel{
	{Name: "DZ Light 300", Brand: "PPA", WeightMinKg: 0, WeightMaxKg: 300, Price: 650},
	{Name: "DZ Rio 500", Brand: "PPA", WeightMinKg: 300, WeightMaxKg: 500, Price: 890},
	{Name: "KDZ 700", Brand: "Garen", WeightMinKg: 500, WeightMaxKg: 700, Price: 1150},
	{Name: "DZ Hub 1000", Brand: "PPA", WeightMinKg: 700, WeightMaxKg: 1000, Price: 1680},
	{Name: "BV Jet Flex 1500", Brand: "Rossi", WeightMinKg: 1000, WeightMaxKg: 1500, Price: 2400},
	{Name: "Industrial 3000", Brand: "Peccinin", WeightMinKg: 1500, WeightMaxKg: 3000, Price: 4200},
}

// SeedMotors inserts the default motor table when it is empty.
func SeedMotors(db *gorm.DB) error {
	var count int64
	if err := db.Model(&MotorModel{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for i := range defaultMotors {
		defaultMotors[i].ID = uuid.New()
	}
	if err := db.Create(&defaultMotors).Error; err != nil {
		return err
	}
	slog.Info("motor models seeded", "count", len(defaultMotors))
	return nil
}
