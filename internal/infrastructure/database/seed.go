package database

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/printforge/printforge/internal/adapters/persistence"
)

// Material families and colors every deployment starts with. Codes are
// stable; inserting is idempotent so migration can run on every start.
var defaultMaterialTypes = []struct{ code, name string }{
	{"PLA", "Polylactic acid"},
	{"PETG", "Polyethylene terephthalate glycol"},
	{"ABS", "Acrylonitrile butadiene styrene"},
	{"ASA", "Acrylonitrile styrene acrylate"},
	{"TPU", "Thermoplastic polyurethane"},
	{"PC", "Polycarbonate"},
	{"PA", "Nylon"},
}

var defaultColors = []struct{ code, name string }{
	{"BLK", "Black"},
	{"WHT", "White"},
	{"GRY", "Grey"},
	{"RED", "Red"},
	{"BLU", "Blue"},
	{"GRN", "Green"},
	{"YLW", "Yellow"},
	{"ORG", "Orange"},
	{"NAT", "Natural"},
}

// SeedMaterialCatalog inserts the default material types and colors,
// skipping codes that already exist.
func SeedMaterialCatalog(db *gorm.DB) error {
	for _, mt := range defaultMaterialTypes {
		model := persistence.MaterialTypeModel{ID: uuid.New().String(), Code: mt.code, Name: mt.name}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&model).Error
		if err != nil {
			return fmt.Errorf("failed to seed material type %s: %w", mt.code, err)
		}
	}
	for _, c := range defaultColors {
		model := persistence.ColorModel{ID: uuid.New().String(), Code: c.code, Name: c.name}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&model).Error
		if err != nil {
			return fmt.Errorf("failed to seed color %s: %w", c.code, err)
		}
	}
	return nil
}
