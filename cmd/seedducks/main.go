// Seeds a small demo data set: a three-generation duck family, two customers
// and two employees. Safe to run repeatedly.
// Usage: go run ./cmd/seedducks
package main

import (
	"context"

	"github.com/FMABr/ducks-demo/internal/config"
	"github.com/FMABr/ducks-demo/internal/infra"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type seedDuck struct {
	id     int64
	name   string
	mother int64 // 0 = root
}

var ducks = []seedDuck{
	{1, "Matilda", 0},
	{2, "Dewey", 1},
	{3, "Huey", 1},
	{4, "Louie", 2},
	{5, "Daisy", 0},
	{6, "April", 5},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}

	err = db.WithContext(context.Background()).Transaction(func(tx *gorm.DB) error {
		for _, d := range ducks {
			var mother any
			if d.mother != 0 {
				mother = d.mother
			}
			if err := tx.Exec(`
				INSERT INTO ducks (id, name, mother_id, created_at, updated_at)
				VALUES (?, ?, ?, NOW(), NOW())
				ON CONFLICT (id) DO UPDATE
				SET name = EXCLUDED.name, mother_id = EXCLUDED.mother_id, updated_at = NOW()
			`, d.id, d.name, mother).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec(`
			INSERT INTO customers (id, name, has_sales_discount, created_at, updated_at)
			VALUES (1, 'Ana Lima', true, NOW(), NOW()), (2, 'Caio Reis', false, NOW(), NOW())
			ON CONFLICT (id) DO NOTHING
		`).Error; err != nil {
			return err
		}
		if err := tx.Exec(`
			INSERT INTO employees (id, name, fiscal_code, employee_code, created_at, updated_at)
			VALUES (1, 'Bruno Dias', '123.456.789-00', 'EMP-001', NOW(), NOW()),
			       (2, 'Dora Melo', '987.654.321-00', 'EMP-002', NOW(), NOW())
			ON CONFLICT DO NOTHING
		`).Error; err != nil {
			return err
		}
		// explicit ids bypass the sequences; move them past the seeded rows
		for _, table := range []string{"ducks", "customers", "employees"} {
			if err := tx.Exec(`SELECT setval(pg_get_serial_sequence(?, 'id'), (SELECT COALESCE(MAX(id), 1) FROM ` + table + `))`, table).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Int("ducks", len(ducks)).Msg("demo data seeded")
}
