package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-appointment-scheduling/internal/config"
	"github.com/hackgods/clinic-appointment-scheduling/internal/db"
	"github.com/hackgods/clinic-appointment-scheduling/internal/logging"
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var insurers = []string{
	"Unimed",
	"Bradesco Saude",
	"SulAmerica",
	"Amil",
	"Hapvida",
}

func main() {
	var (
		doctors  int
		patients int
		seed     int64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the directory with fake doctors and patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Env, cfg.LogLevel)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{
				MaxConns: cfg.DBMaxConns,
				MinConns: cfg.DBMinConns,
			})
			cancel()
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			faker := gofakeit.New(uint64(seed))

			bg := context.Background()
			if err := seedDoctors(bg, pool, faker, logger, doctors); err != nil {
				return fmt.Errorf("seed doctors: %w", err)
			}
			if err := seedPatients(bg, pool, faker, logger, patients); err != nil {
				return fmt.Errorf("seed patients: %w", err)
			}

			logger.Info().Msg("seed complete")
			return nil
		},
	}
	cmd.Flags().IntVar(&doctors, "doctors", 20, "number of doctors to create")
	cmd.Flags().IntVar(&patients, "patients", 2000, "number of patients to create")
	cmd.Flags().Int64Var(&seed, "seed", 0, "faker seed, 0 for time based")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, logger zerolog.Logger, count int) error {
	logger.Info().Int("count", count).Msg("seeding doctors")

	return db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		for i := 0; i < count; i++ {
			spec := specialties[faker.Number(0, len(specialties)-1)]
			_, err := tx.Exec(ctx, `
				INSERT INTO doctors (id, name, specialty, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, uuid.New(), "Dr. "+faker.Name(), spec)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, logger zerolog.Logger, count int) error {
	logger.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := min(offset+batchSize, count)

		err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
			for i := offset; i < end; i++ {
				p := fakePatient(faker)
				_, err := tx.Exec(ctx, `
					INSERT INTO patients (id, name, email, phone, has_insurance, insurance_name, insurance_number, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
				`, p.id, p.name, p.email, p.phone, p.hasInsurance, p.insuranceName, p.insuranceNumber)
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		logger.Info().Int("done", end).Int("total", count).Msg("patients seeded")
	}
	return nil
}

type patientRow struct {
	id              uuid.UUID
	name            string
	email           string
	phone           string
	hasInsurance    bool
	insuranceName   *string
	insuranceNumber *string
}

func fakePatient(faker *gofakeit.Faker) patientRow {
	p := patientRow{
		id:    uuid.New(),
		name:  faker.Name(),
		email: strings.ToLower(faker.Email()),
		phone: faker.Phone(),
	}
	// roughly two in three patients carry a plan
	if faker.Number(1, 3) > 1 {
		name := insurers[faker.Number(0, len(insurers)-1)]
		number := faker.Numerify("####.####.####")
		p.hasInsurance = true
		p.insuranceName = &name
		p.insuranceNumber = &number
	}
	return p
}
