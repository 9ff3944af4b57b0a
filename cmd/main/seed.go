package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/qrcode"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	"gitlab.com/timkado/api/clinic-case-service/internal/usecase"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
)

const seedTimeout = 10 * time.Minute

type seedOptions struct {
	adminUsername string
	adminEmail    string
	adminPassword string
	franchises    int
	patients      int
	randomSeed    int64
}

func seedCmd(configPath *string) *cobra.Command {
	opts := seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account and demo franchises, doctors, patients and cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.adminPassword == "" {
				opts.adminPassword = os.Getenv("SEED_ADMIN_PASSWORD")
			}
			if opts.adminPassword == "" {
				return errors.New("--admin-password or SEED_ADMIN_PASSWORD is required")
			}

			cfg, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			repo, err := storage.NewPostgresRepo(cfg.Database.PostgresDSN, cfg.Database.PostgresAutoMigrate)
			if err != nil {
				return fmt.Errorf("failed to initialize postgres repository: %w", err)
			}
			ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
			defer cancel()
			defer func() { _ = repo.Close(ctx) }()

			s := newSeeder(storage.NewRepositories(repo), qrcode.NewGenerator(cfg.WhatsApp.Number), logger.Log)
			return s.run(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.adminUsername, "admin-username", "admin", "admin username")
	cmd.Flags().StringVar(&opts.adminEmail, "admin-email", "admin@example.com", "admin email")
	cmd.Flags().StringVar(&opts.adminPassword, "admin-password", "", "admin password (or SEED_ADMIN_PASSWORD)")
	cmd.Flags().IntVar(&opts.franchises, "franchises", 3, "demo franchises to create")
	cmd.Flags().IntVar(&opts.patients, "patients", 5, "demo patients per franchise")
	cmd.Flags().Int64Var(&opts.randomSeed, "random-seed", 0, "seed for the fake data generator (0 picks one)")
	return cmd
}

type seeder struct {
	users      *usecase.UserService
	franchises *usecase.FranchiseService
	doctors    *usecase.DoctorService
	patients   *usecase.PatientService
	cases      *usecase.CaseService
	plans      *usecase.TreatmentPlanService
	log        *zap.Logger
}

// newSeeder goes through the use cases so demo data obeys the same rules
// as API traffic. Nothing is notified or published.
func newSeeder(repos *storage.Repositories, generator *qrcode.Generator, log *zap.Logger) *seeder {
	cases := usecase.NewCaseService(repos.Cases, repos.QRCodes, repos.Doctors, nil, nil, usecase.CaseNotifyConfig{})
	return &seeder{
		users:      usecase.NewUserService(repos.Users),
		franchises: usecase.NewFranchiseService(repos.Franchises, generator),
		doctors:    usecase.NewDoctorService(repos.Doctors, repos.Users),
		patients:   usecase.NewPatientService(repos.Patients, repos.Franchises, repos.Cases, repos.TreatmentPlans, cases, nil, nil),
		cases:      cases,
		plans:      usecase.NewTreatmentPlanService(repos.TreatmentPlans, repos.Cases),
		log:        log,
	}
}

func (s *seeder) run(ctx context.Context, opts seedOptions) error {
	if opts.randomSeed != 0 {
		gofakeit.Seed(opts.randomSeed)
	}

	if _, err := s.users.Create(ctx, usecase.CreateUserInput{
		Username: opts.adminUsername,
		Email:    opts.adminEmail,
		Password: opts.adminPassword,
		Role:     model.RoleAdmin,
		Status:   model.UserStatusConfirmed,
	}); err != nil && !apperrors.IsDuplicateError(err) {
		return fmt.Errorf("seed admin: %w", err)
	}
	s.log.Info("Admin account ready", zap.String("email", opts.adminEmail))

	for i := 0; i < opts.franchises; i++ {
		if err := s.seedFranchise(ctx, opts.patients); err != nil {
			return err
		}
	}
	s.log.Info("Seed complete", zap.Int("franchises", opts.franchises), zap.Int("patients_per_franchise", opts.patients))
	return nil
}

func (s *seeder) seedFranchise(ctx context.Context, patients int) error {
	demo := model.NewFranchise()
	franchise, err := s.franchises.Create(ctx, usecase.FranchiseInput{
		Name:       demo.Name,
		Address:    demo.Address,
		City:       demo.City,
		State:      demo.State,
		PostalCode: demo.PostalCode,
		Country:    demo.Country,
		Phone:      demo.Phone,
		Email:      demo.Email,
	})
	if apperrors.IsDuplicateError(err) {
		s.log.Warn("Skipping duplicate demo franchise", zap.String("name", demo.Name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed franchise: %w", err)
	}

	doctor, err := s.doctors.Create(ctx, usecase.CreateDoctorInput{
		Name:      "Dr. " + gofakeit.Name(),
		Specialty: gofakeit.RandomString([]string{"General Medicine", "Dermatology", "Orthopedics", "Dentistry"}),
		Phone:     "+" + model.NewIndianPhone(),
		Username:  "dr" + gofakeit.LetterN(8),
		Email:     gofakeit.Email(),
		Password:  "Doctor" + gofakeit.DigitN(4),
	})
	if err != nil {
		return fmt.Errorf("seed doctor: %w", err)
	}

	for i := 0; i < patients; i++ {
		patient, err := s.patients.Create(ctx, usecase.CreatePatientInput{
			Firstname:   gofakeit.FirstName(),
			Lastname:    gofakeit.LastName(),
			Phone:       model.NewIndianPhone(),
			Email:       gofakeit.Email(),
			Age:         gofakeit.Number(1, 90),
			Gender:      gofakeit.RandomString([]string{"male", "female", "undisclosed"}),
			FranchiseID: franchise.ID,
		})
		if apperrors.IsDuplicateError(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed patient: %w", err)
		}
		if len(patient.Cases) == 0 {
			continue
		}
		if err := s.advanceCase(ctx, patient.Cases[0].ID, doctor.ID, i); err != nil {
			return err
		}
	}
	return nil
}

// advanceCase walks the i-th case a varying distance along its lifecycle so
// the dashboard has pending and completed cases.
func (s *seeder) advanceCase(ctx context.Context, caseID, doctorID string, i int) error {
	steps := i % 4
	if steps == 0 {
		return nil
	}
	if _, err := s.cases.AssignDoctor(ctx, caseID, doctorID); err != nil {
		return fmt.Errorf("seed assign doctor: %w", err)
	}
	if steps == 1 {
		return nil
	}
	cost := float64(gofakeit.Number(500, 20000))
	if _, err := s.plans.Create(ctx, usecase.CreateTreatmentPlanInput{
		CaseID:        caseID,
		DoctorID:      doctorID,
		Summary:       gofakeit.Sentence(6),
		Medication:    gofakeit.Word(),
		EstimatedCost: cost,
	}); err != nil {
		return fmt.Errorf("seed treatment plan: %w", err)
	}
	if _, err := s.cases.UpdateTreatmentPlan(ctx, caseID, cost); err != nil {
		return fmt.Errorf("seed case plan: %w", err)
	}
	if steps == 2 {
		return nil
	}
	if _, err := s.cases.ApproveCost(ctx, caseID); err != nil {
		return fmt.Errorf("seed approve cost: %w", err)
	}
	if _, err := s.cases.Complete(ctx, caseID); err != nil {
		return fmt.Errorf("seed complete case: %w", err)
	}
	return nil
}
