package integration_test

import (
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
)

func (s *ClinicIntegrationSuite) TestMigrateCreatesSchema() {
	for _, table := range tablesToTruncate {
		s.Equal(1, s.CountRows(
			"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1", table),
			"table %s should exist", table)
	}
	for _, index := range []string{"idx_users_email_lower", "idx_cases_pending", "idx_cases_patient_franchise"} {
		s.Equal(1, s.CountRows("SELECT COUNT(*) FROM pg_indexes WHERE indexname = $1", index), "index %s should exist", index)
	}
}

func (s *ClinicIntegrationSuite) TestMigrateIsIdempotent() {
	repo, err := storage.NewPostgresRepo(s.PostgresDSN, false)
	s.Require().NoError(err)
	defer func() { _ = repo.Close(s.Ctx) }()

	s.Require().NoError(repo.Migrate(s.Ctx))
	s.Require().NoError(repo.Migrate(s.Ctx))
	s.Require().NoError(repo.Ping(s.Ctx))
}
