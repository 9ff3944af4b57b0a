package storage

import "context"

// Repositories groups the per-entity views of one PostgresRepo so services
// depend only on the interface they need.
type Repositories struct {
	Users          UserRepo
	Tokens         TokenRepo
	Franchises     FranchiseRepo
	QRCodes        QRCodeRepo
	Patients       PatientRepo
	Cases          CaseRepo
	Doctors        DoctorRepo
	TreatmentPlans TreatmentPlanRepo
	Messages       MessageRepo
	Media          MediaRepo
	Dashboard      DashboardRepo

	postgres *PostgresRepo
}

// NewRepositories adapts the PostgresRepo to every repository interface.
func NewRepositories(postgres *PostgresRepo) *Repositories {
	return &Repositories{
		Users:          postgres,
		Tokens:         postgres,
		Franchises:     postgres,
		QRCodes:        postgres,
		Patients:       postgres,
		Cases:          postgres,
		Doctors:        postgres,
		TreatmentPlans: postgres,
		Messages:       postgres,
		Media:          postgres,
		Dashboard:      postgres,
		postgres:       postgres,
	}
}

// Ping reports database reachability for the readiness probe.
func (r *Repositories) Ping(ctx context.Context) error {
	return r.postgres.Ping(ctx)
}

// Close closes the shared connection pool.
func (r *Repositories) Close(ctx context.Context) error {
	return r.postgres.Close(ctx)
}

var (
	_ UserRepo          = (*PostgresRepo)(nil)
	_ TokenRepo         = (*PostgresRepo)(nil)
	_ FranchiseRepo     = (*PostgresRepo)(nil)
	_ QRCodeRepo        = (*PostgresRepo)(nil)
	_ PatientRepo       = (*PostgresRepo)(nil)
	_ CaseRepo          = (*PostgresRepo)(nil)
	_ DoctorRepo        = (*PostgresRepo)(nil)
	_ TreatmentPlanRepo = (*PostgresRepo)(nil)
	_ MessageRepo       = (*PostgresRepo)(nil)
	_ MediaRepo         = (*PostgresRepo)(nil)
	_ DashboardRepo     = (*PostgresRepo)(nil)
)
