package storage

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"gitlab.com/timkado/api/clinic-case-service/internal/model"
)

const (
	firstPlanSQL = `SELECT c.id AS case_id, c.created_at AS case_created_at, MIN(tp.created_at) AS first_plan_at
FROM cases c
JOIN treatment_plans tp ON tp.case_id = c.id
GROUP BY c.id, c.created_at
HAVING MIN(tp.created_at) >= ?`

	patientStatesSQL = `SELECT COALESCE(f.state, '') FROM patients p JOIN franchises f ON f.id = p.franchise_id`

	caseCountriesSQL = `SELECT c.id AS case_id, COALESCE(f.country, '') AS country, c.created_at
FROM cases c
JOIN franchises f ON f.id = c.franchise_id`
)

// LoadDashboardFacts runs the fact queries concurrently. Any failure cancels
// the rest.
func (r *PostgresRepo) LoadDashboardFacts(ctx context.Context, windowStart, yearStart time.Time) (*model.DashboardFacts, error) {
	facts := &model.DashboardFacts{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.read(gctx, "count_total", "case", func(db *gorm.DB) error {
			return db.Model(&model.Case{}).Count(&facts.TotalCases).Error
		})
	})
	g.Go(func() error {
		return r.read(gctx, "count_active", "franchise", func(db *gorm.DB) error {
			return db.Model(&model.Franchise{}).Where("is_active = ?", true).Count(&facts.ActiveFranchises).Error
		})
	})
	g.Go(func() error {
		return r.read(gctx, "count_pending", "case", func(db *gorm.DB) error {
			return db.Model(&model.Case{}).Where("status IN ?", model.PendingCaseStatuses).Count(&facts.PendingCases).Error
		})
	})
	g.Go(func() error {
		return r.read(gctx, "window_facts", "case", func(db *gorm.DB) error {
			return db.Model(&model.Case{}).Select("created_at, status").
				Where("created_at >= ?", windowStart).Scan(&facts.Cases).Error
		})
	})
	g.Go(func() error {
		return r.read(gctx, "window_facts", "franchise", func(db *gorm.DB) error {
			return db.Model(&model.Franchise{}).Where("created_at >= ?", windowStart).
				Pluck("created_at", &facts.FranchiseCreated).Error
		})
	})
	g.Go(func() error {
		return r.read(gctx, "window_facts", "patient", func(db *gorm.DB) error {
			return db.Model(&model.Patient{}).Where("created_at >= ?", windowStart).
				Pluck("created_at", &facts.PatientCreated).Error
		})
	})
	g.Go(func() error {
		return r.read(gctx, "first_plans", "treatment_plan", func(db *gorm.DB) error {
			return db.Raw(firstPlanSQL, windowStart).Scan(&facts.FirstPlans).Error
		})
	})
	g.Go(func() error {
		return r.read(gctx, "states", "patient", func(db *gorm.DB) error {
			return db.Raw(patientStatesSQL).Scan(&facts.PatientStates).Error
		})
	})
	g.Go(func() error {
		return r.read(gctx, "countries", "case", func(db *gorm.DB) error {
			return db.Raw(caseCountriesSQL).Scan(&facts.CaseCountries).Error
		})
	})
	g.Go(func() error {
		return r.read(gctx, "completed", "treatment_plan", func(db *gorm.DB) error {
			return db.Model(&model.TreatmentPlan{}).Select("case_id, created_at").
				Where("status = ? AND created_at >= ?", model.PlanStatusCompleted, yearStart).
				Scan(&facts.CompletedPlans).Error
		})
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return facts, nil
}
