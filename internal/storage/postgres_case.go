package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

// --- Case Repository Methods ---

func (r *PostgresRepo) CreateCase(ctx context.Context, c *model.Case) error {
	return r.write(ctx, "create", "case", func(db *gorm.DB) error {
		return db.Omit(clause.Associations).Create(c).Error
	})
}

func (r *PostgresRepo) FindCaseByID(ctx context.Context, id string) (*model.Case, error) {
	var c model.Case
	err := r.read(ctx, "find_by_id", "case", func(db *gorm.DB) error {
		return db.
			Preload("Franchise").
			Preload("QRCode").
			Preload("Patient").
			Preload("Doctor").
			Preload("TreatmentPlans", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
			Preload("TreatmentPlans.Payments").
			Preload("Medias").
			Where("id = ?", id).
			First(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindFirstCase returns the patient's oldest case at franchiseID, or nil.
func (r *PostgresRepo) FindFirstCase(ctx context.Context, patientID, franchiseID string) (*model.Case, error) {
	var cases []model.Case
	err := r.read(ctx, "find_first", "case", func(db *gorm.DB) error {
		return db.Where("patient_id = ? AND franchise_id = ?", patientID, franchiseID).
			Order("created_at ASC").Limit(1).Find(&cases).Error
	})
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, nil
	}
	return &cases[0], nil
}

// ListCases returns cases newest first, optionally restricted to one status.
func (r *PostgresRepo) ListCases(ctx context.Context, status string) ([]model.Case, error) {
	var cases []model.Case
	err := r.read(ctx, "list", "case", func(db *gorm.DB) error {
		q := db.Preload("Franchise").Preload("Patient").Preload("Doctor")
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q.Order("created_at DESC").Find(&cases).Error
	})
	if err != nil {
		return nil, err
	}
	return cases, nil
}

func (r *PostgresRepo) UpdateCaseFields(ctx context.Context, id string, fields map[string]interface{}) error {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = utils.Now()

	return r.write(ctx, "update", "case", func(db *gorm.DB) error {
		res := db.Model(&model.Case{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// --- Treatment Plan Methods ---

func (r *PostgresRepo) CreateTreatmentPlan(ctx context.Context, plan *model.TreatmentPlan, caseStatus model.CaseStatus) error {
	return r.transaction(ctx, "create", "treatment_plan", func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(plan).Error; err != nil {
			return err
		}
		if caseStatus == "" {
			return nil
		}
		res := tx.Model(&model.Case{}).Where("id = ?", plan.CaseID).
			Updates(map[string]interface{}{"status": caseStatus, "updated_at": utils.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *PostgresRepo) FindTreatmentPlanByID(ctx context.Context, id string) (*model.TreatmentPlan, error) {
	var plan model.TreatmentPlan
	err := r.read(ctx, "find_by_id", "treatment_plan", func(db *gorm.DB) error {
		return db.Preload("Payments").Where("id = ?", id).First(&plan).Error
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PostgresRepo) ListTreatmentPlans(ctx context.Context, filter TreatmentPlanFilter) ([]model.TreatmentPlan, int64, error) {
	var plans []model.TreatmentPlan
	var total int64
	err := r.read(ctx, "list", "treatment_plan", func(db *gorm.DB) error {
		q := db.Model(&model.TreatmentPlan{})
		if filter.CaseID != "" {
			q = q.Where("case_id = ?", filter.CaseID)
		}
		if filter.DoctorID != "" {
			q = q.Where("doctor_id = ?", filter.DoctorID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		q = q.Session(&gorm.Session{})
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return paginate(q.Order("created_at DESC"), filter.Page).Find(&plans).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return plans, total, nil
}

func (r *PostgresRepo) UpdateTreatmentPlan(ctx context.Context, plan *model.TreatmentPlan) error {
	plan.UpdatedAt = utils.Now()
	return r.write(ctx, "update", "treatment_plan", func(db *gorm.DB) error {
		res := db.Model(&model.TreatmentPlan{}).Where("id = ?", plan.ID).Updates(map[string]interface{}{
			"summary":        plan.Summary,
			"medication":     plan.Medication,
			"estimated_cost": plan.EstimatedCost,
			"status":         plan.Status,
			"updated_at":     plan.UpdatedAt,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *PostgresRepo) DeleteTreatmentPlan(ctx context.Context, id string) error {
	return r.transaction(ctx, "delete", "treatment_plan", func(tx *gorm.DB) error {
		if err := tx.Where("treatment_plan_id = ?", id).Delete(&model.Payment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.TreatmentPlan{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
