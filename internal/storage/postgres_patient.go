package storage

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

var patientSortColumns = map[string]string{
	"firstname": "firstname",
	"lastname":  "lastname",
	"fullname":  "fullname",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"age":       "age",
}

func (r *PostgresRepo) FindPatientByPhone(ctx context.Context, phone string) (*model.Patient, error) {
	var patients []model.Patient
	err := r.read(ctx, "find_by_phone", "patient", func(db *gorm.DB) error {
		return db.Where("phone = ?", phone).Limit(1).Find(&patients).Error
	})
	if err != nil {
		return nil, err
	}
	if len(patients) == 0 {
		return nil, nil
	}
	return &patients[0], nil
}

func (r *PostgresRepo) FindPatientByID(ctx context.Context, id string) (*model.Patient, error) {
	var patient model.Patient
	err := r.read(ctx, "find_by_id", "patient", func(db *gorm.DB) error {
		return db.Where("id = ?", id).First(&patient).Error
	})
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

// FindPatientDetails loads the patient with franchise, cases (plans and
// payments), messages and medical history.
func (r *PostgresRepo) FindPatientDetails(ctx context.Context, id string) (*model.Patient, error) {
	var patient model.Patient
	err := r.read(ctx, "find_details", "patient", func(db *gorm.DB) error {
		return db.
			Preload("Franchise").
			Preload("Cases", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
			Preload("Cases.TreatmentPlans").
			Preload("Cases.TreatmentPlans.Payments").
			Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
			Preload("MedicalHistory").
			Where("id = ?", id).
			First(&patient).Error
	})
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *PostgresRepo) ProvisionPatient(ctx context.Context, patient *model.Patient) (*ProvisionResult, error) {
	var result *ProvisionResult
	err := r.transaction(ctx, "provision", "patient", func(tx *gorm.DB) error {
		result = &ProvisionResult{}

		insert := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "phone"}}, DoNothing: true}).
			Create(patient)
		if insert.Error != nil {
			return insert.Error
		}

		if insert.RowsAffected == 0 {
			// Lost the race on phone; hand back the winner.
			var existing model.Patient
			if err := tx.Where("phone = ?", patient.Phone).First(&existing).Error; err != nil {
				return err
			}
			result.Patient = &existing
			return nil
		}

		result.Patient = patient
		result.Created = true

		var qrs []model.QRCode
		if err := tx.Where("franchise_id = ?", patient.FranchiseID).Order("created_at ASC").Limit(1).Find(&qrs).Error; err != nil {
			return err
		}
		if len(qrs) == 0 {
			return nil
		}

		followUp := utils.Now()
		c := &model.Case{
			QRCodeID:       qrs[0].ID,
			FranchiseID:    patient.FranchiseID,
			PatientID:      &patient.ID,
			Status:         model.CaseStatusNew,
			MedicationCost: 0,
			FollowUpDate:   &followUp,
		}
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			return err
		}
		result.Case = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdatePatientAndCase applies patientFields to the patient and the
// description to the case in one transaction.
func (r *PostgresRepo) UpdatePatientAndCase(ctx context.Context, patientID, caseID string, patientFields map[string]interface{}, description string) error {
	return r.transaction(ctx, "update_with_case", "patient", func(tx *gorm.DB) error {
		now := utils.Now()
		fields := make(map[string]interface{}, len(patientFields)+1)
		for k, v := range patientFields {
			fields[k] = v
		}
		fields["updated_at"] = now

		res := tx.Model(&model.Patient{}).Where("id = ?", patientID).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		res = tx.Model(&model.Case{}).Where("id = ? AND patient_id = ?", caseID, patientID).
			Updates(map[string]interface{}{"description": description, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *PostgresRepo) ListPatients(ctx context.Context, filter PatientFilter) ([]model.Patient, int64, error) {
	var patients []model.Patient
	var total int64
	err := r.read(ctx, "list", "patient", func(db *gorm.DB) error {
		q := db.Model(&model.Patient{})

		var ors []string
		var args []interface{}
		for _, f := range []struct{ column, value string }{
			{"firstname", filter.Firstname},
			{"lastname", filter.Lastname},
			{"fullname", filter.Fullname},
			{"email", filter.Email},
			{"phone", filter.Phone},
		} {
			column, value := f.column, f.value
			if strings.TrimSpace(value) == "" {
				continue
			}
			ors = append(ors, column+" ILIKE ?")
			args = append(args, contains(value))
		}
		if len(ors) > 0 {
			q = q.Where(strings.Join(ors, " OR "), args...)
		}
		if filter.AgeMin != nil {
			q = q.Where("age >= ?", *filter.AgeMin)
		}
		if filter.AgeMax != nil {
			q = q.Where("age <= ?", *filter.AgeMax)
		}
		if filter.FranchiseID != "" {
			q = q.Where("franchise_id = ?", filter.FranchiseID)
		}
		if filter.CreatedFrom != nil {
			q = q.Where("created_at >= ?", *filter.CreatedFrom)
		}
		if filter.CreatedTo != nil {
			q = q.Where("created_at <= ?", *filter.CreatedTo)
		}

		q = q.Session(&gorm.Session{})
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		order := orderBy(filter.SortBy, filter.SortOrder, patientSortColumns, "createdAt")
		return paginate(q.Preload("Franchise").Order(order), filter.Page).Find(&patients).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

// --- Message Methods ---

func (r *PostgresRepo) SaveMessage(ctx context.Context, message *model.Message) error {
	return r.write(ctx, "create", "message", func(db *gorm.DB) error {
		return db.Create(message).Error
	})
}

func (r *PostgresRepo) MessageExists(ctx context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return false, nil
	}
	var count int64
	err := r.read(ctx, "exists", "message", func(db *gorm.DB) error {
		return db.Model(&model.Message{}).Where("message_id = ?", messageID).Count(&count).Error
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
