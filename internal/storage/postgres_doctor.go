package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

// CreateDoctorWithUser inserts the login account and the doctor profile together.
func (r *PostgresRepo) CreateDoctorWithUser(ctx context.Context, user *model.User, doctor *model.Doctor) error {
	return r.transaction(ctx, "create_with_user", "doctor", func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		doctor.UserID = user.ID
		return tx.Omit(clause.Associations).Create(doctor).Error
	})
}

// UpdateDoctorWithUser writes the doctor profile and, when user is not nil,
// the linked account.
func (r *PostgresRepo) UpdateDoctorWithUser(ctx context.Context, doctor *model.Doctor, user *model.User) error {
	now := utils.Now()
	return r.transaction(ctx, "update_with_user", "doctor", func(tx *gorm.DB) error {
		res := tx.Model(&model.Doctor{}).Where("id = ?", doctor.ID).Updates(map[string]interface{}{
			"name":       doctor.Name,
			"specialty":  doctor.Specialty,
			"phone":      doctor.Phone,
			"updated_at": now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if user == nil {
			return nil
		}
		return tx.Model(&model.User{}).Where("id = ?", doctor.UserID).Updates(map[string]interface{}{
			"username":   user.Username,
			"email":      user.Email,
			"phone":      user.Phone,
			"password":   user.Password,
			"updated_at": now,
		}).Error
	})
}

func (r *PostgresRepo) FindDoctorByID(ctx context.Context, id string) (*model.Doctor, error) {
	var doctor model.Doctor
	err := r.read(ctx, "find_by_id", "doctor", func(db *gorm.DB) error {
		return db.Preload("User").Where("id = ?", id).First(&doctor).Error
	})
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (r *PostgresRepo) ListDoctors(ctx context.Context, filter DoctorFilter) ([]model.Doctor, int64, error) {
	var doctors []model.Doctor
	var total int64
	err := r.read(ctx, "list", "doctor", func(db *gorm.DB) error {
		q := db.Model(&model.Doctor{}).Where("is_active = ?", true)
		if filter.Specialty != "" {
			q = q.Where("specialty ILIKE ?", contains(filter.Specialty))
		}
		q = q.Session(&gorm.Session{})
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return paginate(q.Preload("User").Order("name ASC"), filter.Page).Find(&doctors).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return doctors, total, nil
}

func (r *PostgresRepo) DeactivateDoctor(ctx context.Context, id string) error {
	return r.write(ctx, "deactivate", "doctor", func(db *gorm.DB) error {
		res := db.Model(&model.Doctor{}).Where("id = ?", id).
			Updates(map[string]interface{}{"is_active": false, "updated_at": utils.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// DeleteDoctor deactivates the profile and soft-deletes the account.
func (r *PostgresRepo) DeleteDoctor(ctx context.Context, id string) error {
	now := utils.Now()
	return r.transaction(ctx, "delete", "doctor", func(tx *gorm.DB) error {
		var doctor model.Doctor
		if err := tx.Where("id = ?", id).First(&doctor).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Doctor{}).Where("id = ?", id).
			Updates(map[string]interface{}{"is_active": false, "updated_at": now}).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).Where("id = ?", doctor.UserID).
			Updates(map[string]interface{}{"deleted_at": now, "updated_at": now}).Error
	})
}
