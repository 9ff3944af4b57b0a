package storage

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

var franchiseSortColumns = map[string]string{
	"name":      "name",
	"city":      "city",
	"state":     "state",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// CreateFranchiseWithQRCode inserts the franchise and its first QR code atomically.
func (r *PostgresRepo) CreateFranchiseWithQRCode(ctx context.Context, franchise *model.Franchise, qr *model.QRCode) error {
	return r.transaction(ctx, "create_with_qrcode", "franchise", func(tx *gorm.DB) error {
		if err := tx.Omit("QRCodes").Create(franchise).Error; err != nil {
			return err
		}
		qr.FranchiseID = franchise.ID
		return tx.Omit("Franchise").Create(qr).Error
	})
}

func (r *PostgresRepo) UpdateFranchise(ctx context.Context, franchise *model.Franchise) error {
	franchise.UpdatedAt = utils.Now()
	return r.write(ctx, "update", "franchise", func(db *gorm.DB) error {
		res := db.Model(&model.Franchise{}).Where("id = ?", franchise.ID).Updates(map[string]interface{}{
			"name":        franchise.Name,
			"address":     franchise.Address,
			"city":        franchise.City,
			"state":       franchise.State,
			"postal_code": franchise.PostalCode,
			"country":     franchise.Country,
			"phone":       franchise.Phone,
			"email":       franchise.Email,
			"updated_at":  franchise.UpdatedAt,
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

func (r *PostgresRepo) FindFranchiseByID(ctx context.Context, id string) (*model.Franchise, error) {
	var franchise model.Franchise
	err := r.read(ctx, "find_by_id", "franchise", func(db *gorm.DB) error {
		return db.Where("id = ?", id).First(&franchise).Error
	})
	if err != nil {
		return nil, err
	}
	return &franchise, nil
}

func (r *PostgresRepo) FindFranchiseConflict(ctx context.Context, name, email, phone, excludeID string) (*model.Franchise, error) {
	var ors []string
	var args []interface{}
	if name != "" {
		ors = append(ors, "lower(name) = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(name)))
	}
	if email != "" {
		ors = append(ors, "lower(email) = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(email)))
	}
	if phone != "" {
		ors = append(ors, "phone = ?")
		args = append(args, phone)
	}
	if len(ors) == 0 {
		return nil, nil
	}

	var franchise model.Franchise
	err := r.read(ctx, "find_conflict", "franchise", func(db *gorm.DB) error {
		q := db.Where(strings.Join(ors, " OR "), args...)
		if excludeID != "" {
			q = q.Where("id <> ?", excludeID)
		}
		return q.First(&franchise).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &franchise, nil
}

func (r *PostgresRepo) ListFranchises(ctx context.Context, filter FranchiseFilter) ([]model.Franchise, int64, error) {
	var franchises []model.Franchise
	var total int64
	err := r.read(ctx, "list", "franchise", func(db *gorm.DB) error {
		q := db.Model(&model.Franchise{}).Where("is_active = ?", true)
		if filter.Name != "" {
			q = q.Where("name ILIKE ?", contains(filter.Name))
		}
		if filter.City != "" {
			q = q.Where("city ILIKE ?", contains(filter.City))
		}
		if filter.State != "" {
			q = q.Where("state ILIKE ?", contains(filter.State))
		}
		q = q.Session(&gorm.Session{})
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		order := orderBy(filter.SortBy, filter.SortOrder, franchiseSortColumns, "createdAt")
		return paginate(q.Order(order), filter.Page).Find(&franchises).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return franchises, total, nil
}

func (r *PostgresRepo) DeactivateFranchise(ctx context.Context, id string) error {
	now := utils.Now()
	return r.write(ctx, "deactivate", "franchise", func(db *gorm.DB) error {
		res := db.Model(&model.Franchise{}).Where("id = ?", id).
			Updates(map[string]interface{}{"is_active": false, "deleted_at": now, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// --- QR Code Methods ---

func (r *PostgresRepo) CreateQRCode(ctx context.Context, qr *model.QRCode) error {
	return r.write(ctx, "create", "qrcode", func(db *gorm.DB) error {
		return db.Omit("Franchise").Create(qr).Error
	})
}

func (r *PostgresRepo) UpdateQRCode(ctx context.Context, qr *model.QRCode) error {
	qr.UpdatedAt = utils.Now()
	return r.write(ctx, "update", "qrcode", func(db *gorm.DB) error {
		res := db.Model(&model.QRCode{}).Where("id = ?", qr.ID).Updates(map[string]interface{}{
			"code":          qr.Code,
			"franchise_id":  qr.FranchiseID,
			"whatsapp_link": qr.WhatsappLink,
			"qr_image":      qr.QRImage,
			"updated_at":    qr.UpdatedAt,
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

func (r *PostgresRepo) FindQRCodeByID(ctx context.Context, id string) (*model.QRCode, error) {
	var qr model.QRCode
	err := r.read(ctx, "find_by_id", "qrcode", func(db *gorm.DB) error {
		return db.Preload("Franchise").Where("id = ?", id).First(&qr).Error
	})
	if err != nil {
		return nil, err
	}
	return &qr, nil
}

func (r *PostgresRepo) FindQRCodeByCode(ctx context.Context, code string) (*model.QRCode, error) {
	var qr model.QRCode
	err := r.read(ctx, "find_by_code", "qrcode", func(db *gorm.DB) error {
		return db.Preload("Franchise").Where("code = ?", code).First(&qr).Error
	})
	if err != nil {
		return nil, err
	}
	return &qr, nil
}

func (r *PostgresRepo) FindFirstQRCodeByFranchise(ctx context.Context, franchiseID string) (*model.QRCode, error) {
	var qrs []model.QRCode
	err := r.read(ctx, "find_first_by_franchise", "qrcode", func(db *gorm.DB) error {
		return db.Where("franchise_id = ?", franchiseID).Order("created_at ASC").Limit(1).Find(&qrs).Error
	})
	if err != nil {
		return nil, err
	}
	if len(qrs) == 0 {
		return nil, nil
	}
	return &qrs[0], nil
}

func (r *PostgresRepo) ListQRCodes(ctx context.Context) ([]model.QRCode, error) {
	var qrs []model.QRCode
	err := r.read(ctx, "list", "qrcode", func(db *gorm.DB) error {
		return db.Preload("Franchise").Where("is_active = ?", true).Order("created_at DESC").Find(&qrs).Error
	})
	if err != nil {
		return nil, err
	}
	return qrs, nil
}

func (r *PostgresRepo) DeactivateQRCode(ctx context.Context, id string) error {
	return r.write(ctx, "deactivate", "qrcode", func(db *gorm.DB) error {
		res := db.Model(&model.QRCode{}).Where("id = ?", id).
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
