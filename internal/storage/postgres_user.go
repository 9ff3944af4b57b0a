package storage

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

// --- User Repository Methods ---

func (r *PostgresRepo) CreateUser(ctx context.Context, user *model.User) error {
	return r.write(ctx, "create", "user", func(db *gorm.DB) error {
		return db.Create(user).Error
	})
}

func (r *PostgresRepo) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = utils.Now()
	return r.write(ctx, "update", "user", func(db *gorm.DB) error {
		return db.Model(&model.User{}).Where("id = ? AND deleted_at IS NULL", user.ID).Updates(map[string]interface{}{
			"username":   user.Username,
			"email":      user.Email,
			"phone":      user.Phone,
			"password":   user.Password,
			"role":       user.Role,
			"status":     user.Status,
			"avatar":     user.Avatar,
			"updated_at": user.UpdatedAt,
		}).Error
	})
}

func (r *PostgresRepo) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.read(ctx, "find_by_id", "user", func(db *gorm.DB) error {
		return db.Where("id = ? AND deleted_at IS NULL", id).First(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresRepo) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.read(ctx, "find_by_email", "user", func(db *gorm.DB) error {
		return db.Where("lower(email) = ? AND deleted_at IS NULL", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresRepo) FindUserConflict(ctx context.Context, username, email, phone, excludeID string) (*model.User, error) {
	var ors []string
	var args []interface{}
	if username != "" {
		ors = append(ors, "username = ?")
		args = append(args, username)
	}
	if email != "" {
		ors = append(ors, "lower(email) = ?")
		args = append(args, strings.ToLower(email))
	}
	if phone != "" {
		ors = append(ors, "phone = ?")
		args = append(args, phone)
	}
	if len(ors) == 0 {
		return nil, nil
	}

	var user model.User
	err := r.read(ctx, "find_conflict", "user", func(db *gorm.DB) error {
		q := db.Where("deleted_at IS NULL").Where(strings.Join(ors, " OR "), args...)
		if excludeID != "" {
			q = q.Where("id <> ?", excludeID)
		}
		return q.First(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *PostgresRepo) ListUsers(ctx context.Context, filter UserFilter) ([]model.User, int64, error) {
	var users []model.User
	var total int64
	err := r.read(ctx, "list", "user", func(db *gorm.DB) error {
		q := db.Model(&model.User{}).Where("deleted_at IS NULL")
		if filter.Username != "" {
			q = q.Where("username ILIKE ?", contains(filter.Username))
		}
		if filter.Email != "" {
			q = q.Where("email ILIKE ?", contains(filter.Email))
		}
		if filter.Role != "" {
			q = q.Where("role = ?", filter.Role)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		q = q.Session(&gorm.Session{})
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return paginate(q.Order("created_at DESC"), filter.Page).Find(&users).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *PostgresRepo) SoftDeleteUser(ctx context.Context, id string) error {
	return r.write(ctx, "soft_delete", "user", func(db *gorm.DB) error {
		res := db.Model(&model.User{}).Where("id = ? AND deleted_at IS NULL", id).
			Updates(map[string]interface{}{"deleted_at": utils.Now(), "updated_at": utils.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// --- Refresh Token Methods ---

func (r *PostgresRepo) SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	return r.write(ctx, "create", "refresh_token", func(db *gorm.DB) error {
		return db.Create(token).Error
	})
}

func (r *PostgresRepo) FindRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var rt model.RefreshToken
	err := r.read(ctx, "find_by_token", "refresh_token", func(db *gorm.DB) error {
		return db.Where("token = ?", token).First(&rt).Error
	})
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *PostgresRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	return r.write(ctx, "delete", "refresh_token", func(db *gorm.DB) error {
		return db.Where("token = ?", token).Delete(&model.RefreshToken{}).Error
	})
}

func (r *PostgresRepo) DeleteRefreshTokensByUser(ctx context.Context, userID string) error {
	return r.write(ctx, "delete_by_user", "refresh_token", func(db *gorm.DB) error {
		return db.Where("user_id = ?", userID).Delete(&model.RefreshToken{}).Error
	})
}
