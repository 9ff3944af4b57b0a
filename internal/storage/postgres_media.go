package storage

import (
	"context"

	"gorm.io/gorm"

	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

func (r *PostgresRepo) CreateMedia(ctx context.Context, media *model.Media) error {
	return r.write(ctx, "create", "media", func(db *gorm.DB) error {
		return db.Create(media).Error
	})
}

func (r *PostgresRepo) UpdateMedia(ctx context.Context, media *model.Media) error {
	media.UpdatedAt = utils.Now()
	return r.write(ctx, "update", "media", func(db *gorm.DB) error {
		res := db.Model(&model.Media{}).Where("id = ?", media.ID).Updates(map[string]interface{}{
			"case_id":    media.CaseID,
			"kind":       media.Kind,
			"fieldname":  media.Fieldname,
			"filename":   media.Filename,
			"path":       media.Path,
			"url":        media.URL,
			"mime_type":  media.MimeType,
			"size":       media.Size,
			"title":      media.Title,
			"updated_at": media.UpdatedAt,
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

func (r *PostgresRepo) FindMediaByID(ctx context.Context, id string) (*model.Media, error) {
	var media model.Media
	err := r.read(ctx, "find_by_id", "media", func(db *gorm.DB) error {
		return db.Where("id = ?", id).First(&media).Error
	})
	if err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *PostgresRepo) ListMedia(ctx context.Context, ownerID string) ([]model.Media, error) {
	var medias []model.Media
	err := r.read(ctx, "list", "media", func(db *gorm.DB) error {
		q := db
		if ownerID != "" {
			q = q.Where("owner_id = ?", ownerID)
		}
		return q.Order("created_at DESC").Find(&medias).Error
	})
	if err != nil {
		return nil, err
	}
	return medias, nil
}

func (r *PostgresRepo) DeleteMedia(ctx context.Context, id string) error {
	return r.write(ctx, "delete", "media", func(db *gorm.DB) error {
		res := db.Where("id = ?", id).Delete(&model.Media{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
