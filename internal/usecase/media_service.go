package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/mediastore"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/reqctx"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

// ObjectStore is the part of mediastore.Store the service writes through.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// UploadFile is one multipart file part.
type UploadFile struct {
	Fieldname   string
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

type MediaMeta struct {
	CaseID *string
	Title  string
}

type MediaService struct {
	medias   storage.MediaRepo
	objects  ObjectStore
	maxBytes int64
	now      func() time.Time
}

func NewMediaService(medias storage.MediaRepo, objects ObjectStore, maxUploadMB int) *MediaService {
	return &MediaService{
		medias:   medias,
		objects:  objects,
		maxBytes: int64(maxUploadMB) << 20,
		now:      utils.Now,
	}
}

// MaxBytes is the largest accepted upload.
func (s *MediaService) MaxBytes() int64 {
	return s.maxBytes
}

// List returns the caller's media; admins see everything.
func (s *MediaService) List(ctx context.Context, p reqctx.Principal) ([]model.Media, error) {
	owner := p.UserID
	if p.Role == model.RoleAdmin {
		owner = ""
	}
	medias, err := s.medias.ListMedia(ctx, owner)
	if err != nil {
		return nil, err
	}
	if medias == nil {
		medias = []model.Media{}
	}
	return medias, nil
}

func (s *MediaService) Get(ctx context.Context, p reqctx.Principal, id string) (*model.Media, error) {
	return s.owned(ctx, p, id)
}

// Upload stores the file, then records it. The object is removed again if
// the row cannot be written.
func (s *MediaService) Upload(ctx context.Context, p reqctx.Principal, file UploadFile, meta MediaMeta) (*model.Media, error) {
	kind, err := s.check(file)
	if err != nil {
		return nil, err
	}

	key, url, err := s.put(ctx, p.UserID, file)
	if err != nil {
		return nil, err
	}

	media := &model.Media{
		OwnerID:   p.UserID,
		CaseID:    blankToNil(meta.CaseID),
		Kind:      kind,
		Fieldname: file.Fieldname,
		Filename:  file.Filename,
		Path:      key,
		URL:       url,
		MimeType:  file.ContentType,
		Size:      file.Size,
		Title:     strings.TrimSpace(meta.Title),
	}
	if err := s.medias.CreateMedia(ctx, media); err != nil {
		s.discard(ctx, key)
		return nil, err
	}
	return media, nil
}

// Replace swaps the stored file and its metadata. The old object is
// removed only after the row points at the new one.
func (s *MediaService) Replace(ctx context.Context, p reqctx.Principal, id string, file UploadFile, meta MediaMeta) (*model.Media, error) {
	media, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	kind, err := s.check(file)
	if err != nil {
		return nil, err
	}

	key, url, err := s.put(ctx, media.OwnerID, file)
	if err != nil {
		return nil, err
	}

	oldKey := media.Path
	media.Kind = kind
	media.Fieldname = file.Fieldname
	media.Filename = file.Filename
	media.Path = key
	media.URL = url
	media.MimeType = file.ContentType
	media.Size = file.Size
	if meta.CaseID != nil {
		media.CaseID = blankToNil(meta.CaseID)
	}
	if meta.Title != "" {
		media.Title = strings.TrimSpace(meta.Title)
	}
	if err := s.medias.UpdateMedia(ctx, media); err != nil {
		s.discard(ctx, key)
		return nil, err
	}
	s.discard(ctx, oldKey)
	return media, nil
}

// Rename updates the title only.
func (s *MediaService) Rename(ctx context.Context, p reqctx.Principal, id, title string) (*model.Media, error) {
	media, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	media.Title = strings.TrimSpace(title)
	if err := s.medias.UpdateMedia(ctx, media); err != nil {
		return nil, err
	}
	return media, nil
}

// Delete removes the object, then the row.
func (s *MediaService) Delete(ctx context.Context, p reqctx.Principal, id string) error {
	media, err := s.owned(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, media.Path); err != nil {
		return fmt.Errorf("%w: delete media object: %v", apperrors.ErrUpstream, err)
	}
	return s.medias.DeleteMedia(ctx, id)
}

func (s *MediaService) owned(ctx context.Context, p reqctx.Principal, id string) (*model.Media, error) {
	media, err := s.medias.FindMediaByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Role != model.RoleAdmin && media.OwnerID != p.UserID {
		return nil, fmt.Errorf("%w: media %s belongs to another user", apperrors.ErrForbidden, id)
	}
	return media, nil
}

func (s *MediaService) check(file UploadFile) (string, error) {
	if file.Content == nil || file.Filename == "" {
		return "", apperrors.NewFieldError("file is required")
	}
	mimeType := strings.ToLower(strings.TrimSpace(strings.SplitN(file.ContentType, ";", 2)[0]))
	kind, ok := model.AllowedMediaTypes[mimeType]
	if !ok {
		return "", apperrors.NewFieldError(fmt.Sprintf("file type %q is not allowed", file.ContentType))
	}
	if s.maxBytes > 0 && file.Size > s.maxBytes {
		return "", apperrors.NewFieldError(fmt.Sprintf("file exceeds the %s upload limit", utils.ByteCountSI(s.maxBytes)))
	}
	return kind, nil
}

func (s *MediaService) put(ctx context.Context, ownerID string, file UploadFile) (string, string, error) {
	key := mediastore.ObjectKey(ownerID, file.Filename, s.now())
	url, err := s.objects.Put(ctx, key, file.Content, file.ContentType)
	if err != nil {
		return "", "", fmt.Errorf("%w: store media object: %v", apperrors.ErrUpstream, err)
	}
	return key, url, nil
}

func (s *MediaService) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.objects.Delete(ctx, key); err != nil {
		logger.FromContext(ctx).Warn("Failed to remove media object", zap.String("key", key), zap.Error(err))
	}
}

func blankToNil(s *string) *string {
	s = trimPtr(s)
	if s == nil || *s == "" {
		return nil
	}
	return s
}
