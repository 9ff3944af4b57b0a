package httpapi

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/usecase"
)

const (
	mediaFileField = "file"
	// multipartOverhead covers boundaries and the small text fields.
	multipartOverhead = 1 << 20
)

type renameMediaRequest struct {
	Title string `json:"title"`
}

func (h *Handler) listMedia(c *gin.Context) error {
	medias, err := h.svc.Media.List(c.Request.Context(), principal(c))
	if err != nil {
		return err
	}
	writeOK(c, medias)
	return nil
}

func (h *Handler) getMedia(c *gin.Context) error {
	media, err := h.svc.Media.Get(c.Request.Context(), principal(c), c.Param("mediaId"))
	if err != nil {
		return err
	}
	writeOK(c, media)
	return nil
}

func (h *Handler) uploadMedia(c *gin.Context) error {
	file, meta, closeFn, err := h.readUpload(c)
	if err != nil {
		return err
	}
	defer closeFn()

	media, err := h.svc.Media.Upload(c.Request.Context(), principal(c), file, meta)
	if err != nil {
		return err
	}
	writeCreated(c, media)
	return nil
}

func (h *Handler) replaceMedia(c *gin.Context) error {
	file, meta, closeFn, err := h.readUpload(c)
	if err != nil {
		return err
	}
	defer closeFn()

	media, err := h.svc.Media.Replace(c.Request.Context(), principal(c), c.Param("mediaId"), file, meta)
	if err != nil {
		return err
	}
	writeOK(c, media)
	return nil
}

func (h *Handler) renameMedia(c *gin.Context) error {
	var in renameMediaRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	media, err := h.svc.Media.Rename(c.Request.Context(), principal(c), c.Param("mediaId"), in.Title)
	if err != nil {
		return err
	}
	writeOK(c, media)
	return nil
}

func (h *Handler) deleteMedia(c *gin.Context) error {
	if err := h.svc.Media.Delete(c.Request.Context(), principal(c), c.Param("mediaId")); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}

// readUpload extracts the multipart file and its metadata. The body is
// capped slightly above the configured upload limit; the exact limit is
// enforced by the media service.
func (h *Handler) readUpload(c *gin.Context) (usecase.UploadFile, usecase.MediaMeta, func(), error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.svc.Media.MaxBytes()+multipartOverhead)

	header, err := c.FormFile(mediaFileField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return usecase.UploadFile{}, usecase.MediaMeta{}, nil,
				apperrors.NewFieldError(fmt.Sprintf("file must be at most %d bytes", h.svc.Media.MaxBytes()))
		}
		return usecase.UploadFile{}, usecase.MediaMeta{}, nil, apperrors.NewFieldError("file is required")
	}

	content, err := header.Open()
	if err != nil {
		return usecase.UploadFile{}, usecase.MediaMeta{}, nil, fmt.Errorf("%w: unreadable upload: %v", apperrors.ErrBadRequest, err)
	}

	meta := usecase.MediaMeta{Title: c.PostForm("title")}
	if caseID, ok := c.GetPostForm("caseId"); ok {
		meta.CaseID = &caseID
	}
	return uploadFile(header, content), meta, func() { _ = content.Close() }, nil
}

func uploadFile(header *multipart.FileHeader, content multipart.File) usecase.UploadFile {
	return usecase.UploadFile{
		Fieldname:   mediaFileField,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     content,
	}
}
