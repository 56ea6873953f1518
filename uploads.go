package main

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/invoice_backend/utils"
	"github.com/sirupsen/logrus"
)

type uploadResponse struct {
	FilePath     string `json:"file_path"`
	OriginalName string `json:"original_name"`
}

const (
	maxUploadSizeBytes int64 = 2 * 1024 * 1024
	maxUploadPixels          = 1024
)

var imageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

var errUploadTooLarge = errors.New("file size exceeds 2MB limit")

// uploadImageHandler accepts one image in the multipart field, normalizes it
// to a bounded PNG and stores it under folder. The returned file_path is the
// reference invoices carry in company_logo / payment_qr_code.
func (app *App) uploadImageHandler(field, folder string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// leave room for the multipart envelope
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSizeBytes+64*1024)

		fh, err := c.FormFile(field)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": errUploadTooLarge.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded in field " + field})
			return
		}
		if fh.Size > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": errUploadTooLarge.Error()})
			return
		}
		if ct := fh.Header.Get("Content-Type"); ct != "" && !imageMimeTypes[ct] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only jpeg, png and gif images are allowed"})
			return
		}

		f, err := fh.Open()
		if err != nil {
			app.respondError(c, "uploadImage", err)
			return
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxUploadSizeBytes+1))
		if err != nil {
			app.respondError(c, "uploadImage", err)
			return
		}

		png, err := normalizeUploadImage(data)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is not a valid image"})
			return
		}

		objectKey := path.Join(folder, uuid.New().String()+".png")
		ref, err := app.Blobs.Put(c.Request.Context(), objectKey, png, "image/png")
		if err != nil {
			logUploadError(app.Logger, err, utils.GetStorageProvider(), c)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
			return
		}
		c.JSON(http.StatusOK, uploadResponse{FilePath: ref, OriginalName: fh.Filename})
	}
}

func normalizeUploadImage(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() > maxUploadPixels || b.Dy() > maxUploadPixels {
		img = imaging.Fit(img, maxUploadPixels, maxUploadPixels, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func logUploadError(logger *logrus.Logger, err error, provider string, c *gin.Context) {
	fields := logrus.Fields{
		"error":    err.Error(),
		"provider": provider,
	}
	if cid, ok := utils.GetCorrelationIdFromContext(c.Request.Context()); ok {
		fields["correlation_id"] = cid
	}
	if ip, ok := utils.GetClientIPFromContext(c.Request.Context()); ok {
		fields["client_ip"] = ip
	}
	logger.WithFields(fields).Error("[upload.error]")
}
