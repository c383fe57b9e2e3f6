package controller

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"cafefinder/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	UploadURLPrefix = model.UploadURLPrefix
	maxImageSize    = 5 << 20
)

var (
	errImageTooLarge = errors.New("file too large (max 5MB)")
	errImageType     = errors.New("invalid file type, only JPG/JPEG/PNG allowed")

	allowedExts = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
	}
)

// Uploader stores cafe images on local disk; they are served under UploadURLPrefix.
type Uploader struct {
	Dir string
}

// Save stores the file posted in field and returns its public URL, or "" when
// the request carries no such file.
func (u *Uploader) Save(c *gin.Context, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get uploaded file: %w", err)
	}

	if file.Size > maxImageSize {
		return "", errImageTooLarge
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExts[ext] {
		return "", errImageType
	}

	if err := os.MkdirAll(u.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := fmt.Sprintf("cafe-%s%s", uuid.NewString(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(u.Dir, name)); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return UploadURLPrefix + name, nil
}

// Remove deletes a previously uploaded image. URLs that do not point at the
// upload directory are ignored.
func (u *Uploader) Remove(publicURL string) error {
	if !model.IsUploadedImage(publicURL) {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(publicURL, UploadURLPrefix))
	if err := os.Remove(filepath.Join(u.Dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
