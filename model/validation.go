package model

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// UploadURLPrefix is the public path uploaded cafe images are served under.
const UploadURLPrefix = "/uploads/"

// ImageRefTag validates an image reference: an absolute URL or an uploaded image path.
const ImageRefTag = "imageref"

var urlValidator = validator.New()

// IsUploadedImage reports whether ref names a file directly under UploadURLPrefix.
func IsUploadedImage(ref string) bool {
	name, ok := strings.CutPrefix(ref, UploadURLPrefix)
	if !ok || name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\?#`)
}

func validImageRef(fl validator.FieldLevel) bool {
	ref := fl.Field().String()
	return IsUploadedImage(ref) || urlValidator.Var(ref, "url") == nil
}

// RegisterValidations adds the cafe validation tags to v.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation(ImageRefTag, validImageRef)
}
