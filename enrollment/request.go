package enrollment

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-hackathon-store/model"
)

// MaxExtensions bounds the number of extensions one enrollment can carry.
const MaxExtensions = 32

// UpdateRequest is a partial update. Nil fields are left untouched.
type UpdateRequest struct {
	Extensions *[]model.Extension
}

func (r UpdateRequest) Validate() error {
	if r.Extensions == nil {
		return nil
	}
	return validateExtensions(*r.Extensions)
}

// ListOptions are the options of ListPaginated.
type ListOptions struct {
	Token    string
	PageSize int
	Status   *model.EnrollmentStatus
}

func validateExtensions(exts []model.Extension) error {
	return validation.Validate(exts,
		validation.Length(0, MaxExtensions),
		validation.By(uniqueExtensionNames),
		validation.Each(validation.By(extensionName)),
	)
}

func extensionName(value any) error {
	ext, _ := value.(model.Extension)
	return validation.Validate(strings.TrimSpace(ext.Name), validation.Required.Error("extension name is required"))
}

func uniqueExtensionNames(value any) error {
	exts, _ := value.([]model.Extension)
	seen := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		key := strings.ToLower(strings.TrimSpace(ext.Name))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			return validation.NewError("validation_extension_unique", "extension names must be unique, duplicate "+ext.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}
