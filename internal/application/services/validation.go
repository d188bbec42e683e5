package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/flatcms/core/internal/domain/entities"
)

// RegisterValidations adds the document name tags used by request structs:
// docsafe rejects path separators and dot segments, docext requires a .md or
// .txt suffix with a non-empty base name.
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("docsafe", validateDocSafe); err != nil {
		return err
	}
	return v.RegisterValidation("docext", validateDocExt)
}

func validateDocSafe(fl validator.FieldLevel) bool {
	_, err := entities.ParseDocumentName(fl.Field().String())
	return !errors.Is(err, entities.ErrUnsafeName)
}

func validateDocExt(fl validator.FieldLevel) bool {
	_, ok := entities.KindOf(strings.TrimSpace(fl.Field().String()))
	return ok
}

// ValidationCause maps a validator error for a document name field to the
// matching domain error.
func ValidationCause(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	switch verrs[0].Tag() {
	case "required":
		return entities.ErrNameRequired
	case "docsafe":
		return entities.ErrUnsafeName
	case "docext":
		return entities.ErrInvalidExtension
	}
	return err
}
