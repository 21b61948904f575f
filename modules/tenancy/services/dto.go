package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// bcrypt ignores input past this many bytes, so longer passwords are rejected.
const maxPasswordBytes = 72

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validationError converts validator output into ErrValidation with one meta
// entry per failing field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrValidation.WithCause(err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return ErrValidation.WithTemplateData(fields).WithCause(err)
}

type RegistrationDTO struct {
	BusinessName string `json:"businessName" form:"businessName" validate:"required,max=120"`
	Email        string `json:"email" form:"email" validate:"required,email,max=254"`
	Phone        string `json:"phone" form:"phone" validate:"required,max=32"`
	Password     string `json:"password" form:"password" validate:"required,min=8"`
}

func (d *RegistrationDTO) normalize() {
	d.BusinessName = strings.TrimSpace(d.BusinessName)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Phone = strings.TrimSpace(d.Phone)
}

// Validate normalizes d in place and checks it. The password is never trimmed.
func (d *RegistrationDTO) Validate() error {
	d.normalize()
	if err := validate.Struct(d); err != nil {
		return validationError(err)
	}
	if len(d.Password) > maxPasswordBytes {
		return ErrValidation.WithTemplateData(map[string]string{"password": "max"})
	}
	return nil
}

type LoginDTO struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (d *LoginDTO) Validate() error {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	if err := validate.Struct(d); err != nil {
		return validationError(err)
	}
	return nil
}

type ResendVerificationDTO struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

func (d *ResendVerificationDTO) Validate() error {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	if err := validate.Struct(d); err != nil {
		return validationError(err)
	}
	return nil
}

type SettingsDTO struct {
	BusinessName   string `json:"businessName" form:"businessName" validate:"omitempty,max=120"`
	Email          string `json:"email" form:"email" validate:"omitempty,email"`
	Phone          string `json:"phone" form:"phone" validate:"omitempty,max=32"`
	PrimaryColor   string `json:"primaryColor" form:"primaryColor" validate:"omitempty,hexcolor"`
	SecondaryColor string `json:"secondaryColor" form:"secondaryColor" validate:"omitempty,hexcolor"`
}

func (d *SettingsDTO) Validate() error {
	d.BusinessName = strings.TrimSpace(d.BusinessName)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Phone = strings.TrimSpace(d.Phone)
	if err := validate.Struct(d); err != nil {
		return validationError(err)
	}
	return nil
}
