package usecase

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// RegisterInput is the self-registration form.
type RegisterInput struct {
	FirstName       string
	LastName        string
	Email           string
	MobileNumber    string
	Password        string
	ConfirmPassword string
}

// Validate checks field presence and shape. Password equality and strength are checked separately.
func (r RegisterInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 100), is.Email),
		validation.Field(&r.MobileNumber, validation.Length(0, 20), is.Digit),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.ConfirmPassword, validation.Required),
	)
}

func (r RegisterInput) normalized() RegisterInput {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.MobileNumber = strings.TrimSpace(r.MobileNumber)
	return r
}

// AddItemInput describes one product selection added to a cart.
type AddItemInput struct {
	ProductID  string
	Variations []string
	Quantity   int
}

const maxLineQuantity = 1000

var variationIDPattern = regexp.MustCompile(`^[^,|]+$`)

func (a AddItemInput) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ProductID, validation.Required, validation.Length(1, 64)),
		validation.Field(&a.Quantity, validation.Required, validation.Min(1), validation.Max(maxLineQuantity)),
		validation.Field(&a.Variations,
			validation.Length(0, 16),
			validation.Each(
				validation.Length(1, 64),
				validation.Match(variationIDPattern).Error("must not contain ',' or '|'"),
			),
		),
	)
}

func validateEmail(email string) error {
	return validation.Errors{
		"email": validation.Validate(email, validation.Required, is.Email),
	}.Filter()
}
