package domain

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// itemRules holds the textual constraints of an Item
type itemRules struct {
	Name     string `json:"name" validate:"required,max=200"`
	Category string `json:"category" validate:"required,max=100"`
}

// Normalize trims surrounding whitespace from the text fields.
func (f *ItemFields) Normalize() {
	for _, s := range []*string{f.Name, f.Description, f.Category} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
}

// RequireAll reports the required fields missing from f.
func (f ItemFields) RequireAll() *ValidationError {
	verr := &ValidationError{}
	if f.Name == nil {
		verr.Add("name", "This field is required.")
	}
	if f.Category == nil {
		verr.Add("category", "This field is required.")
	}
	if f.Price == nil {
		verr.Add("price", "This field is required.")
	}
	return verr
}

// Validate checks item against the length and precision constraints.
func Validate(item *Item) error {
	verr := &ValidationError{}

	err := validate.Struct(itemRules{Name: item.Name, Category: item.Category})
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range fieldErrs {
			verr.Add(e.Field(), fieldMessage(e))
		}
	} else if err != nil {
		return err
	}

	if msg := CheckPricePrecision(item.Price); msg != "" {
		verr.Add("price", msg)
	}

	return verr.Err()
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field may not be blank."
	case "max":
		return "Ensure this field has no more than " + e.Param() + " characters."
	default:
		return "Invalid value."
	}
}
