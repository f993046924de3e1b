package intake

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// rules is the validation view of a normalized Submission.
type rules struct {
	Name           string   `json:"name" validate:"required,min=2,max=100,personname"`
	Email          string   `json:"email" validate:"required,max=100,email"`
	Phone          *string  `json:"phone" validate:"omitnil,min=8,max=20,phone"`
	Age            *int     `json:"age" validate:"omitnil,min=18,max=100"`
	Height         *int     `json:"height" validate:"omitnil,min=140,max=220"`
	Weight         *int     `json:"weight" validate:"omitnil,min=40,max=200"`
	Measurements   *string  `json:"measurements" validate:"omitnil,max=50,measurements"`
	Experience     *string  `json:"experience" validate:"omitnil,max=1000"`
	PortfolioURLs  []string `json:"portfolio_urls" validate:"max=10,dive,httpurl"`
	AdditionalInfo *string  `json:"additional_info" validate:"omitnil,max=2000"`
}

var (
	rePersonName   = regexp.MustCompile(`^[\p{L}\p{M} '-]+$`)
	rePhone        = regexp.MustCompile(`^[\d \-+()]+$`)
	reMeasurements = regexp.MustCompile(`^[\d \-/.]*$`)
	reHTTPURL      = regexp.MustCompile(`(?i)^https?://[^\s<>"']+$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	mustRegister(v, "personname", matches(rePersonName))
	mustRegister(v, "phone", matches(rePhone))
	mustRegister(v, "measurements", matches(reMeasurements))
	mustRegister(v, "httpurl", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !reHTTPURL.MatchString(s) {
			return false
		}
		u, err := url.Parse(s)
		return err == nil && u.Host != ""
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool { return re.MatchString(fl.Field().String()) }
}

// Validate checks a normalized submission and returns every violation, one
// per failing field and one per bad portfolio URL. Nil means valid.
func Validate(s Submission) []Violation {
	r := rules{
		Name:           deref(s.Name),
		Email:          deref(s.Email),
		Phone:          s.Phone,
		Age:            s.Age,
		Height:         s.Height,
		Weight:         s.Weight,
		Measurements:   s.Measurements,
		Experience:     s.Experience,
		PortfolioURLs:  s.PortfolioURLs,
		AdditionalInfo: s.AdditionalInfo,
	}
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Violation{{Field: "", Message: "Invalid application data"}}
	}
	out := make([]Violation, 0, len(verrs))
	for _, fe := range verrs {
		field, idx := splitIndex(fe.Field())
		out = append(out, Violation{Field: field, Message: message(field, idx, fe)})
	}
	return out
}

// splitIndex turns "portfolio_urls[3]" into ("portfolio_urls", 3).
func splitIndex(f string) (string, int) {
	name, rest, ok := strings.Cut(f, "[")
	if !ok {
		return f, -1
	}
	i, err := strconv.Atoi(strings.TrimSuffix(rest, "]"))
	if err != nil {
		return name, -1
	}
	return name, i
}

func message(field string, idx int, fe validator.FieldError) string {
	tag := fe.Tag()
	switch field {
	case "name":
		switch tag {
		case "required":
			return "Name is required"
		case "min":
			return "Name must be at least 2 characters"
		case "max":
			return "Name must be at most 100 characters"
		}
		return "Name can only contain letters, spaces, hyphens, and apostrophes"
	case "email":
		switch tag {
		case "required":
			return "Email is required"
		case "max":
			return "Email must be at most 100 characters"
		}
		return "Please enter a valid email address"
	case "phone":
		switch tag {
		case "min":
			return "Phone number must be at least 8 characters"
		case "max":
			return "Phone number must be at most 20 characters"
		}
		return "Phone number contains invalid characters"
	case "age":
		return "Age must be between 18 and 100"
	case "height":
		return "Height must be between 140cm and 220cm"
	case "weight":
		return "Weight must be between 40kg and 200kg"
	case "measurements":
		if tag == "max" {
			return "Measurements must be at most 50 characters"
		}
		return "Measurements can only contain numbers, spaces, hyphens, slashes, and periods"
	case "experience":
		return "Experience must be at most 1000 characters"
	case "additional_info":
		return "Additional information must be at most 2000 characters"
	case "portfolio_urls":
		if idx >= 0 {
			return fmt.Sprintf("Portfolio URL %d must be a valid HTTP/HTTPS URL", idx+1)
		}
		return "Maximum 10 portfolio URLs allowed"
	}
	return fmt.Sprintf("%s is invalid", field)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// mergeViolations appends rule violations to decode violations, skipping
// fields that already failed to decode.
func mergeViolations(decoded, checked []Violation) []Violation {
	if len(decoded) == 0 {
		return checked
	}
	seen := make(map[string]bool, len(decoded))
	for _, v := range decoded {
		seen[v.Field] = true
	}
	out := decoded
	for _, v := range checked {
		if !seen[v.Field] {
			out = append(out, v)
		}
	}
	return out
}
