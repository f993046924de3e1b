package intake

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Submission is the typed shape of an intake body. Absent or null keys stay
// nil. Keys are snake_case.
type Submission struct {
	Name           *string  `json:"name"`
	Email          *string  `json:"email"`
	Phone          *string  `json:"phone,omitempty"`
	Age            *int     `json:"age,omitempty"`
	Height         *int     `json:"height,omitempty"`
	Weight         *int     `json:"weight,omitempty"`
	Measurements   *string  `json:"measurements,omitempty"`
	Experience     *string  `json:"experience,omitempty"`
	PortfolioURLs  []string `json:"portfolio_urls,omitempty"`
	AdditionalInfo *string  `json:"additional_info,omitempty"`
}

// fieldLabel is the human name of each key, in reporting order.
var fieldLabel = []struct{ key, label string }{
	{"name", "Name"},
	{"email", "Email"},
	{"phone", "Phone number"},
	{"age", "Age"},
	{"height", "Height"},
	{"weight", "Weight"},
	{"measurements", "Measurements"},
	{"experience", "Experience"},
	{"portfolio_urls", "Portfolio URLs"},
	{"additional_info", "Additional information"},
}

// Decode parses body into a Submission. A body that is not a JSON object
// yields ErrMalformedJSON. Fields holding the wrong JSON type are reported
// as violations and left nil so every problem surfaces in one response.
// Unknown keys are ignored.
func Decode(body []byte) (Submission, []Violation, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return Submission{}, nil, ErrMalformedJSON
	}

	var (
		s    Submission
		errs []Violation
	)
	for _, f := range fieldLabel {
		msg, ok := raw[f.key]
		if !ok || isNull(msg) {
			continue
		}
		var bad string
		switch f.key {
		case "name":
			s.Name, bad = decodeString(msg, f.label)
		case "email":
			s.Email, bad = decodeString(msg, f.label)
		case "phone":
			s.Phone, bad = decodeString(msg, f.label)
		case "measurements":
			s.Measurements, bad = decodeString(msg, f.label)
		case "experience":
			s.Experience, bad = decodeString(msg, f.label)
		case "additional_info":
			s.AdditionalInfo, bad = decodeString(msg, f.label)
		case "age":
			s.Age, bad = decodeInt(msg, f.label)
		case "height":
			s.Height, bad = decodeInt(msg, f.label)
		case "weight":
			s.Weight, bad = decodeInt(msg, f.label)
		case "portfolio_urls":
			s.PortfolioURLs, bad = decodeStrings(msg)
		}
		if bad != "" {
			errs = append(errs, Violation{Field: f.key, Message: bad})
		}
	}
	return s, errs, nil
}

func isNull(m json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(m), []byte("null"))
}

func decodeString(m json.RawMessage, label string) (*string, string) {
	var v string
	if err := json.Unmarshal(m, &v); err != nil {
		return nil, label + " must be a string"
	}
	return &v, ""
}

// decodeInt accepts JSON numbers with no fractional part. Values far outside
// any valid range are clamped so the range rules still reject them.
func decodeInt(m json.RawMessage, label string) (*int, string) {
	var f float64
	if err := json.Unmarshal(m, &f); err != nil {
		return nil, label + " must be a number"
	}
	if f != math.Trunc(f) {
		return nil, label + " must be a whole number"
	}
	const bound = 1 << 30
	f = math.Max(-bound, math.Min(bound, f))
	v := int(f)
	return &v, ""
}

func decodeStrings(m json.RawMessage) ([]string, string) {
	var items []json.RawMessage
	if err := json.Unmarshal(m, &items); err != nil {
		return nil, "Portfolio URLs must be a list of strings"
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		var v string
		if err := json.Unmarshal(it, &v); err != nil {
			return nil, fmt.Sprintf("Portfolio URL %d must be a string", i+1)
		}
		out = append(out, v)
	}
	return out, ""
}
