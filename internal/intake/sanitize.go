package intake

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	reScriptBlock = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	// A tag starts with a letter, '/' or '!'. Unterminated markup is cut to
	// the end of the value; a bare '<' ("I <3", "a < b") is text.
	reHTMLTag      = regexp.MustCompile(`<[A-Za-z/!][^>]*>?`)
	reJSScheme     = regexp.MustCompile(`(?i)javascript:`)
	reEventHandler = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// Sanitize neutralizes markup and script in free text. It repeats until the
// value stops changing, so Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	for {
		next := sanitizeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func sanitizeOnce(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(dropControl, s)
	s = strings.TrimSpace(s)
	s = reScriptBlock.ReplaceAllString(s, "")
	s = reHTMLTag.ReplaceAllString(s, "")
	s = reJSScheme.ReplaceAllString(s, "")
	s = reEventHandler.ReplaceAllString(s, "")
	return s
}

// dropControl removes control characters except common whitespace.
func dropControl(r rune) rune {
	switch r {
	case '\n', '\r', '\t':
		return r
	}
	if unicode.IsControl(r) || r == utf8.RuneError {
		return -1
	}
	return r
}

// Normalize returns a copy of s prepared for validation and storage:
// free-text fields are sanitized, the email is trimmed and lower-cased and
// portfolio URLs are trimmed. Optional text that ends up empty is dropped.
func Normalize(s Submission) Submission {
	out := s
	out.Name = cleanText(s.Name, false)
	if s.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*s.Email))
		out.Email = &e
	}
	out.Phone = cleanText(s.Phone, true)
	out.Measurements = cleanText(s.Measurements, true)
	out.Experience = cleanText(s.Experience, true)
	out.AdditionalInfo = cleanText(s.AdditionalInfo, true)
	if s.PortfolioURLs != nil {
		urls := make([]string, 0, len(s.PortfolioURLs))
		for _, u := range s.PortfolioURLs {
			urls = append(urls, strings.TrimSpace(u))
		}
		out.PortfolioURLs = urls
	}
	return out
}

func cleanText(p *string, optional bool) *string {
	if p == nil {
		return nil
	}
	v := Sanitize(*p)
	if optional && v == "" {
		return nil
	}
	return &v
}

// field maxima, in runes
const (
	maxName           = 100
	maxEmail          = 100
	maxPhone          = 20
	maxMeasurements   = 50
	maxExperience     = 1000
	maxAdditionalInfo = 2000
	maxPortfolioURLs  = 10
)

// Truncate clamps every string to its maximum length. Validation already
// rejects longer values; this is the last guard before storage.
func Truncate(s Submission) Submission {
	out := s
	out.Name = clampPtr(s.Name, maxName)
	out.Email = clampPtr(s.Email, maxEmail)
	out.Phone = clampPtr(s.Phone, maxPhone)
	out.Measurements = clampPtr(s.Measurements, maxMeasurements)
	out.Experience = clampPtr(s.Experience, maxExperience)
	out.AdditionalInfo = clampPtr(s.AdditionalInfo, maxAdditionalInfo)
	if len(s.PortfolioURLs) > maxPortfolioURLs {
		out.PortfolioURLs = s.PortfolioURLs[:maxPortfolioURLs]
	}
	return out
}

func clampPtr(p *string, n int) *string {
	if p == nil {
		return nil
	}
	v := clamp(*p, n)
	return &v
}

func clamp(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
