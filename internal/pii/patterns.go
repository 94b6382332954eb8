package pii

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Catalog holds a compiled set of detection patterns. Catalogs are built
// explicitly so multiple configurations (different pattern sets or
// thresholds) can coexist in one process. A Catalog is immutable after
// construction and safe for concurrent use.
type Catalog struct {
	patterns []Pattern
}

// NewCatalog creates a catalog from the given patterns, preserving order.
// Detection results follow catalog order, so callers that care about
// precedence should list higher-confidence patterns first.
func NewCatalog(patterns []Pattern) *Catalog {
	c := &Catalog{patterns: make([]Pattern, len(patterns))}
	copy(c.patterns, patterns)
	return c
}

// Patterns returns the catalog's patterns in order.
func (c *Catalog) Patterns() []Pattern {
	return c.patterns
}

// DefaultCatalog returns the built-in pattern set.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Pattern{
		{
			Type:           TypeEmail,
			Regexp:         regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
			BaseConfidence: 0.95,
			Validator:      validateEmail,
		},
		{
			Type:           TypePhone,
			Regexp:         regexp.MustCompile(`\b1[3-9]\d{9}\b`),
			BaseConfidence: 0.90,
			Validator:      validateMobile,
		},
		{
			Type:           TypePhone,
			Regexp:         regexp.MustCompile(`\b0\d{2,3}-?\d{7,8}\b`),
			BaseConfidence: 0.70,
		},
		{
			Type:           TypeIDNumber,
			Regexp:         regexp.MustCompile(`\b\d{17}[\dXx]\b`),
			BaseConfidence: 0.90,
			Validator:      validateResidentID,
		},
		{
			Type:           TypePassport,
			Regexp:         regexp.MustCompile(`\b[EG]\d{8}\b`),
			BaseConfidence: 0.70,
		},
		{
			Type:           TypeDriverLicense,
			Regexp:         regexp.MustCompile(`\b[A-Z]\d{7,12}\b`),
			BaseConfidence: 0.60,
		},
		{
			Type:           TypeBankCard,
			Regexp:         regexp.MustCompile(`\b\d{13,19}\b`),
			BaseConfidence: 0.70,
			Validator:      validateLuhn,
		},
		{
			Type:           TypeIP,
			Regexp:         regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
			BaseConfidence: 0.85,
			Validator:      validateIPv4,
		},
		{
			Type:           TypeName,
			Regexp:         regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr)\.?\s+[A-Z][a-z]+(?:\s[A-Z][a-z]+)?`),
			BaseConfidence: 0.60,
		},
		{
			Type:           TypeAddress,
			Regexp:         regexp.MustCompile(`\b\d+\s+[A-Z][a-zA-Z]*\s+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr)\b`),
			BaseConfidence: 0.60,
		},
		{
			Type:           TypeDateOfBirth,
			Regexp:         regexp.MustCompile(`\b(?:19|20)\d{2}[-/](?:0?[1-9]|1[0-2])[-/](?:0?[1-9]|[12]\d|3[01])\b`),
			BaseConfidence: 0.50,
			Validator:      validateCalendarDate,
		},
	})
}

func validateEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	// Double dots survive the regexp but are not deliverable addresses.
	return !strings.Contains(s, "..")
}

// validateMobile checks the carrier prefix ranges of CN mobile numbers.
func validateMobile(s string) bool {
	if len(s) != 11 || s[0] != '1' {
		return false
	}
	return s[1] >= '3' && s[1] <= '9'
}

// validateResidentID verifies the GB 11643 check digit of an 18-character
// resident identity number.
func validateResidentID(s string) bool {
	if len(s) != 18 {
		return false
	}
	weights := []int{7, 9, 10, 5, 8, 4, 2, 1, 6, 3, 7, 9, 10, 5, 8, 4, 2}
	const checkDigits = "10X98765432"
	sum := 0
	for i := 0; i < 17; i++ {
		d := s[i]
		if d < '0' || d > '9' {
			return false
		}
		sum += int(d-'0') * weights[i]
	}
	expected := checkDigits[sum%11]
	last := s[17]
	if last == 'x' {
		last = 'X'
	}
	return last == expected
}

// validateLuhn runs the Luhn checksum used by payment card numbers.
func validateLuhn(s string) bool {
	sum := 0
	double := false
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func validateIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return false
		}
		if len(p) > 1 && p[0] == '0' {
			return false
		}
	}
	return true
}

func validateCalendarDate(s string) bool {
	normalized := strings.ReplaceAll(s, "/", "-")
	for _, layout := range []string{"2006-01-02", "2006-1-2"} {
		if _, err := time.Parse(layout, normalized); err == nil {
			return true
		}
	}
	return false
}
