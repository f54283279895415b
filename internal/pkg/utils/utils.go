package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderID generates an opaque order identifier.
func NewOrderID() string {
	return uuid.New().String()
}

// ParseAmount converts free-text numeric input (possibly with thousands
// separators and stray spaces) to an int64 amount. Returns an error for
// anything that is not a plain positive number.
func ParseAmount(s string) (int64, error) {
	cleaned := strings.NewReplacer(",", "", " ", "", "'", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}
	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if v <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return v, nil
}

var uzPhoneRe = regexp.MustCompile(`^(\+998|998|8)?[0-9]{9}$`)

// IsValidUzbekPhone reports whether the text looks like an Uzbek phone
// number after stripping spaces and dashes.
func IsValidUzbekPhone(s string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(s))
	return uzPhoneRe.MatchString(cleaned)
}

// FormatNumber adds comma separators to a number.
func FormatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var result strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}
	if neg {
		return "-" + result.String()
	}
	return result.String()
}

// ParseInt64 safely converts string to int64 with a default value.
func ParseInt64(s string, defaultVal int64) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return defaultVal
	}
	return v
}

// NowStamp returns the current time formatted for ledger exports.
func NowStamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}
