package middleware

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Input validation and sanitization utilities

// ValidateOrgan checks the organ route parameter against the catalog.
func ValidateOrgan(organ string) error {
	allowed := map[string]bool{
		"heart":  true,
		"lungs":  true,
		"brain":  true,
		"liver":  true,
		"kidney": true,
		"eye":    true,
	}

	if !allowed[strings.ToLower(organ)] {
		return fmt.Errorf("invalid organ: %s (allowed: heart, lungs, brain, liver, kidney, eye)", organ)
	}
	return nil
}

// ValidateAge accepts an empty field or an integer in [0,120].
func ValidateAge(age string) error {
	if age == "" {
		return nil // Optional field
	}
	n, err := strconv.Atoi(age)
	if err != nil {
		return fmt.Errorf("age must be a number")
	}
	if n < 0 || n > 120 {
		return fmt.Errorf("age must be between 0 and 120")
	}
	return nil
}

// ValidateResultID validates stored-result ids before they are placed in an
// outbound URL path.
func ValidateResultID(id string) error {
	if id == "" {
		return fmt.Errorf("result ID cannot be empty")
	}

	pattern := `^[a-zA-Z0-9_-]{1,128}$`
	matched, _ := regexp.MatchString(pattern, id)
	if !matched {
		return fmt.Errorf("invalid result ID format")
	}
	return nil
}

// ValidateTheme restricts the theme preference to known values.
func ValidateTheme(theme string) error {
	if theme != "light" && theme != "dark" {
		return fmt.Errorf("invalid theme: %s (allowed: light, dark)", theme)
	}
	return nil
}

// SanitizeString removes dangerous characters from free-text form fields.
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
