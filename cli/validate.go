package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	minNameLen  = 2
	maxNameLen  = 100
	maxFilter   = 100
	maxRegattas = 1000
	dateLayout  = "2006-01-02"
)

var (
	namePattern   = regexp.MustCompile(`^[a-zA-Z\s\-'.]+$`)
	datePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	filterPattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-'.&]+$`)
)

// ValidateSailorName checks a sailor name: letters, spaces, hyphens,
// apostrophes and periods only.
func ValidateSailorName(name string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return fmt.Errorf("sailor name cannot be empty")
	case len(name) < minNameLen:
		return fmt.Errorf("sailor name must be at least %d characters", minNameLen)
	case len(name) > maxNameLen:
		return fmt.Errorf("sailor name must be less than %d characters", maxNameLen)
	case !namePattern.MatchString(name):
		return fmt.Errorf("sailor name contains invalid characters")
	}
	return nil
}

// ValidateDate accepts an empty string or a real YYYY-MM-DD date.
func ValidateDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if !datePattern.MatchString(s) {
		return fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return fmt.Errorf("invalid date")
	}
	return nil
}

// ValidateDateRange checks both bounds and, when both are set, start <= end.
func ValidateDateRange(start, end string) error {
	if err := ValidateDate(start); err != nil {
		return fmt.Errorf("start date error: %w", err)
	}
	if err := ValidateDate(end); err != nil {
		return fmt.Errorf("end date error: %w", err)
	}
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return nil
	}
	// Both are valid YYYY-MM-DD, so string order is date order.
	if start > end {
		return fmt.Errorf("start date must be before or equal to end date")
	}
	return nil
}

// ValidateMaxRegattas accepts an empty string or an integer in 1..1000.
func ValidateMaxRegattas(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("maximum regattas must be a valid number")
	}
	if n < 1 {
		return 0, fmt.Errorf("maximum regattas must be at least 1")
	}
	if n > maxRegattas {
		return 0, fmt.Errorf("maximum regattas cannot exceed %d", maxRegattas)
	}
	return n, nil
}

// ValidateFilter checks the regatta name substring filter.
func ValidateFilter(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if len(s) > maxFilter {
		return fmt.Errorf("filter text must be less than %d characters", maxFilter)
	}
	if !filterPattern.MatchString(s) {
		return fmt.Errorf("filter contains invalid characters")
	}
	return nil
}
