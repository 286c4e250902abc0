// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"time"

	"github.com/iwvelando/realestate-model/pkg/constants"
)

const (
	// DateTimeLayout is the format expected in config files and is also the output
	// date format.
	DateTimeLayout = constants.DateTimeLayout
)

// ValidateDate checks that a date string matches DateTimeLayout.
func ValidateDate(date string) error {
	if _, err := time.Parse(DateTimeLayout, date); err != nil {
		return fmt.Errorf("invalid date %q, expected format YYYY-MM: %w", date, err)
	}
	return nil
}

// MonthLabels returns the calendar label of each project month 1..months,
// where month 1 falls on startDate. An empty startDate yields nil.
func MonthLabels(startDate string, months int) ([]string, error) {
	if startDate == "" {
		return nil, nil
	}
	start, err := time.Parse(DateTimeLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	labels := make([]string, months)
	for i := range labels {
		labels[i] = start.AddDate(0, i, 0).Format(DateTimeLayout)
	}
	return labels, nil
}
