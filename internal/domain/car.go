package domain

import (
	"regexp"
	"strings"
	"time"
)

var licensePlatePattern = regexp.MustCompile(`^[A-Z0-9]{7}$`)

// Car is a vehicle owned by exactly one user.
type Car struct {
	ID           string
	OwnerID      string
	Make         string
	Model        string
	LicensePlate string
	Color        string
	CreatedAt    time.Time
}

// NormalizeLicensePlate trims and upper-cases a plate.
func NormalizeLicensePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// ValidLicensePlate reports whether a normalized plate has exactly seven
// letters or digits.
func ValidLicensePlate(plate string) bool {
	return licensePlatePattern.MatchString(plate)
}
