// Package beneficiary loads beneficiary rows from the regional workbook and
// answers lookups and minority questions over them.
package beneficiary

import (
	"strings"
	"time"
)

// AdultAge is the age of majority.
const AdultAge = 18

// Record is one beneficiary row.
type Record struct {
	ID             string
	FirstName      string
	LastName       string
	DocumentNumber string
	DocumentExpiry string
	HouseholdID    string
	// HolderID references the family-unit holder. It is a lookup key only:
	// it may be empty, stale, or point outside the loaded set.
	HolderID    string
	LegalStatus string
	// BirthDate is the zero time when unknown.
	BirthDate  time.Time
	CaseNumber string

	// Row is the 1-based worksheet row, for diagnostics.
	Row int
}

// HasBirthDate reports whether the birth date is known.
func (r Record) HasBirthDate() bool {
	return !r.BirthDate.IsZero()
}

// MinorStatus is the outcome of a minority check.
type MinorStatus struct {
	IsMinor   bool
	BirthDate time.Time
	HolderID  string
}

// AgeAt returns whole years between birth and now, counting a year only once
// its anniversary has been reached.
func AgeAt(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// NormalizeID strips every space from an identifier typed by an operator.
func NormalizeID(id string) string {
	return strings.Join(strings.Fields(id), "")
}
