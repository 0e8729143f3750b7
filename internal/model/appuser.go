// Package model defines domain entities for the application.
package model

import (
	"fmt"
	"time"
)

// Gender is the closed set of gender values for an app user.
type Gender string

const (
	GenderMale           Gender = "Male"
	GenderFemale         Gender = "Female"
	GenderOther          Gender = "Other"
	GenderPreferNotToSay Gender = "Prefer not to say"
)

// IsValid checks if the gender is one of the allowed values.
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderPreferNotToSay:
		return true
	}
	return false
}

// BirthdayMin is the earliest accepted birthday.
var BirthdayMin = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// ValidateBirthday checks that a birthday falls within [1900-01-01, today].
func ValidateBirthday(t time.Time) error {
	if t.Before(BirthdayMin) {
		return fmt.Errorf("birthday cannot be before %s", BirthdayMin.Format("2006-01-02"))
	}
	if t.After(time.Now()) {
		return fmt.Errorf("birthday cannot be in the future")
	}
	return nil
}

// Address is a postal address owned by the users referencing it.
// Deleting an address cascades to its dependent users.
type Address struct {
	ID           string `json:"-"`
	Street       string `json:"street"`
	StreetNumber string `json:"street_number"`
	CityCode     string `json:"city_code"`
	City         string `json:"city"`
	Country      string `json:"country"`
}

// CustomerRelationship is one loyalty record for an app user.
// The pair (appuser, created) is unique.
type CustomerRelationship struct {
	ID           string     `json:"-"`
	AppUserID    string     `json:"-"`
	Points       int        `json:"points"`
	Created      time.Time  `json:"created"`
	LastActivity *time.Time `json:"last_activity"`
}

// AppUser is the primary entity of the customer graph. It aggregates
// exactly one address and its full relationship history, ordered by
// creation timestamp descending.
type AppUser struct {
	ID            string                 `json:"id"`
	FirstName     string                 `json:"first_name"`
	LastName      string                 `json:"last_name"`
	Gender        Gender                 `json:"gender"`
	CustomerID    string                 `json:"customer_id"`
	PhoneNumber   *string                `json:"phone_number"`
	Birthday      *time.Time             `json:"birthday"`
	Created       time.Time              `json:"created"`
	LastUpdated   time.Time              `json:"last_updated"`
	Address       Address                `json:"address"`
	Relationships []CustomerRelationship `json:"relationships"`
}
