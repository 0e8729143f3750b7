package model

import (
	"testing"
	"time"
)

func TestGender_IsValid(t *testing.T) {
	valid := []Gender{GenderMale, GenderFemale, GenderOther, GenderPreferNotToSay}
	for _, g := range valid {
		if !g.IsValid() {
			t.Errorf("expected %q to be valid", g)
		}
	}

	invalid := []Gender{"", "male", "Unknown", "M"}
	for _, g := range invalid {
		if g.IsValid() {
			t.Errorf("expected %q to be invalid", g)
		}
	}
}

func TestValidateBirthday(t *testing.T) {
	tests := []struct {
		name    string
		value   time.Time
		wantErr bool
	}{
		{"lower bound", time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"typical", time.Date(1985, 6, 15, 0, 0, 0, 0, time.UTC), false},
		{"before 1900", time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"future", time.Now().AddDate(1, 0, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBirthday(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBirthday(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}
