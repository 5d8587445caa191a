package validator

import (
	"testing"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidUUID(t *testing.T) {
	valid := []string{
		"0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b",
		"0188D0F2-7B8C-7B4A-8A2B-6B8B8B8B8B8B",
	}
	invalid := []string{
		"123e4567-e89b-12d3-a456-426614174000", // not v7
		"0188d0f27b8c7b4a8a2b6b8b8b8b8b8b",     // missing dashes
		"g188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", // invalid hex
		"",
	}
	for _, uuid := range valid {
		if !IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = false, want true", uuid)
		}
	}
	for _, uuid := range invalid {
		if IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = true, want false", uuid)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2023-01-01", "2000-12-31"}
	invalid := []string{"2023-13-01", "2023-02-30", "01-01-2023", "", "2023/01/01"}
	for _, s := range valid {
		if _, ok := IsValidDate(s); !ok {
			t.Errorf("IsValidDate(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if _, ok := IsValidDate(s); ok {
			t.Errorf("IsValidDate(%q) = true, want false", s)
		}
	}
}

func TestIsValidClockTime(t *testing.T) {
	valid := []string{"00:00", "09:00", "23:59"}
	invalid := []string{"24:00", "9:00", "09:60", "0900", ""}
	for _, s := range valid {
		if !IsValidClockTime(s) {
			t.Errorf("IsValidClockTime(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsValidClockTime(s) {
			t.Errorf("IsValidClockTime(%q) = true, want false", s)
		}
	}
}

func TestIsValidDateTime(t *testing.T) {
	valid := []string{"2024-01-15T10:30:00Z", "2024-01-15T10:30:00+07:00", "2024-01-15T10:30:00.123456789-05:00"}
	invalid := []string{"2024-01-15T10:30:00", "2024-01-15 10:30:00", "2024-01-15", ""}
	for _, s := range valid {
		if _, ok := IsValidDateTime(s); !ok {
			t.Errorf("IsValidDateTime(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if _, ok := IsValidDateTime(s); ok {
			t.Errorf("IsValidDateTime(%q) = true, want false", s)
		}
	}
}

type sampleRequest struct {
	PersonID  string   `json:"person_id" validate:"required"`
	Context   string   `json:"context" validate:"omitempty,oneof=daily subject event"`
	Timestamp string   `json:"timestamp" validate:"required,datetime_offset"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Expected  string   `json:"expected_check_in" validate:"omitempty,clock"`
	Internal  string   `json:"-"`
}

func TestStruct(t *testing.T) {
	lat := 91.0
	errs := Struct(sampleRequest{
		Context:   "weekly",
		Timestamp: "2024-01-15T10:30:00",
		Latitude:  &lat,
		Expected:  "25:00",
	})

	got := errs.ToMap()
	want := map[string]string{
		"person_id":         "is required",
		"context":           "must be one of: daily, subject, event",
		"timestamp":         "must be RFC3339 with an explicit offset",
		"latitude":          "must be a valid latitude",
		"expected_check_in": "must be in HH:MM format",
	}
	if len(got) != len(want) {
		t.Fatalf("Struct() returned %d errors, want %d: %v", len(got), len(want), got)
	}
	for field, msg := range want {
		if got[field] != msg {
			t.Errorf("Struct() field %q = %q, want %q", field, got[field], msg)
		}
	}

	if errs := Struct(sampleRequest{PersonID: "p", Timestamp: "2024-01-15T10:30:00Z"}); errs != nil {
		t.Errorf("Struct() on valid input = %v, want nil", errs)
	}
}

func TestValidationErrorsOrNil(t *testing.T) {
	var errs ValidationErrors
	if errs.OrNil() != nil {
		t.Errorf("OrNil() on empty errors should be nil")
	}
	errs.Add("date", "is required")
	if errs.OrNil() == nil || !errs.Has("date") {
		t.Errorf("OrNil() should return the collected errors")
	}
}
