package tracking

import (
	"errors"
	"testing"
)

func TestLocationValidateRanges(t *testing.T) {
	cases := []struct {
		name string
		loc  Location
		ok   bool
	}{
		{"valid", Location{Lat: 25.03, Lng: 121.56, SpeedKmh: 30}, true},
		{"lat upper bound", Location{Lat: 90, Lng: 0}, true},
		{"lat over", Location{Lat: 90.0001, Lng: 0}, false},
		{"lat under", Location{Lat: -91, Lng: 0}, false},
		{"lng lower bound", Location{Lat: 0, Lng: -180}, true},
		{"lng over", Location{Lat: 0, Lng: 180.5}, false},
		{"negative speed", Location{Lat: 0, Lng: 0, SpeedKmh: -0.1}, false},
		{"zero everything", Location{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.loc.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
			}
		})
	}
}

func TestReportable(t *testing.T) {
	v := Vehicle{VerificationStatus: VerificationApproved, IsActive: true}
	if !v.Reportable() {
		t.Fatal("approved active vehicle should be reportable")
	}
	v.IsActive = false
	if v.Reportable() {
		t.Fatal("inactive vehicle should not be reportable")
	}
	v = Vehicle{VerificationStatus: VerificationRejected, IsActive: true}
	if v.Reportable() {
		t.Fatal("rejected vehicle should not be reportable")
	}
}
