package normalize

import (
	"reflect"
	"testing"
)

func TestPhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"dotted", "512.555.1234", "(512) 555-1234"},
		{"dashed", "512-555-1234", "(512) 555-1234"},
		{"bare digits", "5125551234", "(512) 555-1234"},
		{"already formatted", "(512) 555-1234", "(512) 555-1234"},
		{"leading one", "1-512-555-1234", "(512) 555-1234"},
		{"leading one no separators", "15125551234", "(512) 555-1234"},
		{"too short kept verbatim", "555-1234", "555-1234"},
		{"letters kept verbatim", "abc", "abc"},
		{"eleven digits no leading one", "25125551234", "25125551234"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Phone(tt.raw); got != tt.want {
				t.Errorf("Phone(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPhoneIdempotent(t *testing.T) {
	inputs := []string{"512.555.1234", "abc", "(512) 555-1234", "555-1234", ""}
	for _, raw := range inputs {
		once := Phone(raw)
		if twice := Phone(once); twice != once {
			t.Errorf("Phone not idempotent on %q: first %q, second %q", raw, once, twice)
		}
	}
}

func TestWebsite(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare domain", "premium-mens-health.com", "https://premium-mens-health.com/"},
		{"http preserved", "http://example.com/contact", "http://example.com/contact"},
		{"https passthrough", "https://example.com/", "https://example.com/"},
		{"path kept", "example.com/locations/austin", "https://example.com/locations/austin"},
		{"whitespace trimmed", "  example.com  ", "https://example.com/"},
		{"empty", "", ""},
		{"garbage kept verbatim", "http://", "http://"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Website(tt.raw); got != tt.want {
				t.Errorf("Website(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestWebsiteIdempotent(t *testing.T) {
	inputs := []string{"premium-mens-health.com", "http://example.com/contact", ""}
	for _, raw := range inputs {
		once := Website(raw)
		if twice := Website(once); twice != once {
			t.Errorf("Website not idempotent on %q: first %q, second %q", raw, once, twice)
		}
	}
}

func TestName(t *testing.T) {
	if got := Name("  AUSTIN MENS HEALTH  "); got != "Austin Mens Health" {
		t.Errorf("Name = %q", got)
	}
	if got := Name(""); got != "" {
		t.Errorf("Name(\"\") = %q", got)
	}
}

func TestZip(t *testing.T) {
	if got := Zip("78701.0"); got != "78701" {
		t.Errorf("Zip(\"78701.0\") = %q", got)
	}
	if got := Zip(" 78701 "); got != "78701" {
		t.Errorf("Zip = %q", got)
	}
}

func TestServices(t *testing.T) {
	got := Services("TRT; ED Treatment;trt ; Weight Loss")
	want := []string{"TRT", "ED Treatment", "Weight Loss"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Services = %v, want %v", got, want)
	}

	if got := Services("TRT, ED Treatment"); !reflect.DeepEqual(got, []string{"TRT", "ED Treatment"}) {
		t.Errorf("comma split = %v", got)
	}
	if got := Services(""); got != nil {
		t.Errorf("Services(\"\") = %v, want nil", got)
	}
}

func TestEmail(t *testing.T) {
	if got := Email(` "Info@Clinic.COM" `); got != "info@clinic.com" {
		t.Errorf("Email = %q", got)
	}
}
