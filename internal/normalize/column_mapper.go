package normalize

import "strings"

// CanonicalField is a normalized field name used across all import sources.
type CanonicalField string

const (
	FieldName     CanonicalField = "name"
	FieldAddress  CanonicalField = "address"
	FieldCity     CanonicalField = "city"
	FieldState    CanonicalField = "state"
	FieldZip      CanonicalField = "zip"
	FieldCountry  CanonicalField = "country"
	FieldPhone    CanonicalField = "phone"
	FieldWebsite  CanonicalField = "website"
	FieldEmail    CanonicalField = "email"
	FieldServices CanonicalField = "services"
	FieldTier     CanonicalField = "tier"
)

// columnAliases maps lowercase header names to canonical fields.
// When multiple raw headers mean the same thing, they all map here.
var columnAliases = map[string]CanonicalField{
	// Clinic name
	"name":          FieldName,
	"clinic_name":   FieldName,
	"clinic name":   FieldName,
	"business_name": FieldName,
	"practice_name": FieldName,

	// Location
	"address":        FieldAddress,
	"street_address": FieldAddress,
	"street address": FieldAddress,
	"addr":           FieldAddress,
	"city":           FieldCity,
	"state":          FieldState,
	"province":       FieldState,
	"zip":            FieldZip,
	"zipcode":        FieldZip,
	"zip_code":       FieldZip,
	"postal_code":    FieldZip,
	"post code":      FieldZip,
	"country":        FieldCountry,
	"country_code":   FieldCountry,

	// Contact
	"phone":        FieldPhone,
	"phone_number": FieldPhone,
	"telephone":    FieldPhone,
	"website":      FieldWebsite,
	"url":          FieldWebsite,
	"web":          FieldWebsite,
	"site":         FieldWebsite,
	"email":        FieldEmail,
	"email_address": FieldEmail,
	"e-mail":       FieldEmail,

	// Classification
	"services":    FieldServices,
	"service":     FieldServices,
	"specialties": FieldServices,
	"tier":        FieldTier,
	"package":     FieldTier,
	"plan":        FieldTier,
}

// ColumnMapping holds the resolved mapping from CSV column indices to
// canonical fields.
type ColumnMapping struct {
	FieldMap map[int]CanonicalField // column index -> canonical field
	RawNames []string               // original header names
}

// MapColumns takes a raw CSV header row and returns a resolved mapping.
// Returns nil if no name column is found — a file without clinic names
// cannot produce a single valid record.
func MapColumns(header []string) *ColumnMapping {
	m := &ColumnMapping{
		FieldMap: make(map[int]CanonicalField, len(header)),
		RawNames: header,
	}

	nameIdx := -1
	for i, h := range header {
		normalized := strings.ToLower(strings.TrimSpace(h))
		normalized = strings.Trim(normalized, "\"'")

		if field, ok := columnAliases[normalized]; ok {
			m.FieldMap[i] = field
			if field == FieldName && nameIdx < 0 {
				nameIdx = i
			}
		}
	}

	// Fallback: any header containing "name" if no exact match
	if nameIdx < 0 {
		for i, h := range header {
			if strings.Contains(strings.ToLower(h), "name") {
				m.FieldMap[i] = FieldName
				nameIdx = i
				break
			}
		}
	}

	if nameIdx < 0 {
		return nil
	}
	return m
}
