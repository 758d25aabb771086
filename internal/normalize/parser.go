package normalize

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dbankston2409/mens-health-finder/internal/clinic"
)

// ParseCSV reads a comma-separated stream with a header row and maps
// every data row to a RawRecord keyed by canonical field names.
// A malformed header or an unmappable file fails the whole parse —
// no records are processed from a file we cannot understand.
func ParseCSV(r io.Reader) ([]clinic.RawRecord, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	mapping := MapColumns(header)
	if mapping == nil {
		return nil, fmt.Errorf("no name column detected in header: %v", header)
	}

	var records []clinic.RawRecord
	row := 1
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row+1, err)
		}
		row++

		fields := make(map[string]string)
		for i, val := range cells {
			field, mapped := mapping.FieldMap[i]
			if !mapped {
				continue
			}
			val = strings.TrimSpace(val)
			if val == "" {
				continue
			}
			// First mapped column wins when aliases collide.
			if _, exists := fields[string(field)]; !exists {
				fields[string(field)] = val
			}
		}
		records = append(records, clinic.RawRecord{Fields: fields, Row: row})
	}

	return records, nil
}

// jsonEnvelope matches the accepted JSON shapes: either a bare array
// of record objects, or an object carrying a "clinics" array.
type jsonEnvelope struct {
	Clinics []map[string]any `json:"clinics"`
}

// ParseJSON accepts a top-level array of record objects or an object
// with a clinics property. Keys are run through the same column-alias
// table as CSV headers.
func ParseJSON(r io.Reader) ([]clinic.RawRecord, error) {
	data, err := io.ReadAll(stripBOM(r))
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var objects []map[string]any
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &objects); err != nil {
			return nil, fmt.Errorf("parse JSON array: %w", err)
		}
	} else {
		var env jsonEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("parse JSON object: %w", err)
		}
		if env.Clinics == nil {
			return nil, fmt.Errorf("JSON object has no clinics array")
		}
		objects = env.Clinics
	}

	var records []clinic.RawRecord
	for i, obj := range objects {
		fields := make(map[string]string)
		for key, val := range obj {
			normalized := strings.ToLower(strings.TrimSpace(key))
			field, ok := columnAliases[normalized]
			if !ok {
				continue
			}
			str := stringifyJSONValue(val)
			if str == "" {
				continue
			}
			if _, exists := fields[string(field)]; !exists {
				fields[string(field)] = str
			}
		}
		records = append(records, clinic.RawRecord{Fields: fields, Row: i + 1})
	}

	return records, nil
}

// stringifyJSONValue flattens JSON scalars and string arrays (services
// are sometimes exported as arrays) into the string form the column
// normalizers expect.
func stringifyJSONValue(val any) string {
	switch v := val.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		// Zip codes exported as numbers; Zip() strips any ".0" later.
		return fmt.Sprintf("%v", v)
	case bool:
		return fmt.Sprintf("%t", v)
	case []any:
		var parts []string
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, ";")
	default:
		return ""
	}
}

// stripBOM wraps a reader to strip a UTF-8 BOM if present.
func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return strings.NewReader(string(buf[:n]))
	}
	if buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf[:n])), r)
}
