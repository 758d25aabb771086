package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	input := "Clinic Name,Street_Address,City,State,Zipcode,Phone_Number,URL\n" +
		"Austin Mens Health,100 Congress Ave,Austin,TX,78701,512.555.1234,amh.com\n" +
		"Dallas Vitality,,Dallas,TX,75201,,\n"

	records, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, "Austin Mens Health", first.Get("name"))
	assert.Equal(t, "100 Congress Ave", first.Get("address"))
	assert.Equal(t, "78701", first.Get("zip"))
	assert.Equal(t, "512.555.1234", first.Get("phone"))
	assert.Equal(t, "amh.com", first.Get("website"))

	second := records[1]
	assert.Equal(t, 3, second.Row)
	assert.Equal(t, "Dallas Vitality", second.Get("name"))
	assert.Equal(t, "", second.Get("address"))
}

func TestParseCSVStripsBOM(t *testing.T) {
	input := "\xEF\xBB\xBFname,city,state\nClinic,Austin,TX\n"
	records, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Clinic", records[0].Get("name"))
}

func TestParseCSVNoNameColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("city,state\nAustin,TX\n"))
	assert.Error(t, err)
}

func TestParseCSVEmpty(t *testing.T) {
	records, err := ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseJSONArray(t *testing.T) {
	input := `[
		{"clinic_name": "Austin Mens Health", "city": "Austin", "state": "TX", "zip": 78701.0,
		 "services": ["TRT", "ED Treatment"]},
		{"name": "Dallas Vitality", "city": "Dallas", "state": "TX"}
	]`
	records, err := ParseJSON(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Austin Mens Health", records[0].Get("name"))
	assert.Equal(t, "78701", Zip(records[0].Get("zip")))
	assert.Equal(t, "TRT;ED Treatment", records[0].Get("services"))
	assert.Equal(t, 1, records[0].Row)
	assert.Equal(t, "Dallas Vitality", records[1].Get("name"))
}

func TestParseJSONEnvelope(t *testing.T) {
	input := `{"clinics": [{"name": "Austin Mens Health", "city": "Austin", "state": "TX"}]}`
	records, err := ParseJSON(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Austin Mens Health", records[0].Get("name"))
}

func TestParseJSONMalformed(t *testing.T) {
	_, err := ParseJSON(strings.NewReader(`{"nope": true}`))
	assert.Error(t, err)
	_, err = ParseJSON(strings.NewReader(`[{"name": "x"`))
	assert.Error(t, err)
}

func TestMapColumnsFallback(t *testing.T) {
	m := MapColumns([]string{"Provider Name", "city", "state"})
	require.NotNil(t, m)
	assert.Equal(t, FieldName, m.FieldMap[0])
}
