package countries

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func writeCountriesFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "countries.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadParsesDataFile(t *testing.T) {
	path := writeCountriesFile(t, `[
		{"name": "United States", "iso2": "US"},
		{"name": "Papua New Guinea", "iso2": "pg"},
		{"name": "", "iso2": "XX"},
		{"name": "Broken", "iso2": "BRO"}
	]`)

	r := Load(path, testLogger())

	iso2, ok := r.ISO2("United States")
	require.True(t, ok)
	assert.Equal(t, "US", iso2)

	iso2, ok = r.ISO2("papua new guinea")
	require.True(t, ok)
	assert.Equal(t, "PG", iso2)

	_, ok = r.ISO2("Broken")
	assert.False(t, ok)
}

func TestLoadFallsBackOnMissingFile(t *testing.T) {
	r := Load(filepath.Join(t.TempDir(), "nope.json"), testLogger())

	iso2, ok := r.ISO2("Australia")
	require.True(t, ok)
	assert.Equal(t, "AU", iso2)
}

func TestLoadFallsBackOnUnparseableFile(t *testing.T) {
	path := writeCountriesFile(t, `{not json`)

	r := Load(path, testLogger())

	iso2, ok := r.ISO2("United Kingdom")
	require.True(t, ok)
	assert.Equal(t, "GB", iso2)
}

func TestISO2TokenShapes(t *testing.T) {
	r := Load(filepath.Join(t.TempDir(), "nope.json"), testLogger())

	tests := []struct {
		name  string
		value string
		want  string
		ok    bool
	}{
		{name: "alpha2 passthrough", value: "au", want: "AU", ok: true},
		{name: "alpha2 uppercase", value: "US", want: "US", ok: true},
		{name: "alpha3 mapped", value: "USA", want: "US", ok: true},
		{name: "alpha3 lowercase", value: "gbr", want: "GB", ok: true},
		{name: "alpha3 unknown", value: "ZZZ", ok: false},
		{name: "name lookup", value: "New Zealand", want: "NZ", ok: true},
		{name: "unknown name", value: "Atlantis", ok: false},
		{name: "padded value", value: "  AU  ", want: "AU", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.ISO2(tt.value)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSentinelValuesNeverResolve(t *testing.T) {
	r := Load(filepath.Join(t.TempDir(), "nope.json"), testLogger())

	for _, value := range []string{"", "  ", "NULL", "null", "None", "none"} {
		_, ok := r.ISO2(value)
		assert.False(t, ok, "value %q must be treated as absent", value)
	}
}
