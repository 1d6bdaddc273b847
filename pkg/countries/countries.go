// Package countries resolves source-side country values (ISO codes or
// free-text names) to ISO-3166 alpha-2 codes.
package countries

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/Gobusters/ectologger"
)

// alpha3 maps the ISO-3166 alpha-3 codes seen in the source data to alpha-2.
var alpha3 = map[string]string{
	"AUS": "AU", "AUT": "AT", "BEL": "BE", "CAN": "CA", "CHE": "CH",
	"CHN": "CN", "DEU": "DE", "DNK": "DK", "ESP": "ES", "FRA": "FR",
	"GBR": "GB", "GRC": "GR", "IND": "IN", "IRL": "IE", "ITA": "IT",
	"JPN": "JP", "MEX": "MX", "NLD": "NL", "NOR": "NO", "NZL": "NZ",
	"POL": "PL", "PRT": "PT", "RUS": "RU", "SWE": "SE", "USA": "US",
	"ZAF": "ZA",
}

// fallbackNames is the minimal name map used when the data file is missing
// or unparseable.
var fallbackNames = map[string]string{
	"australia":      "AU",
	"austria":        "AT",
	"canada":         "CA",
	"china":          "CN",
	"france":         "FR",
	"germany":        "DE",
	"great britain":  "GB",
	"india":          "IN",
	"ireland":        "IE",
	"italy":          "IT",
	"japan":          "JP",
	"mexico":         "MX",
	"netherlands":    "NL",
	"new zealand":    "NZ",
	"russia":         "RU",
	"south africa":   "ZA",
	"spain":          "ES",
	"switzerland":    "CH",
	"united kingdom": "GB",
	"united states":  "US",
}

type countryEntry struct {
	Name string `json:"name"`
	ISO2 string `json:"iso2"`
}

// Resolver maps country names to alpha-2 codes. Construct with Load.
type Resolver struct {
	byName map[string]string
}

// Load reads the countries data file. On any read or parse failure it logs a
// warning and falls back to the built-in minimal name map.
func Load(path string, logger ectologger.Logger) *Resolver {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.WithError(err).WithField("path", path).Warn("Countries file unreadable, using built-in fallback")
		return &Resolver{byName: fallbackNames}
	}

	var entries []countryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.WithError(err).WithField("path", path).Warn("Countries file unparseable, using built-in fallback")
		return &Resolver{byName: fallbackNames}
	}

	byName := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.Name == "" || len(entry.ISO2) != 2 {
			continue
		}
		byName[strings.ToLower(entry.Name)] = strings.ToUpper(entry.ISO2)
	}
	if len(byName) == 0 {
		logger.WithField("path", path).Warn("Countries file had no usable entries, using built-in fallback")
		return &Resolver{byName: fallbackNames}
	}

	return &Resolver{byName: byName}
}

// IsSentinel reports whether the raw value is one of the source's
// null-equivalent markers.
func IsSentinel(value string) bool {
	switch strings.TrimSpace(value) {
	case "", "NULL", "null", "None", "none":
		return true
	}
	return false
}

// ISO2 resolves a raw source country value to an alpha-2 code. Two-letter
// tokens pass through as alpha-2, three-letter tokens go through the alpha-3
// table, anything else is treated as a country name.
func (r *Resolver) ISO2(value string) (string, bool) {
	if IsSentinel(value) {
		return "", false
	}

	token := strings.TrimSpace(value)
	switch len(token) {
	case 2:
		return strings.ToUpper(token), true
	case 3:
		iso2, ok := alpha3[strings.ToUpper(token)]
		return iso2, ok
	}

	iso2, ok := r.byName[strings.ToLower(token)]
	return iso2, ok
}
