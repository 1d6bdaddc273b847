// Package grading normalizes numismatic grades from the 70-point Sheldon
// scale onto the 10-point scale used by the storefront.
package grading

import (
	"fmt"
	"regexp"
	"strings"
)

// scale maps Sheldon grade keys to their 10-point equivalents. Keys are
// ordered ascending; values outside the key set snap to the nearest key.
var scale = []struct {
	key   int
	grade float64
}{
	{1, 0.5}, {2, 1.0}, {3, 1.5}, {4, 2.0}, {6, 2.5}, {8, 3.0},
	{10, 3.5}, {12, 4.0}, {15, 4.5}, {20, 5.0}, {25, 5.5}, {30, 6.0},
	{35, 6.5}, {40, 7.0}, {45, 7.5}, {50, 8.0}, {55, 8.5}, {60, 9.0},
	{61, 9.1}, {62, 9.2}, {63, 9.3}, {64, 9.4}, {65, 9.5}, {66, 9.6},
	{67, 9.7}, {68, 9.8}, {69, 9.9}, {70, 10.0},
}

// ConvertTo10PointScale maps a Sheldon grade onto the 10-point scale. Values
// outside the key set return the grade of the nearest key; ties break toward
// the smaller key.
func ConvertTo10PointScale(value int) float64 {
	best := scale[0]
	bestDist := abs(value - best.key)
	for _, entry := range scale[1:] {
		if d := abs(value - entry.key); d < bestDist {
			best = entry
			bestDist = d
		}
	}
	return best.grade
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Grade is a parsed grading-service designation, e.g. MS65BN.
type Grade struct {
	Prefix string
	Value  int
	Suffix string
}

// Text renders the grade back into its compact text form. A zero grade
// renders as the empty string.
func (g Grade) Text() string {
	if g.Prefix == "" && g.Value == 0 && g.Suffix == "" {
		return ""
	}
	return fmt.Sprintf("%s%d%s", g.Prefix, g.Value, g.Suffix)
}

var metaTitleGrade = regexp.MustCompile(`(?:PCGS|NGC|ANACS)\s+([A-Z]+)(\d+)([A-Z]+)?`)

// ParseMetaTitle extracts a grade from a product meta title of the form
// "<service> <prefix><value><suffix>" where the service is one of PCGS, NGC
// or ANACS. Returns false when no such designation is present.
func ParseMetaTitle(metaTitle string) (Grade, bool) {
	match := metaTitleGrade.FindStringSubmatch(metaTitle)
	if match == nil {
		return Grade{}, false
	}

	var value int
	for _, r := range match[2] {
		value = value*10 + int(r-'0')
	}

	return Grade{
		Prefix: strings.ToUpper(match[1]),
		Value:  value,
		Suffix: match[3],
	}, true
}
