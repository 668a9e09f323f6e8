package geocoding

import (
	"regexp"
	"strings"
)

var postcodePattern = regexp.MustCompile(`(?i)\b([A-Z]{1,2}[0-9][A-Z0-9]?)\s*([0-9][A-Z]{2})\b`)

// countryNames are trailing address parts that only repeat the country.
var countryNames = map[string]bool{
	"uk":             true,
	"gb":             true,
	"united kingdom": true,
	"great britain":  true,
	"england":        true,
	"scotland":       true,
	"wales":          true,
}

// ExtractPostcode finds the last UK postcode in an address and returns it in
// canonical form ("B5 6DY") together with its outward code ("B5").
func ExtractPostcode(address string) (string, string, bool) {
	matches := postcodePattern.FindAllStringSubmatch(address, -1)
	if len(matches) == 0 {
		return "", "", false
	}

	last := matches[len(matches)-1]
	outward := strings.ToUpper(last[1])
	inward := strings.ToUpper(last[2])

	return outward + " " + inward, outward, true
}

// addressParts splits an address on commas, dropping empty and country parts.
func addressParts(address string) []string {
	raw := strings.Split(address, ",")
	parts := make([]string, 0, len(raw))

	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" || countryNames[strings.ToLower(p)] {
			continue
		}
		parts = append(parts, p)
	}

	return parts
}

func isPostcode(part string) bool {
	loc := postcodePattern.FindStringIndex(part)

	return loc != nil && loc[0] == 0 && loc[1] == len(part)
}
