package geocoding

import (
	"regexp"
	"strings"
)

// streetNumberPattern matches a trailing house number such as "Veveří 12"
// or "Cejl 68/112".
var streetNumberPattern = regexp.MustCompile(`\d+[a-zA-Z]?(?:/\d+[a-zA-Z]?)?\s*$`)

// regionPrefixes are qualifier words that never help a place lookup.
var regionPrefixes = []string{"okres", "kraj", "část obce", "district", "region"}

// QueryFromLocation derives a geocoding query from a listing's free-text
// location. Best effort only: it usually yields a plausible city or town
// name, nothing stronger. The first comma-delimited segment is preferred
// unless it looks like "street + house number", in which case the next
// segment is used; trailing district/region qualifiers are stripped.
func QueryFromLocation(location string) string {
	parts := strings.Split(location, ",")
	candidate := strings.TrimSpace(parts[0])

	if streetNumberPattern.MatchString(candidate) && len(parts) > 1 {
		candidate = strings.TrimSpace(parts[1])
	}

	// "Brno - Královo Pole" -> "Brno"
	if i := strings.Index(candidate, " - "); i >= 0 {
		candidate = strings.TrimSpace(candidate[:i])
	}

	lower := strings.ToLower(candidate)
	for _, prefix := range regionPrefixes {
		if strings.HasPrefix(lower, prefix+" ") {
			candidate = strings.TrimSpace(candidate[len(prefix)+1:])
			break
		}
	}

	return candidate
}
