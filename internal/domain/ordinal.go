package domain

import (
	"fmt"
	"regexp"
)

// Ordinal prefixes are two or more digits followed by a dash. Width grows
// naturally past 99 files; two digits is the minimum.
var ordinalPrefixRegex = regexp.MustCompile(`^[0-9]{2,}-`)

// HasOrdinalPrefix reports whether a filename carries an ordinal prefix.
func HasOrdinalPrefix(name string) bool {
	return ordinalPrefixRegex.MatchString(name)
}

// StripOrdinalPrefix removes an existing ordinal prefix, returning the
// original stem. Names without a prefix are returned unchanged.
func StripOrdinalPrefix(name string) string {
	return ordinalPrefixRegex.ReplaceAllString(name, "")
}

// OrdinalName returns the canonical filename for a position: the
// zero-padded ordinal, a dash, and the stem with any previous ordinal
// prefix stripped.
func OrdinalName(position int, name string) string {
	return fmt.Sprintf("%02d-%s", position, StripOrdinalPrefix(name))
}
