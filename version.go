package ngff

import (
	"github.com/blang/semver"
)

// LatestVersion is the NGFF version written by Write.
const LatestVersion = "0.4"

// variant captures what one NGFF version requires of a multiscale entry.
// Fields shared by all versions are parsed the same way for every variant.
type variant struct {
	version            semver.Version
	axesRequired       bool
	transformsRequired bool
}

var variants = []variant{
	{version: semver.MustParse("0.1.0")},
	{version: semver.MustParse("0.2.0")},
	{version: semver.MustParse("0.3.0")},
	{version: semver.MustParse("0.4.0"), axesRequired: true, transformsRequired: true},
}

// lenientVariant is used for versions outside the supported range.
var lenientVariant = variant{}

// lookupVariant returns the variant for a version string such as "0.4". The
// second result is false when the version is unknown or cannot be parsed, in
// which case the lenient variant is returned.
func lookupVariant(version string) (variant, bool) {
	v, err := semver.ParseTolerant(version)
	if err != nil {
		return lenientVariant, false
	}
	for _, vr := range variants {
		if vr.version.Major == v.Major && vr.version.Minor == v.Minor && len(v.Pre) == 0 {
			return vr, true
		}
	}
	return lenientVariant, false
}

// SupportedVersion reports whether version is one of 0.1 to 0.4.
func SupportedVersion(version string) bool {
	_, ok := lookupVariant(version)
	return ok
}
