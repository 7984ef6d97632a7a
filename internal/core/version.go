package core

import (
	"cmp"
	"regexp"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
	debversion "github.com/knqyf263/go-deb-version"

	"module-tool/internal/types"
)

var moduleVersionPattern = regexp.MustCompile(`^(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:[.\-]([0-9A-Za-z][0-9A-Za-z.\-]*))?$`)

// ParseModuleVersion parses "major[.minor[.revision]][-qualifier]".
// Missing numeric parts default to zero.
func ParseModuleVersion(value string) (types.ModuleVersion, error) {
	trimmed := strings.TrimSpace(value)
	matches := moduleVersionPattern.FindStringSubmatch(trimmed)
	if matches == nil {
		return types.ModuleVersion{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid module version: " + value)
	}
	parts := [3]int{}
	for i := range parts {
		if matches[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(matches[i+1])
		if err != nil {
			return types.ModuleVersion{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid module version: " + value).
				WithCause(err)
		}
		parts[i] = n
	}
	return types.ModuleVersion{
		Major:     parts[0],
		Minor:     parts[1],
		Revision:  parts[2],
		Qualifier: matches[4],
	}, nil
}

// MustParseModuleVersion is ParseModuleVersion for literals known to be valid.
func MustParseModuleVersion(value string) types.ModuleVersion {
	v, err := ParseModuleVersion(value)
	if err != nil {
		panic(err)
	}
	return v
}

// CompareModuleVersions orders versions by their numeric triple, then by
// qualifier. A version without a qualifier is newer than the same triple
// with one, so "1.0.0-beta" < "1.0.0".
func CompareModuleVersions(a, b types.ModuleVersion) int {
	if c := cmp.Compare(a.Major, b.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Minor, b.Minor); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Revision, b.Revision); c != 0 {
		return c
	}
	return compareQualifiers(a.Qualifier, b.Qualifier)
}

func compareQualifiers(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return 1
	}
	if b == "" {
		return -1
	}
	// alpha/beta/rc style tags and their aliases follow PEP 440 ordering.
	pa, errA := pep440.Parse("0-" + a)
	pb, errB := pep440.Parse("0-" + b)
	if errA == nil && errB == nil && pa.IsPreRelease() && pb.IsPreRelease() {
		return cmp.Compare(pa.Compare(pb), 0)
	}
	da, errA := debversion.NewVersion(qualifierAsUpstream(a))
	db, errB := debversion.NewVersion(qualifierAsUpstream(b))
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return cmp.Compare(da.Compare(db), 0)
}

// qualifierAsUpstream renders a qualifier as a Debian upstream version so
// embedded numbers compare numerically ("b9" < "b10").
func qualifierAsUpstream(q string) string {
	return "0." + strings.ReplaceAll(q, "-", ".")
}

// VersionInRange reports whether v lies in the inclusive range [min, max].
// Nil bounds are unbounded.
func VersionInRange(v types.ModuleVersion, min, max *types.ModuleVersion) bool {
	if min != nil && CompareModuleVersions(v, *min) < 0 {
		return false
	}
	if max != nil && CompareModuleVersions(v, *max) > 0 {
		return false
	}
	return true
}

// ParseVersionRange parses a dependency range: "*" or empty for any
// version, "min-max", "min-", "-max", or a single version meaning exactly
// that version. Qualifiers may contain '-', so "v-v" with identical halves
// is read as exactly v; otherwise the split point is the first '-' whose
// two sides both parse.
func ParseVersionRange(value string) (*types.ModuleVersion, *types.ModuleVersion, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == "*" {
		return nil, nil, nil
	}
	if half := len(trimmed) / 2; len(trimmed)%2 == 1 && trimmed[half] == '-' && trimmed[:half] == trimmed[half+1:] {
		if exact, err := ParseModuleVersion(trimmed[:half]); err == nil {
			low, high := exact, exact
			return &low, &high, nil
		}
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != '-' {
			continue
		}
		low, okLow := parseRangeBound(trimmed[:i])
		high, okHigh := parseRangeBound(trimmed[i+1:])
		if okLow && okHigh {
			return low, high, nil
		}
	}
	exact, err := ParseModuleVersion(trimmed)
	if err != nil {
		return nil, nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid version range: " + value).
			WithCause(err)
	}
	low, high := exact, exact
	return &low, &high, nil
}

func parseRangeBound(value string) (*types.ModuleVersion, bool) {
	value = strings.TrimSpace(value)
	if value == "" || value == "*" {
		return nil, true
	}
	v, err := ParseModuleVersion(value)
	if err != nil {
		return nil, false
	}
	return &v, true
}

// FormatVersionRange is the inverse of ParseVersionRange. An exact
// version with a qualifier is written as "v-v", since "1.0.0-2" alone
// would read back as the range 1.0.0 to 2.
func FormatVersionRange(min, max *types.ModuleVersion) string {
	switch {
	case min == nil && max == nil:
		return "*"
	case min != nil && max != nil && *min == *max:
		if min.Qualifier == "" {
			return min.String()
		}
		return min.String() + "-" + min.String()
	}
	var b strings.Builder
	if min != nil {
		b.WriteString(min.String())
	}
	b.WriteString("-")
	if max != nil {
		b.WriteString(max.String())
	}
	return b.String()
}
