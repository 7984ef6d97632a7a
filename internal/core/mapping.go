package core

import (
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"module-tool/internal/types"
)

// MergeFileMappings layers override rules on top of the defaults. Override
// entries win on source collisions; the defaults are dropped entirely when
// includeDefaults is false. The result is sorted by source prefix.
func MergeFileMappings(defaults []types.FileMappingRule, overrides []types.FileMappingRule, includeDefaults bool) []types.FileMappingRule {
	merged := map[string]string{}
	if includeDefaults {
		for _, rule := range defaults {
			merged[rule.Source] = rule.Dest
		}
	}
	for _, rule := range overrides {
		merged[rule.Source] = rule.Dest
	}
	out := make([]types.FileMappingRule, 0, len(merged))
	for source, dest := range merged {
		out = append(out, types.FileMappingRule{Source: source, Dest: dest})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// ValidateFileMappings checks that every prefix is non-empty and rooted,
// and normalizes the root prefix "/" to "".
func ValidateFileMappings(rules []types.FileMappingRule) ([]types.FileMappingRule, error) {
	out := make([]types.FileMappingRule, 0, len(rules))
	for _, rule := range rules {
		source, err := normalizeMappingPrefix(rule.Source, "source", rule)
		if err != nil {
			return nil, err
		}
		dest, err := normalizeMappingPrefix(rule.Dest, "destination", rule)
		if err != nil {
			return nil, err
		}
		out = append(out, types.FileMappingRule{Source: source, Dest: dest})
	}
	return out, nil
}

func normalizeMappingPrefix(value string, side string, rule types.FileMappingRule) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid file mapping " + rule.Source + "=" + rule.Dest + ": " + side + " path is empty")
	}
	if !strings.HasPrefix(trimmed, "/") {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid file mapping " + rule.Source + "=" + rule.Dest + ": " + side + " path must start with '/'")
	}
	return strings.TrimRight(trimmed, "/"), nil
}
