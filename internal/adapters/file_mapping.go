package adapters

import (
	"context"
	_ "embed"

	"github.com/magiconair/properties"
	"github.com/rs/zerolog/log"

	"module-tool/internal/core"
	"module-tool/internal/ports"
	"module-tool/internal/shared"
	"module-tool/internal/types"
)

//go:embed default-file-mapping.properties
var defaultFileMapping []byte

// FileMappingAdapter loads the built-in mapping rules, or a replacement
// file when DefaultsPath is set, and merges a package's
// file-mapping.properties over them.
type FileMappingAdapter struct {
	fs           ports.ArchiveFSPort
	DefaultsPath string
}

func NewFileMappingAdapter(fs ports.ArchiveFSPort, defaultsPath string) FileMappingAdapter {
	return FileMappingAdapter{fs: fs, DefaultsPath: defaultsPath}
}

func (a FileMappingAdapter) Rules(ctx context.Context, pkg string) ([]types.FileMappingRule, error) {
	defaults, err := a.Defaults()
	if err != nil {
		return nil, err
	}
	overridePath := shared.Join(pkg, shared.FileMappingFileName)
	if !a.fs.Exists(overridePath) {
		return core.ValidateFileMappings(core.MergeFileMappings(defaults, nil, true))
	}
	data, err := a.fs.ReadFile(overridePath)
	if err != nil {
		return nil, err
	}
	props, err := decodeProperties(data, overridePath)
	if err != nil {
		return nil, err
	}
	includeDefaults := props.GetBool(shared.IncludeDefaultKey, true)
	var overrides []types.FileMappingRule
	for _, key := range props.Keys() {
		if key == shared.IncludeDefaultKey {
			continue
		}
		value, _ := props.Get(key)
		overrides = append(overrides, types.FileMappingRule{Source: key, Dest: value})
	}
	log.Ctx(ctx).Debug().
		Str("path", overridePath).
		Bool("include_default", includeDefaults).
		Int("rules", len(overrides)).
		Msg("using custom file mapping")
	return core.ValidateFileMappings(core.MergeFileMappings(defaults, overrides, includeDefaults))
}

// Defaults returns the default rules in file order.
func (a FileMappingAdapter) Defaults() ([]types.FileMappingRule, error) {
	data := defaultFileMapping
	source := "default file mapping"
	if a.DefaultsPath != "" {
		loaded, err := a.fs.ReadFile(a.DefaultsPath)
		if err != nil {
			return nil, err
		}
		data = loaded
		source = a.DefaultsPath
	}
	props, err := decodeProperties(data, source)
	if err != nil {
		return nil, err
	}
	return rulesFromProperties(props), nil
}

func rulesFromProperties(props *properties.Properties) []types.FileMappingRule {
	rules := make([]types.FileMappingRule, 0, props.Len())
	for _, key := range props.Keys() {
		value, _ := props.Get(key)
		rules = append(rules, types.FileMappingRule{Source: key, Dest: value})
	}
	return rules
}

var _ ports.FileMappingPort = FileMappingAdapter{}
