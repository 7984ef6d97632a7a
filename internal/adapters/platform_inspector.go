package adapters

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"module-tool/internal/ports"
	"module-tool/internal/shared"
	"module-tool/internal/types"
)

const (
	manifestSpecificationTitle   = "Specification-Title"
	manifestSpecificationVersion = "Specification-Version"
	manifestImplementationTitle  = "Implementation-Title"
	frontEndTitle                = "Alfresco Share"
	communityMarker              = "community"
)

// PlatformInspectorAdapter reads version and edition facts from a
// container: version.properties first, the manifest otherwise.
type PlatformInspectorAdapter struct {
	fs ports.ArchiveFSPort
}

func NewPlatformInspectorAdapter(fs ports.ArchiveFSPort) PlatformInspectorAdapter {
	return PlatformInspectorAdapter{fs: fs}
}

func (a PlatformInspectorAdapter) Inspect(ctx context.Context, container string) (types.PlatformFacts, error) {
	facts := types.PlatformFacts{}
	versionPath := shared.Join(container, shared.VersionResourcePath)
	if a.fs.Exists(versionPath) {
		data, err := a.fs.ReadFile(versionPath)
		if err != nil {
			return types.PlatformFacts{}, err
		}
		props, err := decodeProperties(data, versionPath)
		if err != nil {
			return types.PlatformFacts{}, err
		}
		if major := props.GetString("version.major", ""); major != "" {
			facts.Version = strings.Join([]string{
				major,
				props.GetString("version.minor", "0"),
				props.GetString("version.revision", "0"),
			}, ".")
			facts.VersionSource = shared.VersionResourcePath
		}
		if edition := props.GetString("version.edition", ""); edition != "" {
			facts.Edition = edition
			facts.EditionSource = shared.VersionResourcePath
		}
	}

	manifestPath := shared.Join(container, shared.ManifestPath)
	if a.fs.Exists(manifestPath) {
		data, err := a.fs.ReadFile(manifestPath)
		if err != nil {
			return types.PlatformFacts{}, err
		}
		attrs := parseManifest(data)
		if !facts.HasVersion() && attrs[manifestSpecificationVersion] != "" {
			facts.Version = attrs[manifestSpecificationVersion]
			facts.VersionSource = shared.ManifestPath + " " + manifestSpecificationVersion
		}
		if !facts.HasEdition() && attrs[manifestImplementationTitle] != "" {
			facts.Edition = attrs[manifestImplementationTitle]
			facts.EditionSource = shared.ManifestPath + " " + manifestImplementationTitle
		}
		facts.Community = containsFold(attrs[manifestImplementationTitle], communityMarker) ||
			containsFold(attrs[manifestSpecificationTitle], communityMarker)
		facts.FrontEnd = strings.EqualFold(attrs[manifestSpecificationTitle], frontEndTitle)
	}
	facts.Community = facts.Community || containsFold(facts.Edition, communityMarker)
	log.Ctx(ctx).Debug().
		Str("container", container).
		Str("version", facts.Version).
		Str("edition", facts.Edition).
		Bool("community", facts.Community).
		Bool("front_end", facts.FrontEnd).
		Msg("inspected platform")
	return facts, nil
}

func containsFold(value string, marker string) bool {
	return strings.Contains(strings.ToLower(value), marker)
}

var _ ports.PlatformPort = PlatformInspectorAdapter{}
