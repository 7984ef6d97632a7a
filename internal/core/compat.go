package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"module-tool/internal/types"
)

// CompatibilityChecker validates an incoming module against the facts of a
// target container and the modules already installed in it.
type CompatibilityChecker struct {
	Facts     types.PlatformFacts
	Installed []types.ModuleDescriptor
}

func NewCompatibilityChecker(facts types.PlatformFacts, installed []types.ModuleDescriptor) CompatibilityChecker {
	return CompatibilityChecker{Facts: facts, Installed: installed}
}

// Check runs the version, edition and dependency checks in that order and
// returns the first failure.
func (c CompatibilityChecker) Check(ctx context.Context, desc types.ModuleDescriptor) error {
	if err := c.CheckVersion(ctx, desc); err != nil {
		return err
	}
	if err := c.CheckEdition(ctx, desc); err != nil {
		return err
	}
	return c.CheckDependencies(ctx, desc)
}

func (c CompatibilityChecker) CheckVersion(ctx context.Context, desc types.ModuleDescriptor) error {
	logger := log.Ctx(ctx)
	if desc.RepoVersionMin == nil && desc.RepoVersionMax == nil {
		return nil
	}
	if !c.Facts.HasVersion() {
		logger.Warn().Str("module", desc.ID).Msg("no platform version information found, skipping version validation")
		return nil
	}
	platform, err := ParseModuleVersion(c.Facts.Version)
	if err != nil {
		if c.Facts.Community {
			logger.Warn().
				Str("module", desc.ID).
				Str("version", c.Facts.Version).
				Msg("non-numeric community platform version, skipping version validation")
			return nil
		}
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("could not determine platform version from %s value %q", c.Facts.VersionSource, c.Facts.Version)).
			WithCause(err)
	}
	if VersionInRange(platform, desc.RepoVersionMin, desc.RepoVersionMax) {
		logger.Debug().Str("module", desc.ID).Str("platform", platform.String()).Msg("platform version is compatible")
		return nil
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("module %s requires a platform version between %s and %s, found %s",
			moduleLabel(desc), boundLabel(desc.RepoVersionMin), boundLabel(desc.RepoVersionMax), platform))
}

func (c CompatibilityChecker) CheckEdition(ctx context.Context, desc types.ModuleDescriptor) error {
	logger := log.Ctx(ctx)
	if len(desc.Editions) == 0 {
		return nil
	}
	if c.Facts.FrontEnd {
		logger.Debug().Str("module", desc.ID).Msg("front-end container, skipping edition validation")
		return nil
	}
	if !c.Facts.HasEdition() {
		logger.Warn().Str("module", desc.ID).Msg("no platform edition information found, skipping edition validation")
		return nil
	}
	edition := strings.ToLower(strings.TrimSpace(c.Facts.Edition))
	for _, allowed := range desc.Editions {
		if strings.HasSuffix(edition, strings.ToLower(allowed)) {
			logger.Debug().Str("module", desc.ID).Str("edition", c.Facts.Edition).Msg("platform edition is compatible")
			return nil
		}
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("module %s can only be installed in one of the following editions: %s; the platform edition is %q",
			moduleLabel(desc), strings.Join(desc.Editions, ", "), c.Facts.Edition))
}

// CheckDependencies resolves every declared dependency against the
// installed modules, by id first and then by alias, and reports all unmet
// dependencies in a single error.
func (c CompatibilityChecker) CheckDependencies(ctx context.Context, desc types.ModuleDescriptor) error {
	var unmet []string
	for _, dep := range desc.Dependencies {
		installed, ok := resolveDependency(c.Installed, dep.ID)
		if !ok {
			unmet = append(unmet, fmt.Sprintf("%s (%s): not installed", dep.ID, FormatVersionRange(dep.Min, dep.Max)))
			continue
		}
		if !VersionInRange(installed.Version, dep.Min, dep.Max) {
			unmet = append(unmet, fmt.Sprintf("%s (%s): installed version %s is out of range",
				dep.ID, FormatVersionRange(dep.Min, dep.Max), installed.Version))
			continue
		}
		log.Ctx(ctx).Debug().
			Str("module", desc.ID).
			Str("dependency", dep.ID).
			Str("resolved", installed.ID).
			Msg("dependency satisfied")
	}
	if len(unmet) == 0 {
		return nil
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("module %s has unmet dependencies: %s", moduleLabel(desc), strings.Join(unmet, "; ")))
}

func resolveDependency(installed []types.ModuleDescriptor, id string) (types.ModuleDescriptor, bool) {
	for _, candidate := range installed {
		if candidate.ID == id {
			return candidate, true
		}
	}
	for _, candidate := range installed {
		for _, alias := range candidate.Aliases {
			if alias == id {
				return candidate, true
			}
		}
	}
	return types.ModuleDescriptor{}, false
}

// FindInstalled returns the installed module an incoming descriptor
// supersedes: the one with the same id, else the first installed module
// whose id matches one of the incoming aliases, in declared alias order.
func FindInstalled(installed []types.ModuleDescriptor, incoming types.ModuleDescriptor) (types.ModuleDescriptor, bool) {
	byID := make(map[string]types.ModuleDescriptor, len(installed))
	for _, candidate := range installed {
		byID[candidate.ID] = candidate
	}
	if found, ok := byID[incoming.ID]; ok {
		return found, true
	}
	for _, alias := range incoming.Aliases {
		if found, ok := byID[alias]; ok {
			return found, true
		}
	}
	return types.ModuleDescriptor{}, false
}

func moduleLabel(desc types.ModuleDescriptor) string {
	if desc.Title != "" && desc.Title != desc.ID {
		return fmt.Sprintf("%q (%s %s)", desc.Title, desc.ID, desc.Version)
	}
	return fmt.Sprintf("%s %s", desc.ID, desc.Version)
}

func boundLabel(v *types.ModuleVersion) string {
	if v == nil {
		return "*"
	}
	return v.String()
}
