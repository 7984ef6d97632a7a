package policies

import (
	"fmt"

	"module-tool/internal/ports"
	"module-tool/internal/types"
)

// SupersedePolicy decides how an incoming module replaces an installed
// module with the same identity. Compare orders two module versions.
type SupersedePolicy struct {
	Force   bool
	Compare func(a, b types.ModuleVersion) int
}

func NewSupersedePolicy(force bool, compare func(a, b types.ModuleVersion) int) SupersedePolicy {
	return SupersedePolicy{Force: force, Compare: compare}
}

func (p SupersedePolicy) Decide(installed *types.ModuleDescriptor, incoming types.ModuleDescriptor) types.SupersedeDecision {
	if installed == nil {
		return types.SupersedeDecision{Action: types.SupersedeNone}
	}
	decision := types.SupersedeDecision{Installed: installed}
	order := p.Compare(installed.Version, incoming.Version)
	switch {
	case p.Force:
		decision.Action = types.SupersedeForce
		decision.Reason = fmt.Sprintf("forcing install of %s %s over installed %s %s",
			incoming.ID, incoming.Version, installed.ID, installed.Version)
	case order > 0:
		decision.Action = types.SupersedeSkip
		decision.Reason = fmt.Sprintf("a later version of this module is already installed (%s %s); installation of %s skipped, use -force to install regardless",
			installed.ID, installed.Version, incoming.Version)
	case order == 0:
		decision.Action = types.SupersedeReinstall
		decision.Reason = fmt.Sprintf("module %s %s is already installed, reinstalling same version",
			installed.ID, installed.Version)
	default:
		decision.Action = types.SupersedeUpgrade
		decision.Reason = fmt.Sprintf("upgrading %s from %s to %s", installed.ID, installed.Version, incoming.Version)
	}
	return decision
}

// Proceeds reports whether the installed module must be uninstalled and
// the incoming one installed.
func Proceeds(decision types.SupersedeDecision) bool {
	return decision.Action != types.SupersedeSkip
}

var _ ports.SupersedePort = SupersedePolicy{}
