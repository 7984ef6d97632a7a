package cli

import (
	"context"

	"github.com/spf13/cobra"

	"module-tool/internal/app"
)

type uninstallOptions struct {
	Purge   bool
	Preview bool
}

func newUninstallCommand() *cobra.Command {
	opts := uninstallOptions{}
	cmd := &cobra.Command{
		Use:   "uninstall <moduleId> <container>",
		Short: "Remove an installed module and restore the files it replaced",
		Args:  exactArgs("moduleId", "container"),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(cmd, map[string]string{"purge": "purge", "preview": "preview"})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUninstall(commandContext(cmd), cmd, opts, args[0], args[1])
		},
	}
	cmd.Flags().BoolVar(&opts.Purge, "purge", false, "Also remove files the module preserved")
	cmd.Flags().BoolVar(&opts.Preview, "preview", false, "Report the changes without modifying the container")
	return cmd
}

func runUninstall(ctx context.Context, cmd *cobra.Command, opts uninstallOptions, moduleID string, container string) error {
	raiseToDebug(true)
	service := newAppService()
	_, err := service.Uninstall(ctx, app.UninstallRequest{
		ModuleID:  moduleID,
		Container: container,
		Preview:   resolveBool(cmd, opts.Preview, "preview", "preview"),
		Purge:     resolveBool(cmd, opts.Purge, "purge", "purge"),
	})
	return err
}
