package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"module-tool/internal/app"
	"module-tool/internal/core"
	"module-tool/internal/types"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <container>",
		Short: "List the modules installed in a container",
		Args:  exactArgs("container"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(commandContext(cmd), cmd.OutOrStdout(), args[0])
		},
	}
}

func runList(ctx context.Context, out io.Writer, container string) error {
	raiseToDebug(true)
	service := newAppService()
	result, err := service.List(ctx, app.ListRequest{Container: container})
	if err != nil {
		return err
	}
	writeModuleList(out, result)
	return nil
}

func writeModuleList(out io.Writer, result app.ListResult) {
	if len(result.Modules) == 0 {
		fmt.Fprintln(out, "No modules are installed in this WAR file")
		return
	}
	for _, module := range result.Modules {
		writeModule(out, result.Container, module)
	}
}

func writeModule(out io.Writer, container string, module types.ModuleDescriptor) {
	fmt.Fprintf(out, "Module '%s' installed in '%s'\n", module.ID, container)
	fmt.Fprintf(out, "   -    Title:        %s\n", module.Title)
	fmt.Fprintf(out, "   -    Version:      %s\n", module.Version.String())
	if !module.InstallDate.IsZero() {
		fmt.Fprintf(out, "   -    Install Date: %s\n", module.InstallDate.Format(core.InstallDateLayout))
	}
	if module.Description != "" {
		fmt.Fprintf(out, "   -    Description:  %s\n", module.Description)
	}
}
