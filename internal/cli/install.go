package cli

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"module-tool/internal/app"
)

type installOptions struct {
	Verbose     bool
	Force       bool
	Preview     bool
	NoBackup    bool
	Directory   bool
	FileMapping string
}

func newInstallCommand() *cobra.Command {
	opts := installOptions{}
	cmd := &cobra.Command{
		Use:   "install <package> <container>",
		Short: "Install a module package into a container",
		Long: "Install copies the contents of an AMP package into a WAR container and records\n" +
			"every change so that uninstall can reverse it. With --directory the first\n" +
			"argument names a directory searched for .amp packages.",
		Args: exactArgs("package", "container"),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(cmd, map[string]string{
				"verbose":              "verbose",
				"force":                "force",
				"preview":              "preview",
				"nobackup":             "nobackup",
				"directory":            "directory",
				"default_file_mapping": "file-mapping",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(commandContext(cmd), cmd, opts, args[0], args[1])
		},
	}
	cmd.Flags().BoolVar(&opts.Verbose, "verbose", false, "Report every file and directory change")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Install even if files already exist or a later version is installed")
	cmd.Flags().BoolVar(&opts.Preview, "preview", false, "Report the changes without modifying the container")
	cmd.Flags().BoolVar(&opts.NoBackup, "nobackup", false, "Do not copy the container before installing")
	cmd.Flags().BoolVar(&opts.Directory, "directory", false, "Install every package found in the given directory")
	cmd.Flags().StringVar(&opts.FileMapping, "file-mapping", "", "Replacement default file mapping properties file")
	return cmd
}

func runInstall(ctx context.Context, cmd *cobra.Command, opts installOptions, pkg string, container string) error {
	preview := resolveBool(cmd, opts.Preview, "preview", "preview")
	raiseToDebug(resolveBool(cmd, opts.Verbose, "verbose", "verbose") || preview)

	service := app.NewService(app.ServiceConfig{
		DefaultFileMapping: resolveString(cmd, opts.FileMapping, "default_file_mapping", "file-mapping"),
		BackupExtension:    viper.GetString("backup_extension"),
	})
	req := app.InstallRequest{
		Package:   pkg,
		Container: container,
		Force:     resolveBool(cmd, opts.Force, "force", "force"),
		Preview:   preview,
		Backup:    !resolveBool(cmd, opts.NoBackup, "nobackup", "nobackup"),
	}

	if resolveBool(cmd, opts.Directory, "directory", "directory") {
		result, err := service.InstallDirectory(ctx, req)
		if err != nil {
			return err
		}
		log.Ctx(ctx).Info().
			Int("packages", len(result.Packages)).
			Str("backup", result.BackupPath).
			Msg("directory install complete")
		return nil
	}

	result, err := service.Install(ctx, req)
	if err != nil {
		return err
	}
	if result.BackupPath != "" {
		log.Ctx(ctx).Info().Str("backup", result.BackupPath).Msg("container backed up")
	}
	return nil
}
