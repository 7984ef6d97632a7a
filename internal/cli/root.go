package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"module-tool/internal/app"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "MMT"

type RootConfig struct {
	ConfigFile string
	LogLevel   string
}

func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout io.Writer, stderr io.Writer) int {
	root := newRootCommand()
	root.SetOut(stdout)
	root.SetErr(stderr)
	if len(args) == 0 {
		printUsageError(stderr, usageError{msg: "no command given", usage: root.UsageString()})
		return 1
	}
	root.SetArgs(normalizeLegacyArgs(args))
	if err := root.ExecuteContext(context.Background()); err != nil {
		var usage usageError
		switch {
		case errors.As(err, &usage):
			printUsageError(stderr, usage)
		case strings.HasPrefix(err.Error(), "unknown command"):
			printUsageError(stderr, usageError{msg: err.Error(), usage: root.UsageString()})
		default:
			fmt.Fprintf(stderr, "Error: %s\n", describeError(err))
		}
		return exitCodeForError(err)
	}
	return 0
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	cmd := &cobra.Command{
		Use:           "mmt",
		Short:         "Install, upgrade and uninstall AMP modules in WAR files",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.ConfigFile); err != nil {
				return err
			}
			setupLogging(cmd.OutOrStdout(), viper.GetString("log_level"))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Config file path")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return usageError{msg: err.Error(), usage: c.UsageString()}
	})

	cmd.AddCommand(newInstallCommand())
	cmd.AddCommand(newUninstallCommand())
	cmd.AddCommand(newListCommand())
	return cmd
}

func initConfig(configFile string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
	viper.SetDefault("backup_extension", ".bak")

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName("mmt")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/mmt")
	if err := viper.ReadInConfig(); err != nil {
		return nil
	}
	return nil
}

func setupLogging(out io.Writer, level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out})
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// raiseToDebug switches on the detailed progress log for verbose, preview
// and the commands that always report every path they touch.
func raiseToDebug(enabled bool) {
	if enabled && zerolog.GlobalLevel() > zerolog.DebugLevel {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return log.Logger.WithContext(ctx)
}

func newAppService() app.Service {
	return app.NewService(app.ServiceConfig{
		DefaultFileMapping: viper.GetString("default_file_mapping"),
		BackupExtension:    viper.GetString("backup_extension"),
	})
}

// normalizeLegacyArgs rewrites single-dash long options such as -force
// into the double-dash form cobra expects.
func normalizeLegacyArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if len(arg) > 2 && arg[0] == '-' && arg[1] != '-' {
			arg = "-" + arg
		}
		out = append(out, arg)
	}
	return out
}

type usageError struct {
	msg   string
	usage string
}

func (e usageError) Error() string {
	return e.msg
}

func printUsageError(w io.Writer, err usageError) {
	fmt.Fprintf(w, "Usage error: %s\n\n%s", err.msg, err.usage)
}

// exactArgs is cobra.ExactArgs reporting the missing argument names.
func exactArgs(names ...string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == len(names) {
			return nil
		}
		return usageError{
			msg:   fmt.Sprintf("%s expects %d arguments (%s), got %d", cmd.Name(), len(names), strings.Join(names, ", "), len(args)),
			usage: cmd.UsageString(),
		}
	}
}

func exitCodeForError(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

func errorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}

// describeError appends the underlying cause, when there is one, to the
// tool's own message.
func describeError(err error) string {
	message := errorMessage(err)
	cause := errors.Unwrap(err)
	if cause == nil {
		return message
	}
	causeMessage := errorMessage(cause)
	if causeMessage == "" || strings.Contains(message, causeMessage) {
		return message
	}
	return message + ": " + causeMessage
}
