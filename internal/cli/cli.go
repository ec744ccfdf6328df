package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vk/projweave/internal/app"
	"github.com/vk/projweave/internal/emit"
)

// Version is reported by --version. It is set at build time.
var Version = "dev"

// EnvPrefix prefixes the environment variables bound to flags, e.g.
// PROJWEAVE_LOG_LEVEL for --log-level.
const EnvPrefix = "PROJWEAVE"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const usageHeader = `projweave - compose nested project descriptors into one build manifest.

Arguments:
  PROJECT_PATH
    Path to a project.hcl file or a directory containing one.
`

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	v := viper.New()
	var cfg *app.Config
	cmd := newRootCommand(v, func(c *app.Config) { cfg = c })
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)

	if err := cmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if cfg == nil {
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}

func newRootCommand(v *viper.Viper, done func(*app.Config)) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "projweave [flags] [PROJECT_PATH]",
		Short:         "Compose nested project descriptors into one build manifest",
		Long:          usageHeader,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.Flags()
	flags.StringP("project", "p", "", "Path to the root project file or directory.")
	flags.StringP("output", "o", app.StdoutOutput, "Where to write the manifest: '-' for stdout, a file path, or '' to skip.")
	flags.String("format", "", fmt.Sprintf("Manifest format %v. Defaults to the output extension, else json.", emit.Formats))
	flags.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.String("emit-url", "", "socket.io endpoint of the build host, e.g. http://localhost:3000/socket.io/.")
	flags.String("emit-namespace", "/", "socket.io namespace on the build host.")
	flags.Duration("emit-timeout", emit.DefaultTimeout, "How long to wait for the build host to accept the manifest.")
	flags.Bool("insecure-skip-verify", false, "Skip TLS certificate verification for --emit-url.")
	flags.String("compare", "", "Previously written manifest to diff the new one against.")
	flags.Bool("strict", false, "Fail when any warning diagnostic is reported.")
	flags.Bool("watch", false, "Recompose whenever a project file changes.")
	flags.Duration("watch-delay", 0, "Quiet period before a batch of changes triggers a rerun.")
	flags.String("config", "", "Configuration file. Defaults to ./projweave.yaml when present.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := bindConfig(v, cmd); err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}

		path := v.GetString("project")
		if len(args) > 0 && !cmd.Flags().Changed("project") {
			path = args[0]
		}
		slog.Debug("Project path determined.", "path", path)

		if path == "" {
			slog.Debug("No project path provided, printing usage and exiting.")
			return cmd.Usage()
		}

		emitNamespace := v.GetString("emit-namespace")
		if v.GetString("emit-url") == "" {
			emitNamespace = ""
		}

		cfg, err := app.NewConfig(app.Config{
			ProjectPath:        path,
			Output:             v.GetString("output"),
			Format:             emit.Format(v.GetString("format")),
			EmitURL:            v.GetString("emit-url"),
			EmitNamespace:      emitNamespace,
			EmitTimeout:        v.GetDuration("emit-timeout"),
			InsecureSkipVerify: v.GetBool("insecure-skip-verify"),
			ComparePath:        v.GetString("compare"),
			Strict:             v.GetBool("strict"),
			Watch:              v.GetBool("watch"),
			WatchDelay:         v.GetDuration("watch-delay"),
			LogFormat:          v.GetString("log-format"),
			LogLevel:           v.GetString("log-level"),
		})
		if err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}
		done(cfg)
		return nil
	}
	return cmd
}

// bindConfig layers flags over PROJWEAVE_* environment variables over the
// configuration file.
func bindConfig(v *viper.Viper, cmd *cobra.Command) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if file, _ := cmd.Flags().GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("projweave")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Debug("No configuration file found, using flags and environment only.")
	}
	return nil
}
