package main

import (
	"io"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/sgtes/maismedicos-go/internal/platform/env"
)

type rootOptions struct {
	configFile string
	verbose    bool
}

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "mmectl",
		Short:         "Operator tools for the Mais Médicos Especialistas portal",
		Version:       version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.LoadFile(opts.configFile)
		},
	}
	bindRootFlags(root.PersistentFlags(), opts)

	root.AddCommand(
		newTermoCommand(opts),
		newUploadsCommand(opts),
		newSessionsCommand(opts),
	)
	return root
}

func bindRootFlags(fs *pflag.FlagSet, opts *rootOptions) {
	fs.StringVar(&opts.configFile, "config", env.String("MME_CONFIG_FILE", ""), "TOML file with MME_* defaults")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")
}

// logger writes JSON logs to stderr, discarding them unless --verbose is set.
func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	if !o.verbose {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), nil))
}

func normUF(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}
