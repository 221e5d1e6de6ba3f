// Copyright © 2018 The ELPS authors

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	colorFlag    string
	noBuiltins   bool
	ignorePragma bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "perlmro",
	Short: "Perl method resolution explorer",
	Long: `perlmro indexes the Perl packages of a workspace and answers questions
about their class hierarchy: the method resolution order of a namespace, the
sub a method call dispatches to, and every method callable on an object.

Getting started:
  perlmro mro My::Class              Print the method resolution order
  perlmro resolve My::Class new      Find the sub a method call reaches
  perlmro variants My::Class         List every method callable on a class
  perlmro lint lib/My/Class.pm       Check a file against the workspace
  perlmro repl                       Start an interactive shell
  perlmro watch                      Keep an index current as files change

The workspace is every .pm, .pl and .t file below the --root directories
(default: the current directory).  Hidden directories, node_modules, blib
and local are skipped.

Inheritance is read from use parent, use base, @ISA assignments, push and
unshift on @ISA, Moose and Mouse extends and with, and use Mojo::Base.
Namespaces are linearized depth first unless they declare use mro 'c3'.

Configuration is read from $HOME/.perlmro.yaml (or --config) and from
PERLMRO_ environment variables, e.g. PERLMRO_MRO_DEFAULT=c3.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return configureLogging()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExitError carries the process exit status of a command.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exit *ExitError
		if errors.As(err, &exit) {
			os.Exit(exit.Code)
		}
		fmt.Fprintln(os.Stderr, err) //nolint:errcheck // best-effort error display
		os.Exit(2)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.perlmro.yaml)")
	flags.StringVar(&colorFlag, "color", "auto",
		`Control colored output: "auto", "always", or "never".`)
	flags.StringArray("root", nil, "Workspace root directory (may be repeated, default: .)")
	flags.StringArray("include", nil, "Doublestar pattern of files to index (may be repeated)")
	flags.StringArray("exclude", nil, "Doublestar pattern of files or directories to skip (may be repeated)")
	flags.BoolVar(&noBuiltins, "no-builtins", false, "Do not declare UNIVERSAL, main and CORE implicitly.")
	flags.BoolVar(&ignorePragma, "ignore-pragma", false, `Ignore "use mro" pragmas.`)
	flags.String("log-level", "", "Log level (panic, fatal, error, warn, info, debug, trace).")
	flags.BoolP("verbose", "v", false, "Shorthand for --log-level=debug.")

	bind := func(key, flag string) {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
	bind("roots", "root")
	bind("include", "include")
	bind("exclude", "exclude")
	bind("log-level", "log-level")
	bind("verbose", "verbose")

	viper.SetDefault("roots", []string{"."})
	viper.SetDefault("builtins", true)
	viper.SetDefault("mro.default", "dfs")
	viper.SetDefault("mro.respect-pragma", true)
	viper.SetDefault("log-level", "warn")
	viper.SetDefault("watch.debounce", "100ms")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		// Search config in home directory with name ".perlmro" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".perlmro")
	}

	viper.SetEnvPrefix("perlmro")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		logrus.WithField("file", viper.ConfigFileUsed()).Debug("using config file")
	} else if cfgFile != "" {
		logrus.WithError(err).Warn("config file not read")
	}
}

func configureLogging() error {
	level := viper.GetString("log-level")
	if viper.GetBool("verbose") {
		level = "debug"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return nil
}
