// DevTimer is a Pomodoro focus timer with an AI coach that speaks.
//
// Usage:
//
//	devtimer [run] [--verbose] [--quiet]
//	devtimer relay [--port 8787]
//	devtimer voices
//	devtimer version
package main

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/devtimer/internal/config"
	"github.com/hammamikhairi/devtimer/internal/logger"
)

const (
	appName = "devtimer"
	Version = "0.1.0"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	envFile    string
	logFile    string
	verbose    bool
	quiet      bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var g globalFlags
	var rf runFlags

	cmd := &cobra.Command{
		Use:          appName,
		Short:        "Pomodoro focus timer with a spoken AI coach",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimer(cmd, &g, &rf)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "config file (YAML); defaults to ./"+config.DefaultFile+" when present")
	pf.StringVar(&g.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	pf.StringVar(&g.logFile, "log-file", "", "file to write logs to (\"stderr\" for the console); overrides the config")
	pf.BoolVar(&g.verbose, "verbose", false, "enable verbose/debug logging")
	pf.BoolVar(&g.quiet, "quiet", false, "disable all logging")

	rf.register(cmd)

	run := &cobra.Command{
		Use:   "run",
		Short: "Start the timer (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimer(cmd, &g, &rf)
		},
	}
	rf.register(run)

	cmd.AddCommand(run, relayCmd(&g), voicesCmd(&g), &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})
	return cmd
}

// loadConfig reads .env and the config file.
func loadConfig(g *globalFlags) (config.Config, error) {
	if err := config.LoadEnv(g.envFile); err != nil {
		return config.Config{}, err
	}
	return config.Load(g.configPath)
}

// openLog builds the root logger. path "" or "stderr" logs to the console.
// The returned close func is never nil.
func openLog(g *globalFlags, path, level string) (*logger.Logger, func()) {
	logLevel := logger.ParseLevel(level)
	if g.verbose {
		logLevel = logger.LevelVerbose
	}
	if g.quiet {
		logLevel = logger.LevelOff
	}
	if g.logFile != "" {
		path = g.logFile
	}

	var out io.Writer = os.Stderr
	closeFn := func() {}
	if path != "" && path != "stderr" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", path, err)
		} else {
			out = f
			closeFn = func() { f.Close() }
		}
	}

	// Keep third-party output from the std log package in the same place.
	stdlog.SetOutput(out)
	stdlog.SetFlags(stdlog.Ltime)

	return logger.New(logLevel, out), closeFn
}
