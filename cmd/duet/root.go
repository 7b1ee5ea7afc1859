package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/duetcmp/duet/pkg/duet/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "duet <left> <right>",
		Short: "Compare and synchronize two folder trees",
		Long: `Duet compares two folder trees with an external comparison engine and
shows the differences as a browsable tree.

By default, duet launches an interactive TUI to browse differences and
synchronize the sides. Use --no-interactive or -o for text output.

Examples:
  duet ~/docs ~/backup/docs            # Compare with TUI
  duet -n -o json a b                  # Non-interactive JSON output
  duet sync a b --direction left_to_right --dry-run
  duet copy a b --to-right --path img/logo.png
  duet config show                     # Show configuration
  duet history                         # View operation history`,
		Args: cobra.ExactArgs(2),
		RunE: runCompare,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/duet/config.yaml)")
	rootCmd.PersistentFlags().String("engine", "", "comparison engine binary (default: rcompare on PATH)")
	rootCmd.PersistentFlags().StringSliceP("ignore", "e", nil, "ignore patterns (can be specified multiple times)")
	rootCmd.PersistentFlags().Bool("follow-symlinks", false, "follow symbolic links while scanning")
	rootCmd.PersistentFlags().Bool("verify-hashes", false, "compare file content hashes, not just size and mtime")
	rootCmd.PersistentFlags().BoolP("no-interactive", "n", false, "disable TUI, use text output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format (pretty, plain, json, jsonl, yaml, tsv, csv, markdown)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "bypass the report cache, always invoke the engine")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	// Bind flags to viper
	_ = viper.BindPFlag("engine.path", rootCmd.PersistentFlags().Lookup("engine"))
	_ = viper.BindPFlag("engine.ignore", rootCmd.PersistentFlags().Lookup("ignore"))
	_ = viper.BindPFlag("engine.follow_symlinks", rootCmd.PersistentFlags().Lookup("follow-symlinks"))
	_ = viper.BindPFlag("engine.verify_hashes", rootCmd.PersistentFlags().Lookup("verify-hashes"))
	_ = viper.BindPFlag("no_interactive", rootCmd.PersistentFlags().Lookup("no-interactive"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("no_cache", rootCmd.PersistentFlags().Lookup("no-cache"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		// Add config paths in order of precedence
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "duet"))
		}
		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "duet"))
		}
	}

	// Set environment variable prefix and enable auto env binding
	viper.SetEnvPrefix("DUET")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
