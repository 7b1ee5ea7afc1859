package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/duetcmp/duet/pkg/duet/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage duet configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/duet/config.yaml (if set)
  2. ~/.config/duet/config.yaml

Environment variables can override config file settings using the DUET_ prefix:
  DUET_ENGINE_PATH=/opt/rcompare/bin/rcompare
  DUET_SYNC_USE_TRASH=false
  DUET_HISTORY_RETENTION_DAYS=30`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage saved comparison profiles",
	Long: `Manage saved comparison profiles.

A profile records a left/right folder pair together with the engine
options used to compare them, so frequent comparisons can be re-run
without retyping paths and flags.`,
}

var profileSaveCmd = &cobra.Command{
	Use:   "save <name> <left> <right>",
	Short: "Save a comparison profile",
	Args:  cobra.ExactArgs(3),
	RunE:  runProfileSave,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	RunE:  runProfileList,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDelete,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)

	profileCmd.AddCommand(profileSaveCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	rootCmd.AddCommand(profileCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("Failed to load configuration: %v", err)
		// Show defaults anyway
		cfg = &config.Config{}
		cfg.Engine.Path = config.DefaultEngineBinary
		cfg.Engine.DiffExitCode = config.DefaultDiffExitCode
		cfg.Sync.UseTrash = true
		cfg.Cache.Enabled = true
		cfg.History.Enabled = true
		cfg.History.RetentionDays = config.DefaultRetentionDays
	}

	// Show config file being used
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Printf("Config file: %s\n\n", configFile)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("engine.path:             %s\n", cfg.Engine.Path)
	fmt.Printf("engine.diff_exit_code:   %d\n", cfg.Engine.DiffExitCode)
	fmt.Printf("engine.follow_symlinks:  %t\n", cfg.Engine.Options.FollowSymlinks)
	fmt.Printf("engine.verify_hashes:    %t\n", cfg.Engine.Options.VerifyHashes)
	fmt.Printf("engine.ignore:           %v\n", cfg.Engine.Options.Ignore)
	fmt.Printf("sync.use_trash:          %t\n", cfg.Sync.UseTrash)
	fmt.Printf("sync.local:              %t\n", cfg.Sync.Local)
	fmt.Printf("logging.level:           %s\n", cfg.Logging.Level)
	fmt.Printf("cache.enabled:           %t\n", cfg.Cache.Enabled)
	fmt.Printf("history.enabled:         %t\n", cfg.History.Enabled)
	fmt.Printf("history.retention:       %d days\n", cfg.History.RetentionDays)

	// Show any environment overrides
	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	envVars := []struct {
		name string
		key  string
	}{
		{"DUET_ENGINE_PATH", "engine.path"},
		{"DUET_ENGINE_DIFF_EXIT_CODE", "engine.diff_exit_code"},
		{"DUET_ENGINE_FOLLOW_SYMLINKS", "engine.follow_symlinks"},
		{"DUET_ENGINE_VERIFY_HASHES", "engine.verify_hashes"},
		{"DUET_SYNC_USE_TRASH", "sync.use_trash"},
		{"DUET_SYNC_LOCAL", "sync.local"},
		{"DUET_LOGGING_LEVEL", "logging.level"},
		{"DUET_CACHE_ENABLED", "cache.enabled"},
		{"DUET_HISTORY_RETENTION_DAYS", "history.retention_days"},
	}

	anyOverrides := false
	for _, ev := range envVars {
		if val := os.Getenv(ev.name); val != "" {
			fmt.Printf("%s=%s\n", ev.name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Println("(none)")
	}

	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(cmd *cobra.Command, args []string) error {
	// Ensure config file exists
	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	// Determine editor
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'duet config edit' to modify it.")
		return nil
	}

	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	fmt.Println(filepath.Join(configDir, "config.yaml"))
	return nil
}

// runProfileSave records a folder pair plus the current engine options.
func runProfileSave(cmd *cobra.Command, args []string) error {
	name := args[0]
	left, right, err := resolveRoots(args[1:])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p := config.Profile{
		Name:    name,
		Left:    left,
		Right:   right,
		Options: cfg.Engine.Options,
	}
	if err := config.SaveProfile(p); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	printInfo("Saved profile %q: %s <-> %s", name, left, right)
	return nil
}

// runProfileList prints the saved profiles.
func runProfileList(cmd *cobra.Command, args []string) error {
	profiles, err := config.LoadProfiles()
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	if len(profiles) == 0 {
		fmt.Println("No saved profiles.")
		fmt.Println("Use 'duet profile save <name> <left> <right>' to create one.")
		return nil
	}

	for _, p := range profiles {
		fmt.Printf("%s\n", p.Name)
		fmt.Printf("  left:   %s\n", p.Left)
		fmt.Printf("  right:  %s\n", p.Right)
		if flags := p.Options.Flags(); len(flags) > 0 {
			fmt.Printf("  flags:  %v\n", flags)
		}
		fmt.Printf("  saved:  %s\n", humanize.Time(p.SavedAt))
		if !p.LastUsed.IsZero() {
			fmt.Printf("  used:   %s\n", humanize.Time(p.LastUsed))
		}
		fmt.Println()
	}
	return nil
}

// runProfileDelete removes a saved profile by name.
func runProfileDelete(cmd *cobra.Command, args []string) error {
	if err := config.DeleteProfile(args[0]); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	printInfo("Deleted profile %q", args[0])
	return nil
}
