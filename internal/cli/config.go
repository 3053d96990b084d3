package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/JustusHenke/QlassifAI/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage QlassifAI configuration",
	Long: `Manage QlassifAI configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Project file (qlassifai.yaml next to the input)
3. Environment variables (QLASSIFAI_*)
4. Config file (~/.qlassifai/config.yaml)
5. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := model.DefaultConfig()

		configFile := viper.ConfigFileUsed()
		if configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println("  Current Configuration")
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}

		fmt.Println(string(yamlData))

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()
		fmt.Println("Configuration hierarchy (highest to lowest priority):")
		fmt.Println("  1. CLI flags")
		fmt.Println("  2. Project file (qlassifai.yaml next to the input)")
		fmt.Println("  3. Environment variables (QLASSIFAI_*, OPENAI_API_KEY, OPENROUTER_API_KEY)")
		fmt.Println("  4. Config file (~/.qlassifai/config.yaml)")
		fmt.Println("  5. Defaults (shown above)")
		fmt.Println()

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.qlassifai/config.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("find home directory: %w", err)
		}

		configDir := filepath.Join(home, ".qlassifai")
		configPath := filepath.Join(configDir, "config.yaml")

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'qlassifai config show' to view it, or delete it first to recreate", configPath)
		}

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		f, err := os.Create(configPath)
		if err != nil {
			return fmt.Errorf("create config file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close config file: %w", closeErr)
			}
		}()

		yamlData, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}

		header := `# QlassifAI Configuration File
#
# Configuration hierarchy (highest to lowest priority):
#   1. CLI flags
#   2. Project file (qlassifai.yaml next to the input)
#   3. Environment variables (QLASSIFAI_*)
#   4. This config file
#   5. Built-in defaults

`
		footer := `
# API keys are read from the environment, never from this file:
#   export OPENAI_API_KEY=sk-...
#   export OPENROUTER_API_KEY=sk-or-...
# A .env file in the working directory is also honored.
`
		if _, err := f.WriteString(header); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		if _, err := f.Write(yamlData); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		if _, err := f.WriteString(footer); err != nil {
			return fmt.Errorf("write config: %w", err)
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  qlassifai config show\n\n")

		return nil
	},
}

// initCmd writes a starter project file into the current directory
var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Create a starter qlassifai.yaml project file",
	Long: `Init writes a documented starter project file (qlassifai.yaml) defining
two example check attributes. Edit it to describe the checks your analysis
needs, then run 'qlassifai analyze' or 'qlassifai documents' next to it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		path := filepath.Join(dir, model.ProjectFile)

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("project file already exists: %s", path)
		}

		yamlData, err := yaml.Marshal(model.ExampleProject())
		if err != nil {
			return fmt.Errorf("marshal project: %w", err)
		}

		if err := os.WriteFile(path, yamlData, 0644); err != nil {
			return fmt.Errorf("write project file: %w", err)
		}

		fmt.Printf("✓ Created starter project: %s\n", path)
		fmt.Printf("\nEdit the checks to match your research, then run:\n")
		fmt.Printf("  qlassifai analyze <workbook.xlsx> --project %s\n\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(initCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
