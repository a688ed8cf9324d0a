package cli

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/bolasblack/outcache/internal/config"
	"github.com/bolasblack/outcache/internal/state"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize outcache configuration in current directory",
	Long:  `Initialize outcache by creating a .outcache.toml configuration file and a workspace state file in the current directory.`,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := getCwd()
	if err != nil {
		return err
	}

	fs := afero.NewOsFs()
	configPath := filepath.Join(cwd, ConfigFilename)

	// Check if config already exists
	if _, err := fs.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	// Interactive template selection
	var selectedTemplate string
	err = huh.NewSelect[string]().
		Title("Select a cache layout").
		Options(
			huh.NewOption("Standard - uncompressed entries, fastest pack/unpack", string(config.TemplateStandard)),
			huh.NewOption("Compressed - gzip entries, smaller cache directory", string(config.TemplateCompressed)),
		).
		Value(&selectedTemplate).
		Run()
	if err != nil {
		return fmt.Errorf("template selection cancelled: %w", err)
	}

	content, err := config.GenerateConfig(config.Template(selectedTemplate))
	if err != nil {
		return fmt.Errorf("failed to generate configuration: %w", err)
	}

	if err := afero.WriteFile(fs, configPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	st, created, err := state.LoadOrCreate(fs, cwd)
	if err != nil {
		return fmt.Errorf("failed to create workspace state: %w", err)
	}

	fmt.Printf("Created %s\n", configPath)
	if created {
		fmt.Printf("Workspace id: %s\n", st.WorkspaceID)
	}
	fmt.Println("\nDeclare output properties in the config, then run 'outcache snapshot'.")
	return nil
}
