package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jasonw-lab/collecter/internal/config"
)

//go:embed templates/collecter.yaml templates/sample-products.csv
var initTemplates embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new collecter configuration file",
		Long: `Initialize creates a new .collecter configuration file in the current directory.

The generated file includes:
- Default fetch settings shared by all image hosts
- Commented examples for per-host referer and header overrides
- Documentation for all available options

Examples:
  # Create .collecter in current directory
  collecter init

  # Create config file at a specific path
  collecter init -o myconfig.yaml

  # Also create a starter product catalog
  collecter init --with-catalog

  # Force overwrite existing file
  collecter init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing files")
	cmd.Flags().Bool("with-catalog", false,
		"Also create a starter product catalog CSV")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	withCatalog, err := cmd.Flags().GetBool("with-catalog")
	if err != nil {
		return err
	}

	if err := writeTemplate(cmd, "templates/collecter.yaml", outputPath, force); err != nil {
		return err
	}

	if withCatalog {
		if err := writeTemplate(cmd, "templates/sample-products.csv", config.DefaultCatalogPath, force); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit the configuration to set per-host fetch overrides such as:")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Referer values some CDNs require")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Extra request headers per image host")

	return nil
}

// writeTemplate writes one embedded template to dest, refusing to
// overwrite an existing file unless force is set.
func writeTemplate(cmd *cobra.Command, name, dest string, force bool) error {
	if !force {
		if _, err := os.Stat(dest); err == nil {
			return fmt.Errorf("file already exists: %s (use -f to overwrite)", dest)
		}
	}

	content, err := initTemplates.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	dir := filepath.Dir(dest)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(dest, content, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", dest)
	return nil
}
