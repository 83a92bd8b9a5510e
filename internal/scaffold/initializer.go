package scaffold

import (
	"embed"
	"fmt"
	"io"
	"os"

	"github.com/yazin123/nesa/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

// EnvExampleFile is written next to nesa.yml.
const EnvExampleFile = ".env.example"

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize writes nesa.yml and .env.example into the working directory.
// If force is true, existing files are replaced.
func Initialize(force bool) error {
	if force {
		if err := handleForce(); err != nil {
			return err
		}
	}

	files, err := getTemplateFiles()
	if err != nil {
		return err
	}

	if err := writeFiles(files); err != nil {
		return err
	}

	return validateCreatedFiles()
}

// handleForce removes existing files if --force was specified
func handleForce() error {
	for _, path := range []string{config.DefaultFile, EnvExampleFile} {
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("⚠️  Removing existing %s...\n", path)
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove %s: %w", path, err)
			}
		}
	}
	return nil
}

// getTemplateFiles reads all template files
func getTemplateFiles() ([]FileInfo, error) {
	nesaYml, err := templatesFS.ReadFile("templates/nesa.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read nesa.yml template: %w", err)
	}

	env, err := templatesFS.ReadFile("templates/env.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read .env template: %w", err)
	}

	return []FileInfo{
		{Path: config.DefaultFile, Content: nesaYml, Permissions: 0644},
		{Path: EnvExampleFile, Content: env, Permissions: 0644},
	}, nil
}

// writeFiles writes all template files to disk
func writeFiles(files []FileInfo) error {
	for _, file := range files {
		if err := os.WriteFile(file.Path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}
	return nil
}

// validateCreatedFiles loads the written nesa.yml through the real config loader
func validateCreatedFiles() error {
	if _, err := config.Load(config.DefaultFile); err != nil {
		return fmt.Errorf("created %s is invalid: %w", config.DefaultFile, err)
	}
	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess(w io.Writer) {
	fmt.Fprintln(w, "\n✅ Successfully initialized nesa!")
	fmt.Fprintln(w, "\nCreated:")
	fmt.Fprintf(w, "  ✓ %s\n", config.DefaultFile)
	fmt.Fprintf(w, "  ✓ %s\n", EnvExampleFile)
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintln(w, "  1. Point api.base_url and realtime.ws_base at your ERP server")
	fmt.Fprintln(w, "  2. Run 'nesa login' to store a credential")
	fmt.Fprintln(w, "  3. Run 'nesa watch' to start receiving notifications")
}
