package cmd

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

//go:embed schemas/*.sql
var schemaFS embed.FS

// schemaFiles maps a schema type to the embedded files it concatenates
var schemaFiles = map[string][]string{
	"full":      {"schemas/reference.sql", "schemas/records.sql"},
	"reference": {"schemas/reference.sql"},
	"records":   {"schemas/records.sql"},
}

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:   "schema [type]",
	Short: "Output database schema files",
	Long: `Output the SQL schema for the MySQL backends.

Available schema types:
  full       Reference and record tables (default)
  reference  customers, policies, claims, payments
  records    audit_log and feedback

The schema is designed for MariaDB 11+ but should work with MySQL 8+.

Examples:
  assistant schema                          # Output complete schema
  assistant schema full > schema.sql        # Save full schema to file
  assistant schema records | mysql insurance`,
	Args: cobra.MaximumNArgs(1),
	Run:  runSchema,
}

var schemaOutputFile string

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().StringVarP(&schemaOutputFile, "output", "o", "", "output file (default: stdout)")
}

// schemaSQL returns the SQL for a schema type
func schemaSQL(schemaType string) (string, error) {
	files, ok := schemaFiles[schemaType]
	if !ok {
		return "", fmt.Errorf("unknown schema type %q (valid: full, reference, records)", schemaType)
	}

	var b strings.Builder
	for i, name := range files {
		content, err := schemaFS.ReadFile(name)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", name, err)
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.Write(content)
	}
	return b.String(), nil
}

func runSchema(cmd *cobra.Command, args []string) {
	u := newUI()

	schemaType := "full"
	if len(args) > 0 {
		schemaType = args[0]
	}

	content, err := schemaSQL(schemaType)
	if err != nil {
		fmt.Fprintln(os.Stderr, u.Error(err.Error()))
		os.Exit(1)
	}

	if schemaOutputFile == "" {
		fmt.Print(content)
		return
	}

	// Ensure directory exists
	if dir := filepath.Dir(schemaOutputFile); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Fprintln(os.Stderr, u.Error(fmt.Sprintf("Creating directory: %v", err)))
			os.Exit(1)
		}
	}
	if err := os.WriteFile(schemaOutputFile, []byte(content), 0644); err != nil {
		fmt.Fprintln(os.Stderr, u.Error(fmt.Sprintf("Writing file: %v", err)))
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, u.Success("Schema written to: "+schemaOutputFile))
}
