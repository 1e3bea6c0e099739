package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kayyagari/barn"
)

// fileConfig is the YAML shape accepted by --conf-file: a DbConfig
// plus an optional path to the JSON Schema document it is evaluated
// against.
type fileConfig struct {
	barn.DbConfig `yaml:",inline"`
	SchemaFile    string `yaml:"schema_file"`
}

func openStore(cmd *cobra.Command, defaultResource string) (*barn.Barn, error) {
	dbPath, _ := cmd.Flags().GetString("db-path")
	confFile, _ := cmd.Flags().GetString("conf-file")

	if confFile == "" {
		return barn.Open(dbPath, barn.DefaultDbConfig(defaultResource), barn.DefaultSchema())
	}

	raw, err := os.ReadFile(confFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read conf file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse conf file: %w", err)
	}

	schemaDoc := barn.DefaultSchema()
	if fc.SchemaFile != "" {
		schemaRaw, err := os.Open(fc.SchemaFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open schema file: %w", err)
		}
		defer schemaRaw.Close()

		schemaDoc, err = barn.ParseSchema(schemaRaw)
		if err != nil {
			return nil, err
		}
	}

	return barn.Open(dbPath, fc.DbConfig, schemaDoc)
}
