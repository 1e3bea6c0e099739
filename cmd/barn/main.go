package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kayyagari/barn/internal/log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "barn",
	Short: "barn - a schema-aware embedded document store",
	Long: `barn opens a schema-aware document store backed by an embedded
transactional key-value engine, and exposes bulk load and JSONPath
search as the two CLI operations over it.`,
}

func init() {
	rootCmd.PersistentFlags().String("db-path", "/tmp/barn", "path to the db environment")
	rootCmd.PersistentFlags().String("conf-file", "", "path to a YAML db configuration (built-in default if omitted)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(searchCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}
