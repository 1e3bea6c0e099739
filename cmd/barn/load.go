package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "bulk-load NDJSON records into a resource",
	RunE:  runLoad,
}

func init() {
	loadCmd.Flags().StringP("resource-name", "r", "", "resource to load into (required)")
	loadCmd.Flags().StringP("json-file", "j", "", "NDJSON file to read (stdin if omitted)")
	loadCmd.Flags().Bool("ignore-errors", false, "skip records that fail to parse instead of aborting the load")
	_ = loadCmd.MarkFlagRequired("resource-name")
}

func runLoad(cmd *cobra.Command, args []string) error {
	resourceName, _ := cmd.Flags().GetString("resource-name")
	jsonFile, _ := cmd.Flags().GetString("json-file")
	ignoreErrors, _ := cmd.Flags().GetBool("ignore-errors")

	store, err := openStore(cmd, resourceName)
	if err != nil {
		return err
	}
	defer store.Close()

	src := os.Stdin
	if jsonFile != "" {
		f, err := os.Open(jsonFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		src = f
	}

	count, err := store.BulkLoad(src, resourceName, ignoreErrors)
	if err != nil {
		return fmt.Errorf("bulk load failed after %d records: %w", count, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "inserted %d records into %s\n", count, resourceName)
	return nil
}
