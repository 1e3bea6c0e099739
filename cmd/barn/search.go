package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "scan a resource and stream matching documents as NDJSON",
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringP("resource-name", "r", "", "resource to search (required)")
	searchCmd.Flags().StringP("query", "q", "$", "JSONPath filter expression")
	searchCmd.Flags().StringP("out-file", "o", "", "file to write matches to (stdout if omitted)")
	_ = searchCmd.MarkFlagRequired("resource-name")
}

func runSearch(cmd *cobra.Command, args []string) error {
	resourceName, _ := cmd.Flags().GetString("resource-name")
	query, _ := cmd.Flags().GetString("query")
	outFile, _ := cmd.Flags().GetString("out-file")

	store, err := openStore(cmd, resourceName)
	if err != nil {
		return err
	}
	defer store.Close()

	dst := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		dst = f
	}

	return store.Search(context.Background(), resourceName, query, dst)
}
