package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/listenupapp/bookfinder/internal/genre"
)

var genresCmd = &cobra.Command{
	Use:   "genres",
	Short: "Print the genre taxonomy",
	Long: `Fetches the genre taxonomy from the backend and prints every group and
genre with its ID and display heading. Use the IDs with search --genre.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		backend, _, err := openBackend()
		if err != nil {
			return err
		}
		defer backend.Shutdown() //nolint:errcheck // CLI exit

		payload, err := backend.Taxonomy.FetchTaxonomy(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch taxonomy: %w", err)
		}
		state, err := genre.BuildTree(payload)
		if err != nil {
			return err
		}

		return OutputTo(cmd.OutOrStdout(), globalOutputFormat, renderTree(state))
	},
}
