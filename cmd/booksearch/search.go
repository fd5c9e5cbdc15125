package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/listenupapp/bookfinder/internal/errors"
	"github.com/listenupapp/bookfinder/internal/genre"
	"github.com/listenupapp/bookfinder/internal/session"
	"github.com/listenupapp/bookfinder/internal/validation"
)

// searchFlags is the validated input of one search run.
type searchFlags struct {
	Title     string   `json:"title" validate:"max=20"`
	PageFrom  string   `json:"page-from"`
	PageTo    string   `json:"page-to"`
	Genres    []string `json:"genre" validate:"dive,genreid"`
	UseGenres bool     `json:"use-genres"`
	Page      int      `json:"page" validate:"gte=0,lte=100000"`
}

var searchInput searchFlags

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one search and print the results",
	Long: `Builds a query the way a bookfinder session does and prints it with the
results. Each --genre is applied as a checkbox click, so a group ID checks the
group and every genre under it, and repeating an ID unchecks it again.

Empty page fields default to 0 and 9999. --page selects a result page (0 is
the first) by re-running the query.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !cmd.Flags().Changed("use-genres") && len(searchInput.Genres) > 0 {
			searchInput.UseGenres = true
		}
		if err := validation.New().Validate(searchInput); err != nil {
			return err
		}

		backend, log, err := openBackend()
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

		out, err := runSearch(cmd.Context(), session.New("cli", state, backend.Searcher, log.Component("session")), searchInput)
		if err != nil {
			return err
		}
		return OutputTo(cmd.OutOrStdout(), globalOutputFormat, out)
	},
}

func init() {
	flags := searchCmd.Flags()
	flags.StringVar(&searchInput.Title, "title", "", "title filter (at most 20 characters)")
	flags.StringVar(&searchInput.PageFrom, "page-from", "", "minimum page count")
	flags.StringVar(&searchInput.PageTo, "page-to", "", "maximum page count")
	flags.StringArrayVar(&searchInput.Genres, "genre", nil, "click a group or genre checkbox (repeatable)")
	flags.BoolVar(&searchInput.UseGenres, "use-genres", false, "filter by checked genres (default: on when --genre is given)")
	flags.IntVar(&searchInput.Page, "page", 0, "result page, 0 being the first")
}

// runSearch drives sess through the same handlers the HTTP API uses and
// returns the rendered outcome of the final search.
func runSearch(ctx context.Context, sess *session.Session, in searchFlags) (searchOut, error) {
	fields := []struct{ name, value string }{
		{session.FieldTitle, in.Title},
		{session.FieldPageFrom, in.PageFrom},
		{session.FieldPageTo, in.PageTo},
	}
	for _, f := range fields {
		if err := sess.SetField(f.name, f.value); err != nil {
			return searchOut{}, err
		}
	}

	for _, id := range in.Genres {
		checked, ok := nodeChecked(sess.Snapshot(), id)
		if !ok {
			return searchOut{}, errors.NotFoundf("unknown genre id %q", id)
		}
		sess.ToggleGenre(id, checked)
	}
	sess.SetGenreFilterEnabled(in.UseGenres)

	task, err := sess.Submit(ctx)
	if err != nil {
		return searchOut{}, err
	}
	result, err := task.Wait(ctx)
	if err != nil {
		return searchOut{}, err
	}
	q := task.Query

	if in.Page > 0 {
		task, err = sess.ChangePage(ctx, in.Page)
		if err != nil {
			return searchOut{}, err
		}
		if result, err = task.Wait(ctx); err != nil {
			return searchOut{}, err
		}
		q = task.Query
	}

	return renderSearch(q, result), nil
}

// nodeChecked finds a group or genre by exact ID and reports its state.
func nodeChecked(v session.View, id string) (checked, found bool) {
	for _, g := range v.Groups {
		if g.ID == id {
			return g.Checked, true
		}
		for _, leaf := range g.Genres {
			if leaf.ID == id {
				return leaf.Checked, true
			}
		}
	}
	return false, false
}
