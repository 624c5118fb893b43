package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kdimtricp/cineck/internal/analytics"
	"github.com/kdimtricp/cineck/internal/database"
	"github.com/kdimtricp/cineck/internal/models"
)

var (
	trendingLimit int
	trendingJSON  bool
)

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Show the most searched terms",
	Args:  cobra.NoArgs,
	RunE:  runTrending,
}

func init() {
	trendingCmd.Flags().IntVarP(&trendingLimit, "limit", "n", analytics.DefaultTrendingLimit, "number of terms to show")
	trendingCmd.Flags().BoolVar(&trendingJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(trendingCmd)
}

func runTrending(cmd *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	trending := analytics.NewTrending(database.NewSearchCountRepo(db), trendingLimit)
	counts, err := trending.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load trending searches: %w", err)
	}

	if trendingJSON {
		data, err := json.MarshalIndent(counts, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	return outputTrendingTable(cmd, counts)
}

func outputTrendingTable(cmd *cobra.Command, counts []models.SearchCount) error {
	if len(counts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No searches recorded yet.")
		return nil
	}

	t := newTable("#", "TERM", "COUNT", "MOVIE", "UPDATED")
	for i, sc := range counts {
		movie := sc.Title
		if movie == "" {
			movie = strconv.Itoa(sc.MovieID)
		}
		t.Row(
			strconv.Itoa(i+1),
			sc.SearchTerm,
			strconv.FormatInt(sc.Count, 10),
			movie,
			sc.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}
