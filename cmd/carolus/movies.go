package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var moviesCmd = &cobra.Command{
	Use:   "movies",
	Short: "List movies in the library",
	Long: `List indexed movies one page at a time.

Examples:
  carolus movies                 # First page of 20
  carolus movies --page 2 -c 50  # Third page of 50`,
	Args: cobra.NoArgs,
	RunE: runMoviesCmd,
}

var movieCmd = &cobra.Command{
	Use:   "movie <id>",
	Short: "Show one movie",
	Args:  cobra.ExactArgs(1),
	RunE:  runMovieCmd,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy search movie titles",
	Long: `Search the library by title. Matching ignores case, accents,
punctuation and leading articles.

Examples:
  carolus search "the matrix"
  carolus search amelie --limit 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearchCmd,
}

func init() {
	rootCmd.AddCommand(moviesCmd)
	rootCmd.AddCommand(movieCmd)
	rootCmd.AddCommand(searchCmd)

	moviesCmd.Flags().IntP("page", "p", 0, "Page number (zero based)")
	moviesCmd.Flags().IntP("count", "c", 20, "Movies per page")
	searchCmd.Flags().IntP("limit", "l", 10, "Maximum number of matches")
}

func runMoviesCmd(cmd *cobra.Command, args []string) error {
	page, _ := cmd.Flags().GetInt("page")
	count, _ := cmd.Flags().GetInt("count")

	client := NewClient(serverURL)
	resp, err := client.Movies(page, count)
	if err != nil {
		return fmt.Errorf("failed to list movies: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, resp)
	}
	printMovieList(out, resp)
	return nil
}

func printMovieList(w io.Writer, r *ListMoviesResponse) {
	if len(r.Items) == 0 {
		if r.Total == 0 {
			fmt.Fprintln(w, "No movies in library")
		} else {
			fmt.Fprintf(w, "No movies on page %d (%d total)\n", r.Page, r.Total)
		}
		return
	}

	first := r.Page*r.Count + 1
	fmt.Fprintf(w, "Movies %d-%d of %d:\n\n", first, first+len(r.Items)-1, r.Total)
	fmt.Fprintf(w, "  %5s  %-44s  %9s  %s\n", "ID", "TITLE", "SIZE", "DURATION")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 72))
	for _, m := range r.Items {
		fmt.Fprintf(w, "  %5d  %-44s  %9s  %s\n",
			m.ID, truncate(titleYear(m.Title, m.Year), 44), formatSize(m.SizeBytes), formatDuration(m.DurationSeconds))
	}

	if shown := first + len(r.Items) - 1; shown < r.Total {
		fmt.Fprintf(w, "\nNext page: carolus movies --page %d --count %d\n", r.Page+1, r.Count)
	}
}

func runMovieCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid movie ID: %s", args[0])
	}

	client := NewClient(serverURL)
	m, err := client.Movie(id)
	if err != nil {
		return fmt.Errorf("failed to get movie: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, m)
	}
	printMovie(out, m, client.VideoURL(m))
	return nil
}

func printMovie(w io.Writer, m *MovieResponse, videoURL string) {
	fmt.Fprintf(w, "%s\n\n", titleYear(m.Title, m.Year))
	fmt.Fprintf(w, "  ID:        %d\n", m.ID)
	fmt.Fprintf(w, "  File:      %s\n", m.FilePath)
	fmt.Fprintf(w, "  Size:      %s\n", formatSize(m.SizeBytes))
	if m.Container != "" {
		fmt.Fprintf(w, "  Container: %s\n", m.Container)
	}
	if m.DurationSeconds > 0 {
		fmt.Fprintf(w, "  Duration:  %s\n", formatDuration(m.DurationSeconds))
	}
	if m.VideoCodec != "" {
		fmt.Fprintf(w, "  Video:     %s %dx%d\n", m.VideoCodec, m.Width, m.Height)
	}
	if m.AudioCodec != "" {
		fmt.Fprintf(w, "  Audio:     %s\n", m.AudioCodec)
	}
	if r := m.Release; r != nil {
		var parts []string
		for _, v := range []string{r.Resolution, r.Source, r.Codec} {
			if v != "" {
				parts = append(parts, v)
			}
		}
		if r.Extended {
			parts = append(parts, "extended")
		}
		fmt.Fprintf(w, "  Release:   %s\n", strings.Join(parts, " "))
	}
	fmt.Fprintf(w, "  Added:     %s\n", formatTimeAgo(m.AddedAt))
	fmt.Fprintf(w, "  Stream:    %s\n", videoURL)
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	client := NewClient(serverURL)
	resp, err := client.Search(query, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, resp)
	}
	printSearchResults(out, resp)
	return nil
}

func printSearchResults(w io.Writer, r *SearchResponse) {
	if len(r.Items) == 0 {
		fmt.Fprintf(w, "No matches for %q\n", r.Query)
		return
	}

	fmt.Fprintf(w, "Matches for %q (%d):\n\n", r.Query, len(r.Items))
	for _, m := range r.Items {
		fmt.Fprintf(w, "  %5d  %-44s  %.2f %s\n",
			m.ID, truncate(titleYear(m.Title, m.Year), 44), m.Score, m.Confidence)
	}
}
