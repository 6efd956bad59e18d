package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jsamuelsen/quote-service/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-service/internal/domain"
)

// quoteView is the JSON shape quotectl prints.
type quoteView struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
	Author      string   `json:"author,omitempty"`
	Source      string   `json:"source,omitempty"`
	Publisher   string   `json:"publisher,omitempty"`
}

func newQuoteView(q *domain.Quote) quoteView {
	return quoteView{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Category:    q.Category,
		Status:      q.Status.String(),
		Tags:        q.Tags(),
		Author:      q.Author,
		Source:      q.Source,
		Publisher:   q.Publisher,
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func printQuotes(w io.Writer, asJSON bool, quotes []*domain.Quote) error {
	if asJSON {
		views := make([]quoteView, 0, len(quotes))
		for _, q := range quotes {
			views = append(views, newQuoteView(q))
		}

		return writeJSON(w, views)
	}

	if len(quotes) == 0 {
		fmt.Fprintln(w, "no quotes")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tCATEGORY\tAUTHOR\tTITLE\tTAGS")

	for _, q := range quotes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			q.ID, q.Status, q.Category, q.Author, q.Title, strings.Join(q.Tags(), ","))
	}

	return tw.Flush()
}

func printQuote(w io.Writer, asJSON bool, q *domain.Quote) error {
	if asJSON {
		return writeJSON(w, newQuoteView(q))
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", q.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", q.Title)
	fmt.Fprintf(tw, "Status:\t%s\n", q.Status)

	optional := []struct{ label, value string }{
		{"Description:", q.Description},
		{"Category:", q.Category},
		{"Author:", q.Author},
		{"Source:", q.Source},
		{"Publisher:", q.Publisher},
		{"Tags:", strings.Join(q.Tags(), ", ")},
	}
	for _, f := range optional {
		if f.value != "" {
			fmt.Fprintf(tw, "%s\t%s\n", f.label, f.value)
		}
	}

	return tw.Flush()
}

func printLines(w io.Writer, asJSON bool, lines []string) error {
	if asJSON {
		if lines == nil {
			lines = []string{}
		}

		return writeJSON(w, lines)
	}

	for _, l := range lines {
		fmt.Fprintln(w, l)
	}

	return nil
}

func printTagCounts(w io.Writer, asJSON bool, counts []acl.TagCount) error {
	if asJSON {
		if counts == nil {
			counts = []acl.TagCount{}
		}

		return writeJSON(w, counts)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TAG\tCOUNT")

	for _, tc := range counts {
		fmt.Fprintf(tw, "%s\t%d\n", tc.Tag, tc.Count)
	}

	return tw.Flush()
}

// printStats prints every status, including ones with no quotes.
func printStats(w io.Writer, asJSON bool, stats map[domain.Status]int) error {
	if asJSON {
		out := make(map[string]int, len(domain.Statuses()))
		for _, s := range domain.Statuses() {
			out[s.String()] = stats[s]
		}

		return writeJSON(w, out)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tCOUNT")

	for _, s := range domain.Statuses() {
		fmt.Fprintf(tw, "%s\t%d\n", s, stats[s])
	}

	return tw.Flush()
}
