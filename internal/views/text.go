package views

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// WriteProgress prints one loader line.
func WriteProgress(w io.Writer, l Loader) error {
	line := fmt.Sprintf("%s %3d%%", l.Text, l.Percent)
	if c := l.Counter(); c != "" {
		line += " (" + c + ")"
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

// WriteText renders the result part of a page as plain text.
func WriteText(w io.Writer, p Page) error {
	if p.Error != "" {
		if _, err := fmt.Fprintln(w, p.Error); err != nil {
			return err
		}
	}
	if !p.ShowResults {
		if p.Error == "" {
			_, err := fmt.Fprintln(w, "No results.")
			return err
		}
		return nil
	}

	fmt.Fprintf(w, "Total Candidates: %d\nAverage Score: %d\nTop Score: %d\n\n",
		p.Summary.Count, p.Summary.Average, p.Summary.Max)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "CANDIDATE\tID\tSCORE %s\tSTATUS\n", p.Table.Arrow)
	for _, r := range p.Table.Rows {
		marker := ""
		if r.Selected {
			marker = " *"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%d\t%s\n", r.CandidateName, marker, r.ParticipantID, r.Score, r.Status.Label)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if p.Detail == nil {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\nCandidate Details: %s (ID: %s)\n", p.Detail.CandidateName, p.Detail.ParticipantID)
	if len(p.Detail.Reasons) == 0 {
		b.WriteString("  No reasons given.\n")
	}
	for _, r := range p.Detail.Reasons {
		fmt.Fprintf(&b, "  %d. %s\n", r.Number, r.Text)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
