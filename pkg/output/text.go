package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sambabib/portability-analyzer/pkg/analyzer"
	"github.com/sambabib/portability-analyzer/pkg/model"
)

const notesLimit = 60 // Max characters for free-text columns

func truncate(s string) string {
	s = strings.ReplaceAll(s, "\t", " ") // Replace tabs to avoid breaking alignment
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > notesLimit {
		s = s[:notesLimit-3] + "..."
	}
	return s
}

// PrintTextReport writes a tabular summary of resp to out.
func PrintTextReport(out io.Writer, resp *analyzer.AnalyzeResponse) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0) // minwidth, tabwidth, padding, padchar, flags

	fmt.Fprintf(w, "Application:\t%s\n", resp.ApplicationName)
	fmt.Fprintf(w, "Submission:\t%s\n", resp.SubmissionID)
	if !resp.CatalogLastUpdated.IsZero() {
		fmt.Fprintf(w, "Catalog:\t%s\n", resp.CatalogLastUpdated.Format("2006-01-02"))
	}
	fmt.Fprintln(w)

	header := []string{"ASSEMBLY"}
	rule := []string{"--------"}
	for _, t := range resp.Targets {
		header = append(header, t.String())
		rule = append(rule, strings.Repeat("-", len(t.String())))
	}

	if result := resp.ReportingResult; result != nil && len(result.AssemblyUsageInfo()) > 0 {
		fmt.Fprintln(w, strings.Join(header, "\t"))
		fmt.Fprintln(w, strings.Join(rule, "\t"))
		for _, usage := range result.AssemblyUsageInfo() {
			row := []string{model.AssemblyName(usage.SourceAssembly.AssemblyIdentity)}
			for _, u := range usage.UsageData {
				row = append(row, fmt.Sprintf("%.1f%%", u.PortabilityIndex()*100))
			}
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		fmt.Fprintln(w)
	}

	if result := resp.ReportingResult; result != nil && len(result.MissingTypes()) > 0 {
		header[0], rule[0] = "API", "---"
		fmt.Fprintln(w, strings.Join(append(header, "RECOMMENDED"), "\t"))
		fmt.Fprintln(w, strings.Join(append(rule, "-----------"), "\t"))
		for _, mt := range result.MissingTypes() {
			if mt.IsMissing() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", mt.TypeName(), strings.Join(mt.TargetStatus(), "\t"), truncate(mt.RecommendedChanges()))
			}
			for _, m := range mt.Members() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.MemberName(), strings.Join(m.TargetStatus(), "\t"), truncate(m.RecommendedChanges()))
			}
		}
		fmt.Fprintln(w)
	}

	if len(resp.BreakingChanges) > 0 {
		fmt.Fprintln(w, "BREAK\tTITLE\tASSEMBLY\tAPI")
		fmt.Fprintln(w, "-----\t-----\t--------\t---")
		for _, b := range resp.BreakingChanges {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				b.Break.ID,
				truncate(b.Break.Title),
				model.AssemblyName(b.DependantAssembly.AssemblyIdentity),
				b.Member.MemberDocID,
			)
		}
		fmt.Fprintln(w)
	}

	for _, name := range resp.UnresolvedUserAssemblies {
		fmt.Fprintf(w, "Unresolved:\t%s\n", name)
	}
	if result := resp.ReportingResult; result != nil {
		for _, name := range result.AssembliesWithErrors() {
			fmt.Fprintf(w, "Failed:\t%s\n", name)
		}
	}

	// Flush the writer to print the table
	return w.Flush()
}
