package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"satview/internal/compare"
	"satview/internal/session"
)

var diffOut string

var compareCmd = &cobra.Command{
	Use:   "compare ORIGINAL RESULT",
	Short: "Compare channel statistics of two images (png, jpg, tif)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := session.CompareFiles(args[0], args[1])
		if err != nil {
			return err
		}
		printComparison(cmd.OutOrStdout(), report)

		if diffOut != "" {
			if err := compare.WriteDifferenceTIFF(report, diffOut); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Difference written to %s\n", diffOut)
		}
		return nil
	},
}

func printComparison(w io.Writer, r *compare.Report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHANNEL\tORIGINAL\tRESULT\tDELTA\t|DIFF|")
	for _, ch := range r.Channels {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%+.2f\t%.2f\n", ch.Name, ch.OriginalMean, ch.ResultMean, ch.Delta, ch.DifferenceMean)
	}
	tw.Flush()

	fmt.Fprintln(w)
	for _, ch := range r.Channels {
		fmt.Fprintf(w, "%-6s original %s\n", ch.Name, sparkline(ch.Original))
		fmt.Fprintf(w, "%-6s result   %s\n", "", sparkline(ch.Result))
		if ch.Difference != nil {
			fmt.Fprintf(w, "%-6s |diff|   %s\n", "", sparkline(ch.Difference))
		}
	}
	if r.Note != "" {
		fmt.Fprintln(w, r.Note)
	}
}

var sparks = []rune("▁▂▃▄▅▆▇█")

// sparkline draws a histogram as one character per bin
func sparkline(h compare.Histogram) string {
	peak := 0
	for _, c := range h {
		peak = max(peak, c)
	}
	var b strings.Builder
	for _, c := range h {
		if c == 0 {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(sparks[(c*(len(sparks)-1))/peak])
	}
	return b.String()
}

func init() {
	compareCmd.Flags().StringVar(&diffOut, "diff-out", "", "write the absolute difference image to this TIFF")
	rootCmd.AddCommand(compareCmd)
}
