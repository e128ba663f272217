package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSignalsCmd() *cobra.Command {
	var figs string

	cmd := &cobra.Command{
		Use:   "signals [label]",
		Short: "Summarize the synthetic EEG traces of a label",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				resp, err := client.Get("/api/v1/signals")
				if err != nil {
					return fmt.Errorf("list signals: %w", err)
				}
				var labels []string
				if err := json.Unmarshal(resp.Data, &labels); err != nil {
					return fmt.Errorf("parse response: %w", err)
				}
				fmt.Fprintln(out, strings.Join(labels, "\n"))
				return nil
			}

			path := "/api/v1/signals/" + args[0]
			if figs != "" {
				path += "?fig=" + figs
			}
			resp, err := client.Get(path)
			if err != nil {
				return fmt.Errorf("get signals: %w", err)
			}
			var set struct {
				Label  string    `json:"label"`
				X      []float64 `json:"x"`
				Series []struct {
					Figure int       `json:"figure"`
					Name   string    `json:"name"`
					Y      []float64 `json:"y"`
				} `json:"series"`
			}
			if err := json.Unmarshal(resp.Data, &set); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			for _, s := range set.Series {
				lo, hi := bounds(s.Y)
				fmt.Fprintf(out, "%s - Figure %d: %s, %d points, range [%.3f, %.3f]\n",
					set.Label, s.Figure, s.Name, len(s.Y), lo, hi)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&figs, "fig", "", "Comma-separated figure numbers (default: all)")
	return cmd
}

func bounds(ys []float64) (lo, hi float64) {
	for i, y := range ys {
		if i == 0 || y < lo {
			lo = y
		}
		if i == 0 || y > hi {
			hi = y
		}
	}
	return lo, hi
}
