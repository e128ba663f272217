package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/neurolens/pkg/model"
)

// assetView mirrors the example browser and results responses.
type assetView struct {
	Label   model.DatasetLabel `json:"label"`
	Dir     string             `json:"dir"`
	Banners []model.Banner     `json:"banners"`
	Images  []struct {
		Path    string `json:"path"`
		Caption string `json:"caption"`
	} `json:"images"`
	WorkbookName string    `json:"workbook_name"`
	Workbook     *workbook `json:"workbook"`
}

type workbook struct {
	Sheets []struct {
		Name    string     `json:"name"`
		Columns []string   `json:"columns"`
		Rows    [][]string `json:"rows"`
	} `json:"sheets"`
}

func newDatasetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets [label]",
		Short: "List example datasets, or browse one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				resp, err := client.Get("/api/v1/datasets")
				if err != nil {
					return fmt.Errorf("list datasets: %w", err)
				}
				var list []struct {
					Label string `json:"label"`
					Dir   string `json:"dir"`
				}
				if err := json.Unmarshal(resp.Data, &list); err != nil {
					return fmt.Errorf("parse response: %w", err)
				}
				for _, d := range list {
					fmt.Fprintf(out, "%-6s %s\n", d.Label, d.Dir)
				}
				return nil
			}

			resp, err := client.Get("/api/v1/datasets/" + args[0])
			if err != nil {
				return fmt.Errorf("browse dataset: %w", err)
			}
			var view assetView
			if err := json.Unmarshal(resp.Data, &view); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			printBanners(out, view.Banners)
			for _, img := range view.Images {
				fmt.Fprintf(out, "  image: %s\n", img.Path)
			}
			if view.Workbook != nil {
				fmt.Fprintf(out, "  workbook: %s\n", view.WorkbookName)
				printWorkbook(out, view.Workbook)
			}
			return nil
		},
	}
}

// printBanners writes one line per banner, prefixed by its level.
func printBanners(w io.Writer, banners []model.Banner) {
	for _, b := range banners {
		fmt.Fprintf(w, "[%s] %s\n", strings.ToUpper(string(b.Level)), b.Message)
	}
}

func printWorkbook(w io.Writer, wb *workbook) {
	for _, s := range wb.Sheets {
		fmt.Fprintf(w, "  sheet %s (%d rows): %s\n", s.Name, len(s.Rows), strings.Join(s.Columns, ", "))
	}
}
