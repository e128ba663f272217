package signal

import "github.com/me/neurolens/internal/sheet"

// DemoWorkbook is the analysis table shown under the signal explorer.
// It is built in memory; nothing is read from the asset store.
func DemoWorkbook() *sheet.Workbook {
	return &sheet.Workbook{Sheets: []sheet.Sheet{
		sheet.FromRows("Summary", [][]string{
			{"Metric", "Power (µV²)", "Change (%)"},
			{"Theta", "12.3", "5.1"},
			{"Alpha", "8.5", "-2.3"},
			{"Beta", "5.7", "1.8"},
		}),
		sheet.FromRows("ERP Peaks", [][]string{
			{"Component", "Latency (ms)", "Amplitude (µV)"},
			{"N2", "240", "-4.2"},
			{"P3", "380", "6.8"},
		}),
		sheet.FromRows("Metadata", [][]string{
			{"Subject", "Session", "Condition"},
			{"S01", "Pre", "Go"},
			{"S02", "Post", "NoGo"},
			{"S03", "Post", "Go"},
		}),
	}}
}
