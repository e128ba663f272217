package dashboard

import (
	"context"
	"fmt"
	"path"

	"github.com/me/neurolens/internal/assets"
	"github.com/me/neurolens/internal/sheet"
	"github.com/me/neurolens/pkg/model"
)

// Image is one figure to display. Path is relative to the asset store.
type Image struct {
	Path    string `json:"path"`
	Caption string `json:"caption"`
}

// ResultView is everything shown after processing completes.
type ResultView struct {
	Banners      []model.Banner  `json:"banners"`
	Images       []Image         `json:"images"`
	WorkbookName string          `json:"workbook_name,omitempty"`
	Workbook     *sheet.Workbook `json:"workbook,omitempty"`
}

// Results assembles the fixed result asset set. Every missing image is
// reported on its own; a broken workbook only stops the table section.
func (d *Dashboard) Results(ctx context.Context) (*ResultView, error) {
	view := &ResultView{Banners: []model.Banner{}, Images: []Image{}}

	for _, img := range assets.ResultImages {
		name := path.Join(assets.ResultsDir, img.File)
		ok, err := assets.Exists(ctx, d.assets, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			view.Banners = append(view.Banners, model.Warning("Missing image: "+img.File))
			continue
		}
		view.Images = append(view.Images, Image{Path: name, Caption: img.Caption})
	}

	name := path.Join(assets.ResultsDir, assets.SummaryWorkbook)
	ok, err := assets.Exists(ctx, d.assets, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		view.Banners = append(view.Banners,
			model.Warning(fmt.Sprintf("EEG summary file '%s' not found.", assets.SummaryWorkbook)))
		return view, nil
	}

	wb, err := d.readWorkbook(ctx, name)
	if err != nil {
		view.Banners = append(view.Banners, model.Error("Error reading Excel file: "+err.Error()))
		return view, nil
	}
	view.WorkbookName = assets.SummaryWorkbook
	view.Workbook = wb
	return view, nil
}

func (d *Dashboard) readWorkbook(ctx context.Context, name string) (*sheet.Workbook, error) {
	rc, err := d.assets.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	wb, err := sheet.Read(rc)
	if err != nil {
		d.logger.Warn("workbook unreadable", "path", name, "error", err)
		return nil, err
	}
	return wb, nil
}
