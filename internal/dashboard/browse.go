package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/me/neurolens/internal/assets"
	"github.com/me/neurolens/internal/sheet"
	"github.com/me/neurolens/pkg/model"
)

// ExampleView is the example browser's output for one label.
type ExampleView struct {
	Label        model.DatasetLabel `json:"label"`
	Dir          string             `json:"dir,omitempty"`
	Banners      []model.Banner     `json:"banners"`
	Images       []Image            `json:"images"`
	WorkbookName string             `json:"workbook_name,omitempty"`
	Workbook     *sheet.Workbook    `json:"workbook,omitempty"`
}

// SelectPrompt is shown when no dataset is selected.
const SelectPrompt = "Select an EEG dataset to begin."

// Browse lists the images and the first workbook of the dataset
// directory for label. An empty label only yields the prompt; a missing
// directory behaves like an empty one.
func (d *Dashboard) Browse(ctx context.Context, label model.DatasetLabel) (*ExampleView, error) {
	view := &ExampleView{Label: label, Banners: []model.Banner{}, Images: []Image{}}
	if label.IsEmpty() {
		view.Banners = append(view.Banners, model.Info(SelectPrompt))
		return view, nil
	}
	dir, ok := d.datasets[label]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, label)
	}
	view.Dir = dir
	view.Banners = append(view.Banners, model.Success(fmt.Sprintf("%s selected", label)))

	images, err := globDir(ctx, d.assets, dir, assets.ImageExtensions...)
	if err != nil {
		return nil, err
	}
	for _, img := range images {
		view.Images = append(view.Images, Image{Path: img.Path, Caption: img.Name})
	}
	if len(images) == 0 {
		view.Banners = append(view.Banners, model.Warning("No EEG images found in "+dir))
	}

	books, err := globDir(ctx, d.assets, dir, assets.WorkbookExtension)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		view.Banners = append(view.Banners, model.Warning("No Excel (.xlsx) file found in "+dir))
		return view, nil
	}

	// Glob keeps name order, so this is the lexically first workbook.
	first := books[0]
	wb, err := d.readWorkbook(ctx, first.Path)
	if err != nil {
		view.Banners = append(view.Banners, model.Error("Error reading Excel file: "+err.Error()))
		return view, nil
	}
	view.WorkbookName = first.Name
	view.Workbook = wb
	return view, nil
}

// globDir is assets.Glob with a missing directory treated as empty.
func globDir(ctx context.Context, s assets.Store, dir string, exts ...string) ([]assets.Info, error) {
	entries, err := assets.Glob(ctx, s, dir, exts...)
	if errors.Is(err, assets.ErrNotExist) {
		return nil, nil
	}
	return entries, err
}
