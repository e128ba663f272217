package model

// DatasetLabel selects an example dataset directory or a synthetic series set.
type DatasetLabel string

const (
	DatasetNone DatasetLabel = ""
	DatasetEEG1 DatasetLabel = "EEG1"
	DatasetEEG2 DatasetLabel = "EEG2"
	DatasetEEG3 DatasetLabel = "EEG3"
)

// String returns the label text.
func (l DatasetLabel) String() string {
	return string(l)
}

// IsEmpty reports whether no dataset was selected.
func (l DatasetLabel) IsEmpty() bool {
	return l == DatasetNone
}
