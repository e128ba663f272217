package dashboard

// ConfigOption is one select of the configuration panel. The values are
// submitted with the upload and have no effect on processing.
type ConfigOption struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Help    string   `json:"help"`
	Choices []string `json:"choices"`
	Default int      `json:"default"`
}

// ConfigGroup is one collapsible section of the panel.
type ConfigGroup struct {
	Title   string         `json:"title"`
	Options []ConfigOption `json:"options"`
}

var yesNo = []string{"Yes", "No"}

// ConfigGroups is the presentation-only configuration panel.
var ConfigGroups = []ConfigGroup{
	{"File Settings", []ConfigOption{
		{"file_type", "EEG File Type", "Choose the input EEG file format",
			[]string{"BrainVision (.vhdr/.eeg/.vmrk)", "EDF (.edf)", "BDF (.bdf)", "EEGLAB (.set)", "CSV (.csv)"}, 0},
		{"sampling_rate", "Sampling Rate (Hz)", "Sampling rate determines temporal resolution of EEG data",
			[]string{"256", "512", "1024", "2048"}, 1},
		{"channel_count", "Number of Channels", "Specify the total number of EEG electrodes used",
			[]string{"32", "64", "128", "256"}, 1},
	}},
	{"Preprocessing Settings", []ConfigOption{
		{"filter_band", "Filter Band", "Frequency range to retain during preprocessing",
			[]string{"0.1–30 Hz", "0.5–40 Hz", "1–50 Hz", "Custom"}, 1},
		{"notch_filter", "Notch Filter", "Removes powerline noise (typically 50 or 60 Hz)",
			[]string{"None", "50 Hz", "60 Hz"}, 2},
		{"reref", "Re-reference", "Sets the reference channel or average reference method",
			[]string{"Average", "Linked Mastoids", "None"}, 0},
	}},
	{"Epoching Settings", []ConfigOption{
		{"epoch_window", "Epoch Window", "Defines the time interval around each event marker",
			[]string{"-200 to 800 ms", "-100 to 1000 ms", "-500 to 1500 ms"}, 0},
		{"event_channel", "Event Channel", "Selects the event channel used to mark stimuli or responses",
			[]string{"Stimulus", "Response", "Custom"}, 0},
		{"baseline_corr", "Baseline Correction", "Whether to normalize each epoch to its pre-stimulus baseline",
			yesNo, 0},
	}},
	{"Artifact Rejection", []ConfigOption{
		{"artifact_reject", "Artifact Rejection Method", "Selects automatic or manual artifact removal",
			[]string{"Automatic", "Manual", "None"}, 0},
		{"threshold_uv", "Amplitude Threshold (µV)", "Rejects data exceeding this voltage threshold",
			[]string{"75", "100", "125", "150"}, 1},
		{"blink_detection", "Blink Detection", "Enable automatic detection of blink artifacts",
			[]string{"Enabled", "Disabled"}, 0},
	}},
	{"Channel Settings", []ConfigOption{
		{"montage_type", "Montage Type", "Defines electrode positioning system (e.g., 10-20)",
			[]string{"Standard 10-20", "Standard 10-10", "Custom"}, 0},
		{"bad_channel_interp", "Interpolate Bad Channels", "Reconstructs noisy channels using neighboring electrodes",
			yesNo, 0},
		{"ref_channel", "Reference Channel", "Specifies which electrode serves as reference",
			[]string{"Cz", "Average", "M1-M2"}, 1},
	}},
	{"Analysis Settings", []ConfigOption{
		{"analysis_type", "Analysis Type", "Choose the main analysis type (ERP, PSD, etc.)",
			[]string{"ERP", "PSD", "Time-Frequency", "Connectivity"}, 0},
		{"time_window", "Time Window", "Selects the time range for analysis",
			[]string{"0–500 ms", "0–800 ms", "Custom"}, 0},
		{"frequency_range", "Frequency Range", "Specify which frequency band to analyze",
			[]string{"Delta (1–4 Hz)", "Theta (4–8 Hz)", "Alpha (8–13 Hz)", "Beta (13–30 Hz)", "Gamma (30–80 Hz)"}, 2},
	}},
	{"Output Settings", []ConfigOption{
		{"export_format", "Export Format", "Choose the format to save processed EEG data",
			[]string{"Excel (.xlsx)", "CSV (.csv)", "JSON (.json)"}, 0},
		{"include_figures", "Include Figures in Output", "Include generated figures in the export file",
			yesNo, 0},
		{"auto_download", "Enable Auto-Download", "Automatically download results after processing",
			yesNo, 1},
	}},
	{"Display Options", []ConfigOption{
		{"theme_mode", "Theme Mode", "Switch between light, dark, or system theme",
			[]string{"Light", "Dark", "System Default"}, 0},
		{"show_annotations", "Show Annotations on Plots", "Display event or region markers on plots",
			yesNo, 0},
		{"figure_size", "Figure Size", "Controls the overall plot size",
			[]string{"Small", "Medium", "Large"}, 1},
	}},
	{"Logging & Debug", []ConfigOption{
		{"log_level", "Log Level", "Controls the verbosity of log messages",
			[]string{"INFO", "DEBUG", "WARNING", "ERROR"}, 0},
		{"save_logs", "Save Log File", "Option to save processing logs for later review",
			yesNo, 1},
		{"show_console_output", "Show Console Output", "Display logs and system messages during processing",
			yesNo, 0},
	}},
	{"Advanced Settings", []ConfigOption{
		{"parallel_processing", "Enable Parallel Processing", "Use multiple CPU cores for faster computation",
			yesNo, 0},
		{"gpu_acceleration", "Use GPU (if available)", "Enable GPU acceleration for supported operations",
			yesNo, 1},
		{"cache_results", "Cache Results", "Store computed results to speed up future runs",
			yesNo, 0},
	}},
}

// DefaultChoice returns the preselected value of o.
func (o ConfigOption) DefaultChoice() string {
	if o.Default < 0 || o.Default >= len(o.Choices) {
		return ""
	}
	return o.Choices[o.Default]
}
