package assets

// Fixed asset layout of the dashboard.
const (
	BrandingDir    = "EEGB"
	LogoFile       = "EEGB/ONL.png"
	BackgroundFile = "EEGB/EEGB1.jpg"

	ResultsDir      = "Demo"
	SummaryWorkbook = "GoNoGo_summary.xlsx"
)

// ResultImage is one expected pre-rendered result figure.
type ResultImage struct {
	File    string
	Caption string
}

// ResultImages is the ordered Result Asset Set shown after processing.
var ResultImages = []ResultImage{
	{"ERP_Frontal_GoNoGo.png", "ERP - Frontal Go/NoGo"},
	{"ERP_Posterior_GoNoGo.png", "ERP - Posterior Go/NoGo"},
	{"PSD_Frontal_GoNoGo.png", "Power Spectrum - Frontal Go/NoGo"},
	{"PSD_Posterior_GoNoGo.png", "Power Spectrum - Posterior Go/NoGo"},
}

// ImageExtensions are the example image types, matched case-sensitively.
var ImageExtensions = []string{".png", ".jpg", ".jpeg"}

// WorkbookExtension is the spreadsheet type consulted in example directories.
const WorkbookExtension = ".xlsx"
