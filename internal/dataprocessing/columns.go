package dataprocessing

// Report column labels.
const (
	ColumnSerial     = "SR NO"
	ColumnDate       = "Date"
	ColumnMachine    = "Machine"
	ColumnFixture    = "Chuck no"
	ColumnPartNo     = "Part no"
	ColumnGuideRound = "Guide Roundness"
)

// ReportDateLayout renders timestamps as e.g. "05-Jan-24".
const ReportDateLayout = "02-Jan-06"

// micronScale converts millimetre readings to microns.
const micronScale = 1000

// featureLabels maps normalized feature names to report labels. Names not
// listed here never reach the report. The group-key renames live in keyLabels.
var featureLabels = map[string]string{
	"pt (pt)":                                    "Pt",
	"rz (rz)":                                    "Rz",
	"rmax (rmax)":                                "Rmax",
	"wt (wt)":                                    "Wt",
	"straightness (straightness)":                "Seat Straightness",
	"roundness (roundness_on_cone_p26)":          ColumnGuideRound,
	"straightness (line_p_03_2_90.0)":            "Guide Straightness",
	"parallelism lines (parallelism_p4_0_180)":   "Parallelism",
	"radial run out (radial_runout_on_seat_p25)": "Seat Radial Run out",
	"roundness (roundness_cone_z)":               "Roundness cone Z",
}

// rescaledLabels are reported in microns while the source stores millimetres.
var rescaledLabels = map[string]struct{}{
	ColumnGuideRound:      {},
	"Guide Straightness":  {},
	"Parallelism":         {},
	"Seat Radial Run out": {},
	"Roundness cone Z":    {},
}

// reportColumns is the fixed output order. Columns absent from a given
// report are skipped; anything not listed is dropped.
var reportColumns = [...]string{
	ColumnSerial,
	ColumnDate,
	ColumnMachine,
	ColumnFixture,
	"Pt",
	"Rz",
	"Rmax",
	"Wt",
	"Seat Straightness",
	ColumnGuideRound,
	"Guide Straightness",
	"Parallelism",
	"Seat Radial Run out",
}

// keyLabels renames the grouping columns.
var keyLabels = map[string]string{
	"organization_name": ColumnMachine,
	"drawing_no":        ColumnPartNo,
	"fixture":           ColumnFixture,
}

// FeatureLabel returns the report label for a normalized feature name.
func FeatureLabel(feature string) (string, bool) {
	label, ok := featureLabels[feature]
	return label, ok
}

// IsRescaled reports whether a label is converted to microns.
func IsRescaled(label string) bool {
	_, ok := rescaledLabels[label]
	return ok
}

// ReportColumns returns a copy of the fixed report column order.
func ReportColumns() []string {
	cols := reportColumns
	return cols[:]
}
