package models

// Outcome is the terminal result of validating one entry against one file.
type Outcome string

const (
	OutcomePass    Outcome = "PASS"
	OutcomeFail    Outcome = "FAIL"
	OutcomeUntyped Outcome = "UNTYPED"
)

// Placeholder values used in validation records.
const (
	NoValue     = "NO VALUE RETURNED"
	GotEmpty    = "EMPTY"
	NotRequired = "NA"
)

// ValidationRecord is the result of checking one datamap entry against one file.
type ValidationRecord struct {
	Outcome Outcome `json:"pass_status"`
	File    string  `json:"filename"`
	Key     string  `json:"key"`
	Value   string  `json:"value"`
	CellRef string  `json:"cellref"`
	Sheet   string  `json:"sheet_name"`
	Wanted  string  `json:"wanted"`
	Got     string  `json:"got"`
	// Requested is false when the datamap had no type column, so no
	// validation was asked for.
	Requested bool `json:"-"`
}
