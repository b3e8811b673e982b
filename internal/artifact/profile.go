package artifact

// Modality of an inspected dataset.
type Modality string

const (
	ModalityTabular Modality = "tabular"
	ModalityImage   Modality = "image"
	ModalityText    Modality = "text"
)

// DataProfile describes the dataset (or its absence). When DataPresent is
// false none of the shape or target fields carry meaning.
type DataProfile struct {
	DataPresent    bool     `json:"data_present"`
	Modality       Modality `json:"modality,omitempty"`
	Path           string   `json:"path,omitempty"`
	Rows           int      `json:"rows,omitempty"`
	Columns        int      `json:"columns,omitempty"`
	ColumnNames    []string `json:"column_names,omitempty"`
	TargetDetected bool     `json:"target_detected,omitempty"`
	TargetColumn   string   `json:"target_column,omitempty"`
	SizeMB         float64  `json:"size_mb,omitempty"`
	Digest         string   `json:"digest,omitempty"`
	Reason         string   `json:"reason,omitempty"`
	ProjectNature  string   `json:"project_nature,omitempty"`
}

// NoData is the profile emitted when no dataset was supplied.
func NoData() DataProfile {
	return DataProfile{
		DataPresent:   false,
		Reason:        "no_dataset_provided",
		ProjectNature: "non_ml_or_static",
	}
}

// DataAcquisitionPlan records what should happen when an ML project has no data.
type DataAcquisitionPlan struct {
	DataStrategy  string            `json:"data_strategy"`
	Reason        string            `json:"reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
	UserConfirmed bool              `json:"user_confirmed"`
}
