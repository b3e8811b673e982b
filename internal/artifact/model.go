package artifact

import "fmt"

// ModelMetadata accompanies the fitted model and standardizer.
type ModelMetadata struct {
	FeatureCount   int         `json:"feature_count"`
	FeatureNames   []string    `json:"feature_names"`
	ModelFamily    ModelFamily `json:"model_family"`
	TaskType       TaskType    `json:"task_type"`
	TargetColumn   string      `json:"target_column,omitempty"`
	Rows           int         `json:"rows"`
	DatasetDigest  string      `json:"dataset_digest,omitempty"`
	StrategyDigest string      `json:"strategy_digest,omitempty"`
}

// Check enforces feature_count == len(feature_names) > 0.
func (m ModelMetadata) Check() error {
	if m.FeatureCount != len(m.FeatureNames) {
		return fmt.Errorf("model metadata: feature_count=%d but %d feature names", m.FeatureCount, len(m.FeatureNames))
	}
	if m.FeatureCount == 0 {
		return fmt.Errorf("model metadata: no features")
	}
	return nil
}
