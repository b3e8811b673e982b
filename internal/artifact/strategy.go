package artifact

type TaskType string

const (
	TaskRecommendation TaskType = "recommendation"
	TaskClassification TaskType = "classification"
)

type ModelFamily string

const (
	FamilyKNN          ModelFamily = "knn"
	FamilyRandomForest ModelFamily = "random_forest"
)

// Hyperparameter keys understood by the built-in fitter.
const (
	HPNeighbors   = "n_neighbors"
	HPEstimators  = "n_estimators"
	HPMaxDepth    = "max_depth"
	HPRandomState = "random_state"
)

type ExplanationStatus string

const (
	ExplanationOK          ExplanationStatus = "ok"
	ExplanationInvalidJSON ExplanationStatus = "invalid_json"
	ExplanationError       ExplanationStatus = "error"
)

// Strategy is the authoritative modelling decision. LLMExplanation is
// advisory and never feeds back into the other fields.
type Strategy struct {
	AIRequired       bool           `json:"ai_required"`
	Reason           string         `json:"reason,omitempty"`
	LearningParadigm string         `json:"learning_paradigm,omitempty"`
	TaskType         TaskType       `json:"task_type,omitempty"`
	ModelStrategy    *ModelStrategy `json:"model_strategy,omitempty"`
	LLMExplanation   *Explanation   `json:"llm_explanation,omitempty"`
}

type ModelStrategy struct {
	ModelFamily     ModelFamily    `json:"model_family"`
	Hyperparameters map[string]int `json:"hyperparameters"`
}

// Hyper returns a hyperparameter or def when unset.
func (m *ModelStrategy) Hyper(key string, def int) int {
	if m == nil {
		return def
	}
	if v, ok := m.Hyperparameters[key]; ok {
		return v
	}
	return def
}

// Explanation is the status-tagged record returned by the explanation side-channel.
type Explanation struct {
	Status      ExplanationStatus `json:"status"`
	Content     map[string]any    `json:"content,omitempty"`
	RawResponse string            `json:"raw_response,omitempty"`
	Message     string            `json:"message,omitempty"`
}

// Decision strips the advisory field, leaving what downstream stages may rely on.
func (s Strategy) Decision() Strategy {
	s.LLMExplanation = nil
	return s
}
