package artifact

import (
	"github.com/tidwall/jsonc"
)

// Specification is the human-authored project description produced by intake.
// It is immutable once written; a later draft is a new file, not a patch.
type Specification struct {
	SpecVersion       string            `json:"spec_version,omitempty"`
	ProjectIdentity   ProjectIdentity   `json:"project_identity"`
	FunctionalScope   FunctionalScope   `json:"functional_scope"`
	FeatureSet        FeatureSet        `json:"feature_set,omitempty"`
	UISpec            UISpec            `json:"ui_spec,omitempty"`
	SystemConstraints map[string]bool   `json:"system_constraints,omitempty"`
	DeploymentSpec    DeploymentSpec    `json:"deployment_spec,omitempty"`
	Handoff           Handoff           `json:"handoff"`
}

type ProjectIdentity struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PrimaryGoal string `json:"primary_goal"`
}

type FunctionalScope struct {
	ApplicationType  string   `json:"application_type"`
	ProblemDomain    string   `json:"problem_domain"`
	UserInteractions []string `json:"user_interactions,omitempty"`
	ExpectedOutputs  []string `json:"expected_outputs,omitempty"`
}

type FeatureSet struct {
	CoreFeatures     []string `json:"core_features,omitempty"`
	OptionalFeatures []string `json:"optional_features,omitempty"`
}

type UISpec struct {
	UIStyle    string   `json:"ui_style,omitempty"`
	Pages      []string `json:"pages,omitempty"`
	DesignTone string   `json:"design_tone,omitempty"`
}

type DeploymentSpec struct {
	Containerized    bool `json:"containerized,omitempty"`
	LocalRun         bool `json:"local_run,omitempty"`
	CloudReady       bool `json:"cloud_ready,omitempty"`
	GitPushOnSuccess bool `json:"git_push_on_success,omitempty"`
}

// Handoff records the operator's approval. A run never proceeds past
// intake unless Approved is true.
type Handoff struct {
	Approved       bool   `json:"approved"`
	ApprovedByUser bool   `json:"approved_by_user,omitempty"`
	Timestamp      string `json:"timestamp,omitempty"`
}

// ParseSpecification accepts JSON with comments and trailing commas, since
// specifications are edited by hand.
func ParseSpecification(path string, raw []byte) (Specification, error) {
	return Parse[Specification](KindSpecification, path, jsonc.ToJSON(raw))
}
