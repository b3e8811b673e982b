package artifact

// ApplicationSpec is the requested application shape, either authored by
// hand or promoted from an approved conversation.
type ApplicationSpec struct {
	Application ApplicationInfo  `json:"application"`
	Website     Website          `json:"website"`
	AIFeatures  []FeatureRequest `json:"ai_features,omitempty"`
	EnvConfigs  []string         `json:"env_configs,omitempty"`
}

type ApplicationInfo struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

type Website struct {
	Pages []PageRequest `json:"pages"`
}

type PageRequest struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name,omitempty"`
	Route        string   `json:"route,omitempty"`
	Description  string   `json:"description,omitempty"`
	Components   []string `json:"components,omitempty"`
	RequiresAuth bool     `json:"requires_auth,omitempty"`
}

type FeatureRequest struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Visibility  string `json:"visibility,omitempty"`
}

// ApplicationPlan is the composer's normalized output.
type ApplicationPlan struct {
	Application   ApplicationInfo     `json:"application"`
	Pages         []Page              `json:"pages"`
	AIWidgets     map[string]AIWidget `json:"ai_widgets"`
	BackendRoutes []string            `json:"backend_routes"`
	BuildFlags    BuildFlags          `json:"build_flags"`
}

type Page struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Route        string   `json:"route"`
	Description  string   `json:"description"`
	Components   []string `json:"components"`
	RequiresAuth bool     `json:"requires_auth"`
}

type AIWidget struct {
	Label       string `json:"label"`
	Endpoint    string `json:"endpoint"`
	InputSource string `json:"input_source"`
	OutputStyle string `json:"output_style"`
	Visibility  string `json:"visibility"`
}

type BuildFlags struct {
	MLRequired       bool `json:"ml_required"`
	BackendRequired  bool `json:"backend_required"`
	FrontendRequired bool `json:"frontend_required"`
}

// BackendPlan is the route and stack plan consumed by backend generation.
type BackendPlan struct {
	Project   ApplicationInfo `json:"project"`
	Stack     Stack           `json:"stack"`
	AI        AIDescriptor    `json:"ai"`
	Routes    []Route         `json:"routes"`
	Artifacts ServeArtifacts  `json:"artifacts"`
}

type Stack struct {
	Framework string `json:"framework"`
	Language  string `json:"language"`
}

type AIDescriptor struct {
	Enabled     bool        `json:"enabled"`
	Paradigm    string      `json:"paradigm,omitempty"`
	TaskType    TaskType    `json:"task_type,omitempty"`
	ModelFamily ModelFamily `json:"model_family,omitempty"`
}

type Route struct {
	Path         string `json:"path"`
	Method       string `json:"method"`
	AuthRequired bool   `json:"auth_required"`
	Purpose      string `json:"purpose"`
}

type ServeArtifacts struct {
	Model        string `json:"model,omitempty"`
	Preprocessor string `json:"preprocessor,omitempty"`
	Metadata     string `json:"metadata,omitempty"`
}
