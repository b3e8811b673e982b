package artifact

import (
	"path"
	"strings"
)

// Kind names a logical artifact.
type Kind string

const (
	KindSpecification   Kind = "specification"
	KindDataProfile     Kind = "data_profile"
	KindAcquisitionPlan Kind = "data_acquisition_plan"
	KindStrategy        Kind = "training_strategy"
	KindModel           Kind = "model"
	KindPreprocessor    Kind = "preprocessor"
	KindModelMetadata   Kind = "model_metadata"
	KindApplicationSpec Kind = "application_spec"
	KindApplicationPlan Kind = "application_plan"
	KindBackendPlan     Kind = "backend_plan"
	KindBackendCode     Kind = "backend_code"
	KindFrontendCode    Kind = "frontend_code"
	KindConversation    Kind = "conversation_state"
	KindRunStatus       Kind = "build_status"
	KindManifest        Kind = "generation_manifest"
)

// Workspace-level file names.
const (
	SpecificationFile   = "project_spec_v1.json"
	DataProfileFile     = "data_profile_v1.json"
	AcquisitionPlanFile = "data_acquisition_plan_v1.json"
	StrategyFile        = "training_strategy_v1.json"
	ModelFile           = "model.cbor"
	PreprocessorFile    = "preprocessor.cbor"
	ModelMetadataFile   = "model_metadata.json"
	ApplicationSpecFile = "application_spec_v1.json"
	ApplicationPlanFile = "application_plan_v1.json"
	ConversationFile    = "conversation_state.json"
	RunStatusFile       = "build_status.json"

	ProjectsDir      = "generated_projects"
	BackendPlanFile  = "backend_plan.json"
	BackendAppFile   = "app.py"
	RequirementsFile = "requirements.txt"
	ReadmeFile       = "README.md"
	IndexFile        = "index.html"
	ManifestFile     = "manifest.json"
	MetaSuffix       = ".meta.json"
)

// ModelSet lists the three files that together form a usable model.
var ModelSet = []string{ModelFile, PreprocessorFile, ModelMetadataFile}

// Slug turns a project name into a directory name.
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "")
	if s == "" {
		return "project"
	}
	return s
}

func ProjectDir(name string) string { return path.Join(ProjectsDir, Slug(name)) }
func BackendDir(name string) string { return path.Join(ProjectDir(name), "backend") }
func FrontendDir(name string) string { return path.Join(ProjectDir(name), "frontend") }

func BackendPlanPath(name string) string { return path.Join(BackendDir(name), BackendPlanFile) }

// Generated output is keyed by the composed application's name, which can
// differ from the Specification's project name.

func (p ApplicationPlan) BackendPlanPath() string { return BackendPlanPath(p.Application.Name) }
func (p ApplicationPlan) FrontendDir() string     { return FrontendDir(p.Application.Name) }

// MetaPath is where a stage records the fingerprint of the inputs an artifact was built from.
func MetaPath(p string) string { return p + MetaSuffix }
