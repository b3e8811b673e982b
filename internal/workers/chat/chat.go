// Package chat maintains the conversational application plan.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/llm"
	"github.com/Vansh-04/buildfirst/internal/llmtool"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
	"github.com/Vansh-04/buildfirst/internal/util/jsonutil"
)

// ErrNotApproved is returned by Promote for a plan the operator has not confirmed.
var ErrNotApproved = errors.New("chat: plan not approved")

const clarifyQuestion = "Could you describe the pages and features you want in a bit more detail?"

var approvals = map[string]bool{"yes": true, "yes build": true, "build it": true, "go": true}

// IsApproval reports whether message is an explicit build confirmation.
func IsApproval(message string) bool {
	return approvals[strings.ToLower(strings.TrimSpace(message))]
}

var promptSpec = llmtool.ApplyPresets(llmtool.StructuredPromptSpec{
	Purpose:    "Update the application plan from the user's latest message.",
	Background: "You are a product manager and software architect talking to the user about the app they want.",
	Rules: []string{
		"Ask clarifying questions when the request is vague.",
		"Suggest features with a short reason each.",
		"Never set status to approved; only the user approves.",
	},
	OutputFields: llmtool.MustFieldsFromStruct(artifact.ConversationState{}),
	OutputFormat: `{"status":"draft|awaiting_confirmation","current_plan":{"app_type":"...","pages":[],"ai_features":[]},"suggested_features":[{"id":"...","title":"...","why":"..."}],"questions":[]}`,
}, llmtool.PresetStrictJSON())

type promptInput struct {
	State   artifact.ConversationState `json:"current_state"`
	Message string                     `json:"user_message"`
}

// update is the subset the model may change. Absent fields keep the
// current value for status and plan and reset the lists.
type update struct {
	Status            *artifact.ConversationStatus `json:"status"`
	CurrentPlan       *artifact.ConversationPlan   `json:"current_plan"`
	SuggestedFeatures []artifact.SuggestedFeature  `json:"suggested_features"`
	Questions         []string                     `json:"questions"`
}

type Agent struct {
	Store  artifactrepo.Store
	LLM    llm.Client
	Logger *zap.Logger
}

// State loads the persisted conversation or the default draft.
func (a Agent) State(ctx context.Context) (artifact.ConversationState, error) {
	st, err := artifactrepo.Read[artifact.ConversationState](ctx, a.Store, artifact.KindConversation, artifact.ConversationFile)
	if artifactrepo.IsNotFound(err) {
		return artifact.DefaultConversation(), nil
	}
	return st, err
}

// Reply folds one user message into the conversation and persists it.
func (a Agent) Reply(ctx context.Context, message string) (artifact.ConversationState, error) {
	log := a.Logger
	if log == nil {
		log = zap.NewNop()
	}
	state, err := a.State(ctx)
	if err != nil {
		return state, err
	}
	if IsApproval(message) {
		state.Status = artifact.ConversationApproved
		log.Info("conversation approved")
		return state, a.save(ctx, state)
	}

	next, err := a.generate(ctx, state, message)
	if err != nil {
		log.Warn("chat fallback", zap.Error(err))
		next = fallback(state)
	}
	return next, a.save(ctx, next)
}

func (a Agent) generate(ctx context.Context, state artifact.ConversationState, message string) (artifact.ConversationState, error) {
	if a.LLM == nil {
		return state, llm.ErrUnavailable
	}
	prompt, err := llmtool.Render(promptSpec, promptInput{State: state, Message: message})
	if err != nil {
		return state, err
	}
	text, err := a.LLM.Generate(llm.WithPhase(ctx, "chat"), prompt)
	if err != nil {
		return state, err
	}
	obj, err := jsonutil.ExtractObject(text)
	if err != nil {
		return state, err
	}
	var u update
	if err := json.Unmarshal([]byte(obj), &u); err != nil {
		return state, fmt.Errorf("chat: decode update: %w", err)
	}
	return merge(state, u), nil
}

func merge(state artifact.ConversationState, u update) artifact.ConversationState {
	if u.Status != nil {
		switch *u.Status {
		case artifact.ConversationDraft, artifact.ConversationAwaitingConfirmation:
			state.Status = *u.Status
		case artifact.ConversationApproved:
			state.Status = artifact.ConversationAwaitingConfirmation
		}
	}
	if u.CurrentPlan != nil {
		state.CurrentPlan = *u.CurrentPlan
	}
	state.SuggestedFeatures = u.SuggestedFeatures
	state.Questions = u.Questions
	return normalize(state)
}

func fallback(state artifact.ConversationState) artifact.ConversationState {
	state.Questions = []string{clarifyQuestion}
	if state.Status == artifact.ConversationApproved {
		state.Status = artifact.ConversationAwaitingConfirmation
	}
	return normalize(state)
}

func normalize(s artifact.ConversationState) artifact.ConversationState {
	if s.Status == "" {
		s.Status = artifact.ConversationDraft
	}
	if s.CurrentPlan.Pages == nil {
		s.CurrentPlan.Pages = []string{}
	}
	if s.CurrentPlan.AIFeatures == nil {
		s.CurrentPlan.AIFeatures = []string{}
	}
	if s.SuggestedFeatures == nil {
		s.SuggestedFeatures = []artifact.SuggestedFeature{}
	}
	if s.Questions == nil {
		s.Questions = []string{}
	}
	return s
}

func (a Agent) save(ctx context.Context, state artifact.ConversationState) error {
	return artifactrepo.Write(ctx, a.Store, artifact.ConversationFile, normalize(state))
}

// Promote turns an approved conversation into an ApplicationSpec.
func Promote(state artifact.ConversationState, name string) (artifact.ApplicationSpec, error) {
	if state.Status != artifact.ConversationApproved {
		return artifact.ApplicationSpec{}, ErrNotApproved
	}
	appType := state.CurrentPlan.AppType
	if appType == "" {
		appType = "website"
	}
	out := artifact.ApplicationSpec{
		Application: artifact.ApplicationInfo{Name: name, Type: appType},
		Website:     artifact.Website{Pages: make([]artifact.PageRequest, 0, len(state.CurrentPlan.Pages))},
	}
	for _, p := range state.CurrentPlan.Pages {
		out.Website.Pages = append(out.Website.Pages, artifact.PageRequest{Name: p})
	}
	for _, f := range state.CurrentPlan.AIFeatures {
		out.AIFeatures = append(out.AIFeatures, artifact.FeatureRequest{Name: f})
	}
	return out, nil
}
