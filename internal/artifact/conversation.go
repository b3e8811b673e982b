package artifact

type ConversationStatus string

const (
	ConversationDraft                ConversationStatus = "draft"
	ConversationAwaitingConfirmation ConversationStatus = "awaiting_confirmation"
	ConversationApproved             ConversationStatus = "approved"
)

// ConversationState is the chat assistant's persisted plan.
type ConversationState struct {
	Status            ConversationStatus `json:"status"`
	CurrentPlan       ConversationPlan   `json:"current_plan"`
	SuggestedFeatures []SuggestedFeature `json:"suggested_features"`
	Questions         []string           `json:"questions"`
}

type ConversationPlan struct {
	AppType    string   `json:"app_type,omitempty"`
	Pages      []string `json:"pages"`
	AIFeatures []string `json:"ai_features"`
}

type SuggestedFeature struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
	Why   string `json:"why,omitempty"`
}

// DefaultConversation is the state used before any message has been handled.
func DefaultConversation() ConversationState {
	return ConversationState{
		Status: ConversationDraft,
		CurrentPlan: ConversationPlan{
			Pages:      []string{},
			AIFeatures: []string{},
		},
		SuggestedFeatures: []SuggestedFeature{},
		Questions:         []string{},
	}
}
