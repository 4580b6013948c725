package confirm

// PayloadType tags the closed set of confirmation payload variants handed to
// the external renderer.
type PayloadType string

const (
	PayloadSoftConfirm    PayloadType = "soft_confirm"
	PayloadDisambiguation PayloadType = "disambiguation"
	PayloadNameChange     PayloadType = "name_change_prompt"
)

// FieldView is one extracted field as shown to the submitter.
type FieldView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Badge string `json:"confidence_badge"`
}

// Action is one button the renderer offers.
type Action struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Payload is the renderer-agnostic confirmation contract. Built fresh per
// submission, never persisted.
type Payload struct {
	Type           PayloadType       `json:"type"`
	Title          string            `json:"title"`
	Fields         []FieldView       `json:"fields"`
	Actions        []Action          `json:"actions"`
	TimeoutSeconds int               `json:"timeout_seconds"`
	Prefill        map[string]string `json:"prefill,omitempty"`
	Reasons        []string          `json:"reasons,omitempty"`
}

// Action ids understood by the session state machine.
const (
	ActionConfirm = "confirm"
	ActionCorrect = "correct"
	ActionCancel  = "cancel"
)

func badgeFor(conf float64) string {
	switch {
	case conf >= 0.95:
		return "high"
	case conf >= 0.80:
		return "medium"
	default:
		return "low"
	}
}
