package confirm

import (
	"time"

	"svsboard/pkg/extract"
)

// State of one submission in the confirmation flow.
type State int

const (
	StatePending State = iota
	StateAutoAccepted
	StateSoftConfirmOffered
	StateDisambiguationOffered
	StateAccepted
	StateCorrected
	StateCancelled
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAutoAccepted:
		return "auto_accepted"
	case StateSoftConfirmOffered:
		return "soft_confirm_offered"
	case StateDisambiguationOffered:
		return "disambiguation_offered"
	case StateAccepted:
		return "accepted"
	case StateCorrected:
		return "corrected"
	case StateCancelled:
		return "cancelled"
	case StateTimedOut:
		return "timed_out"
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	switch s {
	case StateAutoAccepted, StateAccepted, StateCorrected, StateCancelled, StateTimedOut:
		return true
	}
	return false
}

// Thresholds are the confidence cut-offs between the three tiers.
type Thresholds struct {
	AutoAccept  float64 // overall >= this commits without asking
	SoftConfirm float64 // overall >= this (and < AutoAccept) gets one-click confirm
}

// Router maps an aggregated record to a confirmation tier and builds the
// payload the renderer needs for that tier.
type Router struct {
	Thresholds        Thresholds
	ConfirmTimeout    time.Duration
	NameChangeTimeout time.Duration
}

// Route applies the tier rule: sanity violations force disambiguation no
// matter what the overall confidence says; otherwise the two thresholds
// split auto-accept, soft-confirm and disambiguation.
func (r Router) Route(rec *extract.Record, violations []string) (State, *Payload) {
	if len(violations) > 0 {
		p := r.disambiguationPayload(rec)
		p.Reasons = violations
		return StateDisambiguationOffered, p
	}
	switch {
	case rec.Overall >= r.Thresholds.AutoAccept:
		return StateAutoAccepted, nil
	case rec.Overall >= r.Thresholds.SoftConfirm:
		return StateSoftConfirmOffered, r.softConfirmPayload(rec)
	default:
		return StateDisambiguationOffered, r.disambiguationPayload(rec)
	}
}

func (r Router) softConfirmPayload(rec *extract.Record) *Payload {
	return &Payload{
		Type:   PayloadSoftConfirm,
		Title:  "Does this look right?",
		Fields: fieldViews(rec),
		Actions: []Action{
			{ID: ActionConfirm, Label: "Looks good"},
			{ID: ActionCorrect, Label: "Edit"},
			{ID: ActionCancel, Label: "Cancel"},
		},
		TimeoutSeconds: int(r.ConfirmTimeout / time.Second),
	}
}

func (r Router) disambiguationPayload(rec *extract.Record) *Payload {
	p := &Payload{
		Type:   PayloadDisambiguation,
		Title:  "Please check the extracted values",
		Fields: fieldViews(rec),
		Actions: []Action{
			{ID: ActionConfirm, Label: "Accept as shown"},
			{ID: ActionCorrect, Label: "Fix values"},
			{ID: ActionCancel, Label: "Cancel"},
		},
		TimeoutSeconds: int(r.ConfirmTimeout / time.Second),
		Prefill:        map[string]string{},
	}
	for _, name := range extract.FieldOrder {
		if f, ok := rec.Get(name); ok {
			p.Prefill[name] = f.Value
		}
	}
	if rec.NameDiffers && rec.CachedName != "" {
		p.Prefill["cached_player_name"] = rec.CachedName
	}
	return p
}

// NameChangePrompt builds the separate yes/no prompt shown when the
// extracted name differs from the profile and no lock is active.
func (r Router) NameChangePrompt(oldName, newName string) *Payload {
	return &Payload{
		Type:  PayloadNameChange,
		Title: "Player name changed?",
		Fields: []FieldView{
			{Name: "current_name", Value: oldName, Badge: "high"},
			{Name: "new_name", Value: newName, Badge: "low"},
		},
		Actions: []Action{
			{ID: "name_change_yes", Label: "Yes, I renamed"},
			{ID: "name_change_no", Label: "No, keep " + oldName},
		},
		TimeoutSeconds: int(r.NameChangeTimeout / time.Second),
	}
}

func fieldViews(rec *extract.Record) []FieldView {
	var out []FieldView
	for _, name := range extract.FieldOrder {
		f, ok := rec.Get(name)
		if !ok {
			continue
		}
		out = append(out, FieldView{Name: name, Value: f.Value, Badge: badgeFor(f.Confidence)})
	}
	return out
}
