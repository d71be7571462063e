package workflow

import "strings"

// ActionType identifies one kind of evidence capture.
type ActionType string

const (
	ActionPhoto     ActionType = "photo"
	ActionText      ActionType = "text"
	ActionSelection ActionType = "selection"
)

// Action is one evidence-capture step required before a transition commits.
type Action struct {
	Type      ActionType
	Prompt    string
	MinPhotos int
	MaxPhotos int
	MinLength int
	Options   []string
}

// Requirement is the evidence contract gating one specific transition.
type Requirement struct {
	Title     string
	Actions   []Action
	AllowSkip bool
}

// Evidence is what the caller submitted against a requirement. Photos carry
// opaque receipt identifiers from the evidence store; only cardinality is
// validated here.
type Evidence struct {
	PhotoReceipts []string
	Text          string
	Selection     string
}

type transitionKey struct {
	From       Status
	To         Status
	Attendance AttendanceType
}

// requirements is the static transition-requirement table, loaded once into
// an immutable map keyed by the exact (from, to, attendanceType) triple.
// There is no wildcard fallback: a transition without an entry here is
// unconditionally allowed.
var requirements = map[transitionKey]Requirement{
	{StatusOnTheWay, StatusCollected, AttendancePickupRepair}: {
		Title:     "Collection record",
		AllowSkip: true,
		Actions: []Action{
			{Type: ActionPhoto, Prompt: "Photograph the equipment condition before transport", MinPhotos: 1, MaxPhotos: 5},
		},
	},
	{StatusOnTheWay, StatusCollectedDiagnosis, AttendancePickupDiagnosis}: {
		Title:     "Collection record",
		AllowSkip: true,
		Actions: []Action{
			{Type: ActionPhoto, Prompt: "Photograph the equipment condition before transport", MinPhotos: 1, MaxPhotos: 5},
			{Type: ActionText, Prompt: "Describe the reported defect", MinLength: 10},
		},
	},
	{StatusDiagnosisCompleted, StatusQuoteSent, AttendancePickupDiagnosis}: {
		Title:     "Diagnosis summary",
		AllowSkip: false,
		Actions: []Action{
			{Type: ActionText, Prompt: "Summarize the diagnosis for the client quote", MinLength: 20},
		},
	},
	{StatusInRepair, StatusReadyForDelivery, AttendancePickupRepair}: {
		Title:     "Repair result",
		AllowSkip: true,
		Actions: []Action{
			{Type: ActionPhoto, Prompt: "Photograph the repaired equipment", MinPhotos: 1, MaxPhotos: 8},
		},
	},
	{StatusInRepair, StatusReadyForDelivery, AttendancePickupDiagnosis}: {
		Title:     "Repair result",
		AllowSkip: true,
		Actions: []Action{
			{Type: ActionPhoto, Prompt: "Photograph the repaired equipment", MinPhotos: 1, MaxPhotos: 8},
		},
	},
	{StatusOnTheWayToDeliver, StatusDelivered, AttendancePickupRepair}: {
		Title:     "Delivery confirmation",
		AllowSkip: false,
		Actions: []Action{
			{Type: ActionPhoto, Prompt: "Photograph the delivered equipment at the client", MinPhotos: 1, MaxPhotos: 3},
			{Type: ActionSelection, Prompt: "Who received the equipment?", Options: []string{"client", "doorman", "neighbor", "other"}},
		},
	},
	{StatusOnTheWayToDeliver, StatusDelivered, AttendancePickupDiagnosis}: {
		Title:     "Delivery confirmation",
		AllowSkip: false,
		Actions: []Action{
			{Type: ActionPhoto, Prompt: "Photograph the delivered equipment at the client", MinPhotos: 1, MaxPhotos: 3},
			{Type: ActionSelection, Prompt: "Who received the equipment?", Options: []string{"client", "doorman", "neighbor", "other"}},
		},
	},
	{StatusInProgress, StatusPaymentPending, AttendanceInHome}: {
		Title:     "Service record",
		AllowSkip: true,
		Actions: []Action{
			{Type: ActionPhoto, Prompt: "Photograph the completed service", MinPhotos: 1, MaxPhotos: 5},
		},
	},
}

// RequirementFor returns the evidence requirement for a transition, if one
// is configured. Lookup is exact-match on the triple.
func RequirementFor(from, to Status, at AttendanceType) (Requirement, bool) {
	req, ok := requirements[transitionKey{From: from, To: to, Attendance: at}]
	return req, ok
}

// ValidateEvidence evaluates each required action independently against the
// submitted evidence and returns the action types still missing. An empty
// result means the requirement is satisfied.
func ValidateEvidence(req Requirement, ev Evidence) []ActionType {
	var missing []ActionType
	for _, action := range req.Actions {
		if !actionSatisfied(action, ev) {
			missing = append(missing, action.Type)
		}
	}
	return missing
}

func actionSatisfied(action Action, ev Evidence) bool {
	switch action.Type {
	case ActionPhoto:
		n := len(ev.PhotoReceipts)
		if n < action.MinPhotos {
			return false
		}
		return action.MaxPhotos == 0 || n <= action.MaxPhotos
	case ActionText:
		return len(strings.TrimSpace(ev.Text)) >= action.MinLength
	case ActionSelection:
		for _, opt := range action.Options {
			if ev.Selection == opt {
				return true
			}
		}
		return false
	default:
		return false
	}
}
