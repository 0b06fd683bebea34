package conversation

import "errors"

// ActionKind enumerates the user action vocabulary the engine understands.
// The Telegram adapter decodes platform events into these before dispatch.
type ActionKind string

const (
	ActionStart         ActionKind = "start"
	ActionSelectTier    ActionKind = "select_tier"
	ActionToggleAddon   ActionKind = "toggle_addon"
	ActionProceed       ActionKind = "proceed"
	ActionBack          ActionKind = "back"
	ActionText          ActionKind = "text"
	ActionContactShared ActionKind = "contact_shared"
	ActionConfirm       ActionKind = "confirm"
	ActionCancel        ActionKind = "cancel"
)

// Action is one decoded user input. Payload carries the tier or add-on id,
// message text, shared phone number, or a back-edge target.
type Action struct {
	Kind    ActionKind
	Payload string
}

// BackToTier is the Back payload selecting the change-package edge from the
// confirmation screen; an empty payload goes back one step.
const BackToTier = "tier"

func Start() Action                 { return Action{Kind: ActionStart} }
func SelectTier(id string) Action   { return Action{Kind: ActionSelectTier, Payload: id} }
func ToggleAddon(id string) Action  { return Action{Kind: ActionToggleAddon, Payload: id} }
func Proceed() Action               { return Action{Kind: ActionProceed} }
func Back(target string) Action     { return Action{Kind: ActionBack, Payload: target} }
func Text(content string) Action    { return Action{Kind: ActionText, Payload: content} }
func ContactShared(p string) Action { return Action{Kind: ActionContactShared, Payload: p} }
func Confirm() Action               { return Action{Kind: ActionConfirm} }
func Cancel() Action                { return Action{Kind: ActionCancel} }

// ErrInvalidTransition is returned when an action is not legal in the current
// conversation state. The caller recovers by re-rendering the current prompt.
var ErrInvalidTransition = errors.New("conversation: invalid transition")
