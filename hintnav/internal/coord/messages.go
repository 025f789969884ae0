package coord

import "github.com/hazyhaar/hintnav/hintnav/report"

// Message names. Every frame understands the full vocabulary; which side
// sends what is fixed by the session protocol.
const (
	MsgStart            = "hints.start"
	MsgStartInSubframe  = "hints.start_in_subframe"
	MsgStartCompleted   = "hints.start_completed"
	MsgClear            = "hints.clear"
	MsgClearActive      = "hints.clear_active"
	MsgActivateAdjacent = "hints.activate_adjacent"
	MsgActivateResult   = "hints.activate_result"
	MsgActivateByLabel  = "hints.activate_by_label"
	MsgLabelResult      = "hints.label_result"
	MsgFilter           = "hints.filter"
	MsgFilterCompleted  = "hints.filter_completed"
	MsgFollowActive     = "hints.follow_active"
	MsgActivationReport = "hints.activation_report"
)

// StartArgs is the payload of MsgStart (host to top) and MsgStartInSubframe.
type StartArgs struct {
	Selector    string `json:"selector"`
	LabelOffset int    `json:"label_offset"`
	Generation  uint64 `json:"generation"`
}

// StartCompleted is a child's answer once its discovery is done.
type StartCompleted struct {
	LabelOffset int    `json:"label_offset"`
	Empty       bool   `json:"empty"`
	Generation  uint64 `json:"generation"`
}

// AdjacentArgs asks a frame to move the selection one step.
type AdjacentArgs struct {
	Direction    int    `json:"direction"`
	FromBoundary bool   `json:"from_boundary"`
	Generation   uint64 `json:"generation"`
}

// Result answers MsgActivateAdjacent and MsgActivateByLabel.
type Result struct {
	Found      bool   `json:"found"`
	Generation uint64 `json:"generation"`
}

// LabelArgs asks a frame to activate the marker with the given label.
type LabelArgs struct {
	Label      int    `json:"label"`
	Generation uint64 `json:"generation"`
}

// FilterArgs narrows the visible markers to the ones matching Text.
type FilterArgs struct {
	Text        string `json:"text"`
	LabelOffset int    `json:"label_offset"`
	Generation  uint64 `json:"generation"`
}

// FilterCompleted is a child's answer once its filter pass is done.
type FilterCompleted struct {
	LabelOffset int    `json:"label_offset"`
	ActiveLost  bool   `json:"active_lost"`
	Generation  uint64 `json:"generation"`
}

// Report carries an activation from the owning frame to the top window.
type Report struct {
	Record     report.Record `json:"record"`
	Generation uint64        `json:"generation"`
}
