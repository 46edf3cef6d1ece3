// ABOUTME: Pipeline stage vocabulary and ordering
// ABOUTME: Parses stage aliases and exposes the ordered open stages
package models

import "strings"

type Stage string

const (
	StageLead        Stage = "lead"
	StageQualified   Stage = "qualified"
	StageProposal    Stage = "proposal"
	StageNegotiation Stage = "negotiation"
	StageWon         Stage = "won"
	StageLost        Stage = "lost"
)

// OpenStages lists the non-terminal stages in pipeline order.
var OpenStages = []Stage{StageLead, StageQualified, StageProposal, StageNegotiation}

// AllStages lists every stage, open stages first.
var AllStages = []Stage{StageLead, StageQualified, StageProposal, StageNegotiation, StageWon, StageLost}

var stageAliases = map[string]Stage{
	"lead":          StageLead,
	"prospecting":   StageLead,
	"qualified":     StageQualified,
	"qualification": StageQualified,
	"quote":         StageQualified,
	"proposal":      StageProposal,
	"negotiation":   StageNegotiation,
	"won":           StageWon,
	"closed_won":    StageWon,
	"lost":          StageLost,
	"closed_lost":   StageLost,
}

// ParseStage maps a stage name or one of its aliases onto the canonical stage.
func ParseStage(s string) (Stage, bool) {
	stage, ok := stageAliases[strings.ToLower(strings.TrimSpace(s))]
	return stage, ok
}

// IsTerminal reports whether the stage ends the pipeline.
func (s Stage) IsTerminal() bool {
	return s == StageWon || s == StageLost
}

// Rank orders stages: open stages 0..3, won 4. Lost has no forward rank
// and returns -1.
func (s Stage) Rank() int {
	switch s {
	case StageLead:
		return 0
	case StageQualified:
		return 1
	case StageProposal:
		return 2
	case StageNegotiation:
		return 3
	case StageWon:
		return 4
	}
	return -1
}

func (s Stage) String() string {
	return string(s)
}
