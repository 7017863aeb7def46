package gap

import "time"

// Type is the closed set of detectable gap categories.
type Type string

const (
	FragileUnderstanding Type = "fragile_understanding"
	Misconception        Type = "misconception"
	MissingPrerequisite  Type = "missing_prerequisite"
	FalseConfidence      Type = "false_confidence"
)

// Severity grades how urgently a gap needs attention.
type Severity string

const (
	Low    Severity = "low"
	Medium Severity = "medium"
	High   Severity = "high"
)

// Insight is one detected learning gap for a (student, concept) pair.
// Rows are never mutated after insert except for the resolution
// timestamp, which the application sets when mastery recovers.
type Insight struct {
	ID              string
	StudentID       string
	ConceptID       string
	Type            Type
	Severity        Severity
	Description     string
	SuggestedAction string
	DetectedAt      time.Time
	ResolvedAt      *time.Time
}

// Suggested-action wording is a fixed contract with the frontend; only
// the prerequisite name is templated in.
const (
	actionFragile       = "Additional practice to build confidence"
	actionMisconception = "Targeted intervention on specific misconception"
	actionPrerequisite  = "Review prerequisite concept: "
	actionFalseConf     = "Provide feedback challenging assumptions"
)
