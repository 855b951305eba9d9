package domain

// ConflictSeverity grades a detected guideline disagreement.
type ConflictSeverity string

const (
	ConflictMajor ConflictSeverity = "major"
	ConflictMinor ConflictSeverity = "minor"
)

// Stance is the detected direction of a guideline's recommendation.
type Stance string

const (
	StancePositive Stance = "positive"
	StanceNegative Stance = "negative"
	StanceNeutral  Stance = "neutral"
)

// ConflictSource identifies one side of a detected conflict.
type ConflictSource struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	URL      string `json:"url,omitempty"`
	Year     int    `json:"year,omitempty"`
}

// Conflict records a pair of guideline-like evidence items that cover the
// same normalized topic but disagree. Immutable once created; consumed only
// for prompt injection.
type Conflict struct {
	Topic       string           `json:"topic"`
	Sources     []ConflictSource `json:"sources"`
	Severity    ConflictSeverity `json:"severity"`
	Description string           `json:"description"`
}
