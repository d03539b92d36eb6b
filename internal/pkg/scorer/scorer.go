package scorer

import "context"

// Damage classes produced by the screen damage classifier.
const (
	DamageNoBroken         = "no_broken"
	DamageLightBroken      = "light_broken"
	DamageModeratelyBroken = "moderately_broken"
	DamageSevereBroken     = "severe_broken"
)

// Input carries one device submission to the scoring collaborator.
type Input struct {
	Photo      []byte // normalized classifier crop
	Brand      string
	RAM        int
	Storage    int
	AgeYears   int
	BodyBroken bool
}

// Result is the collaborator's verdict on one submission.
// Detected=false means no phone screen was found in the photo and the
// remaining fields are meaningless.
type Result struct {
	Detected   bool
	Confidence float64 // detector confidence
	Damage     string  // one of the Damage* classes
	CNNScore   float64 // classifier confidence, 0..1
	MLScore    float64 // condition score from the tabular model, 0..1
}

// Scorer scores a device submission. Implementations are opaque to
// callers: an HTTP inference service in production, a deterministic
// stand-in in development.
type Scorer interface {
	Score(ctx context.Context, in Input) (*Result, error)
}
