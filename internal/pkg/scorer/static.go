package scorer

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

// StaticScorer is a deterministic local implementation for development
// and tests. The verdict depends only on the photo bytes and declared
// damage, so repeated submissions yield repeated results.
type StaticScorer struct {
	threshold float64
}

func NewStaticScorer(threshold float64) *StaticScorer {
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.73
	}
	return &StaticScorer{threshold: threshold}
}

func (s *StaticScorer) Score(_ context.Context, in Input) (*Result, error) {
	sum := sha256.Sum256(in.Photo)

	// Derive stable pseudo-scores in [0, 1) from the digest.
	confidence := unitFloat(sum[0:8])
	cnn := unitFloat(sum[8:16])
	ml := unitFloat(sum[16:24])

	damage := DamageNoBroken
	if in.BodyBroken {
		damage = DamageModeratelyBroken
	}

	detected := confidence >= s.threshold
	if !detected {
		return &Result{Detected: false, Confidence: confidence}, nil
	}

	return &Result{
		Detected:   true,
		Confidence: confidence,
		Damage:     damage,
		CNNScore:   cnn,
		MLScore:    ml,
	}, nil
}

func unitFloat(b []byte) float64 {
	v := binary.BigEndian.Uint64(b)
	return float64(v%10000) / 10000
}
