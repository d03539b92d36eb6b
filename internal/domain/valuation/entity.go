package valuation

import (
	"time"

	"github.com/google/uuid"
)

// Status of a scan verdict.
const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Valuation is one AI price estimate for one device submission. Accepted
// valuations are persisted so a later promotion into a listing can be
// de-duplicated; rejected ones are never stored.
type Valuation struct {
	ID          uuid.UUID `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	Brand       string    `db:"brand"`
	RAM         int       `db:"ram"`
	Storage     int       `db:"storage"`
	AgeYears    int       `db:"age_years"`
	BodyBroken  bool      `db:"body_broken"`
	Damage      string    `db:"damage"`
	MRP         float64   `db:"mrp"`
	ResalePrice float64   `db:"resale_price"`
	CNNScore    float64   `db:"cnn_score"`
	MLScore     float64   `db:"ml_score"`
	ImagePath   string    `db:"image_path"`
	CreatedAt   time.Time `db:"created_at"`
}
