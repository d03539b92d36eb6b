package listing

import (
	"time"

	"github.com/google/uuid"
)

// Listing status values.
const (
	StatusOnSale = "on_sale"
	StatusSold   = "sold"
)

// Listing is a device offered on the marketplace. The spec fields are a
// snapshot copied from the valuation at promotion time; once sold the row
// is immutable except for status and buyer.
type Listing struct {
	ID        uuid.UUID  `db:"id"`
	SellerID  uuid.UUID  `db:"seller_id"`
	BuyerID   *uuid.UUID `db:"buyer_id"`
	Brand     string     `db:"brand"`
	RAM       int        `db:"ram"`
	Storage   int        `db:"storage"`
	AgeYears  int        `db:"age_years"`
	Damage    string     `db:"damage"`
	Price     float64    `db:"price"`
	Status    string     `db:"status"`
	ImagePath string     `db:"image_path"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}
