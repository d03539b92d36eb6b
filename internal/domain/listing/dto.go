package listing

// SellFromPredictionRequest promotes an accepted scan into a listing.
// The image path identifies the valuation the fields came from.
type SellFromPredictionRequest struct {
	Brand     string  `json:"brand" validate:"required,brand"`
	RAM       int     `json:"ram" validate:"required,min=1,max=64"`
	Storage   int     `json:"storage" validate:"required,min=8,max=2048"`
	Age       int     `json:"age" validate:"min=0,max=15"`
	Damage    string  `json:"damage" validate:"required,damage_class"`
	Price     float64 `json:"resale_price" validate:"required,gt=0"`
	ImagePath string  `json:"image_path" validate:"required"`
}

// ListingResponse is the wire shape of one marketplace record.
type ListingResponse struct {
	ID        string  `json:"id"`
	SellerID  string  `json:"seller_id"`
	Brand     string  `json:"brand"`
	RAM       int     `json:"ram"`
	Storage   int     `json:"storage"`
	Age       int     `json:"age"`
	Damage    string  `json:"damage"`
	Price     float64 `json:"price"`
	Status    string  `json:"status"`
	ImageURL  string  `json:"image_url"`
	CreatedAt string  `json:"created_at"`
}
