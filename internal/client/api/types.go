package api

import "encoding/json"

// Device is the attribute set submitted for a scan.
type Device struct {
	Brand      string
	RAM        int
	Storage    int
	Age        int
	BodyBroken bool
	MRP        float64
}

// Valuation is the scan verdict as the backend returns it.
type Valuation struct {
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	ResalePrice *float64 `json:"resale_price"`
	MLScore     *float64 `json:"ml_score"`
	CNNScore    *float64 `json:"cnn_score"`
	Damage      string   `json:"damage"`
	ImagePath   string   `json:"image_path"`
	Brand       string   `json:"brand"`
	RAM         int      `json:"ram"`
	Storage     int      `json:"storage"`
	Age         int      `json:"age"`
}

// Accepted reports whether the scan produced a usable price.
func (v *Valuation) Accepted() bool { return v.Status == "accepted" }

// Listing is one marketplace record. Identity fields stay raw because
// backends have shipped them in several shapes (bare id, {"$oid": …},
// nested objects); normalization lives in the market package.
type Listing struct {
	ID       json.RawMessage `json:"id"`
	MongoID  json.RawMessage `json:"_id"`
	SellerID json.RawMessage `json:"seller_id"`
	Brand    string          `json:"brand"`
	RAM      int             `json:"ram"`
	Storage  int             `json:"storage"`
	Age      int             `json:"age"`
	Damage   string          `json:"damage"`
	Price    float64         `json:"price"`
	Status   string          `json:"status"`
	ImageURL string          `json:"image_url"`
}

// Checkout is what the external payment widget is opened with.
type Checkout struct {
	Key      string `json:"key"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	OrderID  string `json:"order_id"`
}

// Receipt is the triple the checkout hands back on success.
type Receipt struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}
