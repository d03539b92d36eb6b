package valuation

// PredictRequest carries the multipart form fields that accompany the
// photo. Validation tags reuse the shared brand rule.
type PredictRequest struct {
	Brand      string  `json:"brand" validate:"required,brand"`
	RAM        int     `json:"ram" validate:"required,min=1,max=64"`
	Storage    int     `json:"storage" validate:"required,min=8,max=2048"`
	Age        int     `json:"age" validate:"min=0,max=15"`
	BodyBroken bool    `json:"body_broken"`
	MRP        float64 `json:"mrp" validate:"required,gt=0"`
}

// PredictResponse is the scan verdict. Price and score fields are only
// present on acceptance, message only on rejection.
type PredictResponse struct {
	Status      string   `json:"status"`
	Message     string   `json:"message,omitempty"`
	ResalePrice *float64 `json:"resale_price,omitempty"`
	MLScore     *float64 `json:"ml_score,omitempty"`
	CNNScore    *float64 `json:"cnn_score,omitempty"`
	Damage      string   `json:"damage,omitempty"`
	ImagePath   string   `json:"image_path,omitempty"`
	Brand       string   `json:"brand"`
	RAM         int      `json:"ram"`
	Storage     int      `json:"storage"`
	Age         int      `json:"age"`
}
