package razorpay

import (
	"fmt"
	"math"
)

// ToPaise converts a rupee amount to the integer paise the gateway expects.
// Fails on negative amounts and on amounts that do not round cleanly.
func ToPaise(rupees float64) (int64, error) {
	if rupees < 0 {
		return 0, fmt.Errorf("invalid amount %f: must be >= 0", rupees)
	}
	paise := math.Round(rupees * 100)
	if math.Abs(paise-rupees*100) > 0.5 {
		return 0, fmt.Errorf("invalid amount %f: not representable in paise", rupees)
	}
	return int64(paise), nil
}

// FromPaise converts paise back to rupees for display.
func FromPaise(paise int64) float64 {
	return float64(paise) / 100
}
