package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// BuildCheckoutSignatureBase builds the string the gateway signs for a
// completed checkout: "<order_id>|<payment_id>".
func BuildCheckoutSignatureBase(orderID, paymentID string) string {
	return orderID + "|" + paymentID
}

// Sign computes the hex HMAC-SHA256 of base keyed with the key secret.
func Sign(base, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(base))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCheckoutSignature verifies a checkout receipt signature.
// Comparison is constant-time; hex case is normalized first.
func VerifyCheckoutSignature(orderID, paymentID, receivedHex, secret string) bool {
	expected := Sign(BuildCheckoutSignatureBase(orderID, paymentID), secret)
	received := strings.ToLower(strings.TrimSpace(receivedHex))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(received)) == 1
}
