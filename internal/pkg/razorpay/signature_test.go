package razorpay

import "testing"

func TestBuildCheckoutSignatureBase(t *testing.T) {
	base := BuildCheckoutSignatureBase("order_abc", "pay_xyz")
	if base != "order_abc|pay_xyz" {
		t.Fatalf("unexpected base string: %s", base)
	}
}

func TestVerifyCheckoutSignature_RoundTrip(t *testing.T) {
	secret := "test_secret"
	sig := Sign(BuildCheckoutSignatureBase("order_1", "pay_1"), secret)

	if !VerifyCheckoutSignature("order_1", "pay_1", sig, secret) {
		t.Fatal("expected signature to verify")
	}
	if VerifyCheckoutSignature("order_1", "pay_2", sig, secret) {
		t.Fatal("did not expect signature to verify for a different payment")
	}
	if VerifyCheckoutSignature("order_1", "pay_1", sig, "other_secret") {
		t.Fatal("did not expect signature to verify with a different secret")
	}
}

func TestVerifyCheckoutSignature_CaseAndWhitespace(t *testing.T) {
	secret := "s"
	sig := Sign(BuildCheckoutSignatureBase("o", "p"), secret)
	upper := "  " + toUpper(sig) + " "
	if !VerifyCheckoutSignature("o", "p", upper, secret) {
		t.Fatal("expected verification to normalize hex case and whitespace")
	}
}

func toUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 32
		}
	}
	return string(b)
}

func TestToPaise(t *testing.T) {
	tests := []struct {
		rupees  float64
		want    int64
		wantErr bool
	}{
		{90, 9000, false},
		{120.5, 12050, false},
		{0, 0, false},
		{-1, 0, true},
	}

	for _, tt := range tests {
		got, err := ToPaise(tt.rupees)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ToPaise(%f): expected error", tt.rupees)
			}
			continue
		}
		if err != nil {
			t.Errorf("ToPaise(%f): unexpected error: %v", tt.rupees, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ToPaise(%f) = %d, want %d", tt.rupees, got, tt.want)
		}
	}
}
