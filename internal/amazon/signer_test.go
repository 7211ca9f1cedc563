package amazon_test

import (
	"strings"
	"testing"
	"time"

	"pricewatch/internal/amazon"
)

var testSigner = amazon.Signer{
	AccessKey: "AKIDEXAMPLE",
	SecretKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
	Region:    "eu-west-1",
	Service:   "ProductAdvertisingAPI",
}

const testTarget = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.GetItems"

func signAt(t *testing.T, s amazon.Signer, payload string, at time.Time) map[string]string {
	t.Helper()
	return s.Sign("POST", "/paapi5/getitems", "webservices.amazon.co.uk", testTarget, []byte(payload), at)
}

func TestSign_HeaderSet(t *testing.T) {
	at := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	h := signAt(t, testSigner, `{"ItemIds":["B08BK4VLC7"]}`, at)

	if h["Content-Encoding"] != "amz-1.0" {
		t.Fatalf("content-encoding: %q", h["Content-Encoding"])
	}
	if h["Content-Type"] != "application/json; charset=utf-8" {
		t.Fatalf("content-type: %q", h["Content-Type"])
	}
	if h["X-Amz-Date"] != "20250115T103000Z" {
		t.Fatalf("x-amz-date: %q", h["X-Amz-Date"])
	}
	if h["X-Amz-Target"] != testTarget {
		t.Fatalf("x-amz-target: %q", h["X-Amz-Target"])
	}
}

func TestSign_AuthorizationShape(t *testing.T) {
	at := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	auth := signAt(t, testSigner, `{}`, at)["Authorization"]

	if !strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20250115/eu-west-1/ProductAdvertisingAPI/aws4_request") {
		t.Fatalf("credential scope wrong: %s", auth)
	}
	if !strings.Contains(auth, "SignedHeaders=content-encoding;content-type;host;x-amz-date;x-amz-target") {
		t.Fatalf("signed headers wrong: %s", auth)
	}
	i := strings.Index(auth, "Signature=")
	if i < 0 {
		t.Fatalf("no signature: %s", auth)
	}
	sig := auth[i+len("Signature="):]
	if len(sig) != 64 {
		t.Fatalf("signature not 64 hex chars: %q", sig)
	}
	for _, r := range sig {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			t.Fatalf("signature not lowercase hex: %q", sig)
		}
	}
}

func TestSign_Deterministic(t *testing.T) {
	at := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	a := signAt(t, testSigner, `{"x":1}`, at)
	b := signAt(t, testSigner, `{"x":1}`, at)
	if a["Authorization"] != b["Authorization"] {
		t.Fatal("same inputs produced different signatures")
	}
}

func TestSign_InputsChangeSignature(t *testing.T) {
	at := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	base := signAt(t, testSigner, `{"x":1}`, at)["Authorization"]

	if got := signAt(t, testSigner, `{"x":2}`, at)["Authorization"]; got == base {
		t.Fatal("payload change did not change signature")
	}
	if got := signAt(t, testSigner, `{"x":1}`, at.Add(time.Second))["Authorization"]; got == base {
		t.Fatal("timestamp change did not change signature")
	}
	other := testSigner
	other.SecretKey = "differentsecret"
	if got := signAt(t, other, `{"x":1}`, at)["Authorization"]; got == base {
		t.Fatal("secret change did not change signature")
	}
}

func TestSign_NonUTCClockNormalized(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	at := time.Date(2025, 1, 15, 12, 30, 0, 0, loc) // 10:30 UTC
	h := signAt(t, testSigner, `{}`, at)
	if h["X-Amz-Date"] != "20250115T103000Z" {
		t.Fatalf("x-amz-date not UTC-normalized: %q", h["X-Amz-Date"])
	}
}
