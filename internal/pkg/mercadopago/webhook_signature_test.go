package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signManifest(secret, manifest string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignatureValid(t *testing.T) {
	secret := "top-secret"
	ts := "1756500000"
	requestID := "req-abc-123"
	dataID := "PRE-999"

	manifest := SignatureManifest(requestID, dataID, ts)
	if manifest != "id:pre-999;request-id:req-abc-123;ts:1756500000;" {
		t.Fatalf("unexpected manifest: %q", manifest)
	}

	header := "ts=" + ts + ",v1=" + signManifest(secret, manifest)
	if !VerifyWebhookSignature(header, requestID, dataID, secret) {
		t.Fatal("expected valid signature to verify")
	}
}

func TestVerifyWebhookSignatureInvalid(t *testing.T) {
	secret := "top-secret"
	ts := "1756500000"
	manifest := SignatureManifest("req-1", "123", ts)
	good := "ts=" + ts + ",v1=" + signManifest(secret, manifest)

	cases := []struct {
		name      string
		header    string
		requestID string
		dataID    string
		secret    string
	}{
		{"wrong secret", good, "req-1", "123", "other-secret"},
		{"wrong data id", good, "req-1", "456", secret},
		{"wrong request id", good, "req-2", "123", secret},
		{"empty header", "", "req-1", "123", secret},
		{"empty secret", good, "req-1", "123", ""},
		{"missing v1", "ts=" + ts, "req-1", "123", secret},
		{"missing ts", "v1=deadbeef", "req-1", "123", secret},
		{"garbage v1", "ts=" + ts + ",v1=not-hex", "req-1", "123", secret},
	}
	for _, c := range cases {
		if VerifyWebhookSignature(c.header, c.requestID, c.dataID, c.secret) {
			t.Fatalf("%s: expected verification to fail", c.name)
		}
	}
}

func TestVerifyWebhookSignatureHeaderOrder(t *testing.T) {
	secret := "s3cret"
	ts := "1700000000"
	manifest := SignatureManifest("rid", "abc", ts)
	// v1 before ts, with spaces, must still parse.
	header := " v1=" + signManifest(secret, manifest) + " , ts=" + ts
	if !VerifyWebhookSignature(header, "rid", "abc", secret) {
		t.Fatal("expected signature with reordered header parts to verify")
	}
}
