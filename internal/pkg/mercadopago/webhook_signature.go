package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifyWebhookSignature validates the x-signature header Mercado Pago sends
// with webhook notifications. The header carries "ts=<unix>,v1=<hex hmac>";
// the HMAC-SHA256 manifest is "id:<data.id>;request-id:<x-request-id>;ts:<ts>;"
// keyed with the account's webhook secret. Alphanumeric ids are lowercased in
// the manifest, per the provider's documentation.
func VerifyWebhookSignature(signatureHeader, requestID, dataID, secret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret = strings.TrimSpace(secret)
	if sig == "" || secret == "" {
		return false
	}

	ts, v1 := parseSignatureHeader(sig)
	if ts == "" || v1 == "" {
		return false
	}

	expected, err := hex.DecodeString(strings.ToLower(v1))
	if err != nil {
		return false
	}

	manifest := "id:" + strings.ToLower(strings.TrimSpace(dataID)) +
		";request-id:" + strings.TrimSpace(requestID) +
		";ts:" + ts + ";"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return hmac.Equal(mac.Sum(nil), expected)
}

// SignatureManifest builds the manifest string for a given delivery; exported
// for test fixtures.
func SignatureManifest(requestID, dataID, ts string) string {
	return "id:" + strings.ToLower(strings.TrimSpace(dataID)) +
		";request-id:" + strings.TrimSpace(requestID) +
		";ts:" + ts + ";"
}

func parseSignatureHeader(header string) (ts, v1 string) {
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "ts":
			ts = kv[1]
		case "v1":
			v1 = kv[1]
		}
	}
	return ts, v1
}
