package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// VerifySignature checks a Mercado Pago x-signature header
// ("ts=<unix>,v1=<hex hmac>") signed with secret over the notification's
// data id and x-request-id.
func VerifySignature(secret, header, requestID, dataID string) error {
	var ts, v1 string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return ErrInvalidSignature
	}
	want, err := hex.DecodeString(v1)
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(digest(secret, requestID, dataID, ts), want) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign returns the hex v1 value for the given notification. Used for test
// fixtures and local replays.
func Sign(secret, requestID, dataID, ts string) string {
	return hex.EncodeToString(digest(secret, requestID, dataID, ts))
}

// digest signs the manifest "id:<dataID>;request-id:<requestID>;ts:<ts>;",
// omitting parts that are absent.
func digest(secret, requestID, dataID, ts string) []byte {
	var manifest strings.Builder
	if dataID != "" {
		manifest.WriteString("id:" + strings.ToLower(dataID) + ";")
	}
	if requestID != "" {
		manifest.WriteString("request-id:" + requestID + ";")
	}
	manifest.WriteString("ts:" + ts + ";")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest.String()))
	return mac.Sum(nil)
}
