package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultSignatureTolerance bounds how old a signed timestamp may be before
// the event is rejected as a possible replay.
const DefaultSignatureTolerance = 5 * time.Minute

// signatureHeader is the parsed form of a "t=...,v1=..." signature header.
type signatureHeader struct {
	timestamp  int64
	signatures [][]byte
}

func parseSignatureHeader(header string) (*signatureHeader, error) {
	parsed := &signatureHeader{}
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed signature timestamp: %w", err)
			}
			parsed.timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(kv[1])
			if err != nil {
				return nil, fmt.Errorf("malformed signature: %w", err)
			}
			parsed.signatures = append(parsed.signatures, sig)
		}
	}
	if parsed.timestamp == 0 || len(parsed.signatures) == 0 {
		return nil, fmt.Errorf("signature header missing timestamp or v1 signature")
	}
	return parsed, nil
}

// VerifySignature checks the provider's HMAC-SHA256 signature over the exact
// raw payload bytes. The MAC covers "<timestamp>.<payload>", so the body must
// not have been re-serialized by any upstream middleware.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) bool {
	if strings.TrimSpace(secret) == "" || strings.TrimSpace(header) == "" {
		return false
	}

	parsed, err := parseSignatureHeader(header)
	if err != nil {
		return false
	}

	signedAt := time.Unix(parsed.timestamp, 0)
	if tolerance > 0 && now.Sub(signedAt) > tolerance {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(parsed.timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range parsed.signatures {
		if hmac.Equal(expected, sig) {
			return true
		}
	}
	return false
}

// ConstructEvent authenticates a raw webhook delivery and returns the typed
// event. It fails closed: signature mismatch, malformed payload, or missing
// secret all yield ErrAuthentication and no partial result.
func ConstructEvent(payload []byte, header, secret string) (*Event, error) {
	return constructEventAt(payload, header, secret, time.Now())
}

func constructEventAt(payload []byte, header, secret string, now time.Time) (*Event, error) {
	if !VerifySignature(payload, header, secret, DefaultSignatureTolerance, now) {
		return nil, ErrAuthentication
	}

	var raw eventJSON
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: undecodable event payload", ErrAuthentication)
	}
	if raw.ID == "" || raw.Type == "" {
		return nil, fmt.Errorf("%w: event missing id or type", ErrAuthentication)
	}

	return &Event{
		EventID: raw.ID,
		Type:    raw.Type,
		Created: raw.Created,
		Session: raw.Data.Object,
	}, nil
}

// SignPayload produces a valid signature header for the given payload. Used by
// tests and local tooling to emulate provider deliveries.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
