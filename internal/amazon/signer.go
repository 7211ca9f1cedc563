package amazon

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

const (
	algorithm     = "AWS4-HMAC-SHA256"
	amzDateFormat = "20060102T150405Z"

	// The five headers PA-API requires signed, in canonical order.
	signedHeaders = "content-encoding;content-type;host;x-amz-date;x-amz-target"

	headerContentEncoding = "amz-1.0"
	headerContentType     = "application/json; charset=utf-8"
)

// Signer produces AWS Signature Version 4 request headers for the
// Product Advertising API. Signatures are time-scoped: the caller must
// pass a fresh timestamp on every attempt, since a drifted or stale
// clock makes the upstream reject the request with a 4xx.
type Signer struct {
	AccessKey string
	SecretKey string
	Region    string
	Service   string
}

// Sign returns the header set, including Authorization, for one request.
func (s Signer) Sign(method, path, host, target string, payload []byte, now time.Time) map[string]string {
	amzDate := now.UTC().Format(amzDateFormat)
	dateStamp := amzDate[:8]

	payloadHash := hexSHA256(payload)

	canonicalHeaders := "content-encoding:" + headerContentEncoding + "\n" +
		"content-type:" + headerContentType + "\n" +
		"host:" + host + "\n" +
		"x-amz-date:" + amzDate + "\n" +
		"x-amz-target:" + target + "\n"

	// The empty element stands in for the (absent) query string.
	canonicalRequest := strings.Join([]string{
		method,
		path,
		"",
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	credentialScope := dateStamp + "/" + s.Region + "/" + s.Service + "/aws4_request"

	stringToSign := strings.Join([]string{
		algorithm,
		amzDate,
		credentialScope,
		hexSHA256([]byte(canonicalRequest)),
	}, "\n")

	// Key derivation: HMAC-chain the prefixed secret through date,
	// region, service, and the fixed terminator.
	key := []byte("AWS4" + s.SecretKey)
	for _, part := range []string{dateStamp, s.Region, s.Service, "aws4_request"} {
		key = hmacSHA256(key, part)
	}
	signature := hex.EncodeToString(hmacSHA256(key, stringToSign))

	auth := algorithm +
		" Credential=" + s.AccessKey + "/" + credentialScope +
		", SignedHeaders=" + signedHeaders +
		", Signature=" + signature

	return map[string]string{
		"Content-Encoding": headerContentEncoding,
		"Content-Type":     headerContentType,
		"X-Amz-Date":       amzDate,
		"X-Amz-Target":     target,
		"Authorization":    auth,
	}
}

func hexSHA256(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key []byte, msg string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msg))
	return mac.Sum(nil)
}
