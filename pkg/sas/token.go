package sas

import (
	"encoding/base64"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/benmeehan/aziot-sas-agent/internal/constants"
)

// Token is a shared access signature for one module resource.
type Token struct {
	Resource  string
	Expiry    int64
	Signature string
}

// NewToken assembles a token from raw signature bytes.
func NewToken(resource string, expiry int64, signature []byte) Token {
	return Token{
		Resource:  resource,
		Expiry:    expiry,
		Signature: PercentEncode(base64.StdEncoding.EncodeToString(signature)),
	}
}

// String renders the token as IoT Hub expects it: sr, se, then sig.
func (t Token) String() string {
	return "SharedAccessSignature sr=" + t.Resource + "&se=" + strconv.FormatInt(t.Expiry, 10) + "&sig=" + t.Signature
}

// ExpiresAt returns the expiry as a time.
func (t Token) ExpiresAt() time.Time {
	return time.Unix(t.Expiry, 0)
}

// ResourceURI is the encoded resource a module token grants access to.
func ResourceURI(hubName, deviceID, moduleID string) string {
	return PercentEncode(hubName + "/devices/" + deviceID + "/modules/" + moduleID)
}

// Expiry returns the expiry, in unix seconds, of a token issued at now.
func Expiry(now time.Time) int64 {
	return now.Add(constants.SasTokenValidity).Unix()
}

// StringToSign is the payload the key service signs.
func StringToSign(resource string, expiry int64) string {
	return resource + "\n" + strconv.FormatInt(expiry, 10)
}

// PercentEncode escapes everything outside the unreserved set (A-Z a-z 0-9 - . _ ~).
func PercentEncode(s string) string {
	// QueryEscape turns spaces into '+' and escapes literal '+' itself.
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
