package xfyun

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
)

// Signer derives the per-request signa value expected by the LFASR API:
// base64(HMAC-SHA1(secret, hex(md5(appID + ts)))).
type Signer struct {
	AppID  string
	Secret string
}

// Sign returns the signature for the given unix-seconds timestamp string.
func (s Signer) Sign(ts string) string {
	digest := md5.Sum([]byte(s.AppID + ts))
	base := hex.EncodeToString(digest[:])
	mac := hmac.New(sha1.New, []byte(s.Secret))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
