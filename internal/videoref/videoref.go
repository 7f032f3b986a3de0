// Package videoref validates and canonicalizes the video references accepted
// by the acquisition path.
package videoref

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	bvID = regexp.MustCompile(`^BV[1-9A-HJ-NP-Za-km-z]{10}$`)
	avID = regexp.MustCompile(`^av\d+$`)
)

// Normalize returns a canonical reference for raw and reports whether raw is
// usable at all. Bilibili video links are reduced to
// https://www.bilibili.com/video/<id>/ keeping only the part number; other
// http(s) URLs pass through unchanged.
func Normalize(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	if !IsBilibili(u.Host) {
		return trimmed, true
	}
	if canonical, ok := canonicalBilibili(u); ok {
		return canonical, true
	}
	return trimmed, true
}

// IsBilibili reports whether host belongs to bilibili.com.
func IsBilibili(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	return host == "bilibili.com" || strings.HasSuffix(host, ".bilibili.com")
}

func canonicalBilibili(u *url.URL) (string, bool) {
	var id string
	for _, part := range strings.Split(u.Path, "/") {
		if bvID.MatchString(part) || avID.MatchString(part) {
			id = part
			break
		}
	}
	if id == "" {
		return "", false
	}
	out := "https://www.bilibili.com/video/" + id + "/"
	if p := strings.TrimSpace(u.Query().Get("p")); p != "" {
		out += "?" + url.Values{"p": []string{p}}.Encode()
	}
	return out, true
}
