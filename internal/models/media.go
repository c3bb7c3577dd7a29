package models

import (
	"net/url"
	"strings"
)

// ConvertMediaLink rewrites a sharable storage link into one that can be fetched
// directly. Links that match no known pattern are returned trimmed but otherwise
// unchanged. Applying it twice gives the same result as applying it once.
func ConvertMediaLink(raw string) string {
	link := strings.TrimSpace(raw)
	if link == "" {
		return ""
	}

	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return link
	}

	switch strings.ToLower(u.Host) {
	case "drive.google.com":
		if id := driveFileID(u); id != "" {
			return "https://drive.google.com/uc?export=view&id=" + id
		}
	case "www.dropbox.com", "dropbox.com":
		q := u.Query()
		if q.Get("dl") == "0" {
			q.Set("dl", "1")
			u.RawQuery = q.Encode()
			return u.String()
		}
	}
	return link
}

// driveFileID extracts the file id from /file/d/<id>/... and /open?id=<id> links.
// The /uc form is already direct and yields "".
func driveFileID(u *url.URL) string {
	if strings.HasPrefix(u.Path, "/file/d/") {
		rest := strings.TrimPrefix(u.Path, "/file/d/")
		id, _, _ := strings.Cut(rest, "/")
		return id
	}
	if u.Path == "/open" {
		return u.Query().Get("id")
	}
	return ""
}
