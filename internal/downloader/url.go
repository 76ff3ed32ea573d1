package downloader

import (
	"net/url"
	"strings"
)

// normalizeHostname returns the normalized hostname from a URL:
// lowercase, with "www." prefix removed, and port stripped.
func normalizeHostname(parsed *url.URL) string {
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// NormalizeVideoURL rewrites the alternate YouTube URL forms (music, youtu.be,
// live, shorts) to a watch?v= URL. Anything else is returned unchanged; syntax
// validation is left to the resolver backend.
func NormalizeVideoURL(raw string) string {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return raw
	}

	host := normalizeHostname(parsed)
	if host == "music.youtube.com" {
		parsed.Host = "www.youtube.com"
		query := parsed.Query()
		delete(query, "si")
		parsed.RawQuery = query.Encode()
		return parsed.String()
	}
	if host != "youtube.com" && host != "youtu.be" && host != "m.youtube.com" {
		return raw
	}

	query := parsed.Query()
	if host == "youtu.be" {
		id := strings.Trim(parsed.Path, "/")
		if id == "" {
			return raw
		}
		query.Set("v", id)
		delete(query, "si")
		return watchURL(query)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) >= 2 && (parts[0] == "live" || parts[0] == "shorts") {
		if query.Get("v") == "" && parts[1] != "" {
			query.Set("v", parts[1])
		}
		return watchURL(query)
	}
	return raw
}

func watchURL(query url.Values) string {
	u := url.URL{
		Scheme:   "https",
		Host:     "www.youtube.com",
		Path:     "/watch",
		RawQuery: query.Encode(),
	}
	return u.String()
}
