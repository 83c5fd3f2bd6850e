package infrastructure

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// User agents plausible for the short-form video platform. One is picked per
// attempt so consecutive attempts do not share a fingerprint.
var mobileUserAgents = []string{
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 " +
		"(KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Linux; Android 14; SM-S928B) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
	"Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/119.0.0.0 Mobile Safari/537.36",
}

func randomUserAgent() string {
	return lo.Sample(mobileUserAgents)
}

var mediaLinkPattern = regexp.MustCompile(`https?://[^"'\s<>\\]+\.(?:mp4|mov|m4v|webm)[^"'\s<>\\]*`)

// scanText builds the text searched for media links: the raw body plus, when the
// body looks like JSON, its parsed form serialized back. Re-serializing undoes
// escaped slashes that hide links in the raw text.
func scanText(body []byte) string {
	text := string(body)
	if !strings.HasPrefix(strings.TrimSpace(text), "{") {
		return text
	}
	var parsed interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return text
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(parsed); err != nil {
		return text
	}
	return text + "\n" + buf.String()
}

// findMediaLinks returns every candidate media link in body, in order of appearance
func findMediaLinks(body []byte) []string {
	return mediaLinkPattern.FindAllString(scanText(body), -1)
}

// acceptableLink rejects watermark-tagged and implausibly short links
func acceptableLink(link string, minLength int) bool {
	if strings.Contains(strings.ToLower(link), "watermark") {
		return false
	}
	return len(link) >= minLength
}

// firstAcceptableLink returns the first link that passes acceptableLink
func firstAcceptableLink(body []byte, minLength int) mo.Option[string] {
	link, ok := lo.Find(findMediaLinks(body), func(l string) bool {
		return acceptableLink(l, minLength)
	})
	if !ok {
		return mo.None[string]()
	}
	return mo.Some(link)
}
