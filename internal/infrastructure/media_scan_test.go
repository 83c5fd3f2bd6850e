package infrastructure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindMediaLinks_RawHTML(t *testing.T) {
	body := []byte(`<a href="https://cdn.example.com/v/abc.mp4?token=1">dl</a>
<a href='https://cdn.example.com/v/def.webm'>alt</a>`)

	links := findMediaLinks(body)

	assert.Equal(t, []string{
		"https://cdn.example.com/v/abc.mp4?token=1",
		"https://cdn.example.com/v/def.webm",
	}, links)
}

func TestFindMediaLinks_EscapedJSON(t *testing.T) {
	body := []byte(`{"data":{"play":"https:\/\/cdn.example.com\/video\/abc.mp4?a=1&b=2"}}`)

	links := findMediaLinks(body)

	assert.Contains(t, links, "https://cdn.example.com/video/abc.mp4?a=1&b=2")
}

func TestFindMediaLinks_InvalidJSONFallsBackToText(t *testing.T) {
	body := []byte(`{not json "https://cdn.example.com/x.mp4"`)

	links := findMediaLinks(body)

	assert.Equal(t, []string{"https://cdn.example.com/x.mp4"}, links)
}

func TestAcceptableLink(t *testing.T) {
	long := "https://cdn.example.com/" + strings.Repeat("a", 40) + ".mp4"

	assert.True(t, acceptableLink(long, 50))
	assert.False(t, acceptableLink("https://cdn.example.com/a.mp4", 50))
	assert.False(t, acceptableLink(strings.Replace(long, "cdn", "WaterMark", 1), 50))
}

func TestFirstAcceptableLink(t *testing.T) {
	watermarked := "https://cdn.example.com/watermark/" + strings.Repeat("w", 40) + ".mp4"
	clean := "https://cdn.example.com/clean/" + strings.Repeat("c", 40) + ".mp4"
	body := []byte(`{"wm":"` + watermarked + `","play":"` + clean + `"}`)

	link := firstAcceptableLink(body, 50)

	assert.True(t, link.IsPresent())
	assert.Equal(t, clean, link.MustGet())
}

func TestFirstAcceptableLink_None(t *testing.T) {
	link := firstAcceptableLink([]byte(`<html>nothing here</html>`), 50)

	assert.True(t, link.IsAbsent())
}

func TestRandomUserAgent(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Contains(t, mobileUserAgents, randomUserAgent())
	}
}
