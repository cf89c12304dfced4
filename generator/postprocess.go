package generator

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	fenceRe   = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n(.*?)\n?```$")
	htmlTagRe = regexp.MustCompile(`(?i)<(p|table|ul|ol|div|h[1-6]|blockquote|a)[\s>]`)

	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
)

// NormalizeHTML cleans a section body returned by the model. A wrapping code fence
// is removed, and a body written in Markdown (no block-level HTML) is rendered to
// HTML so that tables and lists survive.
func NormalizeHTML(raw string) (string, error) {
	body := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(body); len(m) == 2 {
		body = strings.TrimSpace(m[1])
	}
	if body == "" || htmlTagRe.MatchString(body) {
		return body, nil
	}
	return mdToHTML(body)
}

// StripFence only removes a wrapping code fence; used for inline text such as intros.
func StripFence(raw string) string {
	body := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(body); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return body
}

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
