package insight

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in model output is escaped.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderHTML renders model output as HTML. Section titles written as
// "｜Title" and "•" / "◦" bullets are accepted alongside markdown.
func RenderHTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(normalizeBullets(text)), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func normalizeBullets(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "｜"):
			lines[i] = "### " + strings.TrimSpace(strings.TrimPrefix(trimmed, "｜"))
		case strings.HasPrefix(trimmed, "•"):
			lines[i] = "- " + strings.TrimSpace(strings.TrimPrefix(trimmed, "•"))
		case strings.HasPrefix(trimmed, "◦"):
			lines[i] = "  - " + strings.TrimSpace(strings.TrimPrefix(trimmed, "◦"))
		}
	}
	return strings.Join(lines, "\n")
}
