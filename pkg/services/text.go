package services

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday"
)

const maxAgentReplyLength = 450

var (
	youtubeURLRegex  = regexp.MustCompile(`https://www\.youtube\.com/watch\?v=\S+`)
	agentHeaderRegex = regexp.MustCompile(`### \*\*\*(.*?)\*\*\*`)
	stripPolicy      = bluemonday.StrictPolicy()
)

// ExtractYouTubeURL returns the first YouTube watch link in text, or "".
func ExtractYouTubeURL(text string) string {
	return youtubeURLRegex.FindString(text)
}

// TruncateMessage cuts a reply to maxAgentReplyLength runes and then back to
// the last full sentence. A reply without any period gets one appended.
func TruncateMessage(message string) string {
	if r := []rune(message); len(r) > maxAgentReplyLength {
		message = string(r[:maxAgentReplyLength])
	}
	if strings.HasSuffix(message, ".") {
		return message
	}
	if i := strings.LastIndex(message, "."); i != -1 {
		return message[:i+1]
	}
	return message + "."
}

// AppendAgentHeader makes reply start with the "### ***name***" header.
// Every header found in the reply is moved onto its own line and the first
// one is renamed to name.
func AppendAgentHeader(reply, name string) string {
	header := "### ***" + name + "***"

	var b strings.Builder
	last := 0
	for _, loc := range agentHeaderRegex.FindAllStringIndex(reply, -1) {
		b.WriteString(reply[last:loc[0]])
		if loc[0] > 0 && reply[loc[0]-1] != '\n' {
			b.WriteByte('\n')
		}
		last = loc[0]
	}
	b.WriteString(reply[last:])
	reply = b.String()

	loc := agentHeaderRegex.FindStringIndex(reply)
	if loc == nil {
		return header + "\n" + reply
	}
	return reply[:loc[0]] + header + reply[loc[1]:]
}

// RemoveMarkdown renders markdown and strips the markup, leaving plain text.
func RemoveMarkdown(markdown string) string {
	rendered := blackfriday.MarkdownCommon([]byte(markdown))
	text := html.UnescapeString(stripPolicy.Sanitize(string(rendered)))
	return strings.TrimSpace(strings.ReplaceAll(text, `"`, ""))
}

// StripMarkdownFence removes a ```markdown block wrapper around text.
func StripMarkdownFence(text string) string {
	text = strings.TrimPrefix(text, "```markdown")
	return strings.TrimSuffix(text, "```")
}
