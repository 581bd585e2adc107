package chat

import (
	"regexp"
	"strings"
)

// ActionLink is one inline directive extracted from generated text. The
// caller renders these as separate UI affordances; the raw markup never
// reaches the end user.
type ActionLink struct {
	// Label is the human-readable link text.
	Label string `json:"label"`

	// URL is the link target.
	URL string `json:"url"`

	// ToolCall is the optional tool name for tool-action links.
	ToolCall string `json:"tool_call,omitempty"`

	// IsToolAction is true when ToolCall is present.
	IsToolAction bool `json:"is_tool_action"`
}

// directivePattern matches [ACTION_LINK:Label|URL] and
// [ACTION_LINK:Label|URL|TOOL_CALL:ToolName]. Label excludes '|', URL
// excludes '|' and ']', the tool name excludes ']'. Anything that does not
// match — a missing bracket, a stray pipe — passes through as literal text.
var directivePattern = regexp.MustCompile(`\[ACTION_LINK:([^|]+)\|([^|\]]+)(?:\|TOOL_CALL:([^\]]+))?\]`)

// blankRuns matches runs of 3 or more consecutive newlines left behind where
// directives were excised.
var blankRuns = regexp.MustCompile(`\n{3,}`)

// ParseDirectives scans text left to right for action-link directives,
// removes each matched span, and returns the cleaned text together with the
// extracted links in order of appearance. It never fails: text with no
// directives comes back whitespace-normalised with an empty link list.
func ParseDirectives(text string) (string, []ActionLink) {
	var links []ActionLink

	cleaned := directivePattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := directivePattern.FindStringSubmatch(match)
		link := ActionLink{
			Label: groups[1],
			URL:   groups[2],
		}
		if groups[3] != "" {
			link.ToolCall = groups[3]
			link.IsToolAction = true
		}
		links = append(links, link)
		return ""
	})

	cleaned = blankRuns.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned), links
}
