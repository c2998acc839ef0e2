package reply

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minLeakedActionLen = 2
	maxLeakedActionLen = 60
	maxLeakedActions   = 3
)

var (
	fenceRe = regexp.MustCompile("(?i)```(?:json)?")

	// A heading on its own line, optionally bolded or prefixed with #.
	leakedHeadingRe = regexp.MustCompile(`(?im)^[ \t]*(?:#{1,6}[ \t]*)?(?:\*\*|__)?[ \t]*` +
		`(?:suggested actions|suggestions|next steps|gợi ý hành động|hành động gợi ý|hành động đề xuất|gợi ý)` +
		`[ \t]*(?:\*\*|__)?[ \t]*:?[ \t]*(?:\*\*|__)?[ \t]*$`)

	bulletRe = regexp.MustCompile(`^\s*(?:[-*•+]|\d+[.)])\s+(.+?)\s*$`)

	responseFieldRe = regexp.MustCompile(`"response"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	actionsFieldRe  = regexp.MustCompile(`"suggested_actions"\s*:\s*\[([^\]]*)\]`)
	quotedRe        = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)

	placeholderRe = regexp.MustCompile(`(?i)^(?:action|suggestion|suggested action|hành động|gợi ý)\s*\d*$`)

	unescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\r`, "\r", `\t`, "\t", `\"`, `"`)
)

// stripFences removes markdown code fences, keeping their contents.
func stripFences(s string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(s, ""))
}

// extractObject returns the span from the first '{' to the last '}' and the
// text around it.
func extractObject(s string) (obj, outside string, ok bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", "", false
	}
	return s[start : end+1], s[:start] + "\n" + s[end+1:], true
}

// decodeEnvelope parses obj and requires a response field. A response that
// is itself an object is kept as raw JSON for unwrapDoubleEncoded.
func decodeEnvelope(obj string) (envelope, bool) {
	var wire struct {
		Response         json.RawMessage `json:"response"`
		SuggestedActions json.RawMessage `json:"suggested_actions"`
	}
	if err := json.Unmarshal([]byte(obj), &wire); err != nil {
		return envelope{}, false
	}

	raw := bytes.TrimSpace(wire.Response)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return envelope{}, false
	}

	var env envelope
	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &env.Response); err != nil {
			return envelope{}, false
		}
	case '{':
		env.Response = string(raw)
	default:
		return envelope{}, false
	}

	env.Actions = decodeActions(wire.SuggestedActions)
	return env, true
}

// decodeActions accepts an array of strings, skipping non-string members.
func decodeActions(raw json.RawMessage) []string {
	var items []any
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// unwrapDoubleEncoded handles a response field that holds another envelope.
// Only one level is unwrapped.
func unwrapDoubleEncoded(env envelope) envelope {
	trimmed := strings.TrimSpace(env.Response)
	if !strings.HasPrefix(trimmed, "{") {
		return env
	}
	obj, _, ok := extractObject(trimmed)
	if !ok {
		return env
	}
	inner, ok := decodeEnvelope(obj)
	if !ok {
		return env
	}

	if strings.TrimSpace(inner.Response) != "" {
		env.Response = inner.Response
	}
	if len(usableActions(inner.Actions)) > 0 {
		env.Actions = inner.Actions
	}
	return env
}

// splitLeakedSection cuts s at a "Suggested Actions" style heading.
func splitLeakedSection(s string) (body, section string, found bool) {
	loc := leakedHeadingRe.FindStringIndex(s)
	if loc == nil {
		return strings.TrimSpace(s), "", false
	}
	return strings.TrimSpace(s[:loc[0]]), strings.TrimSpace(s[loc[1]:]), true
}

// extractBulletActions collects bulleted or numbered lines of a sensible length.
func extractBulletActions(section string) []string {
	var out []string
	for _, line := range strings.Split(section, "\n") {
		m := bulletRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		item := strings.Trim(m[1], "*_`\"' ")
		n := utf8.RuneCountInString(item)
		if n < minLeakedActionLen || n > maxLeakedActionLen {
			continue
		}
		out = append(out, item)
		if len(out) == maxLeakedActions {
			break
		}
	}
	return out
}

// scrapeFields pulls the response and actions out of text that is not valid
// JSON. Either field on its own counts as a match.
func scrapeFields(s string) (envelope, bool) {
	var env envelope
	found := false

	if m := responseFieldRe.FindStringSubmatch(s); m != nil {
		env.Response = unescaper.Replace(m[1])
		found = true
	}
	if m := actionsFieldRe.FindStringSubmatch(s); m != nil {
		for _, q := range quotedRe.FindAllStringSubmatch(m[1], -1) {
			env.Actions = append(env.Actions, unescaper.Replace(q[1]))
		}
		found = found || len(env.Actions) > 0
	}

	if !found {
		return envelope{}, false
	}
	return env, true
}

func isPlaceholder(a string) bool {
	switch strings.ToLower(a) {
	case "", "...", "…", "string", "n/a", "none", "null":
		return true
	}
	return placeholderRe.MatchString(a)
}
