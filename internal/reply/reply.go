// Package reply turns raw model output into a structured chat reply.
//
// Models are asked to answer with {"response": ..., "suggested_actions": [...]}
// but routinely wrap it in markdown fences, double-encode it, or leak a
// human-readable "Suggested Actions" list outside the envelope. Parse tries a
// fixed sequence of increasingly crude strategies and never fails.
package reply

import "strings"

// MaxActions caps the number of suggested actions returned to the user.
const MaxActions = 2

// FallbackResponse is used when no response text can be recovered.
const FallbackResponse = "Sorry, I couldn't put together an answer just now. Please try asking again."

// DefaultActions are returned when no usable action can be recovered.
var DefaultActions = []string{"Check Heart Health", "Nutrition Tips"}

// Reply is the structured answer shown to the user.
type Reply struct {
	Response         string   `json:"response"`
	SuggestedActions []string `json:"suggested_actions"`
}

// envelope is an intermediate, not yet normalized reply.
type envelope struct {
	Response string
	Actions  []string
}

// Parse extracts a Reply from raw model output.
func Parse(raw string) Reply {
	text := stripFences(raw)

	if env, ok := parseEnvelope(text); ok {
		return finalize(env)
	}
	if env, ok := scrapeFields(text); ok {
		if env.Response == "" {
			env.Response = text
		}
		return finalize(recoverLeaked(env, text))
	}

	body, leaked, _ := splitLeakedSection(text)
	return finalize(envelope{Response: body, Actions: extractBulletActions(leaked)})
}

// parseEnvelope is the primary path: outermost object, one level of
// double-encoding, then leaked-section recovery.
func parseEnvelope(text string) (envelope, bool) {
	obj, outside, ok := extractObject(text)
	if !ok {
		return envelope{}, false
	}
	env, ok := decodeEnvelope(obj)
	if !ok {
		return envelope{}, false
	}
	env = unwrapDoubleEncoded(env)
	return recoverLeaked(env, outside), true
}

// recoverLeaked strips a leaked actions section from the response and uses
// its bullets when the envelope carries no usable actions.
func recoverLeaked(env envelope, outside string) envelope {
	body, leaked, found := splitLeakedSection(env.Response)
	if found {
		env.Response = body
	} else {
		_, leaked, _ = splitLeakedSection(outside)
	}
	if len(usableActions(env.Actions)) == 0 && leaked != "" {
		env.Actions = extractBulletActions(leaked)
	}
	return env
}

func finalize(env envelope) Reply {
	resp := strings.TrimSpace(env.Response)
	if resp == "" {
		resp = FallbackResponse
	}

	actions := usableActions(env.Actions)
	if len(actions) > MaxActions {
		actions = actions[:MaxActions]
	}
	if len(actions) == 0 {
		actions = append([]string(nil), DefaultActions...)
	}
	return Reply{Response: resp, SuggestedActions: actions}
}

// usableActions trims, drops placeholders and removes duplicates.
func usableActions(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if isPlaceholder(a) {
			continue
		}
		key := strings.ToLower(a)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
