package reply

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		response string
		actions  []string
	}{
		{
			name:     "clean envelope",
			input:    `{"response":"Hi","suggested_actions":["A","B"]}`,
			response: "Hi",
			actions:  []string{"A", "B"},
		},
		{
			name:     "fenced envelope",
			input:    "```json\n{\"response\": \"Eat more oats.\", \"suggested_actions\": [\"Oat recipes\", \"Fiber goals\"]}\n```",
			response: "Eat more oats.",
			actions:  []string{"Oat recipes", "Fiber goals"},
		},
		{
			name:     "chatter around envelope",
			input:    "Sure! Here you go:\n{\"response\": \"Walk daily.\", \"suggested_actions\": [\"Plan a walk\"]}\nHope this helps.",
			response: "Walk daily.",
			actions:  []string{"Plan a walk"},
		},
		{
			name:     "more than two actions are capped",
			input:    `{"response":"Ok","suggested_actions":["One","Two","Three"]}`,
			response: "Ok",
			actions:  []string{"One", "Two"},
		},
		{
			name:     "double encoded string",
			input:    `{"response":"{\"response\":\"Inner text\",\"suggested_actions\":[\"X1\",\"Y1\"]}","suggested_actions":[]}`,
			response: "Inner text",
			actions:  []string{"X1", "Y1"},
		},
		{
			name:     "double encoded object",
			input:    `{"response":{"response":"Nested","suggested_actions":["Go on"]},"suggested_actions":["Outer"]}`,
			response: "Nested",
			actions:  []string{"Go on"},
		},
		{
			name:     "double encoded keeps outer actions when inner has none",
			input:    `{"response":"{\"response\":\"Inner only\"}","suggested_actions":["Outer one","Outer two"]}`,
			response: "Inner only",
			actions:  []string{"Outer one", "Outer two"},
		},
		{
			name:     "leaked section after envelope",
			input:    "{\"response\": \"Limit salt.\", \"suggested_actions\": []}\n\n**Suggested Actions:**\n- Low sodium meals\n- Check blood pressure\n- Read labels",
			response: "Limit salt.",
			actions:  []string{"Low sodium meals", "Check blood pressure"},
		},
		{
			name:     "leaked section inside response",
			input:    `{"response": "Sleep 8 hours.\n\nSuggested Actions:\n1. Sleep tips\n2. Stress relief", "suggested_actions": ["Action 1", "Action 2"]}`,
			response: "Sleep 8 hours.",
			actions:  []string{"Sleep tips", "Stress relief"},
		},
		{
			name:     "vietnamese leaked heading",
			input:    "{\"response\": \"Hãy ăn nhiều rau.\", \"suggested_actions\": []}\n### Gợi ý hành động:\n- Thực đơn rau xanh\n- Kiểm tra tim mạch",
			response: "Hãy ăn nhiều rau.",
			actions:  []string{"Thực đơn rau xanh", "Kiểm tra tim mạch"},
		},
		{
			name:     "leaked section keeps real json actions",
			input:    "{\"response\": \"Drink water.\", \"suggested_actions\": [\"Hydration plan\"]}\nSuggested Actions:\n- Other thing",
			response: "Drink water.",
			actions:  []string{"Hydration plan"},
		},
		{
			name:     "broken json scraped",
			input:    `{"response": "Line one\nLine \"two\"", "suggested_actions": ["Next", "Later"]`,
			response: "Line one\nLine \"two\"",
			actions:  []string{"Next", "Later"},
		},
		{
			name:     "plain text",
			input:    "Just eat balanced meals.",
			response: "Just eat balanced meals.",
			actions:  DefaultActions,
		},
		{
			name:     "plain text with leaked list",
			input:    "Move more.\n\nSuggested Actions:\n- Daily steps\n- x\n- Stretch routine",
			response: "Move more.",
			actions:  []string{"Daily steps", "Stretch routine"},
		},
		{
			name:     "empty",
			input:    "",
			response: FallbackResponse,
			actions:  DefaultActions,
		},
		{
			name:     "only fences",
			input:    "```json\n```",
			response: FallbackResponse,
			actions:  DefaultActions,
		},
		{
			name:     "unrelated json",
			input:    `{"intent":"MEDICAL"}`,
			response: `{"intent":"MEDICAL"}`,
			actions:  DefaultActions,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Parse(tc.input)
			assert.Equal(t, tc.response, got.Response)
			assert.Equal(t, tc.actions, got.SuggestedActions)
		})
	}
}

func TestParseNeverReturnsEmptyActions(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"   ",
		"plain words",
		"```json\n{\"response\":\"x\"}\n```",
		`{"response":"x","suggested_actions":null}`,
		`{"response":"x","suggested_actions":["", "   ", "..."]}`,
		`{"response":"x","suggested_actions":"not a list"}`,
		`{"response":`,
		"{}",
		"}{",
		"Suggested Actions:",
	}
	for _, in := range inputs {
		got := Parse(in)
		assert.NotEmpty(t, got.SuggestedActions, "input %q", in)
		assert.LessOrEqual(t, len(got.SuggestedActions), MaxActions, "input %q", in)
		assert.NotEmpty(t, got.Response, "input %q", in)
	}
}

func TestStripFences(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```JSON{\"a\":1}```"))
	assert.Equal(t, "text", stripFences("  text  "))
}

func TestExtractObject(t *testing.T) {
	t.Parallel()

	obj, outside, ok := extractObject(`pre {"a":{"b":1}} post`)
	assert.True(t, ok)
	assert.Equal(t, `{"a":{"b":1}}`, obj)
	assert.Contains(t, outside, "pre")
	assert.Contains(t, outside, "post")

	_, _, ok = extractObject("no braces")
	assert.False(t, ok)
	_, _, ok = extractObject("} backwards {")
	assert.False(t, ok)
}

func TestUnwrapDoubleEncoded(t *testing.T) {
	t.Parallel()

	plain := envelope{Response: "hello", Actions: []string{"A"}}
	assert.Equal(t, plain, unwrapDoubleEncoded(plain))

	broken := envelope{Response: "{not json", Actions: []string{"A"}}
	assert.Equal(t, broken, unwrapDoubleEncoded(broken))

	// Only one level is unwrapped.
	twice := envelope{Response: `{"response":"{\"response\":\"deep\"}"}`}
	assert.Equal(t, `{"response":"deep"}`, unwrapDoubleEncoded(twice).Response)
}

func TestSplitLeakedSection(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		input   string
		body    string
		section string
		found   bool
	}{
		{name: "none", input: "just text", body: "just text"},
		{name: "plain heading", input: "a\nSuggested Actions:\n- x", body: "a", section: "- x", found: true},
		{name: "bold heading", input: "a\n**Suggested actions**\n- x", body: "a", section: "- x", found: true},
		{name: "markdown heading", input: "a\n## Next steps:\n1. x", body: "a", section: "1. x", found: true},
		{name: "vietnamese", input: "a\nHành động gợi ý:\n- x", body: "a", section: "- x", found: true},
		{name: "inline mention is not a heading", input: "see suggested actions: below", body: "see suggested actions: below"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			body, section, found := splitLeakedSection(tc.input)
			assert.Equal(t, tc.body, body)
			assert.Equal(t, tc.section, section)
			assert.Equal(t, tc.found, found)
		})
	}
}

func TestExtractBulletActions(t *testing.T) {
	t.Parallel()

	section := "- **Bold item**\n* star item\n• dot\n+ plus item\n3) numbered item\nnot a bullet\n- x\n- " +
		"this line is far too long to be a button label on a small phone screen"
	assert.Equal(t, []string{"Bold item", "star item", "dot"}, extractBulletActions(section))
	assert.Nil(t, extractBulletActions(""))
}

func TestScrapeFields(t *testing.T) {
	t.Parallel()

	env, ok := scrapeFields(`garbage "response": "a\tb\\c" more "suggested_actions": ["x", "y"] trailing`)
	assert.True(t, ok)
	assert.Equal(t, "a\tb\\c", env.Response)
	assert.Equal(t, []string{"x", "y"}, env.Actions)

	env, ok = scrapeFields(`"suggested_actions": ["only"]`)
	assert.True(t, ok)
	assert.Empty(t, env.Response)

	_, ok = scrapeFields("nothing here")
	assert.False(t, ok)
}

func TestIsPlaceholder(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"", "...", "Action 1", "action", "Suggestion 2", "STRING", "Hành động 1"} {
		assert.True(t, isPlaceholder(p), p)
	}
	for _, p := range []string{"A", "Check Heart Health", "Action plan for today"} {
		assert.False(t, isPlaceholder(p), p)
	}
}
