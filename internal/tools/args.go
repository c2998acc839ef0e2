package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const flexNumberSchema = `{"type": ["number", "string", "null"]}`

// argSchemas validate raw tool arguments before they are decoded. Numeric
// search bounds accept numeric strings because models often quote numbers.
var argSchemas = map[Name]string{
	GetSystemTime:     `{"type": "object"}`,
	GetDatabaseSchema: `{"type": "object"}`,
	QueryDatabase: `{
		"type": "object",
		"properties": {"query": {"type": "string", "minLength": 1}},
		"required": ["query"]
	}`,
	SearchFoods: `{
		"type": "object",
		"properties": {
			"name": {"type": ["string", "null"]},
			"limit": ` + flexNumberSchema + `,
			"minCalories": ` + flexNumberSchema + `,
			"maxCalories": ` + flexNumberSchema + `,
			"minProtein": ` + flexNumberSchema + `,
			"maxProtein": ` + flexNumberSchema + `,
			"minCarbs": ` + flexNumberSchema + `,
			"maxCarbs": ` + flexNumberSchema + `,
			"minFat": ` + flexNumberSchema + `,
			"maxFat": ` + flexNumberSchema + `
		}
	}`,
}

var compiledSchemas = compileSchemas()

func compileSchemas() map[Name]*gojsonschema.Schema {
	out := make(map[Name]*gojsonschema.Schema, len(argSchemas))
	for name, src := range argSchemas {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
		if err != nil {
			panic(fmt.Sprintf("tools: invalid argument schema for %s: %v", name, err))
		}
		out[name] = s
	}
	return out
}

// normalizeArgs treats missing or null arguments as an empty object.
func normalizeArgs(raw json.RawMessage) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []byte("{}")
	}
	return trimmed
}

// validateArgs checks raw arguments against the tool's schema.
func validateArgs(name Name, raw []byte) error {
	schema, ok := compiledSchemas[name]
	if !ok {
		return fmt.Errorf("no schema for tool %s", name)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}

// flexNumber decodes a JSON number or a numeric string. Anything else,
// including unparseable strings, leaves it unset.
type flexNumber struct {
	value float64
	set   bool
}

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	*f = flexNumber{}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch tv := v.(type) {
	case float64:
		f.value, f.set = tv, true
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(tv), 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			f.value, f.set = n, true
		}
	}
	return nil
}

func (f flexNumber) ptr() *float64 {
	if !f.set {
		return nil
	}
	v := f.value
	return &v
}

type queryArgs struct {
	Query string `json:"query"`
}

type searchArgs struct {
	Name        string     `json:"name"`
	Limit       flexNumber `json:"limit"`
	MinCalories flexNumber `json:"minCalories"`
	MaxCalories flexNumber `json:"maxCalories"`
	MinProtein  flexNumber `json:"minProtein"`
	MaxProtein  flexNumber `json:"maxProtein"`
	MinCarbs    flexNumber `json:"minCarbs"`
	MaxCarbs    flexNumber `json:"maxCarbs"`
	MinFat      flexNumber `json:"minFat"`
	MaxFat      flexNumber `json:"maxFat"`
}
