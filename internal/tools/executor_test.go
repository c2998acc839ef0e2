package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/cardiobot/internal/config"
	"github.com/edgard/cardiobot/internal/database"
	"github.com/edgard/cardiobot/internal/llm"
	"github.com/edgard/cardiobot/internal/logger"
)

type fakeCatalog struct {
	foods  []database.Food
	err    error
	filter database.FoodFilter
}

func (f *fakeCatalog) SearchFoods(_ context.Context, filter database.FoodFilter) ([]database.Food, error) {
	f.filter = filter
	return f.foods, f.err
}

type fakeSQL struct {
	rows    []map[string]any
	schema  map[string][]string
	err     error
	queries []string
	maxRows int
}

func (f *fakeSQL) QueryReadOnly(_ context.Context, query string, maxRows int) ([]map[string]any, error) {
	f.queries = append(f.queries, query)
	f.maxRows = maxRows
	return f.rows, f.err
}

func (f *fakeSQL) Schema(context.Context) (map[string][]string, error) {
	return f.schema, f.err
}

var testToolsConfig = config.ToolsConfig{SearchDefaultLimit: 5, SearchMaxLimit: 20, QueryMaxRows: 50}

func newTestExecutor(c Catalog, s SQLSurface) *Executor {
	e := NewExecutor(c, s, testToolsConfig, logger.Discard())
	e.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 123e6, time.FixedZone("ICT", 7*3600)) }
	return e
}

func call(name, args string) llm.ToolCall {
	return llm.ToolCall{ID: "call_1", Name: name, Arguments: json.RawMessage(args)}
}

func servings(v float64) *float64 { return &v }

func TestDefinitions(t *testing.T) {
	t.Parallel()

	defs := Definitions()
	require.Len(t, defs, len(Names))
	for i, n := range Names {
		assert.Equal(t, string(n), defs[i].Name)
		assert.NotEmpty(t, defs[i].Description)
		assert.Contains(t, argSchemas, n)
	}
}

func TestExecuteReturnsToolMessage(t *testing.T) {
	t.Parallel()

	msg := newTestExecutor(&fakeCatalog{}, &fakeSQL{}).Execute(context.Background(), call("get_system_time", ""))
	assert.Equal(t, llm.RoleTool, msg.Role)
	assert.Equal(t, "call_1", msg.ToolCallID)
	assert.Equal(t, "get_system_time", msg.Name)
	assert.Equal(t, "2024-05-06T00:08:09.123Z", msg.Content)
}

func TestExecuteErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		call     llm.ToolCall
		contains string
	}{
		{name: "unknown tool", call: call("launch_rocket", "{}"), contains: "unknown tool"},
		{name: "arguments not an object", call: call("get_system_time", "[1,2]"), contains: "invalid arguments"},
		{name: "malformed json", call: call("query_database", "{"), contains: "invalid arguments"},
		{name: "missing query", call: call("query_database", "{}"), contains: "invalid arguments"},
		{name: "wrong type", call: call("search_foods", `{"limit": true}`), contains: "invalid arguments"},
		{name: "drop table", call: call("query_database", `{"query": "DROP TABLE users"}`), contains: "only SELECT"},
		{name: "update", call: call("query_database", `{"query": "  update foods set calories = 0"}`), contains: "only SELECT"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			sql := &fakeSQL{}
			out := newTestExecutor(&fakeCatalog{}, sql).Execute(context.Background(), tc.call).Content
			assert.Contains(t, out, "Error: ")
			assert.Contains(t, out, tc.contains)
			assert.Empty(t, sql.queries, "nothing may reach the database")
		})
	}
}

func TestExecuteCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sql := &fakeSQL{}
	out := newTestExecutor(&fakeCatalog{}, sql).Execute(ctx, call("query_database", `{"query":"select 1"}`)).Content
	assert.Contains(t, out, "Error: ")
	assert.Empty(t, sql.queries)
}

func TestQueryDatabase(t *testing.T) {
	t.Parallel()

	sql := &fakeSQL{rows: []map[string]any{{"recipe_name": "Oatmeal", "calories": 350.0}}}
	e := newTestExecutor(&fakeCatalog{}, sql)

	out := e.Execute(context.Background(), call("query_database", `{"query": "  SELECT recipe_name, calories FROM foods  "}`)).Content
	assert.JSONEq(t, `[{"recipe_name":"Oatmeal","calories":350}]`, out)
	assert.Equal(t, []string{"SELECT recipe_name, calories FROM foods"}, sql.queries)
	assert.Equal(t, 50, sql.maxRows)

	sql.err = errors.New("no such table: users")
	out = e.Execute(context.Background(), call("query_database", `{"query": "select * from users"}`)).Content
	assert.Equal(t, "Error: executing query: no such table: users", out)
}

func TestDatabaseSchema(t *testing.T) {
	t.Parallel()

	sql := &fakeSQL{schema: map[string][]string{"foods": {"hash_id (TEXT)", "calories (REAL)"}}}
	out := newTestExecutor(&fakeCatalog{}, sql).Execute(context.Background(), call("get_database_schema", "null")).Content
	assert.JSONEq(t, `{"foods":["hash_id (TEXT)","calories (REAL)"]}`, out)
	assert.Contains(t, out, "\n  \"foods\"")

	sql.err = errors.New("disk I/O error")
	out = newTestExecutor(&fakeCatalog{}, sql).Execute(context.Background(), call("get_database_schema", "{}")).Content
	assert.Equal(t, "Error: getting schema: disk I/O error", out)
}

func TestSearchFoodsArguments(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		args   string
		expect database.FoodFilter
	}{
		{
			name:   "defaults",
			args:   `{}`,
			expect: database.FoodFilter{Limit: 5},
		},
		{
			name:   "numbers and numeric strings",
			args:   `{"name":"chicken","limit":"3","minProtein":"30","maxCalories":500}`,
			expect: database.FoodFilter{Name: "chicken", Limit: 3, MinProtein: servings(30), MaxCalories: servings(500)},
		},
		{
			name:   "limit capped",
			args:   `{"limit": 500}`,
			expect: database.FoodFilter{Limit: 20},
		},
		{
			name:   "huge limit capped",
			args:   `{"limit": 1e20}`,
			expect: database.FoodFilter{Limit: 20},
		},
		{
			name:   "huge limit string capped",
			args:   `{"limit": "1e300"}`,
			expect: database.FoodFilter{Limit: 20},
		},
		{
			name:   "unparseable string ignored",
			args:   `{"minFat": "lots", "maxFat": null, "limit": "NaN"}`,
			expect: database.FoodFilter{Limit: 5},
		},
		{
			name:   "all bounds",
			args:   `{"minCalories":1,"maxCalories":2,"minProtein":3,"maxProtein":4,"minCarbs":5,"maxCarbs":6,"minFat":7,"maxFat":8}`,
			expect: database.FoodFilter{
				Limit:       5,
				MinCalories: servings(1),
				MaxCalories: servings(2),
				MinProtein:  servings(3),
				MaxProtein:  servings(4),
				MinCarbs:    servings(5),
				MaxCarbs:    servings(6),
				MinFat:      servings(7),
				MaxFat:      servings(8),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cat := &fakeCatalog{}
			newTestExecutor(cat, &fakeSQL{}).Execute(context.Background(), call("search_foods", tc.args))
			assert.Equal(t, tc.expect, cat.filter)
		})
	}
}

func TestSearchFoodsProjection(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{foods: []database.Food{
		{
			RecipeName: "Chicken Salad", URL: "https://example.com/c", Servings: servings(3), Calories: 1000,
			TotalNutrients: database.Nutrients{
				database.NutrientProtein: {Quantity: 100},
				database.NutrientCarbs:   {Quantity: 31},
				database.NutrientFat:     {Quantity: 20},
			},
		},
		{RecipeName: "Plain Rice", URL: "https://example.com/r", Calories: 200},
	}}

	out := newTestExecutor(cat, &fakeSQL{}).Execute(context.Background(), call("search_foods", `{"name":"a"}`)).Content
	assert.JSONEq(t, `{
		"message": "Success",
		"data": [
			{"name":"Chicken Salad","per_serving":{"calories":333,"protein_g":33.3,"carbs_g":10.3,"fat_g":6.7},"servings_per_recipe":3,"link":"https://example.com/c"},
			{"name":"Plain Rice","per_serving":{"calories":200,"protein_g":0,"carbs_g":0,"fat_g":0},"servings_per_recipe":null,"link":"https://example.com/r"}
		]
	}`, out)
}

func TestSearchFoodsEmptyAndFailure(t *testing.T) {
	t.Parallel()

	out := newTestExecutor(&fakeCatalog{}, &fakeSQL{}).Execute(context.Background(), call("search_foods", `{}`)).Content
	assert.JSONEq(t, `{"message":"No foods found matching criteria.","data":[]}`, out)

	out = newTestExecutor(&fakeCatalog{err: errors.New("locked")}, &fakeSQL{}).Execute(context.Background(), call("search_foods", `{}`)).Content
	assert.Equal(t, "Error: searching foods: locked", out)
}
