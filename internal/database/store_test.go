package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlxStore {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { CloseDB(db) })
	return NewStore(db, nil).(*sqlxStore)
}

func ptr(v float64) *float64 { return &v }

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected string
	}{
		{input: "cardiobot.db", expected: "cardiobot.db"},
		{input: "file:data/cardiobot.db?_pragma=busy_timeout(5000)", expected: "data/cardiobot.db"},
		{input: "file:my%20db.sqlite", expected: "my db.sqlite"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, ExtractDBNameFromPath(tc.input), tc.input)
	}
}

func TestWithPragmas(t *testing.T) {
	t.Parallel()

	plain := withPragmas("cardiobot.db")
	assert.True(t, strings.HasPrefix(plain, "cardiobot.db?_pragma=busy_timeout(5000)&"))
	assert.Contains(t, plain, "_pragma=foreign_keys(1)")

	withQuery := withPragmas("file:cardiobot.db?mode=rwc")
	assert.True(t, strings.HasPrefix(withQuery, "file:cardiobot.db?mode=rwc&_pragma="))
	assert.Equal(t, "cardiobot.db", ExtractDBNameFromPath(withQuery))
}

func TestMigrateReportsVersion(t *testing.T) {
	t.Parallel()

	db, err := NewDB(filepath.Join(t.TempDir(), "version.db"))
	require.NoError(t, err)
	t.Cleanup(func() { CloseDB(db) })

	version, err := Migrate(db.DB, "version.db")
	require.NoError(t, err)
	assert.Positive(t, version)

	_, err = Migrate(nil, "version.db")
	require.Error(t, err)
	_, err = Migrate(db.DB, "")
	require.Error(t, err)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "twice.db")
	db, err := NewDB(path)
	require.NoError(t, err)
	CloseDB(db)

	db, err = NewDB(path)
	require.NoError(t, err)
	CloseDB(db)
}

func TestHistoryRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.AppendTurn(ctx, "u1", "hello", "hi there"))
	require.NoError(t, s.AppendTurn(ctx, "u1", "is salt bad?", "in excess, yes"))
	require.NoError(t, s.AppendTurn(ctx, "u2", "other user", "reply"))

	msgs, err := s.LoadRecent(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	// Newest first.
	assert.Equal(t, "in excess, yes", msgs[0].Content)
	assert.Equal(t, RoleAssistant, msgs[0].Role)
	assert.Equal(t, "is salt bad?", msgs[1].Content)
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Equal(t, "hi there", msgs[2].Content)

	none, err := s.LoadRecent(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = s.LoadRecent(ctx, "", 5)
	assert.Error(t, err)
}

func TestDeleteUserMessages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.AppendTurn(ctx, "u1", "a", "b"))
	require.NoError(t, s.AppendTurn(ctx, "u2", "c", "d"))

	deleted, err := s.DeleteUserMessages(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	left, err := s.LoadRecent(ctx, "u2", 10)
	require.NoError(t, err)
	assert.Len(t, left, 2)
}

func TestDeleteMessagesOlderThan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base.Add(-48 * time.Hour) }
	require.NoError(t, s.AppendTurn(ctx, "u1", "old", "old reply"))
	s.now = func() time.Time { return base }
	require.NoError(t, s.AppendTurn(ctx, "u1", "new", "new reply"))

	deleted, err := s.DeleteMessagesOlderThan(ctx, base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	msgs, err := s.LoadRecent(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "new reply", msgs[0].Content)
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.RunSQLMaintenance(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.RunSQLMaintenance(ctx), context.Canceled)
}

func seedFoods(t *testing.T, s *sqlxStore) {
	t.Helper()
	foods := []*Food{
		{
			HashID: "f1", RecipeName: "Grilled Chicken Salad", URL: "https://example.com/chicken",
			Servings: ptr(2), Calories: 800,
			TotalNutrients: Nutrients{
				NutrientProtein: {Label: "Protein", Quantity: 80, Unit: "g"},
				NutrientCarbs:   {Label: "Carbs", Quantity: 20, Unit: "g"},
				NutrientFat:     {Label: "Fat", Quantity: 30, Unit: "g"},
			},
		},
		{
			HashID: "f2", RecipeName: "Oatmeal Bowl", URL: "https://example.com/oats",
			Servings: ptr(0), Calories: 350,
			TotalNutrients: Nutrients{
				NutrientProtein: {Quantity: 12},
				NutrientCarbs:   {Quantity: 60},
				NutrientFat:     {Quantity: 6},
			},
		},
		{
			HashID: "f3", RecipeName: "Salmon with Rice", URL: "https://example.com/salmon",
			Servings: ptr(4), Calories: 2400,
			TotalNutrients: Nutrients{
				NutrientProtein: {Quantity: 160},
				NutrientFat:     {Quantity: 100},
			},
		},
	}
	for _, f := range foods {
		require.NoError(t, s.UpsertFood(context.Background(), f))
	}
}

func TestSearchFoods(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	seedFoods(t, s)

	testCases := []struct {
		name     string
		filter   FoodFilter
		expected []string
	}{
		{name: "no filter", filter: FoodFilter{Limit: 10}, expected: []string{"f1", "f2", "f3"}},
		{name: "limit", filter: FoodFilter{Limit: 1}, expected: []string{"f1"}},
		{name: "name is case-insensitive", filter: FoodFilter{Name: "salmon", Limit: 5}, expected: []string{"f3"}},
		{name: "protein per serving", filter: FoodFilter{MinProtein: ptr(35), Limit: 5}, expected: []string{"f1", "f3"}},
		{name: "zero servings counts as one", filter: FoodFilter{MinCalories: ptr(300), MaxCalories: ptr(400), Limit: 5}, expected: []string{"f1", "f2"}},
		{name: "missing nutrient never matches", filter: FoodFilter{MaxCarbs: ptr(100), Limit: 5}, expected: []string{"f1", "f2"}},
		{name: "fat bounds", filter: FoodFilter{MinFat: ptr(20), MaxFat: ptr(30), Limit: 5}, expected: []string{"f3"}},
		{name: "nothing", filter: FoodFilter{Name: "pizza", Limit: 5}, expected: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			foods, err := s.SearchFoods(context.Background(), tc.filter)
			require.NoError(t, err)
			ids := []string{}
			for _, f := range foods {
				ids = append(ids, f.HashID)
			}
			assert.Equal(t, tc.expected, ids)
		})
	}
}

func TestUpsertFoodRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	seedFoods(t, s)

	foods, err := s.SearchFoods(ctx, FoodFilter{Name: "Chicken", Limit: 1})
	require.NoError(t, err)
	require.Len(t, foods, 1)
	f := foods[0]
	assert.InDelta(t, 80, f.TotalNutrients.Quantity(NutrientProtein), 1e-9)
	assert.Equal(t, "g", f.TotalNutrients[NutrientProtein].Unit)
	assert.InDelta(t, 2, f.ServingsOrOne(), 1e-9)

	f.Calories = 900
	require.NoError(t, s.UpsertFood(ctx, &f))
	foods, err = s.SearchFoods(ctx, FoodFilter{Name: "Chicken", Limit: 1})
	require.NoError(t, err)
	assert.InDelta(t, 900, foods[0].Calories, 1e-9)

	assert.Error(t, s.UpsertFood(ctx, &Food{}))
}

func TestQueryReadOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	seedFoods(t, s)

	rows, err := s.QueryReadOnly(ctx, "SELECT hash_id, recipe_name, calories FROM foods ORDER BY hash_id", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "f1", rows[0]["hash_id"])
	assert.Equal(t, "Grilled Chicken Salad", rows[0]["recipe_name"])

	_, err = s.QueryReadOnly(ctx, "DELETE FROM foods", 10)
	assert.Error(t, err)

	// Writes still work on the pooled connection afterwards.
	require.NoError(t, s.AppendTurn(ctx, "u1", "a", "b"))

	_, err = s.QueryReadOnly(ctx, "SELECT * FROM no_such_table", 10)
	assert.Error(t, err)

	rows, err = s.QueryReadOnly(ctx, "SELECT COUNT(*) AS n FROM foods;  ;", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestQueryReadOnlyRejectsStackedStatements(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	seedFoods(t, s)
	require.NoError(t, s.AppendTurn(ctx, "u1", "my blood pressure", "noted"))

	testCases := []struct {
		name  string
		query string
		err   error
	}{
		{name: "pragma then delete", query: "SELECT 1; PRAGMA query_only=OFF; DELETE FROM foods;", err: ErrMultipleStatements},
		{name: "select then delete", query: "SELECT 1; DELETE FROM foods", err: ErrMultipleStatements},
		{name: "chat history", query: "SELECT content FROM agent_chat_messages", err: ErrRestrictedTable},
		{name: "chat history quoted", query: `SELECT * FROM "AGENT_CHAT_MESSAGES"`, err: ErrRestrictedTable},
		{name: "migrations", query: "SELECT version FROM schema_migrations", err: ErrRestrictedTable},
	}
	for _, tc := range testCases {
		_, err := s.QueryReadOnly(ctx, tc.query, 10)
		assert.ErrorIs(t, err, tc.err, tc.name)
	}

	var foods int
	require.NoError(t, s.db.GetContext(ctx, &foods, "SELECT COUNT(*) FROM foods"))
	assert.Positive(t, foods)

	history, err := s.LoadRecent(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSchema(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	schema, err := s.Schema(context.Background())
	require.NoError(t, err)

	assert.NotContains(t, schema, "schema_migrations")
	assert.NotContains(t, schema, "agent_chat_messages")
	require.Contains(t, schema, "foods")
	assert.Equal(t, "hash_id (TEXT)", schema["foods"][0])
	assert.Contains(t, schema["foods"], "total_nutrients (TEXT)")
}

func TestNutrientsScan(t *testing.T) {
	t.Parallel()

	var n Nutrients
	require.NoError(t, n.Scan(`{"FAT":{"quantity":3.5}}`))
	assert.InDelta(t, 3.5, n.Quantity(NutrientFat), 1e-9)
	assert.Zero(t, n.Quantity(NutrientProtein))

	require.NoError(t, n.Scan(nil))
	assert.Empty(t, n)
	assert.Error(t, n.Scan(42))
	assert.Error(t, n.Scan("not json"))
}
