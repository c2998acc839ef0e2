package database

import (
	"context"
	"fmt"
	"strings"
)

const perServing = "COALESCE(NULLIF(servings, 0), 1)"

// nutrientExpr is the per-serving SQL expression for a nutrient code.
// Recipes without the nutrient yield NULL and fail both bounds.
func nutrientExpr(code string) string {
	return fmt.Sprintf("(json_extract(total_nutrients, '$.%s.quantity') / %s)", code, perServing)
}

func (s *sqlxStore) UpsertFood(ctx context.Context, food *Food) error {
	if food == nil || food.HashID == "" {
		return fmt.Errorf("food must have a hash_id")
	}
	query := `
        INSERT INTO foods (hash_id, recipe_name, url, servings, calories, total_nutrients)
        VALUES (:hash_id, :recipe_name, :url, :servings, :calories, :total_nutrients)
        ON CONFLICT(hash_id) DO UPDATE SET
            recipe_name = excluded.recipe_name,
            url = excluded.url,
            servings = excluded.servings,
            calories = excluded.calories,
            total_nutrients = excluded.total_nutrients;
    `
	if _, err := s.db.NamedExecContext(ctx, query, food); err != nil {
		s.logger.ErrorContext(ctx, "Error saving food", "hash_id", food.HashID, "error", err)
		return fmt.Errorf("failed to save food %s: %w", food.HashID, err)
	}
	return nil
}

func (s *sqlxStore) SearchFoods(ctx context.Context, filter FoodFilter) ([]Food, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var (
		where []string
		args  []any
	)
	if name := strings.TrimSpace(filter.Name); name != "" {
		where = append(where, "recipe_name LIKE ?")
		args = append(args, "%"+name+"%")
	}
	bounds := []struct {
		expr string
		op   string
		v    *float64
	}{
		{"(calories / " + perServing + ")", ">=", filter.MinCalories},
		{"(calories / " + perServing + ")", "<=", filter.MaxCalories},
		{nutrientExpr(NutrientProtein), ">=", filter.MinProtein},
		{nutrientExpr(NutrientProtein), "<=", filter.MaxProtein},
		{nutrientExpr(NutrientCarbs), ">=", filter.MinCarbs},
		{nutrientExpr(NutrientCarbs), "<=", filter.MaxCarbs},
		{nutrientExpr(NutrientFat), ">=", filter.MinFat},
		{nutrientExpr(NutrientFat), "<=", filter.MaxFat},
	}
	for _, b := range bounds {
		if b.v == nil {
			continue
		}
		where = append(where, b.expr+" "+b.op+" ?")
		args = append(args, *b.v)
	}

	var q strings.Builder
	q.WriteString("SELECT hash_id, recipe_name, url, servings, calories, total_nutrients FROM foods")
	if len(where) > 0 {
		q.WriteString(" WHERE ")
		q.WriteString(strings.Join(where, " AND "))
	}
	q.WriteString(" ORDER BY recipe_name, hash_id LIMIT ?;")
	limit := filter.Limit
	if limit <= 0 {
		limit = 5
	}
	args = append(args, limit)

	foods := []Food{}
	if err := s.db.SelectContext(ctx, &foods, q.String(), args...); err != nil {
		if isContextErr(err) {
			s.logger.WarnContext(ctx, "Food search timed out or was cancelled", "error", err)
		} else {
			s.logger.ErrorContext(ctx, "Food search failed", "error", err)
		}
		return nil, fmt.Errorf("failed to search foods: %w", err)
	}
	s.logger.DebugContext(ctx, "Food search completed", "filters", len(where), "results", len(foods))
	return foods, nil
}
