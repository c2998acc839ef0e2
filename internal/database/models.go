package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MessageRole is the author of a stored chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is one stored turn of a user's conversation with the agent.
type ChatMessage struct {
	ID        int64       `db:"id"`
	UserID    string      `db:"user_id"`
	Role      MessageRole `db:"role"`
	Content   string      `db:"message"`
	CreatedAt time.Time   `db:"created_at"`
}

// Nutrient codes used by the food search.
const (
	NutrientProtein = "PROCNT"
	NutrientCarbs   = "CHOCDF"
	NutrientFat     = "FAT"
)

// Nutrient is one entry of a recipe's total nutrients.
type Nutrient struct {
	Label    string  `json:"label,omitempty"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
}

// Nutrients maps nutrient codes to totals for the whole recipe.
// It is stored as a JSON text column.
type Nutrients map[string]Nutrient

// Scan implements sql.Scanner.
func (n *Nutrients) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*n = Nutrients{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into Nutrients", src)
	}
	if len(raw) == 0 {
		*n = Nutrients{}
		return nil
	}
	m := Nutrients{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("failed to decode nutrients: %w", err)
	}
	*n = m
	return nil
}

// Value implements driver.Valuer.
func (n Nutrients) Value() (driver.Value, error) {
	if n == nil {
		return "{}", nil
	}
	b, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to encode nutrients: %w", err)
	}
	return string(b), nil
}

// Quantity returns the total quantity for a nutrient code, or zero.
func (n Nutrients) Quantity(code string) float64 {
	return n[code].Quantity
}

// Food is a recipe in the nutrition catalog.
type Food struct {
	HashID         string    `db:"hash_id"         json:"hash_id"`
	RecipeName     string    `db:"recipe_name"     json:"recipe_name"`
	URL            string    `db:"url"             json:"url,omitempty"`
	Servings       *float64  `db:"servings"        json:"servings,omitempty"`
	Calories       float64   `db:"calories"        json:"calories"`
	TotalNutrients Nutrients `db:"total_nutrients" json:"total_nutrients"`
}

// ServingsOrOne returns the recipe's servings, treating zero or unknown as one.
func (f Food) ServingsOrOne() float64 {
	if f.Servings == nil || *f.Servings == 0 {
		return 1
	}
	return *f.Servings
}

// FoodFilter selects recipes by name and per-serving nutrition bounds.
// Nil bounds are not applied.
type FoodFilter struct {
	Name        string
	Limit       int
	MinCalories *float64
	MaxCalories *float64
	MinProtein  *float64
	MaxProtein  *float64
	MinCarbs    *float64
	MaxCarbs    *float64
	MinFat      *float64
	MaxFat      *float64
}
