package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/edgard/cardiobot/internal/config"
	"github.com/edgard/cardiobot/internal/database"
	"github.com/edgard/cardiobot/internal/llm"
)

// NoFoodsMessage is reported when a food search matches nothing.
const NoFoodsMessage = "No foods found matching criteria."

// Catalog searches the food catalog.
type Catalog interface {
	SearchFoods(ctx context.Context, filter database.FoodFilter) ([]database.Food, error)
}

// SQLSurface runs read-only SQL and describes the schema.
type SQLSurface interface {
	QueryReadOnly(ctx context.Context, query string, maxRows int) ([]map[string]any, error)
	Schema(ctx context.Context) (map[string][]string, error)
}

// Executor runs tool calls requested by the model. It never returns errors:
// every failure is reported to the model as an "Error: ..." result.
type Executor struct {
	catalog Catalog
	sql     SQLSurface
	cfg     config.ToolsConfig
	now     func() time.Time
	log     *slog.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(catalog Catalog, sql SQLSurface, cfg config.ToolsConfig, log *slog.Logger) *Executor {
	return &Executor{
		catalog: catalog,
		sql:     sql,
		cfg:     cfg,
		now:     time.Now,
		log:     log.With("component", "tool_executor"),
	}
}

// Execute runs one tool call and returns the tool-role message answering it.
func (e *Executor) Execute(ctx context.Context, call llm.ToolCall) llm.Message {
	start := time.Now()
	out := e.dispatch(ctx, call)
	e.log.InfoContext(ctx, "Tool executed",
		"tool", call.Name,
		"call_id", call.ID,
		"failed", strings.HasPrefix(out, "Error"),
		"duration", time.Since(start),
	)
	return llm.Message{
		Role:       llm.RoleTool,
		Content:    out,
		ToolCallID: call.ID,
		Name:       call.Name,
	}
}

func (e *Executor) dispatch(ctx context.Context, call llm.ToolCall) string {
	if err := ctx.Err(); err != nil {
		return errorf("tool %s was cancelled: %v", call.Name, err)
	}

	name := Name(call.Name)
	raw := normalizeArgs(call.Arguments)
	if _, known := argSchemas[name]; !known {
		return errorf("unknown tool %q", call.Name)
	}
	if err := validateArgs(name, raw); err != nil {
		e.log.WarnContext(ctx, "Invalid tool arguments", "tool", call.Name, "error", err)
		return errorf("invalid arguments for %s: %v", name, err)
	}

	switch name {
	case GetSystemTime:
		return e.systemTime()
	case GetDatabaseSchema:
		return e.databaseSchema(ctx)
	case QueryDatabase:
		var args queryArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return errorf("invalid arguments for %s: %v", name, err)
		}
		return e.queryDatabase(ctx, args)
	case SearchFoods:
		var args searchArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return errorf("invalid arguments for %s: %v", name, err)
		}
		return e.searchFoods(ctx, args)
	default:
		return errorf("unknown tool %q", call.Name)
	}
}

func errorf(format string, args ...any) string {
	return "Error: " + fmt.Sprintf(format, args...)
}

func (e *Executor) systemTime() string {
	return e.now().UTC().Format("2006-01-02T15:04:05.000Z")
}

func (e *Executor) databaseSchema(ctx context.Context) string {
	schema, err := e.sql.Schema(ctx)
	if err != nil {
		return errorf("getting schema: %v", err)
	}
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return errorf("encoding schema: %v", err)
	}
	return string(b)
}

// queryDatabase only forwards statements starting with SELECT. This is a
// guard against accidental writes, not a sandbox.
func (e *Executor) queryDatabase(ctx context.Context, args queryArgs) string {
	q := strings.TrimSpace(args.Query)
	if !strings.HasPrefix(strings.ToLower(q), "select") {
		return errorf("only SELECT queries are allowed for safety")
	}
	rows, err := e.sql.QueryReadOnly(ctx, q, e.cfg.QueryMaxRows)
	if err != nil {
		return errorf("executing query: %v", err)
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return errorf("encoding query result: %v", err)
	}
	return string(b)
}

type perServing struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

type foodResult struct {
	Name              string     `json:"name"`
	PerServing        perServing `json:"per_serving"`
	ServingsPerRecipe *float64   `json:"servings_per_recipe"`
	Link              string     `json:"link"`
}

type searchPayload struct {
	Message string       `json:"message"`
	Data    []foodResult `json:"data"`
}

// searchLimit clamps the requested limit while it is still a float so that
// huge values cannot overflow the int conversion.
func (e *Executor) searchLimit(requested flexNumber) int {
	if !requested.set || requested.value < 1 {
		return min(e.cfg.SearchDefaultLimit, e.maxLimit())
	}
	return int(min(requested.value, float64(e.maxLimit())))
}

func (e *Executor) maxLimit() int {
	if e.cfg.SearchMaxLimit > 0 {
		return e.cfg.SearchMaxLimit
	}
	return math.MaxInt32
}

func (e *Executor) searchFoods(ctx context.Context, args searchArgs) string {
	filter := database.FoodFilter{
		Name:        args.Name,
		Limit:       e.searchLimit(args.Limit),
		MinCalories: args.MinCalories.ptr(),
		MaxCalories: args.MaxCalories.ptr(),
		MinProtein:  args.MinProtein.ptr(),
		MaxProtein:  args.MaxProtein.ptr(),
		MinCarbs:    args.MinCarbs.ptr(),
		MaxCarbs:    args.MaxCarbs.ptr(),
		MinFat:      args.MinFat.ptr(),
		MaxFat:      args.MaxFat.ptr(),
	}

	foods, err := e.catalog.SearchFoods(ctx, filter)
	if err != nil {
		return errorf("searching foods: %v", err)
	}

	payload := searchPayload{Message: "Success", Data: make([]foodResult, 0, len(foods))}
	if len(foods) == 0 {
		payload.Message = NoFoodsMessage
	}
	for _, f := range foods {
		servings := f.ServingsOrOne()
		payload.Data = append(payload.Data, foodResult{
			Name: f.RecipeName,
			PerServing: perServing{
				Calories: round(f.Calories/servings, 0),
				ProteinG: round(f.TotalNutrients.Quantity(database.NutrientProtein)/servings, 1),
				CarbsG:   round(f.TotalNutrients.Quantity(database.NutrientCarbs)/servings, 1),
				FatG:     round(f.TotalNutrients.Quantity(database.NutrientFat)/servings, 1),
			},
			ServingsPerRecipe: f.Servings,
			Link:              f.URL,
		})
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return errorf("encoding foods: %v", err)
	}
	return string(b)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
