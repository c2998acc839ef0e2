// Package tools implements the functions the medical model may call: the
// current time, database schema and read-only queries, and food search.
package tools

import "github.com/edgard/cardiobot/internal/llm"

// Name identifies a tool.
type Name string

const (
	GetSystemTime     Name = "get_system_time"
	QueryDatabase     Name = "query_database"
	GetDatabaseSchema Name = "get_database_schema"
	SearchFoods       Name = "search_foods"
)

// Names lists every tool in the order offered to the model.
var Names = []Name{GetSystemTime, QueryDatabase, GetDatabaseSchema, SearchFoods}

func numberParam(name, desc string) llm.Param {
	return llm.Param{Name: name, Type: llm.TypeNumber, Description: desc}
}

var definitions = map[Name]llm.ToolDefinition{
	GetSystemTime: {
		Name:        string(GetSystemTime),
		Description: "Returns the current system time. Use this when the user asks for the time or date.",
	},
	QueryDatabase: {
		Name:        string(QueryDatabase),
		Description: "Execute a read-only SQL query against the SQLite database. Use this to answer questions involving data.",
		Params: []llm.Param{
			{Name: "query", Type: llm.TypeString, Description: "The SQL query to execute. Must be a SELECT statement.", Required: true},
		},
	},
	GetDatabaseSchema: {
		Name:        string(GetDatabaseSchema),
		Description: "Get the list of tables and their columns in the database. Use this before querying to know the table names.",
	},
	SearchFoods: {
		Name: string(SearchFoods),
		Description: "Search for foods based on nutritional goals per serving (calories, protein, carbs, fat). " +
			"Useful for diet planning and checking food info.",
		Params: []llm.Param{
			{Name: "name", Type: llm.TypeString, Description: "Name of the food or recipe."},
			numberParam("limit", "Limit results (default: 5)."),
			numberParam("minCalories", "Min calories per serving"),
			numberParam("maxCalories", "Max calories per serving"),
			numberParam("minProtein", "Min protein per serving (g)"),
			numberParam("maxProtein", "Max protein per serving (g)"),
			numberParam("minCarbs", "Min carbs per serving (g)"),
			numberParam("maxCarbs", "Max carbs per serving (g)"),
			numberParam("minFat", "Min fat per serving (g)"),
			numberParam("maxFat", "Max fat per serving (g)"),
		},
	},
}

// Definitions returns the tool definitions to bind to the model.
func Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(Names))
	for _, n := range Names {
		defs = append(defs, definitions[n])
	}
	return defs
}
