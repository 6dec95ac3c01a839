package mcp

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// ToolDefinitions contains all available MCP tools
var ToolDefinitions = []Tool{
	{
		Name:        "rank_drivers",
		Description: "Rank drivers for a route of 1 to 4 destinations by their trip history. 'actual' mode ranks by real visits to the destinations; 'scored' mode ranks by a 0-100 compatibility score with explanations.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"destinations": map[string]interface{}{
					"type":     "array",
					"minItems": 1,
					"maxItems": 4,
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"name": map[string]interface{}{
								"type":        "string",
								"description": "Destination location name exactly as it appears in the trip sheet",
							},
							"province": map[string]interface{}{
								"type":        "string",
								"description": "Province of the destination (looked up from trip history if omitted)",
							},
						},
						"required": []string{"name"},
					},
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"actual", "scored"},
					"description": "Ranking mode (default from config, usually actual)",
				},
				"top_n": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of drivers to return (default: 30 for actual, 10 for scored)",
				},
			},
			"required": []string{"destinations"},
		},
	},
	{
		Name:        "list_drivers",
		Description: "List all known drivers with trip totals, sorted by number of trips.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of drivers to return (default: all)",
				},
			},
		},
	},
	{
		Name:        "get_driver",
		Description: "Get one driver's experience: stats, most visited locations and provinces.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Driver name",
				},
			},
			"required": []string{"name"},
		},
	},
	{
		Name:        "search_locations",
		Description: "Search known destination names, e.g. to find the exact spelling before ranking.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Part of a location name (case-insensitive)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (default: 20)",
				},
			},
		},
	},
}
