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
		Name:        "search_posts",
		Description: "Fetch posts matching a board tag query and rank them by the learned tag preferences, best first.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Board tag query, e.g. 'wolf rating:s'",
				},
				"pages": map[string]interface{}{
					"type":        "integer",
					"description": "Pages to fetch, 1-255 (default: search.page_limit)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Return only the best N posts (default: search.limit)",
				},
				"hide_seen": map[string]interface{}{
					"type":        "boolean",
					"description": "Drop posts already in the reaction history",
				},
				"unfiltered": map[string]interface{}{
					"type":        "boolean",
					"description": "Keep posts matching the configured tag blacklist",
				},
			},
			"required": []string{"query"},
		},
	},
	{
		Name:        "tag_weights",
		Description: "List learned tag weights. Positive weights come from liked posts, negative ones from downvoted posts.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"top": map[string]interface{}{
					"type":        "integer",
					"description": "Number of tags to return (default: 20, 0 for all)",
				},
				"bottom": map[string]interface{}{
					"type":        "boolean",
					"description": "Return the most disliked tags instead",
				},
			},
		},
	},
	{
		Name:        "profile_stats",
		Description: "Summarize the profile: reacted posts per category, known tags and the model's class totals.",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	},
	{
		Name:        "update_profile",
		Description: "Refetch the whole reaction history, retrain the model and save the profile.",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	},
	{
		Name:        "search_history",
		Description: "List recorded searches, newest first.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of searches to return (default: 20)",
				},
			},
		},
	},
	{
		Name:        "get_search",
		Description: "Get the ranking a recorded search produced.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Search id or a unique prefix of one",
				},
			},
			"required": []string{"id"},
		},
	},
}
