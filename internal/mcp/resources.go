package mcp

// Resource defines an MCP resource
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

const (
	resourceStats    = "tageval://stats"
	resourceLiked    = "tageval://tags/liked"
	resourceDisliked = "tageval://tags/disliked"
	resourceHistory  = "tageval://history"
)

// ResourceDefinitions lists all available resources
var ResourceDefinitions = []Resource{
	{
		URI:         resourceStats,
		Name:        "Profile Summary",
		Description: "Reacted posts per category, known tags and model totals",
		MimeType:    "text/plain",
	},
	{
		URI:         resourceLiked,
		Name:        "Liked Tags",
		Description: "The 20 tags that raise a post's score the most",
		MimeType:    "text/plain",
	},
	{
		URI:         resourceDisliked,
		Name:        "Disliked Tags",
		Description: "The 20 tags that lower a post's score the most",
		MimeType:    "text/plain",
	},
	{
		URI:         resourceHistory,
		Name:        "Recent Searches",
		Description: "The last 10 recorded searches",
		MimeType:    "text/plain",
	},
}

// resourcesListResult is the response for resources/list
type resourcesListResult struct {
	Resources []Resource `json:"resources"`
}

// readResourceParams is the params for resources/read
type readResourceParams struct {
	URI string `json:"uri"`
}

// readResourceResult is the response for resources/read
type readResourceResult struct {
	Contents []resourceContent `json:"contents"`
}

type resourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}
