package openai

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *imageURLPart `json:"image_url,omitempty"`
}

type imageURLPart struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
}

func categorizationFormat() responseFormat {
	stringArray := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	return responseFormat{
		Type: "json_schema",
		JSONSchema: jsonSchema{
			Name:   "clothing_categorization",
			Strict: true,
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"category":    map[string]any{"type": "string"},
					"subcategory": map[string]any{"type": "string"},
					"color":       stringArray,
					"season":      stringArray,
					"occasion":    stringArray,
				},
				"required":             []string{"category", "subcategory", "color", "season", "occasion"},
				"additionalProperties": false,
			},
		},
	}
}
