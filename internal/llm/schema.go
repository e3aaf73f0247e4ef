package llm

// BuildAnswersJSONSchema returns the JSON-Schema (draft 2020-12 subset) the vision answer must satisfy.
// Every key is required so an omitted answer shows up as "" rather than a missing field.
func BuildAnswersJSONSchema() map[string]any {
	str := func() map[string]any { return map[string]any{"type": "string", "maxLength": 256} }
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"vendor":         str(),
			"amount":         str(),
			"transaction_id": str(),
			"date":           str(),
		},
		"required": []string{"vendor", "amount", "transaction_id", "date"},
	}
}
