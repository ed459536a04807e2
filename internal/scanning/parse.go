package scanning

import (
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/zombor/expense-tracker/internal/category"
)

var requiredFields = []string{"date", "type", "amount", "currency", "description"}

// rawExtractionSchema is the shape every model response is validated against
func rawExtractionSchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"date":        {Type: jsonschema.String, Description: "Invoice date in YYYY-MM-DD format"},
			"type":        {Type: jsonschema.String, Description: "Type of expense"},
			"amount":      {Type: jsonschema.Number, Description: "Total amount"},
			"currency":    {Type: jsonschema.String, Description: "ISO 4217 currency code"},
			"description": {Type: jsonschema.String, Description: "Description of the invoice"},
		},
		Required: requiredFields,
	}
}

// requestSchema is the schema sent to structured-output models. It narrows
// "type" to the fixed categories; the model may still ignore it.
func requestSchema() jsonschema.Definition {
	schema := rawExtractionSchema()
	typeField := schema.Properties["type"]
	typeField.Enum = category.Strings()
	typeField.Description = "Type of invoice (" + strings.Join(category.Strings(), ", ") + ")"
	schema.Properties["type"] = typeField
	schema.AdditionalProperties = false
	return schema
}

// cleanModelJSON strips markdown fences and any prose around the JSON object
func cleanModelJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return "", fmt.Errorf("invalid JSON object in response")
	}

	return text[startIdx : endIdx+1], nil
}

// parseRawExtraction validates a model response against the RawExtraction
// schema. Missing fields and wrong types are errors.
func parseRawExtraction(text string) (*RawExtraction, error) {
	clean, err := cleanModelJSON(text)
	if err != nil {
		return nil, err
	}

	var data RawExtraction
	if err := jsonschema.VerifySchemaAndUnmarshal(rawExtractionSchema(), []byte(clean), &data); err != nil {
		return nil, fmt.Errorf("response does not match invoice schema (%s required): %w",
			strings.Join(requiredFields, ", "), err)
	}

	return &data, nil
}
