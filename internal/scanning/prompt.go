package scanning

import (
	"fmt"
	"strings"

	"github.com/zombor/expense-tracker/internal/category"
)

const invoiceFieldsPrompt = `Extract the following information:

1. **Date**: the invoice, transaction or purchase date, converted to ISO 8601 format (YYYY-MM-DD).

2. **Type**: the kind of expense. It must be exactly one of: %s. If you cannot determine an exact category, map to the closest one.

3. **Amount**: the final total, grand total or amount due, as a number (e.g. 42.75 for $42.75).

4. **Currency**: the ISO 4217 code of the currency the total is expressed in (e.g. USD, EUR, GBP).

5. **Description**: a short description of the purchase, starting with the merchant name when one is visible.`

const invoiceJSONShape = `
Return ONLY valid JSON in this exact format:
{
  "date": "YYYY-MM-DD",
  "type": "FOOD",
  "amount": 0.00,
  "currency": "USD",
  "description": "Merchant - what was bought"
}

Important:
- The amount must be a number, not a string
- If you cannot find the description, use an empty string
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// visionInstructions is the instruction sent alongside the image to vision models
func visionInstructions() string {
	var b strings.Builder
	b.WriteString("You are analyzing a photo of a receipt or invoice. Carefully read all text in the image. ")
	b.WriteString(fmt.Sprintf(invoiceFieldsPrompt, strings.Join(category.Strings(), ", ")))
	b.WriteString("\n")
	b.WriteString(invoiceJSONShape)
	return b.String()
}

// textInstructions is the system instruction for structured extraction from OCR text
func textInstructions() string {
	return "You are given the OCR text of a receipt or invoice. The text may contain recognition errors. " +
		fmt.Sprintf(invoiceFieldsPrompt, strings.Join(category.Strings(), ", "))
}
