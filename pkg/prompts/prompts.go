// Package prompts holds the AI extraction prompts for cosmetic card
// processing. Keeping them in one place keeps the collaborator code free of
// prompt text.
package prompts

import "fmt"

// ProductAnalysis builds the combined extraction prompt used for the INCI
// stage: one call returning all six composition fields as JSON.
func ProductAnalysis(productName, purpose, inci string) string {
	if inci == "" {
		inci = "Not provided, try to read from image"
	}
	return fmt.Sprintf(`Analyze this cosmetic product and extract/generate the following information in JSON format:

Product Name: %s
Purpose: %s
INCI (Ingredients): %s

Output JSON structure:
{
  "activeIngredients": ["List of active ingredients in Russian"],
  "activeIngredientsEn": ["List of active ingredients in English"],
  "bookletComposition": "Short composition description for marketing booklet (Russian)",
  "bookletCompositionEn": "Short composition description for marketing booklet (English)",
  "fullComposition": "Full composition list translated to Russian",
  "fullCompositionEn": "Full composition list in English (standard INCI)"
}

If INCI is provided in text, use it. If not, try to read it from the image.
Focus on accuracy and marketing appeal for the booklet descriptions.`, productName, purpose, inci)
}

// LabelAnalysis builds the label-only extraction prompt used for the label
// stage: summarise the label and suggest values for the two user-editable
// fields, in Russian, as JSON.
func LabelAnalysis(productName, labelText string) string {
	if labelText == "" {
		labelText = "Not provided, read the label from the attached images"
	}
	return fmt.Sprintf(`You are analyzing the label of a cosmetic product. Extract the key information printed on the label and suggest values for the product card, in JSON format.

Product Name: %s
Label text (extracted from PDF, may be empty):
%s

Output JSON structure:
{
  "labelInfo": "Concise summary of the label contents in Russian (claims, volume, manufacturer, warnings)",
  "suggestedPurpose": "Назначение of the product in Russian, empty string if the label does not state it",
  "suggestedApplication": "Способ применения in Russian, empty string if the label does not state it"
}

Use the attached images when the text is empty or incomplete. Answer with JSON only.`, productName, labelText)
}
