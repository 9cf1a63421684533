package models

// ProductAnalysis is the structured result of the full INCI extraction task:
// six composition fields, Russian and English each.
type ProductAnalysis struct {
	ActiveIngredients    []string `json:"activeIngredients"`
	ActiveIngredientsEn  []string `json:"activeIngredientsEn"`
	BookletComposition   string   `json:"bookletComposition"`
	BookletCompositionEn string   `json:"bookletCompositionEn"`
	FullComposition      string   `json:"fullComposition"`
	FullCompositionEn    string   `json:"fullCompositionEn"`
}

// LabelAnalysis is the result of the label-only extraction task: a free-form
// summary of the label plus suggested values for the two user-editable fields.
type LabelAnalysis struct {
	LabelInfo            string `json:"labelInfo"`
	SuggestedPurpose     string `json:"suggestedPurpose"`
	SuggestedApplication string `json:"suggestedApplication"`
}

// ImageAttachment is raw image content passed to the AI collaborator.
type ImageAttachment struct {
	Data     []byte
	MimeType string
}
