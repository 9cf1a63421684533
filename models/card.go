package models

// CardStage is the server-tracked position of a card in the five-step
// completion workflow. Transitions are validated before every mutation.
type CardStage int

const (
	StageCreated CardStage = iota + 1
	StageInfoFilled
	StageLabelProcessed
	StageInciProcessed
	StagePhotosUploaded
)

func (s CardStage) String() string {
	switch s {
	case StageCreated:
		return "created"
	case StageInfoFilled:
		return "info_filled"
	case StageLabelProcessed:
		return "label_processed"
	case StageInciProcessed:
		return "inci_processed"
	case StagePhotosUploaded:
		return "photos_uploaded"
	default:
		return "unknown"
	}
}

// Card is one row of the card table ("Карточки"). Every field maps to a fixed
// column; the mapping itself lives in the card repository.
type Card struct {
	RowNumber int    `json:"-"` // 1-based sheet row, not part of the record
	CardID    string `json:"cardId"`
	UserID    string `json:"userId"`

	ProductName string `json:"productName"`
	LabelLink   string `json:"labelLink,omitempty"`
	LabelInfo   string `json:"labelInfo,omitempty"`
	Purpose     string `json:"purpose"`
	Application string `json:"application"`
	InciText    string `json:"inciText,omitempty"`
	InciDocLink string `json:"inciDocLink,omitempty"`

	// AI-derived composition fields (columns K..P).
	ActiveIngredientsRU string `json:"activeIngredientsRu,omitempty"`
	ActiveIngredientsEN string `json:"activeIngredientsEn,omitempty"`
	BookletRU           string `json:"bookletCompositionRu,omitempty"`
	BookletEN           string `json:"bookletCompositionEn,omitempty"`
	FullCompositionRU   string `json:"fullCompositionRu,omitempty"`
	FullCompositionEN   string `json:"fullCompositionEn,omitempty"`

	// Classification codes (columns Q..U), filled by operators.
	TnvedCode        string `json:"tnvedCode,omitempty"`
	TnvedArgument    string `json:"tnvedArgument,omitempty"`
	CategoryCode     string `json:"categoryCode,omitempty"`
	Category         string `json:"category,omitempty"`
	CategoryArgument string `json:"categoryArgument,omitempty"`
}

// UploadedFile describes one file stored in the card's Drive folder.
type UploadedFile struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	URL  string `json:"url"`
}
