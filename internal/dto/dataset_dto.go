package dto

type DatasetSearchRequest struct {
	Filter map[string]any `json:"filter"`
	Fields []string       `json:"fields"`
	Offset int            `json:"offset" validate:"min=0"`
	Size   int            `json:"size" validate:"min=0,max=200"`
}
