package dto

import "dataset-explorer-be/pkg/chatview"

type OpenViewRequest struct {
	ConversationId string `json:"conversation_id"`
}

type SetSelectionRequest struct {
	DatasetIds []string `json:"dataset_ids" validate:"dive,required"`
}

// SelectCollectionRequest picks a collection; an empty id means "no collection".
type SelectCollectionRequest struct {
	CollectionId string `json:"collection_id"`
}

type SetPanelRequest struct {
	Open bool `json:"open"`
}

type SendMessageRequest struct {
	Question string `json:"question" validate:"required"`
}

type SendMessageResponse struct {
	View     chatview.Snapshot `json:"view"`
	Redirect string            `json:"redirect,omitempty"`
}

type ConversationResponse struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}
