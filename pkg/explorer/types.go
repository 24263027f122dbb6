package explorer

import (
	"encoding/json"

	"dataset-explorer-be/pkg/dataset"
)

type ConversationDataset struct {
	DatasetId string `json:"datasetId"`
}

type persistRequest struct {
	Name                 string                `json:"name"`
	ConversationDatasets []ConversationDataset `json:"conversationDatasets,omitempty"`
}

// PersistedConversation is the answer of the persist endpoints.
type PersistedConversation struct {
	Id   string `json:"id"`
	ETag string `json:"eTag"`
}

type ConversationOptions struct {
	ConversationId         string `json:"conversationId"`
	AutoCreateConversation bool   `json:"autoCreateConversation"`
}

type Projection struct {
	Fields []string `json:"fields"`
}

type crossDatasetRequest struct {
	ConversationOptions ConversationOptions `json:"conversationOptions"`
	Project             Projection          `json:"project"`
	Query               string              `json:"query"`
	ResultCount         int                 `json:"resultCount"`
}

// SearchResult keeps the cross-dataset hits verbatim; they double as a legacy AI message payload.
type SearchResult struct {
	Result json.RawMessage `json:"result"`
}

// Datasets lists the datasets referenced by the hits, skipping hits without a string id.
func (r SearchResult) Datasets() []dataset.Ref {
	var hits []struct {
		Dataset *struct {
			Id   any `json:"id"`
			Code any `json:"code"`
			Name any `json:"name"`
		} `json:"dataset"`
	}
	if err := json.Unmarshal(r.Result, &hits); err != nil {
		return []dataset.Ref{}
	}

	refs := make([]dataset.Ref, 0, len(hits))
	for _, hit := range hits {
		if hit.Dataset == nil {
			continue
		}
		id, ok := hit.Dataset.Id.(string)
		if !ok {
			continue
		}
		ref := dataset.Ref{Id: id}
		ref.Code, _ = hit.Dataset.Code.(string)
		ref.Name, _ = hit.Dataset.Name.(string)
		refs = append(refs, ref)
	}
	return refs
}

// DatasetIds returns the distinct dataset ids of the hits.
func (r SearchResult) DatasetIds() []string {
	refs := r.Datasets()
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.Id)
	}
	return dataset.Dedupe(ids)
}

type inDataExploreRequest struct {
	ConversationOptions ConversationOptions `json:"conversationOptions"`
	Project             Projection          `json:"project"`
	Query               string              `json:"query"`
	ResultCount         int                 `json:"resultCount"`
	DatasetIds          []string            `json:"datasetIds"`
}

// ExploreResult is the in-conversation answer: {question?, data?: {InputParams}, entries?: [...]},
// which is the payload shape of a current AI message.
type ExploreResult struct {
	Result json.RawMessage `json:"result"`
}

// --- listing envelope ---

type Page struct {
	Offset int `json:"Offset"`
	Size   int `json:"Size"`
}

type OrderItem struct {
	Field     string `json:"Field"`
	Direction string `json:"Direction"`
}

type Order struct {
	Items []OrderItem `json:"Items"`
}

type Metadata struct {
	CountAll bool `json:"CountAll"`
}

// ListQuery is the generic listing envelope accepted by every query endpoint.
type ListQuery struct {
	Project  *Projection    `json:"project,omitempty"`
	Page     *Page          `json:"page,omitempty"`
	Order    *Order         `json:"Order,omitempty"`
	Metadata *Metadata      `json:"Metadata,omitempty"`
	Filter   map[string]any `json:"filter,omitempty"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}

// Conversation is a conversation summary from the listing endpoint.
type Conversation struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt,omitempty"`
	ETag      string `json:"eTag,omitempty"`
}
