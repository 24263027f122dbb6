package chatview

import (
	"context"
	"encoding/json"

	"dataset-explorer-be/pkg/dataset"
)

const (
	// KeySelectedDatasets mirrors the selection across page loads.
	KeySelectedDatasets = "chatSelectedDatasets"
	// KeyLastConversation remembers the conversation most recently viewed in this session.
	KeyLastConversation = "lastConversationId"
)

// loadMirror reads the persisted selection. Missing or unreadable values count as no selection.
func (v *View) loadMirror(ctx context.Context) []string {
	raw, found, err := v.opts.Local.Get(ctx, KeySelectedDatasets)
	if err != nil {
		v.log.Warn(logModule, "Failed to read stored selection", map[string]interface{}{"view_id": v.id, "error": err.Error()})
		return []string{}
	}
	if !found || raw == "" {
		return []string{}
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		v.log.Warn(logModule, "Stored selection is not a JSON string array", map[string]interface{}{"view_id": v.id, "error": err.Error()})
		return []string{}
	}
	return dataset.Dedupe(ids)
}

func (v *View) saveMirror(ctx context.Context, ids []string) {
	data, err := json.Marshal(dataset.Clone(ids))
	if err != nil {
		return
	}
	if err := v.opts.Local.Set(ctx, KeySelectedDatasets, string(data)); err != nil {
		v.log.Warn(logModule, "Failed to store selection", map[string]interface{}{"view_id": v.id, "error": err.Error()})
	}
}

func (v *View) removeMirror(ctx context.Context) {
	if err := v.opts.Local.Remove(ctx, KeySelectedDatasets); err != nil {
		v.log.Warn(logModule, "Failed to clear stored selection", map[string]interface{}{"view_id": v.id, "error": err.Error()})
	}
}

func (v *View) lastConversation(ctx context.Context) string {
	id, found, err := v.opts.Session.Get(ctx, KeyLastConversation)
	if err != nil || !found {
		return ""
	}
	return id
}

func (v *View) setLastConversation(ctx context.Context, id string) {
	var err error
	if id == "" {
		err = v.opts.Session.Remove(ctx, KeyLastConversation)
	} else {
		err = v.opts.Session.Set(ctx, KeyLastConversation, id)
	}
	if err != nil {
		v.log.Warn(logModule, "Failed to update last conversation marker", map[string]interface{}{"view_id": v.id, "error": err.Error()})
	}
}
