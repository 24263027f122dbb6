package chatview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"dataset-explorer-be/pkg/dataset"
	"dataset-explorer-be/pkg/events"
	"dataset-explorer-be/pkg/explorer"
	"dataset-explorer-be/pkg/message"
)

const maxConversationName = 100

// Outcome tells the caller where the client should go after a send.
type Outcome struct {
	Navigate string `json:"navigate,omitempty"`
	Logout   bool   `json:"logout,omitempty"`
}

// Send dispatches a question.
//
// With a conversation and datasets it asks the conversation directly. With no datasets it
// creates a conversation and runs a cross-dataset search to find some. With datasets but no
// conversation it creates one seeded with them and asks it, then leaves the rest to the page
// that loads the new conversation.
//
// An expired token yields Outcome.Logout and an error wrapping explorer.ErrUnauthorized.
// Other request failures are recorded in Snapshot.Error and Send returns nil.
func (v *View) Send(ctx context.Context, question string) (Outcome, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Outcome{}, nil
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return Outcome{}, ErrViewClosed
	}
	if v.loading || v.generating {
		v.mu.Unlock()
		return Outcome{}, ErrBusy
	}
	v.loading = true
	v.errMsg = ""
	v.previous = dataset.Clone(v.selected)
	v.warning = false
	epoch := v.epoch
	conversationId := v.conversationId
	selection := dataset.Clone(v.selected)
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.notify(snap)

	defer v.finishSending(epoch)

	var (
		out Outcome
		err error
	)
	switch {
	case conversationId != "" && len(selection) > 0:
		err = v.askConversation(ctx, epoch, conversationId, question, selection)
	case len(selection) == 0:
		out, err = v.discoverDatasets(ctx, epoch, conversationId, question)
	default:
		out, err = v.startConversation(ctx, question, selection)
	}
	if err != nil {
		return v.fail(epoch, err)
	}

	v.emit(events.TypeQuerySent, map[string]interface{}{
		"view_id":         v.id,
		"conversation_id": conversationId,
		"question":        question,
		"dataset_ids":     selection,
	})
	return out, nil
}

func (v *View) askConversation(ctx context.Context, epoch uint64, conversationId, question string, selection []string) error {
	res, err := v.opts.Backend.QueryInDataExplore(ctx, conversationId, question, selection)
	if err != nil {
		return err
	}

	answer := message.Parse(message.RawConversationMessage{
		Id:        v.opts.NewID(),
		Kind:      message.KindAI,
		Data:      message.RawData{Kind: message.KindAI, Payload: res.Result},
		CreatedAt: v.now(),
	}, 0)

	v.mu.Lock()
	if epoch != v.epoch {
		v.mu.Unlock()
		return nil
	}
	v.messages = append(v.messages, message.NewUserMessage(v.opts.NewID(), question, selection, v.opts.Now()))
	if v.opts.AIResponseDelay <= 0 {
		v.messages = append(v.messages, answer)
		v.reconcileLocked()
		snap := v.snapshotLocked()
		v.mu.Unlock()
		v.notify(snap)
		return nil
	}
	v.generating = true
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.notify(snap)

	time.AfterFunc(v.opts.AIResponseDelay, func() { v.deliverAnswer(epoch, answer) })
	return nil
}

func (v *View) deliverAnswer(epoch uint64, answer message.UIMessage) {
	v.mu.Lock()
	if epoch != v.epoch {
		v.mu.Unlock()
		return
	}
	v.messages = append(v.messages, answer)
	v.generating = false
	v.reconcileLocked()
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.notify(snap)
}

func (v *View) discoverDatasets(ctx context.Context, epoch uint64, conversationId, question string) (Outcome, error) {
	conv, err := v.opts.Backend.CreateConversation(ctx, conversationName(question))
	if err != nil {
		return Outcome{}, err
	}
	v.conversationCreated(conv, nil)

	res, err := v.opts.Backend.SearchCrossDataset(ctx, conv.Id, question)
	if err != nil {
		return Outcome{}, err
	}
	found := res.DatasetIds()

	suggestion := message.Parse(message.RawConversationMessage{
		Id:        v.opts.NewID(),
		Kind:      message.KindLegacyAI,
		Data:      message.RawData{Kind: message.KindLegacyAI, Payload: res.Result},
		CreatedAt: v.now(),
	}, 0)

	v.mu.Lock()
	if epoch != v.epoch {
		v.mu.Unlock()
		return Outcome{}, nil
	}
	v.messages = append(v.messages,
		message.NewUserMessage(v.opts.NewID(), question, []string{}, v.opts.Now()),
		suggestion,
	)
	v.selected = found
	v.reconcileLocked()
	snap := v.snapshotLocked()
	v.mu.Unlock()

	v.saveMirror(ctx, snap.SelectedDatasets)
	v.emit(events.TypeSelectionReplaced, map[string]interface{}{
		"view_id":         v.id,
		"conversation_id": conv.Id,
		"selected":        snap.SelectedDatasets,
		"reason":          "search",
	})
	v.notify(snap)

	if conversationId != "" {
		return Outcome{}, nil
	}
	return Outcome{Navigate: ChatPath(conv.Id)}, nil
}

func (v *View) startConversation(ctx context.Context, question string, selection []string) (Outcome, error) {
	conv, err := v.opts.Backend.CreateConversationWithDatasets(ctx, conversationName(question), selection)
	if err != nil {
		return Outcome{}, err
	}
	v.conversationCreated(conv, selection)

	if _, err := v.opts.Backend.QueryInDataExplore(ctx, conv.Id, question, selection); err != nil {
		return Outcome{}, err
	}
	return Outcome{Navigate: ChatPath(conv.Id)}, nil
}

func (v *View) conversationCreated(conv *explorer.PersistedConversation, datasetIds []string) {
	v.log.Info(logModule, "Conversation created", map[string]interface{}{
		"view_id": v.id, "conversation_id": conv.Id, "datasets": len(datasetIds),
	})
	v.emit(events.TypeConversationCreated, map[string]interface{}{
		"view_id":         v.id,
		"conversation_id": conv.Id,
		"dataset_ids":     dataset.Clone(datasetIds),
	})
}

// fail maps a send error onto the view. Auth expiry is returned; everything else becomes
// the inline error so the user can retry.
func (v *View) fail(epoch uint64, err error) (Outcome, error) {
	if errors.Is(err, explorer.ErrUnauthorized) {
		v.log.Warn(logModule, "Session expired while sending", map[string]interface{}{"view_id": v.id})
		return Outcome{Logout: true, Navigate: LogoutPath}, fmt.Errorf("send: %w", err)
	}

	v.log.Error(logModule, "Failed to send question", map[string]interface{}{"view_id": v.id, "error": err.Error()})

	v.mu.Lock()
	if epoch != v.epoch {
		v.mu.Unlock()
		return Outcome{}, nil
	}
	v.errMsg = explorer.ErrorMessage(err, explorer.MsgQueryFailed)
	v.generating = false
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.notify(snap)
	return Outcome{}, nil
}

func (v *View) finishSending(epoch uint64) {
	v.mu.Lock()
	if epoch != v.epoch || !v.loading {
		v.mu.Unlock()
		return
	}
	v.loading = false
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.notify(snap)
}

func (v *View) now() string {
	return v.opts.Now().UTC().Format(time.RFC3339Nano)
}

// conversationName derives a conversation title from the first question.
func conversationName(question string) string {
	name := strings.TrimSpace(question)
	if utf8.RuneCountInString(name) <= maxConversationName {
		return name
	}
	return string([]rune(name)[:maxConversationName])
}
