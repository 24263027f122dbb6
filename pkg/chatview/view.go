// Package chatview keeps one chat view's dataset selection, matched collection and
// dataset-change warning consistent with its conversation history.
//
// A View is safe for concurrent use. Network calls run without holding the lock; every
// asynchronous result is tagged with the view's epoch and dropped if the view was reopened
// or closed in the meantime.
package chatview

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"dataset-explorer-be/internal/pkg/logger"
	"dataset-explorer-be/pkg/dataset"
	"dataset-explorer-be/pkg/events"
	"dataset-explorer-be/pkg/explorer"
	"dataset-explorer-be/pkg/kv"
	"dataset-explorer-be/pkg/message"

	"github.com/google/uuid"
)

const (
	logModule = "ChatView"

	DefaultSettleWindow    = 100 * time.Millisecond
	DefaultAIResponseDelay = time.Second

	LogoutPath = "/logout"
)

var (
	ErrBusy              = errors.New("chatview: a question is already being sent")
	ErrViewClosed        = errors.New("chatview: view closed")
	ErrUnknownCollection = errors.New("chatview: unknown collection")
)

// ChatPath is where the client shows conversation id.
func ChatPath(conversationId string) string {
	return "/chat/" + url.PathEscape(conversationId)
}

type Options struct {
	Backend Backend
	// Local persists across sessions (the selection mirror); Session lives for one browsing session.
	Local   kv.Store
	Session kv.Store
	Logger  logger.ILogger

	// SettleWindow suppresses automatic collection detection after a manual pick.
	SettleWindow time.Duration
	// AIResponseDelay spaces the AI answer from the echoed question. Zero appends both at once.
	AIResponseDelay time.Duration

	OnChange func(Snapshot)
	OnEvent  func(events.Event)

	Now   func() time.Time
	NewID func() string
}

// Snapshot is a copy of the view state, safe to hand out.
type Snapshot struct {
	ViewId                   string              `json:"view_id"`
	ConversationId           string              `json:"conversation_id,omitempty"`
	Messages                 []message.UIMessage `json:"messages"`
	SelectedDatasets         []string            `json:"selected_datasets"`
	PreviousDatasets         []string            `json:"previous_datasets"`
	SelectedCollection       *dataset.Collection `json:"selected_collection"`
	ShowDatasetChangeWarning bool                `json:"show_dataset_change_warning"`
	IsLoading                bool                `json:"is_loading"`
	IsGeneratingAIResponse   bool                `json:"is_generating_ai_response"`
	IsPanelOpen              bool                `json:"is_panel_open"`
	Error                    string              `json:"error,omitempty"`
}

type View struct {
	id   string
	opts Options
	log  logger.ILogger

	mu                 sync.Mutex
	epoch              uint64
	closed             bool
	conversationId     string
	messages           []message.UIMessage
	selected           []string
	previous           []string
	collections        []dataset.Collection
	selectedCollection *dataset.Collection
	warning            bool
	manual             bool
	manualSeq          uint64
	loading            bool
	generating         bool
	panelOpen          bool
	errMsg             string
}

func New(id string, opts Options) *View {
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.SettleWindow <= 0 {
		opts.SettleWindow = DefaultSettleWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &View{
		id:       id,
		opts:     opts,
		log:      opts.Logger,
		messages: []message.UIMessage{},
		selected: []string{},
		previous: []string{},
	}
}

func (v *View) Id() string {
	return v.id
}

// Open enters the view, either on the bare chat page (conversationId empty) or on a conversation.
//
// Coming back to the bare page after viewing a conversation starts from an empty selection;
// a first visit restores the stored selection. Opening a conversation restores the stored
// selection and loads the history.
func (v *View) Open(ctx context.Context, conversationId string) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	v.epoch++
	epoch := v.epoch
	v.conversationId = conversationId
	v.messages = []message.UIMessage{}
	v.previous = []string{}
	v.selectedCollection = nil
	v.warning = false
	v.loading = false
	v.generating = false
	v.errMsg = ""
	v.mu.Unlock()

	var selection []string
	if conversationId == "" {
		if v.lastConversation(ctx) != "" {
			v.removeMirror(ctx)
			v.setLastConversation(ctx, "")
			selection = []string{}
		} else {
			selection = v.loadMirror(ctx)
		}
	} else {
		v.setLastConversation(ctx, conversationId)
		selection = v.loadMirror(ctx)
	}

	v.mu.Lock()
	if epoch != v.epoch {
		v.mu.Unlock()
		return nil
	}
	v.selected = selection
	replaced := v.reconcileLocked()
	snap := v.snapshotLocked()
	v.mu.Unlock()

	if replaced {
		v.saveMirror(ctx, snap.SelectedDatasets)
	}
	v.notify(snap)

	if conversationId == "" {
		return nil
	}
	return v.LoadHistory(ctx)
}

// LoadHistory fetches and normalizes the bound conversation's messages.
// Only an expired token is returned as an error; other failures end up in Snapshot.Error.
func (v *View) LoadHistory(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	conversationId := v.conversationId
	epoch := v.epoch
	if conversationId == "" {
		v.mu.Unlock()
		return nil
	}
	v.loading = true
	v.mu.Unlock()

	raws, err := v.opts.Backend.ListMessages(ctx, conversationId)

	v.mu.Lock()
	if epoch != v.epoch {
		v.mu.Unlock()
		return nil
	}
	v.loading = false
	if err != nil {
		if errors.Is(err, explorer.ErrUnauthorized) {
			v.mu.Unlock()
			return fmt.Errorf("load history: %w", err)
		}
		v.errMsg = explorer.ErrorMessage(err, explorer.MsgFetchMessagesFailed)
		snap := v.snapshotLocked()
		v.mu.Unlock()
		v.log.Error(logModule, "Failed to load conversation history", map[string]interface{}{
			"view_id": v.id, "conversation_id": conversationId, "error": err.Error(),
		})
		v.notify(snap)
		return nil
	}

	v.messages = message.ParseAll(raws)
	hydrated := false
	if len(v.selected) == 0 {
		if ids := LatestDatasetInfo(v.messages); ids != nil {
			v.selected = dataset.Dedupe(ids)
			hydrated = true
		}
	}
	replaced := v.reconcileLocked()
	snap := v.snapshotLocked()
	v.mu.Unlock()

	if hydrated || replaced {
		v.saveMirror(ctx, snap.SelectedDatasets)
	}
	v.log.Info(logModule, "Conversation history loaded", map[string]interface{}{
		"view_id": v.id, "conversation_id": conversationId, "messages": len(snap.Messages),
	})
	v.notify(snap)
	return nil
}

// SetSelection replaces the selection after a user edit.
func (v *View) SetSelection(ctx context.Context, ids []string) (Snapshot, error) {
	ids = dataset.Dedupe(ids)

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return Snapshot{}, ErrViewClosed
	}
	v.selected = ids
	warned := false
	// Drift is checked on every edit; the settle window only pauses collection detection.
	if !v.warning && DetectDrift(v.previous, v.selected, v.conversationId != "", len(v.messages) > 0) {
		v.warning = true
		warned = true
	}
	v.reconcileLocked()
	snap := v.snapshotLocked()
	v.mu.Unlock()

	v.saveMirror(ctx, snap.SelectedDatasets)
	if warned {
		v.emit(events.TypeDatasetChangeWarning, map[string]interface{}{
			"view_id":         v.id,
			"conversation_id": snap.ConversationId,
			"previous":        snap.PreviousDatasets,
			"selected":        snap.SelectedDatasets,
		})
	}
	v.notify(snap)
	return snap, nil
}

// SelectCollection applies an explicit collection pick; an empty id means "no collection".
// Automatic detection stays off for the settle window so it cannot undo the pick.
func (v *View) SelectCollection(ctx context.Context, collectionId string) (Snapshot, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return Snapshot{}, ErrViewClosed
	}

	var picked *dataset.Collection
	if collectionId != "" {
		picked = dataset.FindByID(v.collections, collectionId)
		if picked == nil {
			v.mu.Unlock()
			return Snapshot{}, ErrUnknownCollection
		}
	}

	v.manual = true
	v.manualSeq++
	seq := v.manualSeq
	time.AfterFunc(v.opts.SettleWindow, func() { v.endManualSelection(seq) })

	v.previous = dataset.Clone(v.selected)
	if picked != nil {
		v.selected = picked.Members()
		v.selectedCollection = picked
		v.panelOpen = true
	} else {
		v.selected = []string{}
		v.selectedCollection = nil
	}
	snap := v.snapshotLocked()
	v.mu.Unlock()

	if picked != nil {
		v.saveMirror(ctx, snap.SelectedDatasets)
	} else {
		v.removeMirror(ctx)
	}
	v.emit(events.TypeSelectionReplaced, map[string]interface{}{
		"view_id":       v.id,
		"collection_id": collectionId,
		"selected":      snap.SelectedDatasets,
		"reason":        "collection",
	})
	v.notify(snap)
	return snap, nil
}

func (v *View) endManualSelection(seq uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.manualSeq == seq {
		v.manual = false
	}
}

// SetCollections replaces the known collections (API and custom) and re-runs detection.
func (v *View) SetCollections(ctx context.Context, collections []dataset.Collection) Snapshot {
	v.mu.Lock()
	v.collections = append([]dataset.Collection(nil), collections...)
	if v.selectedCollection != nil {
		// Keep the selected collection in sync with edits made to it.
		if fresh := dataset.FindByID(v.collections, v.selectedCollection.Id); fresh != nil {
			v.selectedCollection = fresh
		}
	}
	replaced := v.reconcileLocked()
	snap := v.snapshotLocked()
	v.mu.Unlock()

	if replaced {
		v.saveMirror(ctx, snap.SelectedDatasets)
	}
	v.notify(snap)
	return snap
}

// SetPanelOpen records whether the dataset side panel is shown.
func (v *View) SetPanelOpen(open bool) Snapshot {
	v.mu.Lock()
	v.panelOpen = open
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.notify(snap)
	return snap
}

// ClearError dismisses the inline error.
func (v *View) ClearError() Snapshot {
	v.mu.Lock()
	v.errMsg = ""
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.notify(snap)
	return snap
}

// Close stops the view; pending results are discarded.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.epoch++
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// reconcileLocked runs collection detection against the current state and applies the result.
// It reports whether the selection was replaced so callers can persist it.
func (v *View) reconcileLocked() bool {
	d := DeriveCollection(DeriveInput{
		Messages:       v.messages,
		Selection:      v.selected,
		Collections:    v.collections,
		Current:        v.selectedCollection,
		InConversation: v.conversationId != "",
		Suppressed:     v.manual,
	})
	v.selected = d.Selection
	if d.Adopted != nil {
		v.selectedCollection = d.Adopted
	}
	if d.Warn {
		v.warning = true
	}
	return d.SelectionReplaced
}

func (v *View) snapshotLocked() Snapshot {
	snap := Snapshot{
		ViewId:                   v.id,
		ConversationId:           v.conversationId,
		Messages:                 append([]message.UIMessage{}, v.messages...),
		SelectedDatasets:         dataset.Clone(v.selected),
		PreviousDatasets:         dataset.Clone(v.previous),
		ShowDatasetChangeWarning: v.warning,
		IsLoading:                v.loading,
		IsGeneratingAIResponse:   v.generating,
		IsPanelOpen:              v.panelOpen,
		Error:                    v.errMsg,
	}
	if v.selectedCollection != nil {
		c := *v.selectedCollection
		snap.SelectedCollection = &c
	}
	return snap
}

func (v *View) notify(snap Snapshot) {
	if v.opts.OnChange != nil {
		v.opts.OnChange(snap)
	}
}

func (v *View) emit(eventType string, data map[string]interface{}) {
	if v.opts.OnEvent != nil {
		v.opts.OnEvent(events.New(eventType, data))
	}
}
