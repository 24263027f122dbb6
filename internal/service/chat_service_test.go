package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"dataset-explorer-be/internal/dto"
	"dataset-explorer-be/internal/pkg/logger"
	"dataset-explorer-be/internal/pkg/serverutils"
	"dataset-explorer-be/internal/repository/memory"
	"dataset-explorer-be/pkg/chatview"
	"dataset-explorer-be/pkg/dataset"
	"dataset-explorer-be/pkg/events"
	"dataset-explorer-be/pkg/explorer"
	"dataset-explorer-be/pkg/kv"
	"dataset-explorer-be/pkg/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpstream struct {
	mu            sync.Mutex
	conversations int
	collections   []dataset.Collection
	collectionErr error
	history       map[string][]message.RawConversationMessage
	datasets      []map[string]any
	lastQuery     explorer.ListQuery
}

func (f *fakeUpstream) CreateConversation(context.Context, string) (*explorer.PersistedConversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conversations++
	return &explorer.PersistedConversation{Id: fmt.Sprintf("conv-%d", f.conversations)}, nil
}

func (f *fakeUpstream) CreateConversationWithDatasets(ctx context.Context, name string, _ []string) (*explorer.PersistedConversation, error) {
	return f.CreateConversation(ctx, name)
}

func (f *fakeUpstream) SearchCrossDataset(context.Context, string, string) (*explorer.SearchResult, error) {
	return &explorer.SearchResult{Result: json.RawMessage(`[{"dataset":{"id":"d1","name":"Sales"}}]`)}, nil
}

func (f *fakeUpstream) QueryInDataExplore(context.Context, string, string, []string) (*explorer.ExploreResult, error) {
	return &explorer.ExploreResult{Result: json.RawMessage(`{}`)}, nil
}

func (f *fakeUpstream) ListMessages(_ context.Context, id string) ([]message.RawConversationMessage, error) {
	return f.history[id], nil
}

func (f *fakeUpstream) ListConversations(context.Context, int, int) ([]explorer.Conversation, error) {
	return []explorer.Conversation{{Id: "conv-1", Name: "First", CreatedAt: "2024-05-01T00:00:00Z"}}, nil
}

func (f *fakeUpstream) ListCollections(context.Context) ([]dataset.Collection, error) {
	return f.collections, f.collectionErr
}

func (f *fakeUpstream) QueryDatasets(_ context.Context, q explorer.ListQuery) ([]map[string]any, error) {
	f.lastQuery = q
	return f.datasets, nil
}

type recordingPusher struct {
	mu     sync.Mutex
	frames []chatview.Snapshot
}

func (p *recordingPusher) Push(_ string, msgType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if msgType == ChatViewFrame {
		p.frames = append(p.frames, data.(chatview.Snapshot))
	}
}

func (p *recordingPusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type chatFixture struct {
	upstream    *fakeUpstream
	collections ICollectionService
	chat        IChatService
	pusher      *recordingPusher
	publisher   *recordingPublisher
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		upstream:  &fakeUpstream{history: map[string][]message.RawConversationMessage{}},
		pusher:    &recordingPusher{},
		publisher: &recordingPublisher{},
	}
	log := logger.NewNopLogger()
	f.collections = NewCollectionService(memory.NewCollectionRepository(), f.upstream, log)
	f.chat = NewChatService(
		f.upstream,
		memory.NewViewRepository(time.Minute),
		kv.NewMemoryStore(0),
		kv.NewMemoryStore(0),
		f.collections,
		f.publisher,
		f.pusher,
		log,
		ChatOptions{SettleWindow: 10 * time.Millisecond},
	)
	return f
}

func TestOpenViewAdoptsMatchingCollection(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture()
	f.upstream.collections = []dataset.Collection{
		{Id: "sales", Source: dataset.SourceAPI, Datasets: []dataset.Ref{{Id: "d1"}}},
	}
	payload, _ := json.Marshal(map[string]any{"question": "Q1", "datasetIds": []string{"d1"}})
	f.upstream.history["conv-9"] = []message.RawConversationMessage{
		{Id: "m1", Kind: message.KindUser, Data: message.RawData{Kind: message.KindUser, Payload: payload}},
	}

	snap, err := f.chat.OpenView(ctx, "u1", &dto.OpenViewRequest{ConversationId: "conv-9"})

	require.NoError(t, err)
	assert.Equal(t, "conv-9", snap.ConversationId)
	assert.Equal(t, []string{"d1"}, snap.SelectedDatasets)
	if assert.NotNil(t, snap.SelectedCollection) {
		assert.Equal(t, "sales", snap.SelectedCollection.Id)
	}
	assert.Positive(t, f.pusher.count())

	got, err := f.chat.GetView(ctx, "u1", snap.ViewId)
	require.NoError(t, err)
	assert.Equal(t, snap.ViewId, got.ViewId)

	_, err = f.chat.GetView(ctx, "u2", snap.ViewId)
	assert.ErrorIs(t, err, serverutils.ErrNotFound)
}

func TestOpenViewFailsOnExpiredSession(t *testing.T) {
	f := newChatFixture()
	f.upstream.collectionErr = &explorer.APIError{StatusCode: 401}

	_, err := f.chat.OpenView(context.Background(), "u1", &dto.OpenViewRequest{})

	assert.ErrorIs(t, err, explorer.ErrUnauthorized)
}

func TestSendMessageColdQueryRedirects(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture()
	snap, err := f.chat.OpenView(ctx, "u1", &dto.OpenViewRequest{})
	require.NoError(t, err)

	res, err := f.chat.SendMessage(ctx, "u1", snap.ViewId, &dto.SendMessageRequest{Question: "what sells?"})

	require.NoError(t, err)
	assert.Equal(t, "/chat/conv-1", res.Redirect)
	assert.Equal(t, []string{"d1"}, res.View.SelectedDatasets)

	f.publisher.mu.Lock()
	defer f.publisher.mu.Unlock()
	require.NotEmpty(t, f.publisher.events)
	for _, e := range f.publisher.events {
		assert.Equal(t, "u1", e.Payload()["user_id"])
	}
}

func TestSelectionIsMirroredPerUser(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture()
	first, err := f.chat.OpenView(ctx, "u1", &dto.OpenViewRequest{})
	require.NoError(t, err)
	_, err = f.chat.SetSelection(ctx, "u1", first.ViewId, &dto.SetSelectionRequest{DatasetIds: []string{"a", "b"}})
	require.NoError(t, err)

	again, err := f.chat.OpenView(ctx, "u1", &dto.OpenViewRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, again.SelectedDatasets)

	other, err := f.chat.OpenView(ctx, "u2", &dto.OpenViewRequest{})
	require.NoError(t, err)
	assert.Empty(t, other.SelectedDatasets)
}

func TestCreatingCollectionRefreshesOpenViews(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture()
	snap, err := f.chat.OpenView(ctx, "u1", &dto.OpenViewRequest{})
	require.NoError(t, err)
	_, err = f.chat.SetSelection(ctx, "u1", snap.ViewId, &dto.SetSelectionRequest{DatasetIds: []string{"x", "y"}})
	require.NoError(t, err)

	created, err := f.collections.Create(ctx, "u1", &dto.CreateCollectionRequest{Name: " Mine ", DatasetIds: []string{"y", "x", "x"}})
	require.NoError(t, err)
	assert.Equal(t, "Mine", created.Name)
	assert.Equal(t, []string{"y", "x"}, created.DatasetIds)

	view, err := f.chat.GetView(ctx, "u1", snap.ViewId)
	require.NoError(t, err)
	if assert.NotNil(t, view.SelectedCollection) {
		assert.Equal(t, created.Id.String(), view.SelectedCollection.Id)
	}

	picked, err := f.chat.SelectCollection(ctx, "u1", snap.ViewId, &dto.SelectCollectionRequest{CollectionId: created.Id.String()})
	require.NoError(t, err)
	assert.True(t, picked.IsPanelOpen)
}

func TestCloseView(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture()
	snap, err := f.chat.OpenView(ctx, "u1", &dto.OpenViewRequest{})
	require.NoError(t, err)

	require.NoError(t, f.chat.CloseView(ctx, "u1", snap.ViewId))
	assert.ErrorIs(t, f.chat.CloseView(ctx, "u1", snap.ViewId), serverutils.ErrNotFound)
}

func TestListConversations(t *testing.T) {
	f := newChatFixture()

	res, err := f.chat.ListConversations(context.Background(), 0, 10)

	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "First", res[0].Name)
}

func TestCollectionServiceUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture()
	created, err := f.collections.Create(ctx, "u1", &dto.CreateCollectionRequest{Name: "Mine", DatasetIds: []string{"a"}})
	require.NoError(t, err)

	_, err = f.collections.Update(ctx, "u2", &dto.UpdateCollectionRequest{Id: created.Id, Name: "Stolen"})
	assert.ErrorIs(t, err, serverutils.ErrNotFound)

	updated, err := f.collections.Update(ctx, "u1", &dto.UpdateCollectionRequest{Id: created.Id, Name: "Renamed", DatasetIds: []string{"b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, updated.DatasetIds)

	all, err := f.collections.GetAll(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, all.Api)
	require.Len(t, all.Custom, 1)
	assert.Equal(t, "Renamed", all.Custom[0].Name)

	require.NoError(t, f.collections.Delete(ctx, "u1", created.Id))
	assert.ErrorIs(t, f.collections.Delete(ctx, "u1", created.Id), serverutils.ErrNotFound)
}

func TestDatasetSearchNormalizesIds(t *testing.T) {
	up := &fakeUpstream{datasets: []map[string]any{
		{"dataset": map[string]any{"id": "d1"}, "score": 0.9},
		{"id": float64(42)},
	}}
	svc := NewDatasetService(up)

	items, err := svc.Search(context.Background(), &dto.DatasetSearchRequest{Filter: map[string]any{"name": "sales"}})

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "d1", items[0]["id"])
	assert.Equal(t, "42", items[1]["id"])
	assert.Equal(t, defaultDatasetPageSize, up.lastQuery.Page.Size)
	assert.Equal(t, "sales", up.lastQuery.Filter["name"])
}
