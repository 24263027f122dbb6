package service

import (
	"context"
	"errors"
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

	"github.com/google/uuid"
)

const (
	ChatEventsTopic = "chat_events"
	// ChatViewFrame is the websocket frame type carrying a view snapshot.
	ChatViewFrame = "chat_view"
)

// Upstream is everything the chat service needs from the remote API; *explorer.Client satisfies it.
type Upstream interface {
	chatview.Backend
	ListConversations(ctx context.Context, offset, size int) ([]explorer.Conversation, error)
}

var _ Upstream = (*explorer.Client)(nil)

// SnapshotPusher delivers frames to a user's live connections; *websocket.Hub satisfies it.
type SnapshotPusher interface {
	Push(userID, msgType string, data interface{})
}

type ChatOptions struct {
	SettleWindow    time.Duration
	AIResponseDelay time.Duration
}

type IChatService interface {
	OpenView(ctx context.Context, userId string, req *dto.OpenViewRequest) (*chatview.Snapshot, error)
	GetView(ctx context.Context, userId, viewId string) (*chatview.Snapshot, error)
	CloseView(ctx context.Context, userId, viewId string) error
	SetSelection(ctx context.Context, userId, viewId string, req *dto.SetSelectionRequest) (*chatview.Snapshot, error)
	SelectCollection(ctx context.Context, userId, viewId string, req *dto.SelectCollectionRequest) (*chatview.Snapshot, error)
	SetPanel(ctx context.Context, userId, viewId string, req *dto.SetPanelRequest) (*chatview.Snapshot, error)
	SendMessage(ctx context.Context, userId, viewId string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	ClearError(ctx context.Context, userId, viewId string) (*chatview.Snapshot, error)
	ListConversations(ctx context.Context, offset, size int) ([]*dto.ConversationResponse, error)
}

type chatService struct {
	upstream    Upstream
	views       *memory.ViewRepository
	local       kv.Store
	session     kv.Store
	collections ICollectionService
	publisher   IPublisherService
	pusher      SnapshotPusher
	logger      logger.ILogger
	opts        ChatOptions
}

// NewChatService wires views to their stores. local outlives browser sessions (the selection mirror),
// session holds the last-conversation marker. Both are namespaced per user.
func NewChatService(
	upstream Upstream,
	views *memory.ViewRepository,
	local, session kv.Store,
	collections ICollectionService,
	publisher IPublisherService,
	pusher SnapshotPusher,
	log logger.ILogger,
	opts ChatOptions,
) IChatService {
	s := &chatService{
		upstream:    upstream,
		views:       views,
		local:       local,
		session:     session,
		collections: collections,
		publisher:   publisher,
		pusher:      pusher,
		logger:      log,
		opts:        opts,
	}
	collections.AddListener(s)
	return s
}

func (s *chatService) newView(userId string) *chatview.View {
	viewId := uuid.NewString()
	return chatview.New(viewId, chatview.Options{
		Backend:         s.upstream,
		Local:           kv.Prefixed(s.local, "local:"+userId+":"),
		Session:         kv.Prefixed(s.session, "session:"+userId+":"),
		Logger:          s.logger,
		SettleWindow:    s.opts.SettleWindow,
		AIResponseDelay: s.opts.AIResponseDelay,
		OnChange: func(snap chatview.Snapshot) {
			if s.pusher != nil {
				s.pusher.Push(userId, ChatViewFrame, snap)
			}
		},
		OnEvent: func(e events.Event) {
			if s.publisher == nil {
				return
			}
			if err := s.publisher.Publish(context.Background(), events.WithField(e, "user_id", userId)); err != nil {
				s.logger.Warn("ChatService", "Failed to publish chat event", map[string]interface{}{"type": e.EventType(), "error": err.Error()})
			}
		},
	})
}

func (s *chatService) OpenView(ctx context.Context, userId string, req *dto.OpenViewRequest) (*chatview.Snapshot, error) {
	view := s.newView(userId)
	s.views.Save(userId, view)

	known, err := s.collections.Known(ctx, userId)
	switch {
	case errors.Is(err, explorer.ErrUnauthorized):
		s.views.Delete(userId, view.Id())
		return nil, err
	case err != nil:
		s.logger.Warn("ChatService", "Opening view without collections", map[string]interface{}{"user_id": userId, "error": err.Error()})
	default:
		view.SetCollections(ctx, known)
	}

	if err := view.Open(ctx, req.ConversationId); err != nil {
		s.views.Delete(userId, view.Id())
		return nil, err
	}

	s.logger.Info("ChatService", "View opened", map[string]interface{}{"user_id": userId, "view_id": view.Id(), "conversation_id": req.ConversationId})
	snap := view.Snapshot()
	return &snap, nil
}

func (s *chatService) view(userId, viewId string) (*chatview.View, error) {
	view, found := s.views.Get(userId, viewId)
	if !found {
		return nil, serverutils.ErrNotFound
	}
	return view, nil
}

func (s *chatService) GetView(_ context.Context, userId, viewId string) (*chatview.Snapshot, error) {
	view, err := s.view(userId, viewId)
	if err != nil {
		return nil, err
	}
	snap := view.Snapshot()
	return &snap, nil
}

func (s *chatService) CloseView(_ context.Context, userId, viewId string) error {
	if !s.views.Delete(userId, viewId) {
		return serverutils.ErrNotFound
	}
	return nil
}

func (s *chatService) SetSelection(ctx context.Context, userId, viewId string, req *dto.SetSelectionRequest) (*chatview.Snapshot, error) {
	view, err := s.view(userId, viewId)
	if err != nil {
		return nil, err
	}
	snap, err := view.SetSelection(ctx, req.DatasetIds)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *chatService) SelectCollection(ctx context.Context, userId, viewId string, req *dto.SelectCollectionRequest) (*chatview.Snapshot, error) {
	view, err := s.view(userId, viewId)
	if err != nil {
		return nil, err
	}
	snap, err := view.SelectCollection(ctx, req.CollectionId)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *chatService) SetPanel(_ context.Context, userId, viewId string, req *dto.SetPanelRequest) (*chatview.Snapshot, error) {
	view, err := s.view(userId, viewId)
	if err != nil {
		return nil, err
	}
	snap := view.SetPanelOpen(req.Open)
	return &snap, nil
}

func (s *chatService) SendMessage(ctx context.Context, userId, viewId string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	view, err := s.view(userId, viewId)
	if err != nil {
		return nil, err
	}

	out, err := view.Send(ctx, req.Question)
	if err != nil {
		return nil, err
	}
	return &dto.SendMessageResponse{View: view.Snapshot(), Redirect: out.Navigate}, nil
}

func (s *chatService) ClearError(_ context.Context, userId, viewId string) (*chatview.Snapshot, error) {
	view, err := s.view(userId, viewId)
	if err != nil {
		return nil, err
	}
	snap := view.ClearError()
	return &snap, nil
}

func (s *chatService) ListConversations(ctx context.Context, offset, size int) ([]*dto.ConversationResponse, error) {
	conversations, err := s.upstream.ListConversations(ctx, offset, size)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ConversationResponse, 0, len(conversations))
	for _, c := range conversations {
		res = append(res, &dto.ConversationResponse{Id: c.Id, Name: c.Name, CreatedAt: c.CreatedAt})
	}
	return res, nil
}

// CollectionsChanged refreshes every open view of the user.
func (s *chatService) CollectionsChanged(ctx context.Context, userId string, collections []dataset.Collection) {
	for _, view := range s.views.ByUser(userId) {
		view.SetCollections(ctx, collections)
	}
}
