package memory

import (
	"strings"
	"time"

	"dataset-explorer-be/pkg/chatview"

	"github.com/patrickmn/go-cache"
)

// ViewRepository holds open chat views per user. Idle views expire after ttl and are closed on eviction.
type ViewRepository struct {
	cache *cache.Cache
}

func NewViewRepository(ttl time.Duration) *ViewRepository {
	c := cache.New(ttl, ttl/4)
	c.OnEvicted(func(_ string, v interface{}) {
		v.(*chatview.View).Close()
	})
	return &ViewRepository{cache: c}
}

func viewKey(userId, viewId string) string {
	return userId + "/" + viewId
}

func (r *ViewRepository) Save(userId string, view *chatview.View) {
	r.cache.Set(viewKey(userId, view.Id()), view, cache.DefaultExpiration)
}

// Get returns the view and restarts its idle timer.
func (r *ViewRepository) Get(userId, viewId string) (*chatview.View, bool) {
	key := viewKey(userId, viewId)
	x, found := r.cache.Get(key)
	if !found {
		return nil, false
	}
	r.cache.Set(key, x, cache.DefaultExpiration)
	return x.(*chatview.View), true
}

// Delete removes and closes the view.
func (r *ViewRepository) Delete(userId, viewId string) bool {
	key := viewKey(userId, viewId)
	if _, found := r.cache.Get(key); !found {
		return false
	}
	r.cache.Delete(key)
	return true
}

func (r *ViewRepository) ByUser(userId string) []*chatview.View {
	prefix := userId + "/"
	var views []*chatview.View
	for key, item := range r.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			views = append(views, item.Object.(*chatview.View))
		}
	}
	return views
}
