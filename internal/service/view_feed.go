package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const viewsChannelPrefix = "novel_views:"

// ViewUpdate is one view count change of a novel
type ViewUpdate struct {
	NovelID uuid.UUID `json:"novelId"`
	Views   int64     `json:"views"`
}

// ViewFeed publishes view counts on Redis and fans them out to local
// subscribers, so every server instance sees every read.
type ViewFeed struct {
	redis *redis.Client

	subs   map[uuid.UUID]map[chan ViewUpdate]struct{}
	subMux sync.RWMutex
}

// NewViewFeed creates a new ViewFeed
func NewViewFeed(redisClient *redis.Client) *ViewFeed {
	return &ViewFeed{
		redis: redisClient,
		subs:  make(map[uuid.UUID]map[chan ViewUpdate]struct{}),
	}
}

// PublishViews implements ViewNotifier. Without Redis the update only
// reaches subscribers of this process.
func (f *ViewFeed) PublishViews(ctx context.Context, novelID uuid.UUID, views int64) error {
	update := ViewUpdate{NovelID: novelID, Views: views}
	if f.redis == nil {
		f.dispatch(update)
		return nil
	}
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return f.redis.Publish(ctx, viewsChannelPrefix+novelID.String(), payload).Err()
}

// Run relays Redis messages to local subscribers until ctx is done
func (f *ViewFeed) Run(ctx context.Context) error {
	pubsub := f.redis.PSubscribe(ctx, viewsChannelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to view updates: %w", err)
	}
	log.Printf("[ViewFeed] Listening on %s*", viewsChannelPrefix)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			update, err := decodeViewUpdate(msg.Channel, msg.Payload)
			if err != nil {
				log.Printf("[ViewFeed] Dropping message on %s: %v", msg.Channel, err)
				continue
			}
			f.dispatch(update)
		}
	}
}

// Subscribe registers for updates of one novel. The returned function
// unregisters and closes the channel.
func (f *ViewFeed) Subscribe(novelID uuid.UUID) (<-chan ViewUpdate, func()) {
	ch := make(chan ViewUpdate, 16)

	f.subMux.Lock()
	if f.subs[novelID] == nil {
		f.subs[novelID] = make(map[chan ViewUpdate]struct{})
	}
	f.subs[novelID][ch] = struct{}{}
	f.subMux.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.subMux.Lock()
			delete(f.subs[novelID], ch)
			if len(f.subs[novelID]) == 0 {
				delete(f.subs, novelID)
			}
			f.subMux.Unlock()
			close(ch)
		})
	}
}

// dispatch delivers an update without blocking on slow subscribers
func (f *ViewFeed) dispatch(update ViewUpdate) {
	f.subMux.RLock()
	defer f.subMux.RUnlock()

	for ch := range f.subs[update.NovelID] {
		select {
		case ch <- update:
		default:
		}
	}
}

func decodeViewUpdate(channel, payload string) (ViewUpdate, error) {
	var update ViewUpdate
	if err := json.Unmarshal([]byte(payload), &update); err != nil {
		return update, err
	}
	id, err := uuid.Parse(strings.TrimPrefix(channel, viewsChannelPrefix))
	if err != nil {
		return update, err
	}
	if update.NovelID != id {
		return update, fmt.Errorf("payload novel %s does not match channel", update.NovelID)
	}
	return update, nil
}
