package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Conversation steps. The zero value means "no flow in progress".
const (
	StepNone           = ""
	StepAwaitReceipt   = "await_receipt"
	StepOverrideAmount = "override_amount" // reviewer entering a corrected sum
	StepName           = "customer_name"
	StepPhone          = "customer_phone"
	StepAddress        = "customer_address"
	StepConfirmDetails = "confirm_details"
)

// Key addresses a conversation by chat and user. For private chats the two
// are equal; keeping both allows state to be attached to any party. The
// reviewer is put into an input step from inside the buyer's flow, and the
// buyer is advanced from inside the reviewer's handler.
type Key struct {
	ChatID int64
	UserID int64
}

// For returns the key for a user's own private chat.
func For(userID int64) Key {
	return Key{ChatID: userID, UserID: userID}
}

func (k Key) String() string {
	return fmt.Sprintf("conv:%d:%d", k.ChatID, k.UserID)
}

// Conversation is the per-identity mutable flow record.
type Conversation struct {
	Step    string `json:"step"`
	OrderID string `json:"order_id,omitempty"`

	// Collected buyer details, filled step by step.
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Store keeps conversations addressable by explicit identity, surviving
// restarts when Redis is available.
type Store interface {
	Get(ctx context.Context, key Key) (*Conversation, error)
	Set(ctx context.Context, key Key, conv *Conversation) error
	Clear(ctx context.Context, key Key) error
}

// conversationTTL bounds abandoned flows; a manual payment may legitimately
// sit in await_receipt for a long time.
const conversationTTL = 7 * 24 * time.Hour

type redisStore struct {
	client *redis.Client
}

func (s *redisStore) Get(ctx context.Context, key Key) (*Conversation, error) {
	raw, err := s.client.Get(ctx, key.String()).Result()
	if errors.Is(err, redis.Nil) {
		return &Conversation{}, nil
	}
	if err != nil {
		return nil, err
	}
	var conv Conversation
	if err := json.Unmarshal([]byte(raw), &conv); err != nil {
		return nil, fmt.Errorf("corrupt conversation for %s: %w", key, err)
	}
	return &conv, nil
}

func (s *redisStore) Set(ctx context.Context, key Key, conv *Conversation) error {
	raw, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key.String(), raw, conversationTTL).Err()
}

func (s *redisStore) Clear(ctx context.Context, key Key) error {
	return s.client.Del(ctx, key.String()).Err()
}

type memoryStore struct {
	mu    sync.RWMutex
	convs map[Key]*Conversation
}

func newMemoryStore() *memoryStore {
	return &memoryStore{convs: make(map[Key]*Conversation)}
}

func (s *memoryStore) Get(_ context.Context, key Key) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if conv, ok := s.convs[key]; ok {
		copied := *conv
		return &copied, nil
	}
	return &Conversation{}, nil
}

func (s *memoryStore) Set(_ context.Context, key Key, conv *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *conv
	s.convs[key] = &copied
	return nil
}

func (s *memoryStore) Clear(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.convs, key)
	return nil
}

// NewStore builds a Redis-backed store and falls back to in-memory when
// Redis is unreachable. The returned error, when non-nil alongside a valid
// store, signals the fallback was taken.
func NewStore(addr, pass string, db int) (Store, error) {
	if addr == "" {
		return newMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return newMemoryStore(), err
	}

	return &redisStore{client: client}, nil
}
