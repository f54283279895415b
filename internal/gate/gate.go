package gate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tovarbot/internal/models"
)

// MembershipChecker probes a user's standing against a channel or bot.
// Implemented by pkg/telegram.BotAPI.
type MembershipChecker interface {
	GetChatMemberStatus(chatID string, userID int64) (string, error)
	HasStartedBot(botToken string, userID int64) (bool, error)
}

// RequirementSource lists what must be satisfied and remembers join requests.
// Implemented by repository.ChannelRepository.
type RequirementSource interface {
	FindRequiredChannels() ([]models.RequiredChannel, error)
	FindRequiredBots() ([]models.RequiredBot, error)
	HasRecentJoinRequest(userID int64, channelID string, window time.Duration) (bool, error)
}

// Result reports gate evaluation. Missing slices are populated only when
// Satisfied is false so the caller can render a targeted prompt.
type Result struct {
	Satisfied       bool
	MissingChannels []models.RequiredChannel
	MissingBots     []models.RequiredBot
}

// Gate checks subscription requirements before any commerce operation.
// Positive results are cached per requirement; negative ones never are, so
// a user who just joined passes on the next attempt.
type Gate struct {
	checker  MembershipChecker
	source   RequirementSource
	redis    *redis.Client
	log      *zap.Logger
	cacheTTL time.Duration
	joinTTL  time.Duration
	isAdmin  func(int64) bool

	mu    sync.Mutex
	local map[string]time.Time
}

func New(checker MembershipChecker, source RequirementSource, rdb *redis.Client, log *zap.Logger, cacheTTL, joinTTL time.Duration, isAdmin func(int64) bool) *Gate {
	return &Gate{
		checker:  checker,
		source:   source,
		redis:    rdb,
		log:      log,
		cacheTTL: cacheTTL,
		joinTTL:  joinTTL,
		isAdmin:  isAdmin,
		local:    make(map[string]time.Time),
	}
}

func memberStatusOK(status string) bool {
	switch status {
	case "member", "administrator", "creator":
		return true
	}
	return false
}

// Check evaluates all requirements for the user. force skips the cache,
// used by the "I have joined" button so a fresh join is seen immediately.
func (g *Gate) Check(ctx context.Context, userID int64, force bool) (Result, error) {
	if g.isAdmin != nil && g.isAdmin(userID) {
		return Result{Satisfied: true}, nil
	}

	channels, err := g.source.FindRequiredChannels()
	if err != nil {
		return Result{}, fmt.Errorf("load required channels: %w", err)
	}
	bots, err := g.source.FindRequiredBots()
	if err != nil {
		return Result{}, fmt.Errorf("load required bots: %w", err)
	}
	if len(channels) == 0 && len(bots) == 0 {
		return Result{Satisfied: true}, nil
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		missing Result
	)

	for i := range channels {
		ch := channels[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.channelSatisfied(ctx, userID, ch, force) {
				return
			}
			mu.Lock()
			missing.MissingChannels = append(missing.MissingChannels, ch)
			mu.Unlock()
		}()
	}
	for i := range bots {
		b := bots[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref := "bot:" + b.Username
			if !force && g.cached(ctx, userID, ref) {
				return
			}
			started, err := g.checker.HasStartedBot(b.Token, userID)
			if err != nil {
				g.log.Warn("bot start probe failed", zap.String("bot", b.Username), zap.Error(err))
				return // treat unknown as satisfied, never lock users out on API errors
			}
			if started {
				g.remember(ctx, userID, ref)
				return
			}
			mu.Lock()
			missing.MissingBots = append(missing.MissingBots, b)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(missing.MissingChannels) == 0 && len(missing.MissingBots) == 0 {
		return Result{Satisfied: true}, nil
	}
	return missing, nil
}

func (g *Gate) channelSatisfied(ctx context.Context, userID int64, ch models.RequiredChannel, force bool) bool {
	if !force && g.cached(ctx, userID, ch.ChannelID) {
		return true
	}
	status, err := g.checker.GetChatMemberStatus(ch.ChannelID, userID)
	if err == nil && memberStatusOK(status) {
		g.remember(ctx, userID, ch.ChannelID)
		return true
	}
	if err != nil {
		g.log.Warn("member status check failed", zap.String("channel", ch.ChannelID), zap.Error(err))
	}
	// A pending join request to a private channel counts within the trust
	// window even though the user is not yet a member.
	recent, jerr := g.source.HasRecentJoinRequest(userID, ch.ChannelID, g.joinTTL)
	if jerr != nil {
		g.log.Warn("join request lookup failed", zap.String("channel", ch.ChannelID), zap.Error(jerr))
	}
	if recent {
		g.remember(ctx, userID, ch.ChannelID)
		return true
	}
	// When the API call failed treat membership as unknown rather than
	// locking the user out. Fail-open passes are never cached.
	return err != nil
}

// The cache is keyed per (user, requirement) so one unmet channel does not
// force re-probing the channels the user already satisfies.
func pairKey(userID int64, ref string) string {
	return fmt.Sprintf("%d:%s", userID, ref)
}

func cacheKey(userID int64, ref string) string {
	return "gate:ok:" + pairKey(userID, ref)
}

func (g *Gate) cached(ctx context.Context, userID int64, ref string) bool {
	if g.redis != nil {
		n, err := g.redis.Exists(ctx, cacheKey(userID, ref)).Result()
		if err == nil {
			return n > 0
		}
		if !errors.Is(err, context.Canceled) {
			g.log.Warn("gate cache read failed", zap.Error(err))
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	exp, ok := g.local[pairKey(userID, ref)]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(g.local, pairKey(userID, ref))
		return false
	}
	return true
}

func (g *Gate) remember(ctx context.Context, userID int64, ref string) {
	if g.redis != nil {
		if err := g.redis.Set(ctx, cacheKey(userID, ref), "1", g.cacheTTL).Err(); err == nil {
			return
		}
	}
	g.mu.Lock()
	g.local[pairKey(userID, ref)] = time.Now().Add(g.cacheTTL)
	g.mu.Unlock()
}

// Invalidate drops every cached pass for the user, used when requirements
// change.
func (g *Gate) Invalidate(ctx context.Context, userID int64) {
	if g.redis != nil {
		pattern := fmt.Sprintf("gate:ok:%d:*", userID)
		if keys, err := g.redis.Keys(ctx, pattern).Result(); err == nil && len(keys) > 0 {
			_ = g.redis.Del(ctx, keys...).Err()
		}
	}
	prefix := fmt.Sprintf("%d:", userID)
	g.mu.Lock()
	for k := range g.local {
		if strings.HasPrefix(k, prefix) {
			delete(g.local, k)
		}
	}
	g.mu.Unlock()
}
