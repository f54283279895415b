package gate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tovarbot/internal/models"
)

type fakeChecker struct {
	statuses map[string]string // channelID -> status
	started  map[string]bool   // bot token -> started
	err      error

	mu     sync.Mutex
	probes map[string]int // channelID -> GetChatMemberStatus calls
}

func (f *fakeChecker) GetChatMemberStatus(chatID string, _ int64) (string, error) {
	f.mu.Lock()
	if f.probes == nil {
		f.probes = make(map[string]int)
	}
	f.probes[chatID]++
	f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}
	if s, ok := f.statuses[chatID]; ok {
		return s, nil
	}
	return "left", nil
}

func (f *fakeChecker) probeCount(chatID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probes[chatID]
}

func (f *fakeChecker) HasStartedBot(token string, _ int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.started[token], nil
}

type fakeSource struct {
	channels []models.RequiredChannel
	bots     []models.RequiredBot
	joined   map[string]bool // channelID -> has recent join request
}

func (f *fakeSource) FindRequiredChannels() ([]models.RequiredChannel, error) { return f.channels, nil }
func (f *fakeSource) FindRequiredBots() ([]models.RequiredBot, error)         { return f.bots, nil }
func (f *fakeSource) HasRecentJoinRequest(_ int64, channelID string, _ time.Duration) (bool, error) {
	return f.joined[channelID], nil
}

func newTestGate(checker MembershipChecker, source RequirementSource, isAdmin func(int64) bool) *Gate {
	return New(checker, source, nil, zap.NewNop(), 5*time.Minute, 24*time.Hour, isAdmin)
}

func TestCheckNoRequirements(t *testing.T) {
	g := newTestGate(&fakeChecker{}, &fakeSource{}, nil)
	res, err := g.Check(context.Background(), 1, false)
	require.NoError(t, err)
	assert.True(t, res.Satisfied)
}

func TestCheckAdminBypass(t *testing.T) {
	source := &fakeSource{channels: []models.RequiredChannel{{ChannelID: "@ch"}}}
	g := newTestGate(&fakeChecker{}, source, func(id int64) bool { return id == 99 })

	res, err := g.Check(context.Background(), 99, false)
	require.NoError(t, err)
	assert.True(t, res.Satisfied)

	res, err = g.Check(context.Background(), 1, false)
	require.NoError(t, err)
	assert.False(t, res.Satisfied)
}

func TestCheckMembershipStatuses(t *testing.T) {
	source := &fakeSource{channels: []models.RequiredChannel{{ChannelID: "@ch", Name: "Channel"}}}

	for _, status := range []string{"member", "administrator", "creator"} {
		g := newTestGate(&fakeChecker{statuses: map[string]string{"@ch": status}}, source, nil)
		res, err := g.Check(context.Background(), 1, true)
		require.NoError(t, err)
		assert.True(t, res.Satisfied, "status %s should satisfy", status)
	}

	for _, status := range []string{"left", "kicked"} {
		g := newTestGate(&fakeChecker{statuses: map[string]string{"@ch": status}}, source, nil)
		res, err := g.Check(context.Background(), 1, true)
		require.NoError(t, err)
		assert.False(t, res.Satisfied, "status %s should not satisfy", status)
		require.Len(t, res.MissingChannels, 1)
		assert.Equal(t, "@ch", res.MissingChannels[0].ChannelID)
	}
}

func TestCheckJoinRequestCountsAsMembership(t *testing.T) {
	source := &fakeSource{
		channels: []models.RequiredChannel{{ChannelID: "-100123"}},
		joined:   map[string]bool{"-100123": true},
	}
	g := newTestGate(&fakeChecker{statuses: map[string]string{"-100123": "left"}}, source, nil)

	res, err := g.Check(context.Background(), 1, true)
	require.NoError(t, err)
	assert.True(t, res.Satisfied)
}

func TestCheckMissingBot(t *testing.T) {
	source := &fakeSource{bots: []models.RequiredBot{{Token: "tok", Username: "helper_bot"}}}
	g := newTestGate(&fakeChecker{started: map[string]bool{}}, source, nil)

	res, err := g.Check(context.Background(), 1, true)
	require.NoError(t, err)
	assert.False(t, res.Satisfied)
	require.Len(t, res.MissingBots, 1)
	assert.Equal(t, "helper_bot", res.MissingBots[0].Username)

	g = newTestGate(&fakeChecker{started: map[string]bool{"tok": true}}, source, nil)
	res, err = g.Check(context.Background(), 1, true)
	require.NoError(t, err)
	assert.True(t, res.Satisfied)
}

func TestCheckFailsOpenOnAPIError(t *testing.T) {
	source := &fakeSource{
		channels: []models.RequiredChannel{{ChannelID: "@ch"}},
		bots:     []models.RequiredBot{{Token: "tok"}},
	}
	g := newTestGate(&fakeChecker{err: errors.New("api down")}, source, nil)

	res, err := g.Check(context.Background(), 1, true)
	require.NoError(t, err)
	assert.True(t, res.Satisfied)
}

func TestCheckCachesPositiveResult(t *testing.T) {
	checker := &fakeChecker{statuses: map[string]string{"@ch": "member"}}
	source := &fakeSource{channels: []models.RequiredChannel{{ChannelID: "@ch"}}}
	g := newTestGate(checker, source, nil)

	res, err := g.Check(context.Background(), 7, false)
	require.NoError(t, err)
	require.True(t, res.Satisfied)

	// User leaves; the cached pass still holds until TTL or Invalidate.
	checker.statuses["@ch"] = "left"
	res, err = g.Check(context.Background(), 7, false)
	require.NoError(t, err)
	assert.True(t, res.Satisfied)

	g.Invalidate(context.Background(), 7)
	res, err = g.Check(context.Background(), 7, false)
	require.NoError(t, err)
	assert.False(t, res.Satisfied)
}

func TestCheckCachesPerChannel(t *testing.T) {
	checker := &fakeChecker{statuses: map[string]string{"@a": "member", "@b": "left"}}
	source := &fakeSource{channels: []models.RequiredChannel{
		{ChannelID: "@a"},
		{ChannelID: "@b"},
	}}
	g := newTestGate(checker, source, nil)

	res, err := g.Check(context.Background(), 7, false)
	require.NoError(t, err)
	assert.False(t, res.Satisfied)
	require.Len(t, res.MissingChannels, 1)
	assert.Equal(t, "@b", res.MissingChannels[0].ChannelID)

	// The satisfied channel is served from its own cache entry; only the
	// missing one is probed again.
	res, err = g.Check(context.Background(), 7, false)
	require.NoError(t, err)
	assert.False(t, res.Satisfied)
	assert.Equal(t, 1, checker.probeCount("@a"))
	assert.Equal(t, 2, checker.probeCount("@b"))
}

func TestCheckForceSkipsCache(t *testing.T) {
	checker := &fakeChecker{statuses: map[string]string{"@ch": "member"}}
	source := &fakeSource{channels: []models.RequiredChannel{{ChannelID: "@ch"}}}
	g := newTestGate(checker, source, nil)

	res, err := g.Check(context.Background(), 7, false)
	require.NoError(t, err)
	require.True(t, res.Satisfied)

	checker.statuses["@ch"] = "left"
	res, err = g.Check(context.Background(), 7, true)
	require.NoError(t, err)
	assert.False(t, res.Satisfied)
}
