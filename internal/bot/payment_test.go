package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"tovarbot/internal/state"
)

func TestOverridePromptShowsRemainingBalance(t *testing.T) {
	text := overridePrompt(75000, 100000)
	assert.Contains(t, text, "75,000")
	assert.Contains(t, text, "25,000")

	// Full payment leaves nothing to collect on delivery.
	text = overridePrompt(100000, 100000)
	assert.NotContains(t, text, "Остаток")

	text = overridePrompt(120000, 100000)
	assert.NotContains(t, text, "Остаток")
}

// fakeContext records sends; only the methods the handler touches are real.
type fakeContext struct {
	tele.Context
	sender *tele.User
	sent   []string
}

func (f *fakeContext) Sender() *tele.User { return f.sender }

func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		f.sent = append(f.sent, s)
	}
	return nil
}

func TestNonPhotoReceiptReprompts(t *testing.T) {
	store, err := state.NewStore("", "", 0)
	require.NoError(t, err)
	b := &Bot{states: store, logger: zap.NewNop()}

	require.NoError(t, store.Set(context.Background(), state.For(42),
		&state.Conversation{Step: state.StepAwaitReceipt, OrderID: "ord-1"}))

	c := &fakeContext{sender: &tele.User{ID: 42}}
	require.NoError(t, b.handleNonPhotoReceipt(c))
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "фото чека")

	// Outside the receipt step a document is ignored.
	other := &fakeContext{sender: &tele.User{ID: 43}}
	require.NoError(t, b.handleNonPhotoReceipt(other))
	assert.Empty(t, other.sent)
}
