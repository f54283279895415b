package notify

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tovarbot/internal/ledger"
	"tovarbot/internal/models"
)

type sent struct {
	chatID int64
	text   string
	markup interface{}
}

type fakeSender struct {
	messages []sent
	photos   []sent
	edits    []sent
	fail     bool
}

func (f *fakeSender) SendMessage(chatID int64, text string, markup interface{}) error {
	if f.fail {
		return errors.New("send failed")
	}
	f.messages = append(f.messages, sent{chatID, text, markup})
	return nil
}

func (f *fakeSender) SendPhoto(chatID int64, photo, caption string, markup interface{}) (int, error) {
	if f.fail {
		return 0, errors.New("send failed")
	}
	f.photos = append(f.photos, sent{chatID, caption, markup})
	return 777, nil
}

func (f *fakeSender) EditMessageCaption(chatID int64, messageID int, caption string, markup interface{}) error {
	if f.fail {
		return errors.New("edit failed")
	}
	f.edits = append(f.edits, sent{chatID, caption, markup})
	return nil
}

func testNotifier(s Sender) *Notifier {
	return New(s, zap.NewNop(), []int64{10, 11}, 500, 600, -100200)
}

func testSale() *models.Sale {
	return &models.Sale{
		OrderID:         "ord-1",
		ProductPrice:    120000,
		PaidAmount:      50000,
		RemainingAmount: 70000,
		PaymentLabel:    "Humo ****1234",
		CustomerName:    "Aziz",
		CustomerPhone:   "+998901234567",
		CustomerAddress: "Tashkent",
	}
}

func TestSendReceiptForReview(t *testing.T) {
	s := &fakeSender{}
	n := testNotifier(s)

	o := &models.Order{ID: "ord-1", ReceiptFileID: "file", DeclaredAmount: 50000, PaymentLabel: "Humo ****1234"}
	p := &models.Product{Name: "Box"}
	buyer := &models.User{ID: 1001, FullName: "Aziz"}

	msgID, err := n.SendReceiptForReview(o, p, buyer, map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, 777, msgID)
	require.Len(t, s.photos, 1)
	assert.Equal(t, int64(500), s.photos[0].chatID)
	assert.Contains(t, s.photos[0].text, "ord-1")
	assert.Contains(t, s.photos[0].text, "50,000")
}

func TestStampReviewDecisionSkipsUntrackedMessage(t *testing.T) {
	s := &fakeSender{}
	n := testNotifier(s)

	o := &models.Order{ID: "ord-1"} // no review message recorded
	n.StampReviewDecision(o, &models.Product{}, &models.User{}, "✅")
	assert.Empty(t, s.edits)

	o.ReviewChatID = 500
	o.ReviewMessageID = 777
	n.StampReviewDecision(o, &models.Product{Name: "Box"}, &models.User{ID: 1}, "✅ done")
	require.Len(t, s.edits, 1)
	assert.True(t, strings.HasSuffix(s.edits[0].text, "✅ done"))
}

func TestBroadcastSaleFanOut(t *testing.T) {
	s := &fakeSender{}
	n := testNotifier(s)

	n.BroadcastSale(testSale(), &models.Product{Name: "Box"}, ledger.MirrorDone, map[string]string{"btn": "x"})

	// Two admins, the operator and the order channel.
	require.Len(t, s.messages, 4)

	chats := map[int64]sent{}
	for _, m := range s.messages {
		chats[m.chatID] = m
	}
	assert.Contains(t, chats, int64(10))
	assert.Contains(t, chats, int64(11))
	assert.Contains(t, chats, int64(600))
	assert.Contains(t, chats, int64(-100200))

	// Only the operator and channel copies carry the fulfill button.
	assert.Nil(t, chats[10].markup)
	assert.NotNil(t, chats[600].markup)
	assert.NotNil(t, chats[-100200].markup)

	assert.Contains(t, chats[10].text, "✅")
}

func TestBroadcastSaleMirrorFailureFlag(t *testing.T) {
	s := &fakeSender{}
	n := testNotifier(s)

	n.BroadcastSale(testSale(), &models.Product{Name: "Box"}, ledger.MirrorFailed, nil)
	require.NotEmpty(t, s.messages)
	assert.Contains(t, s.messages[0].text, "❌")
}

func TestBroadcastSaleMirrorDisabledIsNotAFailure(t *testing.T) {
	s := &fakeSender{}
	n := testNotifier(s)

	n.BroadcastSale(testSale(), &models.Product{Name: "Box"}, ledger.MirrorDisabled, nil)
	require.NotEmpty(t, s.messages)
	assert.NotContains(t, s.messages[0].text, "❌")
	assert.Contains(t, s.messages[0].text, "не подключена")
}

func TestBroadcastSurvivesSendFailures(t *testing.T) {
	s := &fakeSender{fail: true}
	n := testNotifier(s)

	// Must not panic or propagate.
	n.BroadcastSale(testSale(), &models.Product{Name: "Box"}, ledger.MirrorDone, nil)
	n.BroadcastFulfillment(testSale(), &models.Product{Name: "Box"})
	n.SendDailySummary(3, 150000)
	n.NotifyBuyer(1, "hi", nil)
}
