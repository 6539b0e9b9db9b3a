package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linebot-registration/internal/lineapi"
	"linebot-registration/internal/mailer"
	"linebot-registration/internal/metrics"
	"linebot-registration/internal/registration"
	"linebot-registration/internal/sheet"
)

const testSecret = "test-channel-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	router *gin.Engine
	sheet  *sheet.InMemory
	msgr   *lineapi.Fake
	mail   *mailer.InMemory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	acc := sheet.NewInMemory()
	msgr := lineapi.NewFake("Alice")
	mail := mailer.NewInMemory()
	m := metrics.New(prometheus.NewRegistry())
	log := zap.NewNop().Sugar()

	svc := registration.New(acc, msgr, mail, m, log, "Unknown")
	h := New(testSecret, svc, msgr, m, log)

	r := gin.New()
	r.POST("/callback", h.Callback)
	return &fixture{router: r, sheet: acc, msgr: msgr, mail: mail}
}

func textEvent(text, userID, sourceType, replyToken string) map[string]interface{} {
	source := map[string]interface{}{"type": sourceType, "userId": userID}
	if sourceType == "group" {
		source["groupId"] = "G1"
	}
	return map[string]interface{}{
		"type":            "message",
		"mode":            "active",
		"timestamp":       int64(1756375200000),
		"webhookEventId":  "01HTESTEVENT",
		"deliveryContext": map[string]interface{}{"isRedelivery": false},
		"replyToken":      replyToken,
		"source":          source,
		"message": map[string]interface{}{
			"type": "text",
			"id":   "m1",
			"text": text,
		},
	}
}

func body(t *testing.T, events ...map[string]interface{}) []byte {
	t.Helper()
	if events == nil {
		events = []map[string]interface{}{}
	}
	b, err := json.Marshal(map[string]interface{}{
		"destination": "Udeadbeefdeadbeef",
		"events":      events,
	})
	require.NoError(t, err)
	return b
}

func sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (f *fixture) post(payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Line-Signature", signature)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestCallbackRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	payload := body(t, textEvent("register", "U1", "user", "rt-1"))

	w := f.post(payload, "not-a-signature")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.sheet.Rows())
}

func TestCallbackRegisterCommand(t *testing.T) {
	f := newFixture(t)
	payload := body(t, textEvent("register", "U1", "user", "rt-1"))

	w := f.post(payload, sign(payload))

	assert.Equal(t, http.StatusOK, w.Code)
	rows := f.sheet.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Sequence)
	assert.Equal(t, "U1", rows[0].UserID)

	replies := f.msgr.Replies()
	require.Len(t, replies, 1)
	assert.Equal(t, "rt-1", replies[0].To)
	assert.Contains(t, replies[0].Text, "1")
	require.Len(t, f.mail.Sent(), 1)
}

func TestCallbackRejectsGroupSource(t *testing.T) {
	f := newFixture(t)
	payload := body(t, textEvent("register", "U1", "group", "rt-1"))

	w := f.post(payload, sign(payload))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.sheet.Rows())

	replies := f.msgr.Replies()
	require.Len(t, replies, 1)
	assert.Equal(t, replyOneOnOneOnly, replies[0].Text)
}

func TestCallbackUnknownText(t *testing.T) {
	f := newFixture(t)
	payload := body(t, textEvent("hello there", "U1", "user", "rt-1"))

	w := f.post(payload, sign(payload))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.sheet.Rows())

	replies := f.msgr.Replies()
	require.Len(t, replies, 1)
	assert.Equal(t, replyUsage, replies[0].Text)
}

func TestCallbackQueryNeedsNumber(t *testing.T) {
	f := newFixture(t)
	payload := body(t, textEvent("query", "U1", "user", "rt-1"))

	w := f.post(payload, sign(payload))

	assert.Equal(t, http.StatusOK, w.Code)
	replies := f.msgr.Replies()
	require.Len(t, replies, 1)
	assert.Equal(t, replyNeedNumber, replies[0].Text)
}

func TestCallbackQueryCommand(t *testing.T) {
	f := newFixture(t)
	f.sheet.Seed(sheet.Record{Sequence: 4, UserID: "U1", DisplayName: "Alice", Status: sheet.StatusProcessed})
	payload := body(t, textEvent("query 4", "U1", "user", "rt-1"))

	w := f.post(payload, sign(payload))

	assert.Equal(t, http.StatusOK, w.Code)
	replies := f.msgr.Replies()
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Registration 4")
}

// Storage failure aborts before any durable effect; the user only sees the
// generic failure reply and the platform still gets its 200.
func TestCallbackRegisterStorageDown(t *testing.T) {
	f := newFixture(t)
	f.sheet.ReadErr = sheet.ErrUnavailable
	payload := body(t, textEvent("register", "U1", "user", "rt-1"))

	w := f.post(payload, sign(payload))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.sheet.Rows())
	assert.Empty(t, f.mail.Sent())

	replies := f.msgr.Replies()
	require.Len(t, replies, 1)
	assert.Equal(t, replyFailed, replies[0].Text)
}

func TestCallbackHandlesAllEventsInDelivery(t *testing.T) {
	f := newFixture(t)
	payload := body(t,
		textEvent("register", "U1", "user", "rt-1"),
		textEvent("register", "U2", "user", "rt-2"),
	)

	w := f.post(payload, sign(payload))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, f.sheet.Rows(), 2)
	assert.Len(t, f.msgr.Replies(), 2)
}

func TestCallbackEmptyDelivery(t *testing.T) {
	f := newFixture(t)
	payload := body(t)

	w := f.post(payload, sign(payload))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.sheet.Rows())
}
