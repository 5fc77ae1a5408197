package adapter

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/shopmindai/voicematch/internal/matcher"
	"github.com/shopmindai/voicematch/internal/matchstate"
)

// telegramUpdate mirrors just the fields this webhook handler reads from
// a Telegram Bot API update payload.
type telegramUpdate struct {
	Message *struct {
		From struct {
			ID        int64  `json:"id"`
			FirstName string `json:"first_name"`
		} `json:"from"`
		Text string `json:"text"`
	} `json:"message"`
	CallbackQuery *struct {
		ID   string `json:"id"`
		From struct {
			ID int64 `json:"id"`
		} `json:"from"`
		Data string `json:"data"`
	} `json:"callback_query"`
}

// inputSubmitter is the narrow slice of scheduler.Driver the webhook
// handler needs, so handler tests can use a recording fake instead of a
// live Engine.
type inputSubmitter interface {
	Submit(in matcher.Input)
}

// WebhookHandler decodes inbound Telegram updates, rate-limits bursts per
// remote address (mirroring the teacher's rate.NewLimiter use in its
// WebSocket handler), classifies them, and hands the result to the
// scheduler driver and outbound dispatcher.
type WebhookHandler struct {
	driver   inputSubmitter
	outbound *Dispatcher
	log      logrus.FieldLogger

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
	rps        rate.Limit
	burst      int
}

// NewWebhookHandler builds a handler submitting classified inputs to
// driver and immediate callback acks to outbound.
func NewWebhookHandler(driver inputSubmitter, outbound *Dispatcher, log logrus.FieldLogger, rps float64, burst int) *WebhookHandler {
	return &WebhookHandler{
		driver:   driver,
		outbound: outbound,
		log:      log,
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (h *WebhookHandler) limiterFor(remoteAddr string) *rate.Limiter {
	h.limitersMu.Lock()
	defer h.limitersMu.Unlock()
	l, ok := h.limiters[remoteAddr]
	if !ok {
		l = rate.NewLimiter(h.rps, h.burst)
		h.limiters[remoteAddr] = l
	}
	return l
}

// Handle is the gin.HandlerFunc registered for the webhook route.
func (h *WebhookHandler) Handle(c *gin.Context) {
	if !h.limiterFor(c.ClientIP()).Allow() {
		c.Status(http.StatusTooManyRequests)
		return
	}

	var raw telegramUpdate
	if err := c.ShouldBindJSON(&raw); err != nil {
		if h.log != nil {
			h.log.WithError(err).Warn("adapter: dropping unparseable webhook payload")
		}
		c.Status(http.StatusOK) // ack the platform regardless; never surfaces to the core
		return
	}

	u := toUpdate(raw)
	result := Classify(u)

	if result.Ack != "" {
		h.outbound.AckCallback(c.Request.Context(), result.Ack)
	}
	if result.Input != nil {
		h.driver.Submit(result.Input)
	}

	c.Status(http.StatusOK)
}

func toUpdate(raw telegramUpdate) Update {
	switch {
	case raw.CallbackQuery != nil:
		return Update{
			Uid:          matchstate.Uid(raw.CallbackQuery.From.ID),
			CallbackID:   raw.CallbackQuery.ID,
			CallbackData: raw.CallbackQuery.Data,
		}
	case raw.Message != nil:
		return Update{
			Uid:         matchstate.Uid(raw.Message.From.ID),
			DisplayName: raw.Message.From.FirstName,
			Text:        raw.Message.Text,
		}
	default:
		return Update{}
	}
}
