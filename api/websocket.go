package api

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/seenimoa/stockdesk/internal/upstream"
	"github.com/seenimoa/stockdesk/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced on the REST routes only
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Stream message types.
const (
	MsgQuote = "quote"
	MsgError = "error"
)

// StreamMessage is one frame pushed on /ws/quotes.
type StreamMessage struct {
	Type       string        `json:"type"`
	Ticker     string        `json:"ticker"`
	Quote      *models.Quote `json:"quote,omitempty"`
	Error      string        `json:"error,omitempty"`
	RetryAfter int           `json:"retry_after,omitempty"` // seconds
	Time       time.Time     `json:"time"`
}

// handleQuoteStream pushes the ticker's quote immediately and then every
// api.quote_stream_interval until the peer goes away. Quotes go through the
// shared client, so concurrent streams for one ticker cost one upstream call
// per cache period.
func (s *Server) handleQuoteStream(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)
	if ticker == "" {
		writeError(w, http.StatusBadRequest, msgTicker)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go readPump(conn, cancel)

	interval := s.cfg.API.QuoteStreamInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	s.log.Debug("quote stream opened", zap.String("ticker", ticker))
	s.writePump(ctx, conn, ticker, interval)
	s.log.Debug("quote stream closed", zap.String("ticker", ticker))
}

// readPump discards peer messages and cancels the stream when the
// connection closes.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, ticker string, interval time.Duration) {
	quotes := time.NewTicker(interval)
	pings := time.NewTicker(pingPeriod)
	defer quotes.Stop()
	defer pings.Stop()

	push := func() bool {
		msg := s.quoteMessage(ctx, ticker)
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg) == nil
	}

	if !push() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case <-quotes.C:
			if !push() {
				return
			}
		case <-pings.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) quoteMessage(ctx context.Context, ticker string) StreamMessage {
	msg := StreamMessage{Type: MsgQuote, Ticker: ticker, Time: s.deps.Now().UTC()}
	q, err := s.deps.Provider.Quote(ctx, ticker)
	if err != nil {
		msg.Type = MsgError
		msg.Error = err.Error()
		if d := upstream.RetryAfter(err); d > 0 {
			msg.RetryAfter = int(math.Ceil(d.Seconds()))
		}
		return msg
	}
	msg.Quote = q
	return msg
}
