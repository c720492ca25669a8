package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sleepsense/sleepview/internal/services"
	"github.com/sleepsense/sleepview/internal/signal"
	"github.com/sleepsense/sleepview/pkg/schema"
)

const (
	DefaultReconnectInterval = 5 * time.Second
	DefaultFeedReadTimeout   = 30 * time.Second
)

// FeedSource receives samples from a websocket. A text frame is either JSON
// (one FeedFrame or an array of them) or CSV rows in the streaming layout.
type FeedSource struct {
	appender
	url         string
	parser      *services.RowParser
	reconnect   time.Duration
	readTimeout time.Duration
	dialer      *websocket.Dialer
	header      http.Header
	line        int
}

func NewFeedSource(logger *zap.Logger, url string, store *signal.Store, parser *services.RowParser, reconnect, readTimeout time.Duration, onExtend ExtendFunc) *FeedSource {
	if reconnect <= 0 {
		reconnect = DefaultReconnectInterval
	}
	if readTimeout <= 0 {
		readTimeout = DefaultFeedReadTimeout
	}
	return &FeedSource{
		appender:    appender{logger: logger.With(zap.String("feed", url)), store: store, onExtend: onExtend},
		url:         url,
		parser:      parser,
		reconnect:   reconnect,
		readTimeout: readTimeout,
		dialer:      &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		header:      http.Header{},
	}
}

// Run connects, reads until the connection drops, and reconnects after the
// configured interval. It returns nil once ctx is cancelled.
func (f *FeedSource) Run(ctx context.Context) error {
	for {
		conn, err := f.connect(ctx)
		if err != nil {
			f.logger.Error("Failed to connect", zap.Error(err))
		} else {
			f.readLoop(ctx, conn)
		}

		select {
		case <-ctx.Done():
			f.logger.Info("Feed stopped", zap.Int("rows", f.Stats().Rows))
			return nil
		case <-time.After(f.reconnect):
			f.logger.Info("Reconnecting", zap.Duration("after", f.reconnect))
		}
	}
}

func (f *FeedSource) connect(ctx context.Context) (*websocket.Conn, error) {
	f.logger.Info("Connecting to sample feed")
	conn, _, err := f.dialer.DialContext(ctx, f.url, f.header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}
	f.logger.Info("Connected successfully")
	return conn, nil
}

func (f *FeedSource) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(f.readTimeout)); err != nil {
			f.logger.Error("Failed to set read deadline", zap.Error(err))
			return
		}
		kind, message, err := conn.ReadMessage()
		if err != nil {
			var netErr net.Error
			switch {
			case ctx.Err() != nil:
			case errors.As(err, &netErr) && netErr.Timeout():
				f.logger.Warn("Feed read timeout")
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				f.logger.Info("Feed closed", zap.Error(err))
			default:
				f.logger.Error("Feed read error", zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if err := f.processMessage(message); err != nil {
			f.logger.Warn("Failed to process message", zap.Error(err))
		}
	}
}

func (f *FeedSource) processMessage(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	var parsed services.ReadStats
	var samples []schema.Sample

	switch data[0] {
	case '{':
		var frame schema.FeedFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			f.deliver(nil, services.ReadStats{Rows: 1, Dropped: 1})
			return fmt.Errorf("failed to unmarshal frame: %w", err)
		}
		if smp := frame.Sample(); f.parser.CheckSample(smp, &parsed) {
			samples = append(samples, smp)
		}
	case '[':
		var frames []schema.FeedFrame
		if err := json.Unmarshal(data, &frames); err != nil {
			f.deliver(nil, services.ReadStats{Rows: 1, Dropped: 1})
			return fmt.Errorf("failed to unmarshal frame batch: %w", err)
		}
		for _, fr := range frames {
			if smp := fr.Sample(); f.parser.CheckSample(smp, &parsed) {
				samples = append(samples, smp)
			}
		}
	default:
		for _, raw := range bytes.Split(data, []byte{'\n'}) {
			f.line++
			if len(bytes.TrimSpace(raw)) == 0 {
				continue
			}
			smp, ok, err := f.parser.Parse(services.SplitFields(string(raw)), f.line, &parsed)
			if err != nil {
				return err
			}
			if ok {
				samples = append(samples, smp)
			}
		}
	}
	f.deliver(samples, parsed)
	return nil
}
