package hass

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"stable_dashboard/internal/logger"
	"stable_dashboard/internal/models"

	"github.com/gorilla/websocket"
)

const (
	websocketPath = "/api/websocket"

	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	streamMaxMsgSize = 32 << 20

	subscribeID = 1
	getStatesID = 2
)

// Message types of the Home Assistant websocket protocol.
const (
	msgAuthRequired = "auth_required"
	msgAuth         = "auth"
	msgAuthOK       = "auth_ok"
	msgAuthInvalid  = "auth_invalid"
	msgResult       = "result"
	msgEvent        = "event"

	eventStateChanged = "state_changed"
)

type wsMessage struct {
	ID      int             `json:"id,omitempty"`
	Type    string          `json:"type"`
	Success *bool           `json:"success,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *wsError        `json:"error,omitempty"`
	Event   *wsEvent        `json:"event,omitempty"`
	Message string          `json:"message,omitempty"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wsEvent struct {
	EventType string `json:"event_type"`
	Data      struct {
		EntityID string              `json:"entity_id"`
		NewState *models.EntityState `json:"new_state"`
	} `json:"data"`
}

type wsCommand struct {
	ID           int    `json:"id,omitempty"`
	Type         string `json:"type"`
	AccessToken  string `json:"access_token,omitempty"`
	EventType    string `json:"event_type,omitempty"`
	Subscription int    `json:"subscription,omitempty"`
}

// WebSocketURL derives the streaming endpoint from the REST base URL:
// http becomes ws, https becomes wss, and /api/websocket is appended.
func WebSocketURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(base), "/"))
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", base, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + websocketPath
	return u.String(), nil
}

// SnapshotFunc receives the full entity map after every change. The map is
// owned by the receiver.
type SnapshotFunc func(map[string]models.EntityState)

// StreamDialer opens authenticated state_changed subscriptions.
type StreamDialer struct {
	dialer           *websocket.Dialer
	handshakeTimeout time.Duration
	log              *logger.Logger
}

func NewStreamDialer(handshakeTimeout time.Duration, insecureSkipVerify bool, log *logger.Logger) *StreamDialer {
	d := &websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: handshakeTimeout,
	}
	if insecureSkipVerify {
		d.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &StreamDialer{dialer: d, handshakeTimeout: handshakeTimeout, log: logger.OrNop(log).Named("hass.stream")}
}

// Dial connects, authenticates, subscribes to state_changed and loads the
// initial snapshot. onSnapshot is called once before Dial returns and again
// after every applied event. onClose is called at most once, when the
// connection drops for any reason other than Close.
func (d *StreamDialer) Dial(ctx context.Context, creds Credentials, onSnapshot SnapshotFunc, onClose func(error)) (*Stream, error) {
	if !creds.Configured() {
		return nil, ErrNotConfigured
	}
	wsURL, err := WebSocketURL(creds.BaseURL())
	if err != nil {
		return nil, err
	}

	conn, _, err := d.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	s := &Stream{
		conn:       conn,
		entities:   make(map[string]models.EntityState),
		onSnapshot: onSnapshot,
		onClose:    onClose,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		nextID:     getStatesID,
		log:        d.log,
	}

	deadline := time.Now().Add(d.handshakeTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetReadDeadline(deadline)
	conn.SetReadLimit(streamMaxMsgSize)

	if err := s.handshake(creds.Token); err != nil {
		_ = conn.Close()
		return nil, err
	}

	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	s.publish()
	go s.readLoop()
	go s.pingLoop()

	d.log.Infow("stream_connected", "url", wsURL, "entities", len(s.entities))
	return s, nil
}

// Stream is one live subscription. Entities are only touched by the
// handshake and then by the single reader goroutine.
type Stream struct {
	conn       *websocket.Conn
	writeMu    sync.Mutex
	entities   map[string]models.EntityState
	onSnapshot SnapshotFunc
	onClose    func(error)
	closing    atomic.Bool
	closeOnce  sync.Once
	stop       chan struct{}
	done       chan struct{}
	nextID     int
	log        *logger.Logger
}

func (s *Stream) handshake(token string) error {
	var msg wsMessage
	if err := s.conn.ReadJSON(&msg); err != nil {
		return classifyTransportError(err)
	}
	if msg.Type != msgAuthRequired {
		return fmt.Errorf("unexpected first message %q", msg.Type)
	}

	if err := s.write(wsCommand{Type: msgAuth, AccessToken: strings.TrimSpace(token)}); err != nil {
		return err
	}
	msg = wsMessage{}
	if err := s.conn.ReadJSON(&msg); err != nil {
		return classifyTransportError(err)
	}
	switch msg.Type {
	case msgAuthOK:
	case msgAuthInvalid:
		return fmt.Errorf("%w: %s", ErrAuthInvalid, msg.Message)
	default:
		return fmt.Errorf("unexpected auth reply %q", msg.Type)
	}

	if err := s.write(wsCommand{ID: subscribeID, Type: "subscribe_events", EventType: eventStateChanged}); err != nil {
		return err
	}
	if err := s.write(wsCommand{ID: getStatesID, Type: "get_states"}); err != nil {
		return err
	}

	subscribed, loaded := false, false
	for !subscribed || !loaded {
		msg = wsMessage{}
		if err := s.conn.ReadJSON(&msg); err != nil {
			return classifyTransportError(err)
		}
		switch msg.Type {
		case msgResult:
			if msg.Success == nil || !*msg.Success {
				return resultError(msg)
			}
			switch msg.ID {
			case subscribeID:
				subscribed = true
			case getStatesID:
				var list []models.EntityState
				if err := json.Unmarshal(msg.Result, &list); err != nil {
					return fmt.Errorf("decode get_states result: %w", err)
				}
				s.entities = make(map[string]models.EntityState, len(list))
				for _, st := range list {
					s.entities[st.EntityID] = st
				}
				loaded = true
			}
		case msgEvent:
			s.apply(msg.Event)
		}
	}
	return nil
}

func resultError(msg wsMessage) error {
	if msg.Error != nil {
		return fmt.Errorf("command %d failed: %s: %s", msg.ID, msg.Error.Code, msg.Error.Message)
	}
	return fmt.Errorf("command %d failed", msg.ID)
}

// apply folds one state_changed event into the entity map. A nil new_state
// means the entity was removed.
func (s *Stream) apply(ev *wsEvent) bool {
	if ev == nil || ev.EventType != eventStateChanged || ev.Data.EntityID == "" {
		return false
	}
	if ev.Data.NewState == nil {
		delete(s.entities, ev.Data.EntityID)
		return true
	}
	st := *ev.Data.NewState
	if st.EntityID == "" {
		st.EntityID = ev.Data.EntityID
	}
	s.entities[ev.Data.EntityID] = st
	return true
}

func (s *Stream) publish() {
	if s.onSnapshot != nil {
		s.onSnapshot(maps.Clone(s.entities))
	}
}

func (s *Stream) readLoop() {
	defer close(s.done)
	for {
		var msg wsMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if !s.closing.Load() {
				s.log.Warnw("stream_read_failed", "error", err)
				s.closeOnce.Do(func() {
					close(s.stop)
					_ = s.conn.Close()
				})
				if s.onClose != nil {
					s.onClose(err)
				}
			}
			return
		}
		if msg.Type == msgEvent && s.apply(msg.Event) {
			s.publish()
		}
	}
}

func (s *Stream) pingLoop() {
	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait))
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (s *Stream) write(cmd wsCommand) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := s.conn.WriteJSON(cmd); err != nil {
		return fmt.Errorf("write %s: %w", cmd.Type, err)
	}
	return nil
}

// Done is closed when the reader goroutine has exited.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Close unsubscribes and closes the connection. It does not wait for the
// reader and never triggers onClose. Safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		close(s.stop)

		s.writeMu.Lock()
		s.nextID++
		id := s.nextID
		s.writeMu.Unlock()
		if werr := s.write(wsCommand{ID: id, Type: "unsubscribe_events", Subscription: subscribeID}); werr != nil {
			s.log.Debugw("stream_unsubscribe_failed", "error", werr)
		}

		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(streamWriteWait))
		s.writeMu.Unlock()

		if cerr := s.conn.Close(); cerr != nil && !errors.Is(cerr, websocket.ErrCloseSent) {
			err = cerr
		}
	})
	return err
}
