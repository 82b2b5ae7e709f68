package stream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/domain"
	apperrors "github.com/ITACHIDA/Standoutu-WorkSmart/internal/errors"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/metrics"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/session"
)

const (
	// DefaultFrameInterval is the production frame rate of one frame per
	// second. Tests use shorter intervals.
	DefaultFrameInterval = time.Second

	captureTimeout       = 5 * time.Second
	commandTimeout       = 5 * time.Second
	stopTimeout          = 10 * time.Second
	fatalCaptureFailures = 5
)

// frameMessage is the wire format for a single pushed screenshot.
type frameMessage struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// errorMessage is the wire format for stream-level errors. A transient
// capture failure produces one of these without closing the stream.
type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// streamerCmd is the command interface for the Streamer actor.
type streamerCmd interface{ isStreamerCmd() }

type baseStreamerCmd struct{}

func (baseStreamerCmd) isStreamerCmd() {}

type attachCmd struct {
	baseStreamerCmd
	sessionID    uuid.UUID
	connection   *websocket.Conn
	errorChannel chan error
}

type detachCmd struct {
	baseStreamerCmd
	sessionID  uuid.UUID
	connection *websocket.Conn
}

type viewerCountCmd struct {
	baseStreamerCmd
	sessionID    uuid.UUID
	replyChannel chan int
}

type streamerStopCmd struct {
	baseStreamerCmd
}

// viewer is the single active frame consumer for a session.
type viewer struct {
	connection  *websocket.Conn
	writer      *clientWriter
	stopCapture func()
}

// Streamer pushes browser screenshots to websocket viewers. Each session
// has at most one viewer; a second connect takes over the stream and the
// previous viewer is closed. All viewer state lives inside the actor
// goroutine, commands arrive over cmdCh.
type Streamer struct {
	cmdCh         chan streamerCmd
	clock         clockwork.Clock
	registry      *session.Registry
	viewers       map[uuid.UUID]*viewer
	done          chan struct{}
	doneOnce      sync.Once
	frameInterval time.Duration
}

// NewStreamer starts the streamer actor. frameInterval controls how often
// each attached session is captured.
func NewStreamer(registry *session.Registry, clock clockwork.Clock, frameInterval time.Duration) *Streamer {
	s := &Streamer{
		cmdCh:         make(chan streamerCmd, 256),
		clock:         clock,
		registry:      registry,
		viewers:       make(map[uuid.UUID]*viewer),
		done:          make(chan struct{}),
		frameInterval: frameInterval,
	}
	go s.run()
	return s
}

// Attach connects a viewer to a session's frame stream. If the session has
// no live browser, the connection receives a single error message and is
// closed; no frames are ever sent on it. If another viewer is already
// attached, it is displaced by this one.
func (s *Streamer) Attach(sessionID uuid.UUID, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	s.cmdCh <- attachCmd{sessionID: sessionID, connection: conn, errorChannel: errCh}

	timer := s.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("attach command timed out after %v", commandTimeout)
	}
}

// Detach disconnects a viewer. The capture timer for the session is
// cancelled but the browser keeps running, so the session can be resumed
// by a later viewer.
func (s *Streamer) Detach(sessionID uuid.UUID, conn *websocket.Conn) {
	s.cmdCh <- detachCmd{sessionID: sessionID, connection: conn}
}

// ViewerCount returns 1 if a viewer is attached to the session, else 0.
// Returns -1 if the command times out.
func (s *Streamer) ViewerCount(sessionID uuid.UUID) int {
	replyCh := make(chan int, 1)
	s.cmdCh <- viewerCountCmd{sessionID: sessionID, replyChannel: replyCh}

	timer := s.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ViewerCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts down the streamer, closing all viewer connections. Blocks
// until the actor goroutine exits or the stop timeout is reached.
func (s *Streamer) Stop() {
	s.cmdCh <- streamerStopCmd{}

	timer := s.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-s.done:
		slog.Info("Streamer stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Streamer stop timeout exceeded, forcing exit", "timeout", stopTimeout)
		// The actor may still process the stop command later; both
		// paths funnel through the same once.
		s.closeDone()
	}
}

func (s *Streamer) closeDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Streamer) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Streamer panic recovered", "panic", r)
			s.closeAllViewers("streamer panic")
		}
	}()

	for cmd := range s.cmdCh {
		switch c := cmd.(type) {
		case attachCmd:
			s.handleAttach(c)
		case detachCmd:
			s.handleDetach(c)
		case viewerCountCmd:
			if _, ok := s.viewers[c.sessionID]; ok {
				c.replyChannel <- 1
			} else {
				c.replyChannel <- 0
			}
		case streamerStopCmd:
			s.handleStop()
			return
		default:
			slog.Warn("Streamer received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (s *Streamer) handleAttach(c attachCmd) {
	handle, ok := s.registry.Get(c.sessionID)
	if !ok {
		writeErrorAndClose(c.connection, s.clock, "no live browser for this session")
		c.errorChannel <- domain.ErrNoLiveBrowser
		return
	}

	if existing, ok := s.viewers[c.sessionID]; ok {
		slog.Info("Viewer takeover", "session_id", c.sessionID.String())
		existing.stopCapture()
		existing.writer.stopGraceful("viewer takeover")
		delete(s.viewers, c.sessionID)
		metrics.StreamViewers.Dec()
	}

	cw := newClientWriter(c.connection, s.clock)

	stopCh := make(chan struct{})
	var stopOnce sync.Once
	stop := func() { stopOnce.Do(func() { close(stopCh) }) }

	s.viewers[c.sessionID] = &viewer{connection: c.connection, writer: cw, stopCapture: stop}
	s.registry.Replace(c.sessionID, session.HandleUpdate{StopCapture: stop})
	metrics.StreamViewers.Inc()

	go s.captureLoop(c.sessionID, handle.Browser, cw, stopCh)

	slog.Debug("Viewer attached", "session_id", c.sessionID.String())
	c.errorChannel <- nil
}

func (s *Streamer) handleDetach(c detachCmd) {
	v, ok := s.viewers[c.sessionID]
	if !ok || v.connection != c.connection {
		// Stale detach from a displaced viewer.
		return
	}

	v.stopCapture()
	v.writer.stopGraceful("stream closed")
	delete(s.viewers, c.sessionID)
	s.registry.Replace(c.sessionID, session.HandleUpdate{ClearCapture: true})
	metrics.StreamViewers.Dec()

	slog.Debug("Viewer detached", "session_id", c.sessionID.String())
}

func (s *Streamer) handleStop() {
	slog.Info("Streamer shutting down", "viewers", len(s.viewers))
	s.closeAllViewers("Server shutting down")
	s.closeDone()
}

func (s *Streamer) closeAllViewers(reason string) {
	for sessionID, v := range s.viewers {
		v.stopCapture()
		v.writer.stopGraceful(reason)
		s.registry.Replace(sessionID, session.HandleUpdate{ClearCapture: true})
		delete(s.viewers, sessionID)
	}
	metrics.StreamViewers.Set(0)
}

// captureLoop pushes one frame per interval to a single viewer. Transient
// capture failures produce an error message on the stream and the loop
// keeps going; after fatalCaptureFailures consecutive failures the breaker
// opens and the stream is torn down.
func (s *Streamer) captureLoop(sessionID uuid.UUID, browser domain.BrowserSession, cw *clientWriter, stopCh chan struct{}) {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "capture-" + sessionID.String(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= fatalCaptureFailures
		},
	})

	ticker := s.clock.NewTicker(s.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.Chan():
			png, err := breaker.Execute(func() (any, error) {
				ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
				defer cancel()
				frame, err := browser.CaptureFrame(ctx)
				if err != nil {
					return nil, apperrors.TransientCaptureError("frame capture failed", err).
						WithField("session_id", sessionID.String())
				}
				return frame, nil
			})
			if err != nil {
				metrics.CaptureErrors.Inc()
				if breaker.State() == gobreaker.StateOpen {
					slog.Warn("Closing stream after repeated capture failures",
						"session_id", sessionID.String(),
						"error", err,
					)
					s.sendMessage(cw, errorMessage{Type: "error", Message: "frame capture failed repeatedly, closing stream"})
					s.Detach(sessionID, cw.connection)
					return
				}
				slog.Warn("Transient frame capture failure", "session_id", sessionID.String(), "error", err)
				s.sendMessage(cw, errorMessage{Type: "error", Message: "temporary capture failure"})
				continue
			}

			frame := frameMessage{
				Type: "frame",
				Data: base64.StdEncoding.EncodeToString(png.([]byte)),
			}
			if s.sendMessage(cw, frame) {
				metrics.FramesSent.Inc()
			}
		}
	}
}

func (s *Streamer) sendMessage(cw *clientWriter, msg any) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal stream message", "error", err)
		return false
	}
	if !cw.send(data) {
		slog.Debug("Dropping frame for slow viewer")
		return false
	}
	return true
}

// writeErrorAndClose is used for connections rejected before a writer is
// attached; the connection has no other writers so a direct write is safe.
func writeErrorAndClose(conn *websocket.Conn, clock clockwork.Clock, message string) {
	data, err := json.Marshal(errorMessage{Type: "error", Message: message})
	if err == nil {
		_ = conn.SetWriteDeadline(clock.Now().Add(writeDeadline))
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
	closeMsg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "no live browser")
	_ = conn.SetWriteDeadline(clock.Now().Add(writeDeadline))
	_ = conn.WriteMessage(websocket.CloseMessage, closeMsg)
	_ = conn.Close()
}
