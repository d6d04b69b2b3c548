package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bekzodm/dilbot/internal/transport"
)

// imageSession buffers one user's incoming images until the debounce
// window closes.
type imageSession struct {
	peer     transport.Peer
	images   [][]byte
	captions []string
	timer    *time.Timer
}

// ImageSessions coalesces bursts of images per user: each arriving
// image restarts a debounce timer, and when the timer fires the whole
// buffer flushes as a single two-stage vision turn. A burst arriving
// while a flush is running simply starts a new buffer; its flush
// supersedes the running turn through the registry.
type ImageSessions struct {
	mu       sync.Mutex
	sessions map[string]*imageSession

	base     context.Context
	pipeline *Pipeline
	registry *Registry
	log      *slog.Logger
}

func NewImageSessions(base context.Context, pipeline *Pipeline, registry *Registry, log *slog.Logger) *ImageSessions {
	return &ImageSessions{
		sessions: make(map[string]*imageSession),
		base:     base,
		pipeline: pipeline,
		registry: registry,
		log:      log,
	}
}

// Add buffers an image for the user and restarts the debounce timer.
// Any in-flight model call for the user is cancelled immediately so a
// stale reply cannot land in the middle of the batch.
func (s *ImageSessions) Add(peer transport.Peer, image []byte, caption string) {
	s.registry.Cancel(peer.UserID)

	s.mu.Lock()
	sess := s.sessions[peer.UserID]
	if sess == nil {
		sess = &imageSession{peer: peer}
		s.sessions[peer.UserID] = sess
	}
	sess.images = append(sess.images, image)
	sess.captions = append(sess.captions, caption)
	if sess.timer != nil {
		sess.timer.Stop()
	}
	debounce := s.pipeline.Conf().Pipeline.Debounce()
	userID := peer.UserID
	sess.timer = time.AfterFunc(debounce, func() { s.flush(userID) })
	count := len(sess.images)
	s.mu.Unlock()

	s.log.Debug("image buffered",
		"chat_id", peer.ChatID, "count", count, "debounce", debounce)
}

// Abort drops the user's buffered images without flushing. Returns
// true if a buffer was actually discarded. Safe to call when no
// session exists.
func (s *ImageSessions) Abort(userID string) bool {
	s.mu.Lock()
	sess := s.sessions[userID]
	if sess != nil {
		if sess.timer != nil {
			sess.timer.Stop()
		}
		delete(s.sessions, userID)
	}
	s.mu.Unlock()
	return sess != nil
}

// flush snapshots and clears the buffer, then runs the vision turn
// outside the lock under a fresh registry call.
func (s *ImageSessions) flush(userID string) {
	s.mu.Lock()
	sess := s.sessions[userID]
	if sess == nil || len(sess.images) == 0 {
		s.mu.Unlock()
		return
	}
	peer := sess.peer
	images := sess.images
	captions := sess.captions
	delete(s.sessions, userID)
	s.mu.Unlock()

	if s.base.Err() != nil {
		return
	}

	s.log.Info("image batch flushing", "chat_id", peer.ChatID, "images", len(images))
	call := s.registry.Supersede(s.base, userID)
	s.pipeline.RunImageBatch(call, peer, images, captions)
}
