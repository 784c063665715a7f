// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

// Package control accepts operator radius changes and forwards them to the
// primary detection channel.
//
// A Session turns free-form input into a radius command and exposes a short
// lived acknowledgement flag for user feedback. Invalid input is ignored
// without error. The acknowledgement is raised only when the command was
// actually transmitted and is lowered by a single timer; each new
// transmission restarts that timer.
package control

import (
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/tomtom215/emberline/internal/logging"
	"github.com/tomtom215/emberline/internal/metrics"
)

// DefaultAckDuration is how long the acknowledgement stays visible.
const DefaultAckDuration = 2 * time.Second

// Sender transmits a radius command. *channel.Channel implements it.
type Sender interface {
	SendRadius(km int) bool
}

// Config tunes a Session.
type Config struct {
	AckDuration time.Duration
}

// Session is safe for concurrent use.
type Session struct {
	sender Sender
	ackFor time.Duration
	log    zerolog.Logger

	mu      sync.Mutex
	visible bool
	gen     uint64
	timer   *time.Timer
	closed  bool

	// dmu orders subscriber callbacks. It is acquired before mu is released.
	dmu         sync.Mutex
	subscribers []subscriber
	nextID      uint64
}

type subscriber struct {
	id uint64
	fn func(visible bool)
}

// New returns a session sending through sender.
func New(sender Sender, cfg Config) *Session {
	if cfg.AckDuration <= 0 {
		cfg.AckDuration = DefaultAckDuration
	}
	return &Session{
		sender: sender,
		ackFor: cfg.AckDuration,
		log:    logging.WithComponent("control"),
	}
}

// SubmitRadius parses raw as an integer and sends it as the new radius. It
// reports whether a command was transmitted. Unparseable input and a
// disconnected primary both leave all state unchanged.
func (s *Session) SubmitRadius(raw string) bool {
	km, ok := ParseRadius(raw)
	if !ok {
		metrics.RecordRadiusSubmission("invalid")
		s.log.Debug().Str("input", raw).Msg("ignoring non-numeric radius")
		return false
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return false
	}

	if !s.sender.SendRadius(km) {
		metrics.RecordRadiusSubmission("dropped")
		s.log.Debug().Int("radius_km", km).Msg("radius not sent, primary channel is not connected")
		return false
	}
	metrics.RecordRadiusSubmission("sent")
	s.log.Info().Int("radius_km", km).Msg("radius command sent")

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return true
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.ackFor, func() { s.expire(gen) })
	s.setVisibleLocked(true)
	return true
}

// expire lowers the acknowledgement unless a newer submission superseded
// the timer that fired.
func (s *Session) expire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.setVisibleLocked(false)
}

// setVisibleLocked updates the flag, releases mu and notifies subscribers
// of a change in order.
func (s *Session) setVisibleLocked(visible bool) {
	changed := s.visible != visible
	s.visible = visible
	if !changed {
		s.mu.Unlock()
		return
	}
	metrics.SetAcknowledgement(visible)

	s.dmu.Lock()
	s.mu.Unlock()
	defer s.dmu.Unlock()
	for _, sub := range s.subscribers {
		sub.fn(visible)
	}
}

// AcknowledgementVisible reports whether the last radius command is still
// being acknowledged.
func (s *Session) AcknowledgementVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Subscribe registers fn for acknowledgement changes and returns a function
// that removes it. fn may read the session but must not submit.
func (s *Session) Subscribe(fn func(visible bool)) (unsubscribe func()) {
	s.dmu.Lock()
	defer s.dmu.Unlock()

	s.nextID++
	id := s.nextID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})

	return func() {
		s.dmu.Lock()
		defer s.dmu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Close cancels the pending acknowledgement timer. No subscriber fires after
// Close returns. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.visible = false
	metrics.SetAcknowledgement(false)
	return nil
}

// ParseRadius reads a leading integer from raw the way a lenient form field
// does: leading whitespace is skipped, an optional sign is accepted, and
// parsing stops at the first non-digit. A 0x prefix selects hexadecimal.
// It fails when no digit is found or the value does not fit an int.
func ParseRadius(raw string) (int, bool) {
	s := strings.TrimLeftFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})

	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = "-"
		}
		s = s[1:]
	}

	base := 10
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end], base) {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.ParseInt(sign+s[:end], base, strconv.IntSize)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

func isDigit(c byte, base int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case base == 16 && (c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'):
		return true
	}
	return false
}
