// Package ui derives what a page shows from the lifecycle of its requests.
package ui

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// State is the lifecycle state of the most recent request.
type State int

const (
	Idle State = iota
	Loading
	Success
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Loading:
		return "Loading"
	case Success:
		return "Success"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// Action identifies the control that triggered a request.
type Action int

const (
	ActionExtract Action = iota
	ActionAnalyze
)

func (a Action) String() string {
	switch a {
	case ActionExtract:
		return "extract"
	case ActionAnalyze:
		return "analyze"
	default:
		return "unknown"
	}
}

// Result area contents.
const (
	ResultEmpty      = ""
	ResultInProgress = "<p>Analysis in progress...</p>"
	ResultFailed     = "<p>Analysis failed. Please try again.</p>"
	ResultExtracted  = "<p>Ingredients extracted. Review them and run the analysis.</p>"
)

// ErrorPrefix starts every error banner text.
const ErrorPrefix = "Error: "

// ErrBusy is returned by Begin when the action already has a request in
// flight.
var ErrBusy = errors.New("ui: action already in progress")

// Snapshot is everything a view needs to draw the page.
type Snapshot struct {
	State State
	// Action is the action of the last transition.
	Action Action

	Loading bool

	ErrorShown bool
	ErrorText  string
	// Warning is set when the error banner shows a soft warning.
	Warning bool

	Result string

	DownloadsShown bool

	ExtractDisabled bool
	AnalyzeDisabled bool
}

// Disabled reports whether the control for a is disabled.
func (s Snapshot) Disabled(a Action) bool {
	if a == ActionExtract {
		return s.ExtractDisabled
	}
	return s.AnalyzeDisabled
}

// RenderFunc receives a snapshot after every transition.
type RenderFunc func(Snapshot)

// Controller runs the Idle/Loading/Success/Error state machine. It is safe
// for concurrent use. Renders are serialized and happen in transition order;
// render may call Snapshot but must not start a transition.
type Controller struct {
	renderMu sync.Mutex
	mu       sync.Mutex
	snap     Snapshot
	render   RenderFunc
}

// NewController returns a controller in the Idle state. render may be nil.
func NewController(render RenderFunc) *Controller {
	return &Controller{render: render}
}

// Snapshot returns the current snapshot.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Begin moves to Loading for a. It returns ErrBusy, without any transition,
// while a is already in flight.
func (c *Controller) Begin(a Action) error {
	return c.transition(func(s *Snapshot) error {
		if s.Disabled(a) {
			return ErrBusy
		}
		s.State = Loading
		s.Action = a
		s.Loading = true
		s.setDisabled(a, true)
		s.ErrorShown = false
		s.ErrorText = ""
		s.Warning = false
		s.DownloadsShown = false
		s.Result = ResultInProgress
		return nil
	})
}

// Succeed completes a with content as the new result area. Download controls
// are revealed only for a successful analysis.
func (c *Controller) Succeed(a Action, content string) {
	c.transition(func(s *Snapshot) error {
		s.finish(a)
		s.State = Success
		s.ErrorShown = false
		s.ErrorText = ""
		s.Warning = false
		s.Result = content
		s.DownloadsShown = a == ActionAnalyze
		return nil
	})
}

// Fail completes a with an error banner showing message.
func (c *Controller) Fail(a Action, message string) {
	c.transition(func(s *Snapshot) error {
		s.finish(a)
		s.showError(message)
		return nil
	})
}

// Warn completes a with a soft warning. It looks like Fail to the user.
func (c *Controller) Warn(a Action, message string) {
	log.Warn().Str("action", a.String()).Str("warning", message).Msg("request finished with warning")
	c.transition(func(s *Snapshot) error {
		s.finish(a)
		s.showError(message)
		s.Warning = true
		return nil
	})
}

// Reject shows an error without any request having been made. Loading and
// disabled flags are left alone.
func (c *Controller) Reject(message string) {
	c.transition(func(s *Snapshot) error {
		prev := s.State
		s.showError(message)
		if s.Loading {
			s.State = prev
		}
		return nil
	})
}

func (c *Controller) transition(apply func(*Snapshot) error) error {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	c.mu.Lock()
	if err := apply(&c.snap); err != nil {
		c.mu.Unlock()
		return err
	}
	snap := c.snap
	c.mu.Unlock()

	log.Debug().
		Str("state", snap.State.String()).
		Str("action", snap.Action.String()).
		Bool("downloads", snap.DownloadsShown).
		Msg("ui transition")

	if c.render != nil {
		c.render(snap)
	}
	return nil
}

func (s *Snapshot) finish(a Action) {
	s.Action = a
	s.setDisabled(a, false)
	s.Loading = s.ExtractDisabled || s.AnalyzeDisabled
}

func (s *Snapshot) showError(message string) {
	s.State = Error
	s.ErrorShown = true
	s.ErrorText = ErrorPrefix + message
	s.Warning = false
	s.Result = ResultFailed
	s.DownloadsShown = false
}

func (s *Snapshot) setDisabled(a Action, v bool) {
	if a == ActionExtract {
		s.ExtractDisabled = v
	} else {
		s.AnalyzeDisabled = v
	}
}
