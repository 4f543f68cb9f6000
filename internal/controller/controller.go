// Package controller keeps the user's view of the daemon's outbound
// mode in sync with the daemon.
//
// A Controller fetches the current mode on activation and applies the
// mode the user picks.  It never renders anything itself: front ends
// read [Controller.Items] and receive feedback through a [Notifier].
//
//	Loading ──fetch ok──▶ Ready(m) ──switch ok──▶ Ready(m')
//	   │                     │
//	   └──fetch failed──▶ Error ◀──switch failed──┘
//
// Error is not terminal: Activate and Switch may be called again.
package controller

import (
	"context"
	"sync"

	omerr "outmode/internal/errors"
	"outmode/internal/mode"
	"outmode/util"
)

// ModeClient is the remote side of the controller.
type ModeClient interface {
	GetOutboundMode(ctx context.Context) (mode.OutboundMode, error)
	ChangeOutboundMode(ctx context.Context, target mode.OutboundMode) error
}

// Phase is the controller's coarse state.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// User-facing failure texts.  An unsupported mode and a transient
// failure produce the same switch message.
const (
	FetchFailedTitle   = "Failed to fetch current mode"
	FetchFailedMessage = "Please check your X-Key and port"
	SwitchFailedTitle  = "Failed to switch mode"
	SwitchFailedHint   = "Please check your X-Key, port and function availability"
)

// SyncState is a snapshot of what the controller believes.
type SyncState struct {
	Current mode.OutboundMode // mode.Unknown until observed
	Loading bool
	Phase   Phase
	Err     error // last failure, nil after a success
}

// Controller owns the SyncState.  Current only ever changes after a
// successful read or a successful write.
type Controller struct {
	client   ModeClient
	notifier Notifier
	logger   *util.Logger

	mu    sync.Mutex
	state SyncState
}

// New returns a controller in the Loading phase with no known mode.
func New(client ModeClient, notifier Notifier, logger *util.Logger) *Controller {
	if logger == nil {
		logger = util.Discard()
	}
	return &Controller{
		client:   client,
		notifier: notifier,
		logger:   logger,
		state:    SyncState{Loading: true, Phase: PhaseLoading},
	}
}

// State returns a copy of the current state.
func (c *Controller) State() SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Activate fetches the current mode.  On failure the previously known
// mode (if any) is kept and a single failure notification is emitted.
func (c *Controller) Activate(ctx context.Context) error {
	c.mu.Lock()
	c.state.Loading = true
	c.state.Phase = PhaseLoading
	c.mu.Unlock()

	m, err := c.client.GetOutboundMode(ctx)

	c.mu.Lock()
	c.state.Loading = false
	if err != nil {
		c.state.Phase = PhaseError
		c.state.Err = err
	} else {
		c.state.Current = m
		c.state.Phase = PhaseReady
		c.state.Err = nil
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("fetch current mode (%s): %v", omerr.Class(err), err)
		if omerr.IsRetryable(err) {
			c.logger.Verbose("failure looks transient; activate again to retry")
		}
		c.notifier.Notify(Failure(FetchFailedTitle, FetchFailedMessage))
		return err
	}
	c.logger.Verbose("current mode: %s", m)
	return nil
}

// Switch asks the daemon to enforce target.  Exactly one notification
// is emitted: a confirmation carrying target's title on success, or a
// failure toast, in which case the current mode is left untouched.
func (c *Controller) Switch(ctx context.Context, target mode.OutboundMode) error {
	err := c.client.ChangeOutboundMode(ctx, target)

	c.mu.Lock()
	if err != nil {
		c.state.Phase = PhaseError
		c.state.Err = err
	} else {
		c.state.Current = target
		c.state.Phase = PhaseReady
		c.state.Err = nil
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Verbose("switch to %s (%s): %v", target, omerr.Class(err), err)
		c.notifier.Notify(Failure(SwitchFailedTitle, SwitchFailedHint))
		return err
	}
	c.logger.Verbose("switched to %s", target)
	c.notifier.Notify(Success(mode.Describe(target)))
	return nil
}

// Item is one row of the mode list.
type Item struct {
	Mode        mode.OutboundMode
	Title       string
	Subtitle    string
	Icon        string
	Glyph       string
	Selected    bool
	ActionTitle string
}

// Items returns one row per known mode in display order, whatever the
// fetch outcome.  Only the current mode's row is selected.
func (c *Controller) Items() []Item {
	current := c.State().Current
	modes := mode.All()
	items := make([]Item, 0, len(modes))
	for _, m := range modes {
		d := mode.Describe(m)
		items = append(items, Item{
			Mode:        m,
			Title:       d.Title,
			Subtitle:    d.Subtitle,
			Icon:        d.Icon,
			Glyph:       d.Glyph,
			Selected:    m == current,
			ActionTitle: "Switch to " + d.Title,
		})
	}
	return items
}
