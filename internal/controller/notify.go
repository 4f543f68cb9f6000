package controller

import (
	"sync"

	"outmode/internal/mode"
)

// Kind distinguishes confirmations from failures.
type Kind int

const (
	KindSuccess Kind = iota // transient confirmation (HUD)
	KindFailure             // error toast with a diagnostic hint
)

// Notification is a transient message for the user.
type Notification struct {
	Kind    Kind
	Title   string
	Message string
}

// Success builds the confirmation for a switch to the mode described
// by d, e.g. "📋 Rule-Based Proxy".
func Success(d mode.Descriptor) Notification {
	return Notification{Kind: KindSuccess, Title: d.HUD()}
}

// Failure builds an error notification.
func Failure(title, message string) Notification {
	return Notification{Kind: KindFailure, Title: title, Message: message}
}

// Notifier presents notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

// Recorder is a Notifier that keeps every notification.  The
// interactive list uses it to show the latest one.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

// Notify appends n.
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.all = append(r.all, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.all...)
}

// Last returns the latest notification, if any.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Notification{}, false
	}
	return r.all[len(r.all)-1], true
}
