package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// NoticeKind distinguishes the user-visible failure categories: a
// transient toast, a configuration error needing administrator
// attention, and the persistent "please reload" raised when the
// resolution attempt ceiling is hit.
type NoticeKind string

const (
	NoticeTransient      NoticeKind = "transient"
	NoticeConfigError    NoticeKind = "config_error"
	NoticeReloadRequired NoticeKind = "reload_required"
)

// Notice is a user-visible notification published by the session core.
// Sticky notices survive a drain and stay until explicitly cleared.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	Sticky  bool       `json:"sticky"`
	At      time.Time  `json:"at"`
}

// Notifier is the sink the controller and resolver publish notices to.
type Notifier interface {
	Notify(notice Notice)
}

// Feed buffers notices for delivery through the session state endpoint.
// Sticky notices are deduplicated by kind and mirrored to Sentry.
type Feed struct {
	mu      sync.Mutex
	notices []Notice
}

var _ Notifier = (*Feed)(nil)

func NewFeed() *Feed {
	return &Feed{}
}

func (f *Feed) Notify(notice Notice) {
	if notice.At.IsZero() {
		notice.At = time.Now()
	}

	if notice.Sticky {
		slog.Error("session notice", "kind", notice.Kind, "message", notice.Message)
		sentry.CaptureMessage(string(notice.Kind) + ": " + notice.Message)
	} else {
		slog.Warn("session notice", "kind", notice.Kind, "message", notice.Message)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if notice.Sticky {
		for i := range f.notices {
			if f.notices[i].Sticky && f.notices[i].Kind == notice.Kind {
				f.notices[i] = notice
				return
			}
		}
	}
	f.notices = append(f.notices, notice)
}

// Drain returns the pending notices. Non-sticky ones are consumed;
// sticky ones remain until cleared.
func (f *Feed) Drain() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Notice, len(f.notices))
	copy(out, f.notices)

	kept := f.notices[:0]
	for _, n := range f.notices {
		if n.Sticky {
			kept = append(kept, n)
		}
	}
	f.notices = kept
	return out
}

// ClearSticky removes sticky notices of the given kind.
func (f *Feed) ClearSticky(kind NoticeKind) {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.notices[:0]
	for _, n := range f.notices {
		if n.Sticky && n.Kind == kind {
			continue
		}
		kept = append(kept, n)
	}
	f.notices = kept
}
