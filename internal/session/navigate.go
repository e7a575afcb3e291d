package session

import "sync"

// LoginPath is where forced navigation lands after sign-out.
const LoginPath = "/auth/login"

// Navigator performs the hard, full-page navigation the controller
// requests on sign-out. Kept separate from in-app routing so the
// request itself can be asserted on.
type Navigator interface {
	ForceNavigate(path string)
}

// RedirectNavigator records the requested target; the HTTP layer turns
// it into a redirect instruction for the client.
type RedirectNavigator struct {
	mu     sync.Mutex
	target string
}

var _ Navigator = (*RedirectNavigator)(nil)

func NewRedirectNavigator() *RedirectNavigator {
	return &RedirectNavigator{}
}

func (n *RedirectNavigator) ForceNavigate(path string) {
	n.mu.Lock()
	n.target = path
	n.mu.Unlock()
}

// Consume returns and clears the pending target, or "".
func (n *RedirectNavigator) Consume() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	target := n.target
	n.target = ""
	return target
}
