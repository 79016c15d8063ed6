package pos

import (
	"sync"

	"tavolo-pos/internal/cart"
)

// Session owns one terminal's in-progress cart. All cart mutations for a
// session happen under its lock, so each mutation is a discrete state
// transition; nothing within a session can be in flight concurrently.
type Session struct {
	TerminalID string

	mu      sync.Mutex
	cart    cart.Cart
	pending *cart.PendingProduct
}

func newSession(terminalID, orderNumber string) *Session {
	return &Session{
		TerminalID: terminalID,
		cart:       cart.New(orderNumber),
	}
}

func (s *Session) Cart() cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart
}

// Apply runs a pure cart transition and commits the result only on success.
func (s *Session) Apply(fn func(cart.Cart) (cart.Cart, error)) (cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.cart)
	if err != nil {
		return s.cart, err
	}
	s.cart = next
	return s.cart, nil
}

// Replace installs a cart wholesale, discarding prior state. Used by draft
// load and by the clear-after-save paths.
func (s *Session) Replace(c cart.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = c
	s.pending = nil
}

func (s *Session) SetPending(pp cart.PendingProduct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &pp
}

func (s *Session) Pending() (cart.PendingProduct, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return cart.PendingProduct{}, false
	}
	return *s.pending, true
}

func (s *Session) ClearPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}
