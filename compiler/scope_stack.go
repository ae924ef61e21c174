package compiler

import "github.com/pkg/errors"

// scopeStack is a LIFO of open scopes. Unlike a general-purpose stack
// meant to be shared across goroutines, this one carries no lock:
// compilation is single-threaded end to end, so nothing here is ever
// shared across goroutines.
type scopeStack struct {
	s []*scope
}

func newScopeStack() *scopeStack {
	return &scopeStack{s: make([]*scope, 0)}
}

// Push adds a new scope to the top of the stack.
func (s *scopeStack) Push(v *scope) {
	s.s = append(s.s, v)
}

// Pop removes and returns the topmost scope.
func (s *scopeStack) Pop() (*scope, error) {
	l := len(s.s)
	if l == 0 {
		return nil, errors.New("empty scope stack")
	}

	res := s.s[l-1]
	s.s = s.s[:l-1]
	return res, nil
}

// Empty returns true if there are no open scopes.
func (s *scopeStack) Empty() bool {
	return len(s.s) == 0
}

// Top returns the innermost open scope without removing it.
func (s *scopeStack) Top() *scope {
	return s.s[len(s.s)-1]
}

// At returns the scope at index idx, counting from the outermost (0)
// scope, used to unwind a specific enclosing loop scope.
func (s *scopeStack) At(idx int) *scope {
	return s.s[idx]
}

// Len reports how many scopes are currently open.
func (s *scopeStack) Len() int {
	return len(s.s)
}
