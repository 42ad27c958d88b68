package control

import "sync"

// MockInjector records injected actions for testing and dry runs.
type MockInjector struct {
	mu      sync.Mutex
	actions []Action
	failOn  ActionKind
	err     error
}

// NewMockInjector creates an empty MockInjector.
func NewMockInjector() *MockInjector {
	return &MockInjector{}
}

// FailOn makes the next injection of kind return err. Other kinds keep
// succeeding.
func (m *MockInjector) FailOn(kind ActionKind, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn = kind
	m.err = err
}

// Inject implements Injector.
func (m *MockInjector) Inject(a Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil && a.Kind == m.failOn {
		err := m.err
		m.err = nil
		return err
	}
	m.actions = append(m.actions, a)
	return nil
}

// Actions returns a copy of the recorded actions.
func (m *MockInjector) Actions() []Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Action, len(m.actions))
	copy(out, m.actions)
	return out
}

// Count returns how many recorded actions have the given kind.
func (m *MockInjector) Count(kind ActionKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Reset clears the recorded actions.
func (m *MockInjector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = nil
}
