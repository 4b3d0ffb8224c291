package heatpump

import "sync"

type Snapshot struct {
	Input  Input
	Result Result
}

// Unit holds the live operating point of a control surface and keeps its
// result in step with every accepted change.
type Unit struct {
	mu sync.RWMutex
	s  Snapshot
}

func New(initial Input) (*Unit, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	return &Unit{s: Snapshot{Input: initial, Result: Compute(initial)}}, nil
}

func (u *Unit) Get() Snapshot {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.s
}

func (u *Unit) SetParameter(p Parameter, v float64) error {
	if !p.Valid() {
		return ErrInvalidParameter
	}
	if err := checkValue(p, v); err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	in, err := u.s.Input.WithValue(p, v)
	if err != nil {
		return err
	}
	u.set(in)
	return nil
}

func (u *Unit) SetFeature(f Feature, on bool) error {
	if !f.Valid() {
		return ErrInvalidFeature
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	in, err := u.s.Input.WithFeature(f, on)
	if err != nil {
		return err
	}
	u.set(in)
	return nil
}

// set must be called with mu held.
func (u *Unit) set(in Input) {
	u.s = Snapshot{Input: in, Result: Compute(in)}
}
