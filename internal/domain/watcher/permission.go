package watcher

import (
	"fmt"
	"sync"

	apperrors "github.com/yanqian/stockwatch/pkg/errors"
)

// PermissionState is the notification permission granted by the user.
type PermissionState string

const (
	PermissionUnrequested PermissionState = "unrequested"
	PermissionGranted     PermissionState = "granted"
	PermissionDenied      PermissionState = "denied"
)

// CodePermissionLocked marks a request made after the user already decided.
const CodePermissionLocked = "permission_locked"

// Permission is the notification capability. It moves from unrequested to
// granted or denied only through Request, and never leaves either of those.
type Permission struct {
	mu    sync.RWMutex
	state PermissionState
}

// ParsePermissionState validates a configured state; empty means unrequested.
func ParsePermissionState(raw string) (PermissionState, error) {
	switch PermissionState(raw) {
	case "", PermissionUnrequested:
		return PermissionUnrequested, nil
	case PermissionGranted:
		return PermissionGranted, nil
	case PermissionDenied:
		return PermissionDenied, nil
	default:
		return "", fmt.Errorf("unknown notification permission %q", raw)
	}
}

// NewPermission starts the capability in the given state.
func NewPermission(initial PermissionState) *Permission {
	if initial == "" {
		initial = PermissionUnrequested
	}
	return &Permission{state: initial}
}

// State returns the current state.
func (p *Permission) State() PermissionState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Granted reports whether notifications may be sent.
func (p *Permission) Granted() bool {
	return p.State() == PermissionGranted
}

// Request records the user's decision.
func (p *Permission) Request(grant bool) (PermissionState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != PermissionUnrequested {
		return p.state, apperrors.Wrap(CodePermissionLocked, fmt.Sprintf("notification permission already %s", p.state), nil)
	}
	if grant {
		p.state = PermissionGranted
	} else {
		p.state = PermissionDenied
	}
	return p.state, nil
}
