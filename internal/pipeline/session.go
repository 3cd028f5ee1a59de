package pipeline

import (
	"time"

	"github.com/molscope/molscope/internal/lod"
	"github.com/molscope/molscope/internal/lod/synth"
	"github.com/molscope/molscope/pkg/molecule"
)

// SessionState tracks where a load session sits in its progressive
// sequence. The three middle states name the tier currently being
// synthesized, not the one on screen.
type SessionState uint8

const (
	StateIdle SessionState = iota
	StatePreviewing
	StateInteractive
	StateFull
	StateSettled
	StateCancelled
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreviewing:
		return "previewing"
	case StateInteractive:
		return "interactive"
	case StateFull:
		return "full"
	case StateSettled:
		return "settled"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func stateForTier(t lod.Tier) SessionState {
	switch t {
	case lod.Interactive:
		return StateInteractive
	case lod.Full:
		return StateFull
	default:
		return StatePreviewing
	}
}

// SettleReason records why a session stopped advancing.
type SettleReason uint8

const (
	SettleNone SettleReason = iota
	// SettleComplete means the finest tier was delivered.
	SettleComplete
	// SettleQuality means the quality target sat below the next tier.
	SettleQuality
	// SettleBudget means the next tier did not fit the memory budget.
	SettleBudget
	// SettleError means a stage failed and the session froze at the
	// last good tier.
	SettleError
)

func (r SettleReason) String() string {
	switch r {
	case SettleComplete:
		return "complete"
	case SettleQuality:
		return "quality"
	case SettleBudget:
		return "budget"
	case SettleError:
		return "error"
	default:
		return "none"
	}
}

// Session is the handle for one progressive load. All fields are guarded
// by the owning orchestrator; read them through Info.
type Session struct {
	o *Orchestrator

	id        uint64
	structure *molecule.Structure
	scheme    synth.Scheme
	desc      lod.Descriptor

	startTier lod.Tier
	ceiling   lod.Tier
	state     SessionState
	tier      lod.Tier // last delivered tier, zero before the first lands
	reason    SettleReason
	resident  int64
	overruns  int
	err       error
	started   time.Time
}

// ID returns the session id. Ids increase monotonically across loads.
func (s *Session) ID() uint64 { return s.id }

func (s *Session) terminal() bool {
	return s.state == StateSettled || s.state == StateCancelled
}

// SessionInfo is a point-in-time snapshot of a session.
type SessionInfo struct {
	ID         uint64
	State      SessionState
	Tier       lod.Tier
	StartTier  lod.Tier
	Ceiling    lod.Tier
	Reason     SettleReason
	Descriptor lod.Descriptor
	// ResidentBytes is the footprint of the last delivered buffer.
	ResidentBytes int64
	// Overruns counts stages that blew well past their time budget.
	Overruns int
	Err      error
}

// Info snapshots the session under the orchestrator's lock.
func (s *Session) Info() SessionInfo {
	s.o.mu.Lock()
	defer s.o.mu.Unlock()
	return SessionInfo{
		ID:            s.id,
		State:         s.state,
		Tier:          s.tier,
		StartTier:     s.startTier,
		Ceiling:       s.ceiling,
		Reason:        s.reason,
		Descriptor:    s.desc,
		ResidentBytes: s.resident,
		Overruns:      s.overruns,
		Err:           s.err,
	}
}
