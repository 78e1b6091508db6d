package domain

import "fmt"

// Actor is the role attempting a transition. It is distinct from the
// record owner: an admin acts on records they do not own.
type Actor string

const (
	ActorUser   Actor = "USER"
	ActorAdmin  Actor = "ADMIN"
	ActorSystem Actor = "SYSTEM"
)

// AllActors lists every actor role.
var AllActors = []Actor{ActorUser, ActorAdmin, ActorSystem}

// TransitionErrorKind discriminates the ways a transition can be illegal.
type TransitionErrorKind string

const (
	SameStatus         TransitionErrorKind = "same_status"
	UnknownStatus      TransitionErrorKind = "unknown_status"
	IllegalDestination TransitionErrorKind = "illegal_destination"
	ActorNotPermitted  TransitionErrorKind = "actor_not_permitted"
)

// TransitionError reports exactly one reason a transition was refused.
type TransitionError struct {
	Kind  TransitionErrorKind
	From  VerificationStatus
	To    VerificationStatus
	Actor Actor
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s by %s: %s", e.From, e.To, e.Actor, e.Kind)
}

// transitionRule pairs the legal destinations out of a status with the
// actor roles allowed to request any transition out of it. The role is
// checked against the union; the destination against the set. Both must hold.
type transitionRule struct {
	to     map[VerificationStatus]struct{}
	actors map[Actor]struct{}
}

func statuses(ss ...VerificationStatus) map[VerificationStatus]struct{} {
	m := make(map[VerificationStatus]struct{}, len(ss))
	for _, s := range ss {
		m[s] = struct{}{}
	}
	return m
}

func actors(aa ...Actor) map[Actor]struct{} {
	m := make(map[Actor]struct{}, len(aa))
	for _, a := range aa {
		m[a] = struct{}{}
	}
	return m
}

// transitionTable is the whole legal state graph. REVOKED and
// PERMANENTLY_BANNED have no entry: they are terminal.
var transitionTable = map[VerificationStatus]transitionRule{
	StatusDraft: {
		to:     statuses(StatusPendingReview, StatusAbandoned),
		actors: actors(ActorUser, ActorSystem),
	},
	StatusPendingReview: {
		// A user can never self-approve.
		to:     statuses(StatusApproved, StatusRejected, StatusNeedsMoreInfo, StatusUnderInvestigation),
		actors: actors(ActorAdmin),
	},
	StatusApproved: {
		// System drives expiry.
		to:     statuses(StatusSuspended, StatusExpired, StatusRevoked),
		actors: actors(ActorAdmin, ActorSystem),
	},
	StatusRejected: {
		// Reapplication. The cooldown gating this lives with the caller,
		// not in the table.
		to:     statuses(StatusPendingReview),
		actors: actors(ActorUser),
	},
	StatusNeedsMoreInfo: {
		to:     statuses(StatusPendingReview, StatusAbandoned),
		actors: actors(ActorUser, ActorSystem),
	},
	StatusUnderInvestigation: {
		to:     statuses(StatusApproved, StatusRejected, StatusPermanentlyBanned),
		actors: actors(ActorAdmin),
	},
	StatusSuspended: {
		to:     statuses(StatusApproved, StatusRevoked),
		actors: actors(ActorAdmin),
	},
	StatusExpired: {
		to:     statuses(StatusPendingReview),
		actors: actors(ActorUser),
	},
	StatusAbandoned: {
		to:     statuses(StatusDraft),
		actors: actors(ActorUser),
	},
}

// CanTransition reports whether the edge from -> to is legal for the actor.
func CanTransition(from, to VerificationStatus, actor Actor) bool {
	return ValidateTransition(from, to, actor) == nil
}

// NextStatuses returns the set of statuses the actor may move the record
// to from the given status. Terminal statuses yield an empty set for
// every actor.
func NextStatuses(from VerificationStatus, actor Actor) []VerificationStatus {
	rule, ok := transitionTable[from]
	if !ok {
		return nil
	}
	if _, ok := rule.actors[actor]; !ok {
		return nil
	}
	// Iterate AllStatuses so the order is stable.
	var out []VerificationStatus
	for _, s := range AllStatuses {
		if _, ok := rule.to[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// IsTerminal reports whether the status has no outgoing edges.
func IsTerminal(s VerificationStatus) bool {
	_, ok := transitionTable[s]
	return !ok
}

// ValidateTransition returns nil when the transition is legal, otherwise
// a TransitionError with exactly one Kind. The checks are ordered:
// same-status first, then table presence, then destination, then actor.
func ValidateTransition(from, to VerificationStatus, actor Actor) *TransitionError {
	if from == to {
		return &TransitionError{Kind: SameStatus, From: from, To: to, Actor: actor}
	}
	rule, ok := transitionTable[from]
	if !ok {
		return &TransitionError{Kind: UnknownStatus, From: from, To: to, Actor: actor}
	}
	if _, ok := rule.to[to]; !ok {
		return &TransitionError{Kind: IllegalDestination, From: from, To: to, Actor: actor}
	}
	if _, ok := rule.actors[actor]; !ok {
		return &TransitionError{Kind: ActorNotPermitted, From: from, To: to, Actor: actor}
	}
	return nil
}

// AdminAction is the human-facing name of a review decision.
type AdminAction string

const (
	ActionApprove        AdminAction = "APPROVE"
	ActionReject         AdminAction = "REJECT"
	ActionNeedsMoreInfo  AdminAction = "NEEDS_MORE_INFO"
	ActionInvestigate    AdminAction = "INVESTIGATE"
	ActionSuspend        AdminAction = "SUSPEND"
	ActionRevoke         AdminAction = "REVOKE"
	ActionBan            AdminAction = "BAN"
	ActionLiftSuspension AdminAction = "LIFT_SUSPENSION"
)

// ActionToStatus maps an admin action to its target status. APPROVE and
// LIFT_SUSPENSION both land on APPROVED but are legal from different
// source statuses, so callers must still run ValidateTransition.
func ActionToStatus(action AdminAction) (VerificationStatus, bool) {
	switch action {
	case ActionApprove, ActionLiftSuspension:
		return StatusApproved, true
	case ActionReject:
		return StatusRejected, true
	case ActionNeedsMoreInfo:
		return StatusNeedsMoreInfo, true
	case ActionInvestigate:
		return StatusUnderInvestigation, true
	case ActionSuspend:
		return StatusSuspended, true
	case ActionRevoke:
		return StatusRevoked, true
	case ActionBan:
		return StatusPermanentlyBanned, true
	default:
		return "", false
	}
}
