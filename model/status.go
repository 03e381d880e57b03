package model

// InboundStatus is the lifecycle state of an inbound shipment record.
type InboundStatus string

const (
	InboundPending   InboundStatus = "PENDING"
	InboundConfirmed InboundStatus = "CONFIRMED"
)

// ClaimStatus is the lifecycle state of a claim (withdrawal) record.
type ClaimStatus string

const (
	ClaimClaimed  ClaimStatus = "CLAIMED"
	ClaimCanceled ClaimStatus = "CANCELED"
)

// Cancelling a confirmed inbound returns it to PENDING so it can be
// re-confirmed with a corrected quantity; there is no terminal state.
var inboundTransitions = map[InboundStatus][]InboundStatus{
	InboundPending:   {InboundConfirmed},
	InboundConfirmed: {InboundPending},
}

// A canceled claim is terminal.
var claimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimClaimed:  {ClaimCanceled},
	ClaimCanceled: {},
}

// CanTransition reports whether the transition s → to is allowed.
func (s InboundStatus) CanTransition(to InboundStatus) bool {
	for _, next := range inboundTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known inbound status.
func (s InboundStatus) Valid() bool {
	_, ok := inboundTransitions[s]
	return ok
}

// CanTransition reports whether the transition s → to is allowed.
func (s ClaimStatus) CanTransition(to ClaimStatus) bool {
	for _, next := range claimTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known claim status.
func (s ClaimStatus) Valid() bool {
	_, ok := claimTransitions[s]
	return ok
}
