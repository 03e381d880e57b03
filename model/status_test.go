package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInboundTransitions(t *testing.T) {
	assert.True(t, InboundPending.CanTransition(InboundConfirmed))
	assert.True(t, InboundConfirmed.CanTransition(InboundPending))
	assert.False(t, InboundPending.CanTransition(InboundPending))
	assert.False(t, InboundConfirmed.CanTransition(InboundConfirmed))
}

func TestClaimTransitions(t *testing.T) {
	assert.True(t, ClaimClaimed.CanTransition(ClaimCanceled))
	assert.False(t, ClaimCanceled.CanTransition(ClaimClaimed))
	assert.False(t, ClaimCanceled.CanTransition(ClaimCanceled))
}

func TestStatusValid(t *testing.T) {
	assert.True(t, InboundPending.Valid())
	assert.True(t, InboundConfirmed.Valid())
	assert.False(t, InboundStatus("SHIPPED").Valid())

	assert.True(t, ClaimClaimed.Valid())
	assert.True(t, ClaimCanceled.Valid())
	assert.False(t, ClaimStatus("OPEN").Valid())
}
