package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusRules_Next(t *testing.T) {
	rules := DefaultStatusRules()

	t.Run("approves at thresholds with evidence", func(t *testing.T) {
		got := rules.Next(StatusPending, 6, 4, 1)
		assert.Equal(t, StatusApproved, got)
	})

	t.Run("stays pending without evidence", func(t *testing.T) {
		got := rules.Next(StatusPending, 10, 5, 0)
		assert.Equal(t, StatusPending, got)
	})

	t.Run("stays pending below voter minimum", func(t *testing.T) {
		got := rules.Next(StatusPending, 9, 3, 2)
		assert.Equal(t, StatusPending, got)
	})

	t.Run("stays pending below score threshold", func(t *testing.T) {
		got := rules.Next(StatusPending, 5, 4, 1)
		assert.Equal(t, StatusPending, got)
	})

	t.Run("rejects at negative threshold", func(t *testing.T) {
		got := rules.Next(StatusPending, -6, 4, 0)
		assert.Equal(t, StatusRejected, got)
	})

	t.Run("rejection needs voter minimum too", func(t *testing.T) {
		got := rules.Next(StatusPending, -9, 3, 0)
		assert.Equal(t, StatusPending, got)
	})

	t.Run("approval wins when both thresholds somehow hold", func(t *testing.T) {
		loose := StatusRules{ApproveScore: 0, RejectScore: 0, MinVoters: 1, MinEvidence: 0}
		got := loose.Next(StatusPending, 0, 1, 0)
		assert.Equal(t, StatusApproved, got)
	})

	t.Run("approved claim can flip to rejected", func(t *testing.T) {
		got := rules.Next(StatusApproved, -7, 6, 1)
		assert.Equal(t, StatusRejected, got)
	})

	t.Run("rejected claim can flip back to approved", func(t *testing.T) {
		got := rules.Next(StatusRejected, 8, 6, 1)
		assert.Equal(t, StatusApproved, got)
	})

	t.Run("never returns to pending", func(t *testing.T) {
		got := rules.Next(StatusApproved, 0, 4, 1)
		assert.Equal(t, StatusApproved, got)

		got = rules.Next(StatusRejected, 0, 4, 1)
		assert.Equal(t, StatusRejected, got)
	})
}
