package models_test

import (
	"testing"

	"procurement/models"

	"github.com/stretchr/testify/require"
)

func TestTenderTransitions(t *testing.T) {
	require.True(t, models.CanTransitionTender(models.TenderOpen, models.TenderClosed))
	require.True(t, models.CanTransitionTender(models.TenderClosed, models.TenderUnderReview))
	require.True(t, models.CanTransitionTender(models.TenderUnderReview, models.TenderAwarded))
	require.True(t, models.CanTransitionTender(models.TenderOpen, models.TenderCancelled))

	require.False(t, models.CanTransitionTender(models.TenderOpen, models.TenderAwarded))
	require.False(t, models.CanTransitionTender(models.TenderAwarded, models.TenderOpen))
	require.False(t, models.CanTransitionTender(models.TenderCancelled, models.TenderOpen))
	require.False(t, models.CanTransitionTender("unknown", models.TenderOpen))
}

func TestBidTransitions(t *testing.T) {
	path := []string{
		models.BidDraft,
		models.BidSubmitted,
		models.BidPassed,
		models.BidManualReview,
		models.BidScored,
		models.BidAwarded,
	}
	for i := 0; i < len(path)-1; i++ {
		require.Truef(t, models.CanTransitionBid(path[i], path[i+1]), "%s -> %s", path[i], path[i+1])
	}

	require.False(t, models.CanTransitionBid(models.BidDraft, models.BidScored))
	require.False(t, models.CanTransitionBid(models.BidDisqualified, models.BidPassed))
	require.False(t, models.CanTransitionBid(models.BidAwarded, models.BidRejected))
}

func TestSigningTransitions(t *testing.T) {
	require.True(t, models.CanTransitionSigning(models.SigningPending, models.SigningSLAReview))
	require.True(t, models.CanTransitionSigning(models.SigningSLAReview, models.SigningSigned))
	require.True(t, models.CanTransitionSigning(models.SigningPending, models.SigningDeclined))
	require.False(t, models.CanTransitionSigning(models.SigningPending, models.SigningSigned))
	require.False(t, models.CanTransitionSigning(models.SigningSigned, models.SigningDeclined))
}

func TestVendorTransitions(t *testing.T) {
	require.True(t, models.CanTransitionVendor(models.VendorPending, models.VendorApproved))
	require.True(t, models.CanTransitionVendor(models.VendorSuspended, models.VendorApproved))
	require.False(t, models.CanTransitionVendor(models.VendorDebarred, models.VendorApproved))
	require.True(t, models.IsTerminalTender(models.TenderCancelled))
	require.False(t, models.IsTerminalTender(models.TenderUnderReview))
}
