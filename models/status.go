package models

const (
	TenderOpen        = "open"
	TenderClosed      = "closed"
	TenderUnderReview = "under_review"
	TenderAwarded     = "awarded"
	TenderCancelled   = "cancelled"
)

const (
	VendorPending   = "pending"
	VendorApproved  = "approved"
	VendorSuspended = "suspended"
	VendorDebarred  = "debarred"
)

const (
	BidDraft        = "draft"
	BidSubmitted    = "submitted"
	BidPassed       = "passed"
	BidDisqualified = "disqualified"
	BidManualReview = "manual_review"
	BidScored       = "scored"
	BidAwarded      = "awarded"
	BidRejected     = "rejected"
)

const (
	CompliancePending = "pending"
	CompliancePassed  = "passed"
	ComplianceFailed  = "failed"
	ComplianceFlagged = "flagged"
)

const (
	SigningPending   = "pending"
	SigningSLAReview = "sla_review"
	SigningSigned    = "signed"
	SigningDeclined  = "declined"
)

const (
	DebarmentNone   = "none"
	DebarmentListed = "listed"
)

const (
	DecisionApproved = "Approved"
	DecisionRejected = "Rejected"
)

var tenderTransitions = map[string][]string{
	TenderOpen:        {TenderClosed, TenderCancelled},
	TenderClosed:      {TenderUnderReview, TenderCancelled},
	TenderUnderReview: {TenderAwarded, TenderCancelled},
}

var vendorTransitions = map[string][]string{
	VendorPending:   {VendorApproved, VendorDebarred},
	VendorApproved:  {VendorSuspended, VendorDebarred},
	VendorSuspended: {VendorApproved, VendorDebarred},
}

var bidTransitions = map[string][]string{
	BidDraft:        {BidSubmitted},
	BidSubmitted:    {BidPassed, BidDisqualified},
	BidPassed:       {BidManualReview, BidScored},
	BidManualReview: {BidScored, BidRejected},
	BidScored:       {BidAwarded, BidRejected, BidManualReview},
}

var signingTransitions = map[string][]string{
	SigningPending:   {SigningSLAReview, SigningDeclined},
	SigningSLAReview: {SigningSigned, SigningDeclined},
}

// CanTransitionTender сообщает, допустим ли переход статуса тендера.
func CanTransitionTender(from, to string) bool {
	return allowed(tenderTransitions, from, to)
}

func CanTransitionVendor(from, to string) bool {
	return allowed(vendorTransitions, from, to)
}

func CanTransitionBid(from, to string) bool {
	return allowed(bidTransitions, from, to)
}

func CanTransitionSigning(from, to string) bool {
	return allowed(signingTransitions, from, to)
}

// IsTerminalTender: awarded и cancelled менять нельзя.
func IsTerminalTender(status string) bool {
	return status == TenderAwarded || status == TenderCancelled
}

func allowed(table map[string][]string, from, to string) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}
