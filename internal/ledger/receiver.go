package ledger

// ReceiverRef identifies the receiving side of a transfer either directly by
// wallet id or indirectly by a beneficiary/recipient email. Exactly one of
// the two fields is set; the engine resolves the reference to a concrete
// wallet before validation so resolution logic lives in one place.
type ReceiverRef struct {
	walletID string
	email    string
}

func ByWalletID(id string) ReceiverRef {
	return ReceiverRef{walletID: id}
}

func ByBeneficiaryEmail(email string) ReceiverRef {
	return ReceiverRef{email: email}
}

func (r ReceiverRef) IsZero() bool {
	return r.walletID == "" && r.email == ""
}
