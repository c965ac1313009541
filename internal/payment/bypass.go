// Package payment integrates with the Cashfree payment gateway: order
// creation, webhook signature verification and the short-lived bypass
// tokens embedded in post-checkout return URLs.
package payment

import (
	"strconv"
	"strings"
	"time"

	"github.com/interna-ai/assessment-service/internal/utils"
)

// Issuer mints and validates bypass tokens of the form
// "{issuedAtEpochSeconds}_{nonce}". A token is not proof of payment; it
// only proves the holder came through the gateway's success redirect within
// the TTL window, bridging the gap until the webhook lands. Validity is
// purely time-bounded; there is no revocation list, so possession within
// the window is enough by design of the return-URL contract.
type Issuer struct {
	TTL time.Duration

	now func() time.Time // overridable in tests
}

// NewIssuer returns an Issuer with the given validity window.
func NewIssuer(ttl time.Duration) *Issuer {
	return &Issuer{TTL: ttl, now: time.Now}
}

// Issue returns a fresh bypass token.
func (i *Issuer) Issue() (string, error) {
	nonce, err := utils.RandomHex(4) // 8 hex chars of nonce
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(i.now().Unix(), 10) + "_" + nonce, nil
}

// Validate reports whether tok is well-formed and inside the TTL window.
// Malformed input fails closed: garbage, missing nonce, future timestamps
// and empty strings all return false, never an error or panic.
func (i *Issuer) Validate(tok string) bool {
	ts, nonce, ok := strings.Cut(tok, "_")
	if !ok || nonce == "" {
		return false
	}
	issued, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	age := i.now().Unix() - issued
	return age >= 0 && time.Duration(age)*time.Second < i.TTL
}
