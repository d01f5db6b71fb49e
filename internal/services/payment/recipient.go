package payment

import (
	"context"
	"fmt"
	"strings"

	"kobo/internal/gateway"

	"github.com/google/uuid"
)

// Gateway recipient types.
const (
	recipientTypeMobileMoney = "mobile_money"
	recipientTypePseudo      = "pseudo_account"
)

// pseudoAccountNamespace seeds deterministic pseudo-account ids for
// counterparties addressed by email. Changing it orphans existing recipients.
var pseudoAccountNamespace = uuid.MustParse("7c9e2f1a-54bd-4c8e-9f3a-2b1d6e8a0c47")

// resolveRecipient registers the transfer counterparty with the gateway and
// returns its recipient code. Phone counterparties become mobile-money
// recipients; everyone else gets a synthesized pseudo-account identifier that
// is deterministic for the same address, so repeated transfers reuse the same
// gateway-side recipient.
func (s *service) resolveRecipient(ctx context.Context, req PeerTransferRequest) (string, error) {
	var grReq gateway.RecipientRequest
	switch {
	case req.RecipientPhone != "":
		grReq = gateway.RecipientRequest{
			Type:          recipientTypeMobileMoney,
			Name:          req.RecipientName,
			AccountNumber: req.RecipientPhone,
			BankCode:      req.RecipientProvider,
			Currency:      s.config.Currency,
		}
	case req.RecipientEmail != "":
		grReq = gateway.RecipientRequest{
			Type:          recipientTypePseudo,
			Name:          req.RecipientName,
			AccountNumber: pseudoAccountID(req.RecipientEmail),
			Currency:      s.config.Currency,
		}
	default:
		return "", fmt.Errorf("%w: transfer recipient requires a phone or email", ErrInvalidRequest)
	}

	code, err := s.gw.CreateTransferRecipient(ctx, grReq)
	if err != nil {
		return "", fmt.Errorf("resolve recipient: %w", err)
	}
	return code, nil
}

// pseudoAccountID derives a stable account identifier from an address.
func pseudoAccountID(identifier string) string {
	normalized := strings.ToLower(strings.TrimSpace(identifier))
	id := uuid.NewSHA1(pseudoAccountNamespace, []byte(normalized))
	return "KP" + strings.ReplaceAll(id.String(), "-", "")[:16]
}
