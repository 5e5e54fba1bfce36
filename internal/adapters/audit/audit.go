package audit

import (
	"SabhaPay/internal/core/domain"
	"SabhaPay/internal/core/ports"
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// NewStatusHandler returns an event handler that writes one audit line per
// KYC status transition. It is wired to domain.TopicKycStatusChanged.
func NewStatusHandler(baseLogger *zerolog.Logger) ports.EventHandler {
	log := baseLogger.With().Str("component", "kyc_audit").Logger()

	return func(ctx context.Context, event ports.Event) error {
		change, ok := event.Data.(domain.StatusChangedEvent)
		if !ok {
			return fmt.Errorf("unexpected payload on %s: %T", event.Topic, event.Data)
		}

		log.Info().
			Str("community_id", change.CommunityID.String()).
			Str("from", string(change.From)).
			Str("to", string(change.To)).
			Str("reason", change.Reason).
			Msg("KYC status changed")
		return nil
	}
}
