package workflow

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/repository"
)

// Persist writes the ticket, follow-up, changes and attachments of res. Run
// it inside Store.WithinTx so they land together.
func Persist(ctx context.Context, store repository.Store, res *UpdateResult) error {
	if err := store.Tickets().Update(ctx, &res.Ticket); err != nil {
		return err
	}
	if err := store.FollowUps().Create(ctx, &res.FollowUp); err != nil {
		return err
	}
	for i := range res.Changes {
		if err := store.Changes().Create(ctx, &res.Changes[i]); err != nil {
			return err
		}
	}
	for i := range res.Files {
		if err := store.Attachments().Create(ctx, &res.Files[i]); err != nil {
			return err
		}
	}
	return nil
}
