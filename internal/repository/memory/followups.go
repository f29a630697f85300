package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type followUpRepo struct{ s *Store }

func (r followUpRepo) Create(_ context.Context, fu *domain.FollowUp) error {
	defer r.s.lock()()
	stored := *fu
	stored.Changes, stored.Attachments = nil, nil
	r.s.root.followUps[fu.ID] = stored
	r.s.root.order(fu.ID)
	return nil
}

func (r followUpRepo) Update(_ context.Context, fu *domain.FollowUp) error {
	defer r.s.lock()()
	cur, ok := r.s.root.followUps[fu.ID]
	if !ok {
		return notFound("follow-up", fu.ID)
	}
	cur.Title, cur.Comment, cur.Public, cur.NewStatus = fu.Title, fu.Comment, fu.Public, fu.NewStatus
	r.s.root.followUps[fu.ID] = cur
	return nil
}

func (r followUpRepo) GetByID(_ context.Context, id string) (*domain.FollowUp, error) {
	defer r.s.lock()()
	fu, ok := r.s.root.followUps[id]
	if !ok {
		return nil, notFound("follow-up", id)
	}
	return &fu, nil
}

func (r followUpRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.FollowUp, error) {
	defer r.s.lock()()
	var out []domain.FollowUp
	for _, fu := range r.s.root.followUps {
		if fu.TicketID == ticketID {
			out = append(out, fu)
		}
	}
	seq := r.s.root.seq
	sort.Slice(out, func(i, j int) bool { return seq[out[i].ID] < seq[out[j].ID] })
	return out, nil
}

func (r followUpRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	if _, ok := r.s.root.followUps[id]; !ok {
		return notFound("follow-up", id)
	}
	r.s.root.deleteFollowUp(id)
	return nil
}

type changeRepo struct{ s *Store }

func (r changeRepo) Create(_ context.Context, c *domain.TicketChange) error {
	defer r.s.lock()()
	if _, ok := r.s.root.followUps[c.FollowUpID]; !ok {
		return notFound("follow-up", c.FollowUpID)
	}
	r.s.root.changes[c.ID] = *c
	r.s.root.order(c.ID)
	return nil
}

func (r changeRepo) ListByFollowUp(_ context.Context, followUpID string) ([]domain.TicketChange, error) {
	defer r.s.lock()()
	var out []domain.TicketChange
	for _, c := range r.s.root.changes {
		if c.FollowUpID == followUpID {
			out = append(out, c)
		}
	}
	seq := r.s.root.seq
	sort.Slice(out, func(i, j int) bool { return seq[out[i].ID] < seq[out[j].ID] })
	return out, nil
}

type attachmentRepo struct{ s *Store }

func (r attachmentRepo) Create(_ context.Context, a *domain.Attachment) error {
	defer r.s.lock()()
	if _, ok := r.s.root.followUps[a.FollowUpID]; !ok {
		return notFound("follow-up", a.FollowUpID)
	}
	r.s.root.attachments[a.ID] = *a
	return nil
}

func (r attachmentRepo) GetByID(_ context.Context, id string) (*domain.Attachment, error) {
	defer r.s.lock()()
	a, ok := r.s.root.attachments[id]
	if !ok {
		return nil, notFound("attachment", id)
	}
	return &a, nil
}

func (r attachmentRepo) ListByFollowUp(_ context.Context, followUpID string) ([]domain.Attachment, error) {
	defer r.s.lock()()
	var out []domain.Attachment
	for _, a := range r.s.root.attachments {
		if a.FollowUpID == followUpID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r attachmentRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	if _, ok := r.s.root.attachments[id]; !ok {
		return notFound("attachment", id)
	}
	delete(r.s.root.attachments, id)
	return nil
}
