package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type ccRepo struct{ s *Store }

func (r ccRepo) Create(_ context.Context, cc *domain.TicketCC) error {
	defer r.s.lock()()
	if _, ok := r.s.root.tickets[cc.TicketID]; !ok {
		return notFound("ticket", cc.TicketID)
	}
	stored := *cc
	stored.Username, stored.UserEmail = "", ""
	r.s.root.ccs[cc.ID] = stored
	r.s.root.order(cc.ID)
	return nil
}

// hydrate fills the user columns the Postgres repository gets from a join.
func (r ccRepo) hydrate(cc domain.TicketCC) domain.TicketCC {
	if cc.UserID != nil {
		if u, ok := r.s.root.users[*cc.UserID]; ok {
			cc.Username, cc.UserEmail = u.Username, u.Email
		}
	}
	return cc
}

func (r ccRepo) GetByID(_ context.Context, id string) (*domain.TicketCC, error) {
	defer r.s.lock()()
	cc, ok := r.s.root.ccs[id]
	if !ok {
		return nil, notFound("cc", id)
	}
	cc = r.hydrate(cc)
	return &cc, nil
}

func (r ccRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketCC, error) {
	defer r.s.lock()()
	var out []domain.TicketCC
	for _, cc := range r.s.root.ccs {
		if cc.TicketID == ticketID {
			out = append(out, r.hydrate(cc))
		}
	}
	seq := r.s.root.seq
	sort.Slice(out, func(i, j int) bool { return seq[out[i].ID] < seq[out[j].ID] })
	return out, nil
}

func (r ccRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	if _, ok := r.s.root.ccs[id]; !ok {
		return notFound("cc", id)
	}
	delete(r.s.root.ccs, id)
	return nil
}

type dependencyRepo struct{ s *Store }

func (r dependencyRepo) Create(_ context.Context, dep *domain.TicketDependency) error {
	defer r.s.lock()()
	for _, existing := range r.s.root.dependencies {
		if existing.TicketID == dep.TicketID && existing.DependsOnID == dep.DependsOnID {
			return nil
		}
	}
	r.s.root.dependencies[dep.ID] = *dep
	r.s.root.order(dep.ID)
	return nil
}

func (r dependencyRepo) GetByID(_ context.Context, id string) (*domain.TicketDependency, error) {
	defer r.s.lock()()
	dep, ok := r.s.root.dependencies[id]
	if !ok {
		return nil, notFound("dependency", id)
	}
	return &dep, nil
}

func (r dependencyRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketDependency, error) {
	defer r.s.lock()()
	var out []domain.TicketDependency
	for _, dep := range r.s.root.dependencies {
		if dep.TicketID == ticketID {
			out = append(out, dep)
		}
	}
	seq := r.s.root.seq
	sort.Slice(out, func(i, j int) bool { return seq[out[i].ID] < seq[out[j].ID] })
	return out, nil
}

func (r dependencyRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	if _, ok := r.s.root.dependencies[id]; !ok {
		return notFound("dependency", id)
	}
	delete(r.s.root.dependencies, id)
	return nil
}

type savedSearchRepo struct{ s *Store }

func (r savedSearchRepo) Create(_ context.Context, search *domain.SavedSearch) error {
	defer r.s.lock()()
	r.s.root.savedSearches[search.ID] = *search
	return nil
}

func (r savedSearchRepo) Update(_ context.Context, search *domain.SavedSearch) error {
	defer r.s.lock()()
	cur, ok := r.s.root.savedSearches[search.ID]
	if !ok {
		return notFound("saved search", search.ID)
	}
	cur.Title, cur.Shared, cur.Query = search.Title, search.Shared, search.Query
	r.s.root.savedSearches[search.ID] = cur
	return nil
}

func (r savedSearchRepo) GetByID(_ context.Context, id string) (*domain.SavedSearch, error) {
	defer r.s.lock()()
	s, ok := r.s.root.savedSearches[id]
	if !ok {
		return nil, notFound("saved search", id)
	}
	return &s, nil
}

func (r savedSearchRepo) ListVisible(_ context.Context, userID string) ([]domain.SavedSearch, error) {
	defer r.s.lock()()
	var out []domain.SavedSearch
	for _, s := range r.s.root.savedSearches {
		if s.UserID == userID || s.Shared {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r savedSearchRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	if _, ok := r.s.root.savedSearches[id]; !ok {
		return notFound("saved search", id)
	}
	delete(r.s.root.savedSearches, id)
	return nil
}

type timeTrackRepo struct{ s *Store }

func (r timeTrackRepo) Create(_ context.Context, t *domain.TimeTrack) error {
	defer r.s.lock()()
	r.s.root.timeTracks[t.ID] = *t
	return nil
}

func (r timeTrackRepo) Update(_ context.Context, t *domain.TimeTrack) error {
	defer r.s.lock()()
	if _, ok := r.s.root.timeTracks[t.ID]; !ok {
		return notFound("time track", t.ID)
	}
	r.s.root.timeTracks[t.ID] = *t
	return nil
}

func (r timeTrackRepo) GetByID(_ context.Context, id string) (*domain.TimeTrack, error) {
	defer r.s.lock()()
	t, ok := r.s.root.timeTracks[id]
	if !ok {
		return nil, notFound("time track", id)
	}
	return &t, nil
}

func (r timeTrackRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TimeTrack, error) {
	defer r.s.lock()()
	var out []domain.TimeTrack
	for _, t := range r.s.root.timeTracks {
		if t.TicketID == ticketID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrackedAt.Before(out[j].TrackedAt) })
	return out, nil
}

func (r timeTrackRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	if _, ok := r.s.root.timeTracks[id]; !ok {
		return notFound("time track", id)
	}
	delete(r.s.root.timeTracks, id)
	return nil
}

type moneyTrackRepo struct{ s *Store }

func (r moneyTrackRepo) Create(_ context.Context, m *domain.MoneyTrack) error {
	defer r.s.lock()()
	r.s.root.moneyTracks[m.ID] = *m
	return nil
}

func (r moneyTrackRepo) Update(_ context.Context, m *domain.MoneyTrack) error {
	defer r.s.lock()()
	if _, ok := r.s.root.moneyTracks[m.ID]; !ok {
		return notFound("money track", m.ID)
	}
	r.s.root.moneyTracks[m.ID] = *m
	return nil
}

func (r moneyTrackRepo) GetByID(_ context.Context, id string) (*domain.MoneyTrack, error) {
	defer r.s.lock()()
	m, ok := r.s.root.moneyTracks[id]
	if !ok {
		return nil, notFound("money track", id)
	}
	return &m, nil
}

func (r moneyTrackRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.MoneyTrack, error) {
	defer r.s.lock()()
	var out []domain.MoneyTrack
	for _, m := range r.s.root.moneyTracks {
		if m.TicketID == ticketID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrackedAt.Before(out[j].TrackedAt) })
	return out, nil
}

func (r moneyTrackRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	if _, ok := r.s.root.moneyTracks[id]; !ok {
		return notFound("money track", id)
	}
	delete(r.s.root.moneyTracks, id)
	return nil
}
