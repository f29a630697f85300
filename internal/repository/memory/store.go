// Package memory implements repository.Store in process memory. It backs the
// service when no Postgres DSN is configured and is used throughout tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

type data struct {
	tickets       map[string]domain.Ticket
	queues        map[string]domain.Queue
	users         map[string]domain.User
	followUps     map[string]domain.FollowUp
	changes       map[string]domain.TicketChange
	attachments   map[string]domain.Attachment
	ccs           map[string]domain.TicketCC
	dependencies  map[string]domain.TicketDependency
	savedSearches map[string]domain.SavedSearch
	timeTracks    map[string]domain.TimeTrack
	moneyTracks   map[string]domain.MoneyTrack
	// seq preserves insertion order for follow-ups and changes.
	seq   map[string]int64
	nextS int64
}

func newData() *data {
	return &data{
		tickets:       map[string]domain.Ticket{},
		queues:        map[string]domain.Queue{},
		users:         map[string]domain.User{},
		followUps:     map[string]domain.FollowUp{},
		changes:       map[string]domain.TicketChange{},
		attachments:   map[string]domain.Attachment{},
		ccs:           map[string]domain.TicketCC{},
		dependencies:  map[string]domain.TicketDependency{},
		savedSearches: map[string]domain.SavedSearch{},
		timeTracks:    map[string]domain.TimeTrack{},
		moneyTracks:   map[string]domain.MoneyTrack{},
		seq:           map[string]int64{},
	}
}

func (d *data) clone() *data {
	c := &data{
		tickets:       copyMap(d.tickets),
		queues:        copyMap(d.queues),
		users:         copyMap(d.users),
		followUps:     copyMap(d.followUps),
		changes:       copyMap(d.changes),
		attachments:   copyMap(d.attachments),
		ccs:           copyMap(d.ccs),
		dependencies:  copyMap(d.dependencies),
		savedSearches: copyMap(d.savedSearches),
		timeTracks:    copyMap(d.timeTracks),
		moneyTracks:   copyMap(d.moneyTracks),
		seq:           copyMap(d.seq),
		nextS:         d.nextS,
	}
	return c
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (d *data) order(id string) {
	d.nextS++
	d.seq[id] = d.nextS
}

// Store is an in-memory repository.Store. Writes inside WithinTx are rolled
// back when the callback fails.
type Store struct {
	mu   *sync.Mutex
	root *data
	inTx bool
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, root: newData()}
}

var _ repository.Store = (*Store)(nil)

// lock is a no-op inside a transaction, where the outer call already holds mu.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.root.clone()
	tx := &Store{mu: s.mu, root: s.root, inTx: true}
	if err := fn(tx); err != nil {
		*s.root = *snapshot
		return err
	}
	return nil
}

func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }
func (s *Store) Queues() repository.QueueRepository { return queueRepo{s} }
func (s *Store) Users() repository.UserRepository { return userRepo{s} }
func (s *Store) FollowUps() repository.FollowUpRepository { return followUpRepo{s} }
func (s *Store) Changes() repository.TicketChangeRepository { return changeRepo{s} }
func (s *Store) Attachments() repository.AttachmentRepository { return attachmentRepo{s} }
func (s *Store) CCs() repository.TicketCCRepository { return ccRepo{s} }
func (s *Store) Dependencies() repository.DependencyRepository { return dependencyRepo{s} }
func (s *Store) SavedSearches() repository.SavedSearchRepository { return savedSearchRepo{s} }
func (s *Store) TimeTracks() repository.TimeTrackRepository { return timeTrackRepo{s} }
func (s *Store) MoneyTracks() repository.MoneyTrackRepository { return moneyTrackRepo{s} }

func notFound(resource, id string) error {
	return errorutil.NewNotFound(resource, map[string]any{"id": id})
}

// tickets

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(_ context.Context, t *domain.Ticket) error {
	defer r.s.lock()()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.UpdatedAt = t.CreatedAt
	t.ModifiedStatus = t.CreatedAt
	t.Version = 1
	r.s.root.tickets[t.ID] = t.Clone()
	return nil
}

func (r ticketRepo) Update(_ context.Context, t *domain.Ticket) error {
	defer r.s.lock()()
	cur, ok := r.s.root.tickets[t.ID]
	if !ok {
		return notFound("ticket", t.ID)
	}
	if cur.Version != t.Version {
		return errorutil.NewConflict("ticket was modified concurrently", map[string]any{"id": t.ID})
	}
	t.Version++
	r.s.root.tickets[t.ID] = t.Clone()
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	defer r.s.lock()()
	t, ok := r.s.root.tickets[id]
	if !ok {
		return nil, notFound("ticket", id)
	}
	c := t.Clone()
	return &c, nil
}

func (r ticketRepo) List(_ context.Context, f repository.TicketFilter) ([]domain.Ticket, error) {
	defer r.s.lock()()
	var queues map[string]bool
	if f.QueueIDs != nil {
		queues = make(map[string]bool, len(f.QueueIDs))
		for _, id := range f.QueueIDs {
			queues[id] = true
		}
	}
	search := ""
	if f.SearchTerm != nil {
		search = strings.ToLower(strings.TrimSpace(*f.SearchTerm))
	}

	var out []domain.Ticket
	for _, t := range r.s.root.tickets {
		switch {
		case queues != nil && !queues[t.QueueID]:
			continue
		case f.AssigneeID != nil && !t.IsAssignedTo(*f.AssigneeID):
			continue
		case f.Unassigned && t.AssignedToID != nil:
			continue
		case len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status):
			continue
		case len(f.Priorities) > 0 && !containsPriority(f.Priorities, t.Priority):
			continue
		case f.CreatedFrom != nil && t.CreatedAt.Before(*f.CreatedFrom):
			continue
		case f.CreatedTo != nil && t.CreatedAt.After(*f.CreatedTo):
			continue
		case search != "" && !matchesSearch(t, search):
			continue
		}
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 {
		start := f.Offset
		if start < 0 {
			start = 0
		}
		if start > len(out) {
			start = len(out)
		}
		end := start + f.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, nil
}

func containsStatus(list []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, p domain.TicketPriority) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}

func matchesSearch(t domain.Ticket, term string) bool {
	return strings.Contains(strings.ToLower(t.Title), term) ||
		strings.Contains(strings.ToLower(t.Description), term) ||
		strings.Contains(strings.ToLower(t.SubmitterEmail), term)
}

func (r ticketRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	d := r.s.root
	if _, ok := d.tickets[id]; !ok {
		return notFound("ticket", id)
	}
	delete(d.tickets, id)
	for fid, fu := range d.followUps {
		if fu.TicketID == id {
			d.deleteFollowUp(fid)
		}
	}
	for cid, cc := range d.ccs {
		if cc.TicketID == id {
			delete(d.ccs, cid)
		}
	}
	for did, dep := range d.dependencies {
		if dep.TicketID == id || dep.DependsOnID == id {
			delete(d.dependencies, did)
		}
	}
	for tid, tt := range d.timeTracks {
		if tt.TicketID == id {
			delete(d.timeTracks, tid)
		}
	}
	for mid, mt := range d.moneyTracks {
		if mt.TicketID == id {
			delete(d.moneyTracks, mid)
		}
	}
	return nil
}

func (d *data) deleteFollowUp(id string) {
	delete(d.followUps, id)
	delete(d.seq, id)
	for cid, c := range d.changes {
		if c.FollowUpID == id {
			delete(d.changes, cid)
			delete(d.seq, cid)
		}
	}
	for aid, a := range d.attachments {
		if a.FollowUpID == id {
			delete(d.attachments, aid)
		}
	}
}

// queues

type queueRepo struct{ s *Store }

func (r queueRepo) Create(_ context.Context, q *domain.Queue) error {
	defer r.s.lock()()
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	r.s.root.queues[q.ID] = *q
	return nil
}

func (r queueRepo) GetByID(_ context.Context, id string) (*domain.Queue, error) {
	defer r.s.lock()()
	q, ok := r.s.root.queues[id]
	if !ok {
		return nil, notFound("queue", id)
	}
	return &q, nil
}

func (r queueRepo) List(_ context.Context) ([]domain.Queue, error) {
	defer r.s.lock()()
	out := make([]domain.Queue, 0, len(r.s.root.queues))
	for _, q := range r.s.root.queues {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// users

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *domain.User) error {
	defer r.s.lock()()
	for _, existing := range r.s.root.users {
		if existing.Username == u.Username {
			return errorutil.NewConflict("username already taken", map[string]any{"username": u.Username})
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.root.users[u.ID] = cloneUser(*u)
	return nil
}

func (r userRepo) Update(_ context.Context, u *domain.User) error {
	defer r.s.lock()()
	if _, ok := r.s.root.users[u.ID]; !ok {
		return notFound("user", u.ID)
	}
	u.UpdatedAt = time.Now()
	r.s.root.users[u.ID] = cloneUser(*u)
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	defer r.s.lock()()
	u, ok := r.s.root.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	c := cloneUser(u)
	return &c, nil
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.root.users {
		if u.Username == username {
			c := cloneUser(u)
			return &c, nil
		}
	}
	return nil, notFound("user", username)
}

func (r userRepo) List(_ context.Context) ([]domain.User, error) {
	defer r.s.lock()()
	out := make([]domain.User, 0, len(r.s.root.users))
	for _, u := range r.s.root.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func cloneUser(u domain.User) domain.User {
	u.Permissions = append([]string(nil), u.Permissions...)
	if u.Settings.DefaultTicketSavedQuery != nil {
		q := *u.Settings.DefaultTicketSavedQuery
		u.Settings.DefaultTicketSavedQuery = &q
	}
	return u
}
