package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store groups the repositories that make up the ticket graph.
type Store interface {
	Tickets() TicketRepository
	Queues() QueueRepository
	Users() UserRepository
	FollowUps() FollowUpRepository
	Changes() TicketChangeRepository
	Attachments() AttachmentRepository
	CCs() TicketCCRepository
	Dependencies() DependencyRepository
	SavedSearches() SavedSearchRepository
	TimeTracks() TimeTrackRepository
	MoneyTracks() MoneyTrackRepository
	// WithinTx runs fn against a transactional view of the store. The
	// transaction commits when fn returns nil.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type pgStore struct {
	pool *pgxpool.Pool
	db   DBTX
}

// NewStore returns a Postgres-backed Store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool, db: pool}
}

func (s *pgStore) Tickets() TicketRepository { return &ticketRepository{db: s.db} }
func (s *pgStore) Queues() QueueRepository { return &queueRepository{db: s.db} }
func (s *pgStore) Users() UserRepository { return &userRepository{db: s.db} }
func (s *pgStore) FollowUps() FollowUpRepository { return &followUpRepository{db: s.db} }
func (s *pgStore) Changes() TicketChangeRepository { return &ticketChangeRepository{db: s.db} }
func (s *pgStore) Attachments() AttachmentRepository { return &attachmentRepository{db: s.db} }
func (s *pgStore) CCs() TicketCCRepository { return &ticketCCRepository{db: s.db} }
func (s *pgStore) Dependencies() DependencyRepository { return &dependencyRepository{db: s.db} }
func (s *pgStore) SavedSearches() SavedSearchRepository { return &savedSearchRepository{db: s.db} }
func (s *pgStore) TimeTracks() TimeTrackRepository { return &timeTrackRepository{db: s.db} }
func (s *pgStore) MoneyTracks() MoneyTrackRepository { return &moneyTrackRepository{db: s.db} }

func (s *pgStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if _, inTx := s.db.(pgx.Tx); inTx {
		return fn(s)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgStore{pool: s.pool, db: tx})
	})
}

// notFound converts pgx.ErrNoRows into a NOT_FOUND DomainError.
func notFound(err error, resource, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errorutil.NewNotFound(resource, map[string]any{"id": id})
	}
	return err
}

func requireRow(tag pgconn.CommandTag, resource, id string) error {
	if tag.RowsAffected() == 0 {
		return errorutil.NewNotFound(resource, map[string]any{"id": id})
	}
	return nil
}
