package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// SavedSearchService manages named ticket filters.
type SavedSearchService struct {
	store repository.Store
	cfg   config.HelpdeskConfig
	now   func() time.Time
}

// NewSavedSearchService creates the service.
func NewSavedSearchService(store repository.Store, cfg config.HelpdeskConfig) *SavedSearchService {
	return &SavedSearchService{store: store, cfg: cfg, now: time.Now}
}

// SavedSearchInput describes a new saved search. Query is base64-encoded JSON.
type SavedSearchInput struct {
	Title  string
	Shared bool
	Query  string
}

// List returns the actor's searches plus shared ones.
func (s *SavedSearchService) List(ctx context.Context, actor *domain.User) ([]domain.SavedSearch, error) {
	if err := requireStaff(s.cfg, actor); err != nil {
		return nil, err
	}
	return s.store.SavedSearches().ListVisible(ctx, actor.ID)
}

// Add stores a search owned by actor.
func (s *SavedSearchService) Add(ctx context.Context, actor *domain.User, input SavedSearchInput) (*domain.SavedSearch, error) {
	if err := requireStaff(s.cfg, actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if _, err := DecodeQuery(input.Query); err != nil {
		return nil, err
	}
	search := &domain.SavedSearch{
		ID:        uuid.NewString(),
		UserID:    actor.ID,
		Title:     title,
		Shared:    input.Shared,
		Query:     input.Query,
		CreatedAt: s.now(),
	}
	if err := s.store.SavedSearches().Create(ctx, search); err != nil {
		return nil, err
	}
	return search, nil
}

// Delete removes a search. Only its owner or a superuser may do so.
func (s *SavedSearchService) Delete(ctx context.Context, actor *domain.User, id string) error {
	search, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.store.SavedSearches().Delete(ctx, search.ID)
}

// ToggleShared flips the shared flag.
func (s *SavedSearchService) ToggleShared(ctx context.Context, actor *domain.User, id string) (*domain.SavedSearch, error) {
	search, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	search.Shared = !search.Shared
	if err := s.store.SavedSearches().Update(ctx, search); err != nil {
		return nil, err
	}
	return search, nil
}

// SetDefault makes id the actor's default ticket list query. An empty id
// clears the default.
func (s *SavedSearchService) SetDefault(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if err := requireStaff(s.cfg, actor); err != nil {
		return nil, err
	}
	user, err := s.store.Users().GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if id == "" || id == "0" {
		user.Settings.DefaultTicketSavedQuery = nil
	} else {
		if _, err := s.visible(ctx, actor, id); err != nil {
			return nil, err
		}
		user.Settings.DefaultTicketSavedQuery = &id
	}
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Filter resolves a visible saved search into a ticket filter.
func (s *SavedSearchService) Filter(ctx context.Context, actor *domain.User, id string) (repository.TicketFilter, error) {
	search, err := s.visible(ctx, actor, id)
	if err != nil {
		return repository.TicketFilter{}, err
	}
	return DecodeQuery(search.Query)
}

func (s *SavedSearchService) visible(ctx context.Context, actor *domain.User, id string) (*domain.SavedSearch, error) {
	search, err := s.store.SavedSearches().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !search.Shared && search.UserID != actor.ID && !actor.IsSuperuser {
		return nil, apperrors.NewNotFound("saved search", map[string]any{"id": id})
	}
	return search, nil
}

func (s *SavedSearchService) owned(ctx context.Context, actor *domain.User, id string) (*domain.SavedSearch, error) {
	if err := requireStaff(s.cfg, actor); err != nil {
		return nil, err
	}
	search, err := s.store.SavedSearches().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if search.UserID != actor.ID && !actor.IsSuperuser {
		return nil, apperrors.NewForbidden("no permission on saved search", map[string]any{"id": id})
	}
	return search, nil
}

// DecodeQuery turns a stored query into a ticket filter. The payload is a
// base64-encoded JSON object whose values are strings or lists of strings,
// keyed like the ticket list parameters.
func DecodeQuery(raw string) (repository.TicketFilter, error) {
	var filter repository.TicketFilter
	if strings.TrimSpace(raw) == "" {
		return filter, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		if decoded, err = base64.URLEncoding.DecodeString(raw); err != nil {
			return filter, apperrors.NewValidationError("query is not base64", nil)
		}
	}
	var params map[string]json.RawMessage
	if err := json.Unmarshal(decoded, &params); err != nil {
		return filter, apperrors.NewValidationError("query is not a JSON object", nil)
	}

	for key, value := range params {
		values, err := queryValues(value)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid query value", map[string]any{"key": key})
		}
		if len(values) == 0 {
			continue
		}
		switch key {
		case "queue":
			filter.QueueIDs = values
		case "assigned_to":
			id := values[0]
			filter.AssigneeID = &id
		case "no_assigned":
			filter.Unassigned = values[0] == "true" || values[0] == "True" || values[0] == "on" || values[0] == "1"
		case "status":
			for _, v := range values {
				n, err := strconv.Atoi(v)
				if err != nil || !domain.TicketStatus(n).Valid() {
					return filter, apperrors.NewValidationError("invalid status in query", map[string]any{"status": v})
				}
				filter.Statuses = append(filter.Statuses, domain.TicketStatus(n))
			}
		case "priority":
			for _, v := range values {
				n, err := strconv.Atoi(v)
				if err != nil || !domain.TicketPriority(n).Valid() {
					return filter, apperrors.NewValidationError("invalid priority in query", map[string]any{"priority": v})
				}
				filter.Priorities = append(filter.Priorities, domain.TicketPriority(n))
			}
		case "keywords":
			term := values[0]
			filter.SearchTerm = &term
		case "created_min", "created_max":
			d, err := time.Parse(domain.DueDateLayout, values[0])
			if err != nil {
				return filter, apperrors.NewValidationError("invalid date in query", map[string]any{key: values[0]})
			}
			if key == "created_min" {
				filter.CreatedFrom = &d
			} else {
				end := d.Add(24*time.Hour - time.Nanosecond)
				filter.CreatedTo = &end
			}
		}
	}
	return filter, nil
}

// EncodeQuery is the inverse of DecodeQuery for callers building searches.
func EncodeQuery(params map[string][]string) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func queryValues(raw json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		out := list[:0]
		for _, v := range list {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single = strings.TrimSpace(single); single == "" {
			return nil, nil
		}
		return []string{single}, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, err
	}
	return []string{n.String()}, nil
}
