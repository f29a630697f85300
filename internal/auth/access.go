package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// IsHelpdeskStaff reports whether user may act on the staff side.
func IsHelpdeskStaff(cfg config.HelpdeskConfig, user *domain.User) bool {
	if user == nil || !user.IsActive {
		return false
	}
	return user.IsStaff || cfg.AllowNonStaffTicketUpdate
}

// HasQueueAccess is the queue permission check shared by every operation.
func HasQueueAccess(cfg config.HelpdeskConfig, user *domain.User, queue domain.Queue) bool {
	if user == nil {
		return false
	}
	if user.IsSuperuser || !cfg.EnablePerQueueStaffPermission {
		return true
	}
	return user.HasPerm(queue.PermissionName())
}

// AccessibleQueueIDs returns the ids user may see, or nil when every queue is
// visible.
func AccessibleQueueIDs(cfg config.HelpdeskConfig, user *domain.User, queues []domain.Queue) []string {
	if user != nil && (user.IsSuperuser || !cfg.EnablePerQueueStaffPermission) {
		return nil
	}
	ids := []string{}
	for _, q := range queues {
		if HasQueueAccess(cfg, user, q) {
			ids = append(ids, q.ID)
		}
	}
	return ids
}

// RequireHelpdeskStaff rejects callers that are not helpdesk staff.
func RequireHelpdeskStaff(cfg config.HelpdeskConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !IsHelpdeskStaff(cfg, user) {
			return apperrors.NewForbidden("staff access required", nil)
		}
		return c.Next()
	}
}
