package worker

import (
	"github.com/spec-kit/helpdesk/internal/service"
)

// StartActivityWorker registers the ticket activity handlers.
func StartActivityWorker(activity *service.ActivityService) {
	if activity == nil {
		return
	}
	activity.RegisterHandlers()
}
