package worker

import (
	"github.com/garagekit/parking-service/internal/service"
)

// StartEventRelay registers the parking event relay handlers.
func StartEventRelay(relay *service.EventRelay) {
	if relay == nil {
		return
	}
	relay.RegisterHandlers()
}
