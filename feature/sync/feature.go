package sync

import (
	"github.com/gofiber/fiber/v2"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service   *Service
	handler   *Handler
	scheduler *Scheduler
}

// NewFeature creates the sync feature. scheduler is nil when automatic sync
// is disabled.
func NewFeature(service *Service, scheduler *Scheduler, historyLimit int) *Feature {
	return &Feature{
		service:   service,
		handler:   NewHandler(service, historyLimit),
		scheduler: scheduler,
	}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "sync"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.service != nil
}

// Load registers the feature's routes and starts the scheduler.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	if f.scheduler != nil {
		f.scheduler.Start()
	}
	return nil
}

// Close stops the scheduler.
func (f *Feature) Close() {
	if f.scheduler != nil {
		f.scheduler.Stop()
	}
}
