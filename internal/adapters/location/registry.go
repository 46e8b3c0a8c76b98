package location

import (
	"sync"

	"github.com/AlexisSev/gwaste-application-sub000/internal/ports"
)

// Registry owns one DeviceProvider per collector. Providers outlive
// sessions so permission state survives a re-login.
type Registry struct {
	mu        sync.Mutex
	providers map[string]*DeviceProvider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*DeviceProvider)}
}

// Device returns the collector's provider, creating it on first use.
func (r *Registry) Device(collectorID string) *DeviceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[collectorID]
	if !ok {
		p = NewDeviceProvider()
		r.providers[collectorID] = p
	}
	return p
}

// Provider adapts Device to services.LocationFactory.
func (r *Registry) Provider(collectorID string) ports.LocationProvider {
	return r.Device(collectorID)
}
