package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
	"github.com/AlexisSev/gwaste-application-sub000/internal/ports"
	"github.com/AlexisSev/gwaste-application-sub000/internal/services"
)

var (
	ErrNoFix             = errors.New("no position fix yet")
	ErrPermissionRevoked = errors.New("location permission not granted")
	ErrInvalidSample     = errors.New("invalid position sample")
)

// DeviceProvider is the server-side view of one collector device. The
// device pushes raw fixes and reports its permission state; watchers get
// the fixes that pass their WatchOptions filter.
type DeviceProvider struct {
	mu       sync.Mutex
	granted  bool
	last     *domain.PositionSample
	watchers map[int]*watcher
	nextID   int
	now      func() time.Time
}

type watcher struct {
	id       int
	opts     ports.WatchOptions
	fn       func(domain.PositionSample)
	limiter  *rate.Limiter
	lastSent *domain.Coordinates
}

// NewDeviceProvider returns a provider that starts with permission granted;
// devices report denial explicitly.
func NewDeviceProvider() *DeviceProvider {
	return &DeviceProvider{
		granted:  true,
		watchers: make(map[int]*watcher),
		now:      time.Now,
	}
}

// SetPermission records the device's foreground location permission.
func (d *DeviceProvider) SetPermission(granted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.granted = granted
}

func (d *DeviceProvider) RequestForegroundPermission(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.granted, nil
}

func (d *DeviceProvider) CurrentPosition(ctx context.Context) (domain.PositionSample, error) {
	if err := ctx.Err(); err != nil {
		return domain.PositionSample{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.last == nil {
		return domain.PositionSample{}, ErrNoFix
	}
	return *d.last, nil
}

func (d *DeviceProvider) WatchPosition(
	ctx context.Context,
	opts ports.WatchOptions,
	fn func(domain.PositionSample),
) (ports.Subscription, error) {
	if fn == nil {
		return nil, errors.New("watch position: callback is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}

	d.mu.Lock()
	d.nextID++
	w := &watcher{
		id:      d.nextID,
		opts:    opts,
		fn:      fn,
		limiter: rate.NewLimiter(limit, 1),
	}
	d.watchers[w.id] = w
	d.mu.Unlock()

	sub := &subscription{provider: d, id: w.id}
	release := context.AfterFunc(ctx, sub.Stop)
	sub.mu.Lock()
	sub.release = release
	sub.mu.Unlock()
	return sub, nil
}

// Push accepts a fix from the device and fans it out to watchers whose
// filter passes: the first fix always passes, later ones when the device
// moved at least MinDistanceMeters or MinInterval elapsed. Callbacks run
// on the caller's goroutine without the provider lock held.
func (d *DeviceProvider) Push(sample domain.PositionSample) error {
	c := sample.Coordinates()
	if !c.Valid() {
		return fmt.Errorf("push position: %w: lat=%v lng=%v", ErrInvalidSample, sample.Latitude, sample.Longitude)
	}

	d.mu.Lock()
	if !d.granted {
		d.mu.Unlock()
		return ErrPermissionRevoked
	}
	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = d.now()
	}
	s := sample
	d.last = &s

	now := d.now()
	var due []func(domain.PositionSample)
	for _, w := range d.watchers {
		if w.accept(c, now) {
			due = append(due, w.fn)
		}
	}
	d.mu.Unlock()

	for _, fn := range due {
		fn(sample)
	}
	return nil
}

// accept is called with the provider lock held.
func (w *watcher) accept(c domain.Coordinates, now time.Time) bool {
	moved := w.lastSent == nil ||
		(w.opts.MinDistanceMeters > 0 && services.Distance(*w.lastSent, c) >= w.opts.MinDistanceMeters)

	// The limiter measures the interval since the last time-based delivery.
	elapsed := w.limiter.AllowN(now, 1)
	if !moved && !elapsed {
		return false
	}

	w.lastSent = &c
	return true
}

func (d *DeviceProvider) remove(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.watchers, id)
}

// Watchers returns the number of active subscriptions.
func (d *DeviceProvider) Watchers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.watchers)
}

type subscription struct {
	provider *DeviceProvider
	id       int
	once     sync.Once

	mu      sync.Mutex
	release func() bool
}

// Stop is idempotent and may race with context cancellation.
func (s *subscription) Stop() {
	s.once.Do(func() { s.provider.remove(s.id) })

	s.mu.Lock()
	release := s.release
	s.mu.Unlock()
	if release != nil {
		release()
	}
}
