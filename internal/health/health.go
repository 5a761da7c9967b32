package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/render"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger is a dependency the service cannot serve without
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type ComponentStatus struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

type Report struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Uptime     string            `json:"uptime"`
	Components []ComponentStatus `json:"components"`
}

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

type component struct {
	name   string
	pinger Pinger
}

// Checker pings registered components and reports on HTTP and gRPC health
type Checker struct {
	service    string
	timeout    time.Duration
	started    time.Time
	components []component
	grpc       *health.Server
}

func NewChecker(service string, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Checker{
		service: service,
		timeout: timeout,
		started: time.Now(),
		grpc:    health.NewServer(),
	}
}

// Register adds a component; call before serving
func (c *Checker) Register(name string, p Pinger) {
	c.components = append(c.components, component{name: name, pinger: p})
}

// GRPCServer is the standard grpc.health.v1 implementation kept in sync by Watch
func (c *Checker) GRPCServer() *health.Server {
	return c.grpc
}

// Check pings every component concurrently
func (c *Checker) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	statuses := make([]ComponentStatus, len(c.components))
	var wg sync.WaitGroup
	for i, comp := range c.components {
		wg.Add(1)
		go func(i int, comp component) {
			defer wg.Done()
			start := time.Now()
			err := comp.pinger.Ping(ctx)
			s := ComponentStatus{
				Name:    comp.name,
				Status:  StatusHealthy,
				Latency: time.Since(start).String(),
			}
			if err != nil {
				s.Status = StatusUnhealthy
				s.Error = err.Error()
			}
			statuses[i] = s
		}(i, comp)
	}
	wg.Wait()

	overall := StatusHealthy
	for _, s := range statuses {
		if s.Status != StatusHealthy {
			overall = StatusUnhealthy
			break
		}
	}

	return Report{
		Status:     overall,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Uptime:     time.Since(c.started).Round(time.Second).String(),
		Components: statuses,
	}
}

// Update pushes the result of one Check to the gRPC health server
func (c *Checker) Update(ctx context.Context) Report {
	report := c.Check(ctx)
	status := healthpb.HealthCheckResponse_SERVING
	if report.Status != StatusHealthy {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.grpc.SetServingStatus("", status)
	c.grpc.SetServingStatus(c.service, status)
	return report
}

// Watch calls Update every interval until ctx is done
func (c *Checker) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		c.Update(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Shutdown marks every service NOT_SERVING
func (c *Checker) Shutdown() {
	c.grpc.Shutdown()
}

// ServeHTTP renders the report; unhealthy is 503
func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	report := c.Update(r.Context())
	if report.Status != StatusHealthy {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, report)
}
