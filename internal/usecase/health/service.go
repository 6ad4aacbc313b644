package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the cache is down; searches still run uncached.
	Degraded Status = "degraded"
	// Unhealthy indicates the content store is down.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db    DBPinger
	cache CachePinger
}

// New creates a Service. cache can be nil when no cache is configured.
func New(db DBPinger, cache CachePinger) *Service {
	return &Service{db: db, cache: cache}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	checks["database"] = probe(ctx, s.db)
	if checks["database"] == CheckError {
		status = Unhealthy
	}

	if s.cache != nil {
		checks["cache"] = probe(ctx, s.cache)
		if checks["cache"] == CheckError && status == Healthy {
			status = Degraded
		}
	}

	return Report{Status: status, Checks: checks}
}

func probe(ctx context.Context, p interface{ Ping(context.Context) error }) CheckResult {
	if p == nil {
		return CheckError
	}
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
