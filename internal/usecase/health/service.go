package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure; queries still work.
	Degraded Status = "degraded"
	// Unhealthy indicates the vector index is unreachable.
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

// Service coordinates health checks. The vector index is the only
// critical dependency: without it no documents can be retrieved. A
// down cache or LLM degrades service but does not stop it.
type Service struct {
	cache  CachePinger
	vector VectorChecker
	llm    LLMChecker
}

// New creates a Service. cache and llm can be nil.
func New(cache CachePinger, vector VectorChecker, llm LLMChecker) *Service {
	return &Service{cache: cache, vector: vector, llm: llm}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	vectorDown := false
	if err := s.vector.HealthCheck(ctx); err != nil {
		checks["vector"] = CheckError
		vectorDown = true
	} else {
		checks["vector"] = CheckOK
	}

	if s.cache != nil {
		if s.cache.Connected() {
			checks["cache"] = CheckOK
		} else {
			checks["cache"] = CheckError
		}
	}

	if s.llm != nil {
		if err := s.llm.HealthCheck(ctx); err != nil {
			checks["llm"] = CheckError
		} else {
			checks["llm"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if vectorDown {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}
