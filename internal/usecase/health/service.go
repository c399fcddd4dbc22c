package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
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

// Component names reported in Report.Checks.
const (
	VectorStore   = "vector_store"
	DocumentStore = "document_store"
	Embedding     = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status      Status
	Checks      map[string]CheckResult
	LexicalSize int
}

// Service coordinates health checks.
type Service struct {
	vectors   Pinger
	documents Pinger
	embedding EmbeddingChecker
	lexical   LexicalSizer
}

// New creates a Service. embedding and lexical can be nil.
func New(vectors, documents Pinger, embedding EmbeddingChecker, lexical LexicalSizer) *Service {
	return &Service{vectors: vectors, documents: documents, embedding: embedding, lexical: lexical}
}

// Check runs health checks against all components. Search needs both stores,
// so losing both is Unhealthy; any other failure is Degraded.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[VectorStore] = result(s.vectors.Ping(ctx))
	checks[DocumentStore] = result(s.documents.Ping(ctx))

	if s.embedding != nil {
		checks[Embedding] = result(s.embedding.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[VectorStore] == CheckError && checks[DocumentStore] == CheckError {
		status = Unhealthy
	}

	r := Report{Status: status, Checks: checks}
	if s.lexical != nil {
		r.LexicalSize = s.lexical.Size()
	}
	return r
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
