package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual service.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// SOAPMetrics is returned by GET /v1/metrics/soap.
type SOAPMetrics struct {
	TotalCalls    int64              `json:"totalCalls"`
	Outcomes      map[string]float64 `json:"outcomes"`
	ErrorRate     float64            `json:"errorRate"`
	ParseFailures float64            `json:"parseFailures"`
	Period        string             `json:"period"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
