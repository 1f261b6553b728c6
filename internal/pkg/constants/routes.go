package constants

// Route constants
const (
	APIPrefix     = "/api"
	HealthRoute   = "/api/health"
	WebhookRoute  = "/api/stripe/webhook"
	DownloadRoute = "/api/download"
	AudioRoute    = "/audio"
	MetricsRoute  = "/metrics"
	StatsRoute    = "/metrics/downloads"
	// DocsBasePath and DocsVersion form the swagger UI path /docs/api/v1
	DocsBasePath = "/docs/api/"
	DocsVersion  = "v1"
)
