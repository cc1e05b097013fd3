package common

const (
	// AgentAPIKeyHeader carries the admin API key on every agent request.
	AgentAPIKeyHeader = "X-API-Key"

	// RequestIDHeader correlates outbound agent calls with inbound requests.
	RequestIDHeader = "X-Request-ID"

	// TokenType is reported alongside issued access tokens.
	TokenType = "bearer"
)
