package models

// ErrorResponse is the body of every failed API call. Error is the stable
// machine-readable kind.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthCheckResponse is the body of /health
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
