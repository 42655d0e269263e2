package server

import (
	"fmt"

	"mockmate/internal/utils"
)

// displayServerInfo prints the startup banner with the configured surface
func (s *Server) displayServerInfo() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health               - Health check")
	fmt.Println("  GET  /stats                - Server statistics")
	fmt.Println("  POST /api/start-interview  - Start an interview session (requires API key)")
	fmt.Println("  POST /api/submit-answer    - Submit an answer (requires API key)")
	fmt.Println("  POST /api/end-interview    - End an interview and get feedback (requires API key)")
	fmt.Println("  GET  /api/session/{id}     - Fetch a session snapshot (requires API key)")

	if n := len(s.APIKeys); n > 0 {
		fmt.Printf("API authentication: enabled, %d key(s); send 'X-API-Key: <key>' on /api requests\n", n)
	} else {
		fmt.Println("API authentication: disabled, /api endpoints are publicly accessible")
	}

	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %s\n", utils.FormatFileSize(s.MaxRequestSize))
	} else {
		fmt.Println("Request size limit: none")
	}

	if s.RateLimit != nil && s.RateLimit.Enabled {
		scope := "per client IP"
		if s.RateLimit.ByAPIKey {
			scope = "per API key, falling back to client IP"
		}
		fmt.Printf("Rate limiting: %d req/min, burst %d, %s\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity, scope)
	} else {
		fmt.Println("Rate limiting: disabled")
	}
}
