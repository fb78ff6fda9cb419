package httpapi

import (
	"net/http"
	"time"

	"github.com/erauner12/genvault/internal/importer"
)

// ServerInfo represents the server's capabilities and configuration
type ServerInfo struct {
	APIVersion string                        `json:"apiVersion"`
	ServerTime string                        `json:"serverTime"`
	Resources  map[string]ResourceCapability `json:"resources"`
	Import     ImportInfo                    `json:"import"`
	RateLimit  *RateLimitInfo                `json:"rateLimit,omitempty"`
}

// RateLimitInfo describes the server's rate limiting policy
type RateLimitInfo struct {
	WindowSeconds int `json:"windowSeconds"` // e.g. 60
	MaxRequests   int `json:"maxRequests"`   // per window
	Burst         int `json:"burst"`         // token bucket size
}

// ResourceCapability describes the paging limits of a resource
type ResourceCapability struct {
	MaxLimit int `json:"maxLimit"`
	PageSize int `json:"pageSize,omitempty"`
}

// ImportInfo describes the generation history import
type ImportInfo struct {
	ConsecutiveExistingThreshold int `json:"consecutiveExistingThreshold"`
}

// Info handles GET /v1/info
// Returns server capabilities and API version
// This endpoint can be called without authentication to allow capability discovery
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	info := ServerInfo{
		APIVersion: "1.0",
		ServerTime: time.Now().UTC().Format(time.RFC3339Nano),
		Resources: map[string]ResourceCapability{
			"users":  {MaxLimit: 1000},
			"images": {MaxLimit: 1000},
			"cursors": {
				MaxLimit: CursorPageSize,
				PageSize: CursorPageSize,
			},
		},
		Import: ImportInfo{
			ConsecutiveExistingThreshold: importer.ConsecutiveExistingThreshold,
		},
	}
	if s.limiter != nil {
		policy := s.limiter.Policy()
		info.RateLimit = &policy
	}

	writeJSON(w, http.StatusOK, info)
}
