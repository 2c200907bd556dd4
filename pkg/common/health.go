package common

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// HealthCheckWithDeps runs every dependency check concurrently and answers 503
// if any of them fails. Each check bounds its own duration.
func HealthCheckWithDeps(serviceName, version string, checks map[string]func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			mu      sync.Mutex
			wg      sync.WaitGroup
			healthy = true
			results = make(map[string]string, len(checks))
		)

		for name, check := range checks {
			wg.Add(1)
			go func(name string, check func() error) {
				defer wg.Done()
				err := check()

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					results[name] = "unhealthy: " + err.Error()
					healthy = false
					return
				}
				results[name] = "healthy"
			}(name, check)
		}
		wg.Wait()

		resp := HealthResponse{Status: "healthy", Service: serviceName, Version: version, Checks: results}
		if !healthy {
			resp.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
