package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vidyalab/vidya/plugin/ai/memory"
	"github.com/vidyalab/vidya/server/internal/observability"
	"github.com/vidyalab/vidya/server/stats"
)

type healthResponse struct {
	Status         string       `json:"status"`
	Version        string       `json:"version"`
	Mode           string       `json:"mode"`
	ProviderReady  bool         `json:"provider_ready"`
	RetrieverReady bool         `json:"retriever_ready"`
	MemoryStats    memory.Stats `json:"memory_stats"`
}

// Health reports readiness of the tutoring subsystems. The endpoint always
// answers 200: a missing provider degrades features, it does not take the
// service down.
func (s *APIV1Service) Health(c echo.Context) error {
	providerReady := s.LLM != nil && s.LLM.Ready()
	retrieverReady := s.Retriever != nil && s.Retriever.Ready()
	status := "ok"
	if !providerReady || !retrieverReady {
		status = "degraded"
	}
	return c.JSON(http.StatusOK, healthResponse{
		Status:         status,
		Version:        s.Profile.Version,
		Mode:           s.Profile.Mode,
		ProviderReady:  providerReady,
		RetrieverReady: retrieverReady,
		MemoryStats:    s.Memory.Stats(),
	})
}

type statsResponse struct {
	Usage  *stats.Stats           `json:"usage"`
	Turns  observability.Snapshot `json:"turns"`
	Memory memory.Stats           `json:"memory"`
}

// Stats reports usage statistics: persisted counts, in-process turn
// metrics, and memory occupancy.
func (s *APIV1Service) Stats(c echo.Context) error {
	usage, err := stats.Collect(c.Request().Context(), s.Store)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to collect stats")
	}
	return c.JSON(http.StatusOK, statsResponse{
		Usage:  usage,
		Turns:  s.Metrics.Snapshot(),
		Memory: s.Memory.Stats(),
	})
}
