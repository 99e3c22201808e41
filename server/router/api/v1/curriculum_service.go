package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vidyalab/vidya/server/retrieval"
)

type upsertChunkResponse struct {
	UID     string `json:"uid"`
	Subject string `json:"subject,omitempty"`
	Chapter string `json:"chapter,omitempty"`
}

// UpsertChunk indexes one curriculum chunk for retrieval.
func (s *APIV1Service) UpsertChunk(c echo.Context) error {
	if s.Ingestor == nil || !s.Ingestor.Ready() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "curriculum indexing requires an embedding provider")
	}

	var input retrieval.ChunkInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	chunk, err := s.Ingestor.UpsertChunk(c.Request().Context(), input)
	if err != nil {
		if input.Content == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "content is required")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to index chunk")
	}

	return c.JSON(http.StatusOK, upsertChunkResponse{
		UID:     chunk.UID,
		Subject: chunk.Subject,
		Chapter: chunk.Chapter,
	})
}

type upsertDocumentResponse struct {
	UID    string `json:"uid"`
	Chunks int    `json:"chunks"`
}

// UpsertDocument splits a long document into chunks and indexes them all.
func (s *APIV1Service) UpsertDocument(c echo.Context) error {
	if s.Ingestor == nil || !s.Ingestor.Ready() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "curriculum indexing requires an embedding provider")
	}

	var input retrieval.ChunkInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	uid, chunks, err := s.Ingestor.UpsertDocument(c.Request().Context(), input)
	if err != nil {
		if strings.TrimSpace(input.Content) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "content is required")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to index document")
	}

	return c.JSON(http.StatusOK, upsertDocumentResponse{UID: uid, Chunks: len(chunks)})
}
