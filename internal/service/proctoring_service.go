package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lshigami/Assessa/config"
	"github.com/lshigami/Assessa/internal/apperror"
	"github.com/lshigami/Assessa/internal/dto"
	"github.com/rs/zerolog/log"
)

// ProctoringService reports whether the proctoring companion is reachable.
type ProctoringService interface {
	Status(ctx context.Context) (*dto.ProctoringStatusResponse, error)
}

type proctoringService struct {
	client  *resty.Client
	baseURL string
}

func NewProctoringService(cfg *config.Config) ProctoringService {
	return newProctoringService(cfg.Proctoring.ServiceURL, cfg.Proctoring.HealthTimeout)
}

func newProctoringService(baseURL string, timeout time.Duration) *proctoringService {
	client := resty.New().SetBaseURL(baseURL)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &proctoringService{client: client, baseURL: baseURL}
}

func (s *proctoringService) Status(ctx context.Context) (*dto.ProctoringStatusResponse, error) {
	resp, err := s.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		log.Warn().Err(err).Str("url", s.baseURL).Msg("Proctoring health check failed")
		return nil, apperror.UpstreamUnavailable(err, "proctoring service is not available")
	}
	if resp.IsError() {
		log.Warn().Int("status", resp.StatusCode()).Str("url", s.baseURL).Msg("Proctoring health check returned an error status")
		return nil, apperror.UpstreamUnavailable(fmt.Errorf("status %d", resp.StatusCode()), "proctoring service is not available")
	}
	return &dto.ProctoringStatusResponse{
		Available: true,
		Message:   "running",
		URL:       s.baseURL,
	}, nil
}
