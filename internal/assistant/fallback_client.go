package assistant

import (
	"context"
	"log/slog"
)

// FallbackLLMClient wraps a primary LLM client with a fallback endpoint.
// If the primary fails, the same request is retried against the fallback.
type FallbackLLMClient struct {
	primary  LLMClient
	fallback LLMClient
	logger   *slog.Logger
}

// NewFallbackLLMClient creates a fallback-enabled client. A nil fallback
// means only the primary is used.
func NewFallbackLLMClient(primary, fallback LLMClient, logger *slog.Logger) *FallbackLLMClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackLLMClient{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Complete implements LLMClient.
func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}

	c.logger.Warn("primary LLM failed, attempting fallback",
		"error", err.Error(),
		"fallback_available", c.fallback != nil,
	)

	if c.fallback == nil {
		return LLMResponse{}, err
	}

	fallbackResp, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback LLM also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return LLMResponse{}, fallbackErr
	}

	c.logger.Info("fallback LLM succeeded after primary failure")
	return fallbackResp, nil
}
