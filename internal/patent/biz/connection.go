package biz

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sadskatr/patent-database/internal/patent/types"
)

// probeBodyLimit bounds how much of an error body the probe reports
const probeBodyLimit = 200

// ConnectionStatus is the outcome of a connectivity probe
type ConnectionStatus struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TestConnection probes the upstream API once
func (uc *PatentUseCase) TestConnection(ctx context.Context) *ConnectionStatus {
	total, err := uc.repo.Probe(ctx)
	if err == nil {
		uc.logger.Info("connection test succeeded", zap.Int("total", total))
		return &ConnectionStatus{
			Success: true,
			Message: fmt.Sprintf("API connection successful. Found %d matching patents.", total),
		}
	}

	status := probeFailure(err)
	if status.Success {
		uc.logger.Warn("connection test succeeded with unreadable body", zap.Error(err))
	} else {
		uc.logger.Error("connection test failed", zap.String("error", status.Error))
	}
	return status
}

func probeFailure(err error) *ConnectionStatus {
	var upErr *types.UpstreamError
	switch {
	case errors.Is(err, types.ErrMissingAPIKey):
		return &ConnectionStatus{Error: types.ErrMissingAPIKey.Error()}
	case errors.As(err, &upErr):
		switch upErr.StatusCode {
		case 0:
			return &ConnectionStatus{Error: fmt.Sprintf("Connection error: %v", upErr.Err)}
		case http.StatusOK:
			return &ConnectionStatus{Success: true, Message: "API connection successful, but error parsing response"}
		case http.StatusForbidden:
			return &ConnectionStatus{Error: msgUnauthorized}
		case http.StatusNotFound:
			return &ConnectionStatus{Error: msgNotFound}
		default:
			msg := fmt.Sprintf("API error: %d", upErr.StatusCode)
			if upErr.Body != "" {
				msg += " - " + truncate(upErr.Body, probeBodyLimit)
			}
			return &ConnectionStatus{Error: msg}
		}
	default:
		return &ConnectionStatus{Error: fmt.Sprintf("Connection error: %v", err)}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
