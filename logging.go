package smartcast

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// LoggingTransport wraps an http.RoundTripper and logs requests/responses.
// Useful when supplying a custom HTTP client via WithHTTPClient.
type LoggingTransport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

// RoundTrip implements http.RoundTripper with logging.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	if t.Logger != nil {
		t.Logger.LogAttrs(req.Context(), slog.LevelDebug, "api_request",
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
		)
	}

	resp, err := t.Base.RoundTrip(req)
	duration := time.Since(start)

	if t.Logger != nil {
		if err != nil {
			t.Logger.LogAttrs(req.Context(), slog.LevelError, "api_error",
				slog.String("method", req.Method),
				slog.String("url", req.URL.String()),
				slog.Duration("duration", duration),
				slog.String("error", err.Error()),
			)
		} else {
			level := slog.LevelDebug
			if resp.StatusCode >= 400 {
				level = slog.LevelWarn
			}
			if resp.StatusCode >= 500 {
				level = slog.LevelError
			}
			t.Logger.LogAttrs(req.Context(), level, "api_response",
				slog.String("method", req.Method),
				slog.String("url", req.URL.String()),
				slog.Int("status", resp.StatusCode),
				slog.Duration("duration", duration),
			)
		}
	}

	return resp, err
}

// installLogging attaches device identity attributes to a configured
// logger so every log line names the device it concerns.
func (d *Device) installLogging() {
	if d.logger == nil {
		return
	}
	d.logger = d.logger.With(
		slog.String("device_ip", d.ip),
	)
}

// logRequest logs an outgoing API request at debug level.
func (d *Device) logRequest(ctx context.Context, method, url string) {
	if d.logger == nil {
		return
	}
	d.logger.LogAttrs(ctx, slog.LevelDebug, "api_request",
		slog.String("method", method),
		slog.String("url", url),
	)
}

// logResponse logs a completed API response. HTTP-level failures are
// rare on this API (errors travel in the response envelope), so status
// drives the level the same way it would for a conventional API.
func (d *Device) logResponse(ctx context.Context, method, url string, statusCode int, duration time.Duration) {
	if d.logger == nil {
		return
	}

	level := slog.LevelDebug
	if statusCode >= 400 {
		level = slog.LevelWarn
	}
	if statusCode >= 500 {
		level = slog.LevelError
	}

	d.logger.LogAttrs(ctx, level, "api_response",
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status", statusCode),
		slog.Duration("duration", duration),
	)
}

// logError logs a network-level request failure.
func (d *Device) logError(ctx context.Context, method, url string, err error) {
	if d.logger == nil {
		return
	}
	d.logger.LogAttrs(ctx, slog.LevelError, "api_error",
		slog.String("method", method),
		slog.String("url", url),
		slog.String("error", err.Error()),
	)
}
