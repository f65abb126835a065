// Package stream relays range-aware video downloads from a storage origin to
// authenticated callers without buffering whole files.
package stream

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/swarupplay/backend/internal/logging"
	"github.com/swarupplay/backend/internal/metrics"
)

const defaultChunkSize = 64 << 10

// hopHeaders are connection-scoped and never relayed.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Proxy relays origin responses to callers. It holds no per-request state and
// is safe for concurrent use.
type Proxy struct {
	origin    Origin
	chunkSize int
}

// NewProxy constructs a Proxy reading from origin.
func NewProxy(origin Origin) *Proxy {
	if origin == nil {
		panic("stream: origin must not be nil")
	}
	return &Proxy{origin: origin, chunkSize: defaultChunkSize}
}

// Serve streams fileID to w. The caller must already be authenticated.
//
// Until origin headers arrive, failures produce a JSON error response. Once
// the status line has been written the only way to signal a broken upstream
// is to abort the connection, which Serve does by panicking with
// http.ErrAbortHandler.
func (p *Proxy) Serve(w http.ResponseWriter, r *http.Request, fileID string) {
	rangeHeader := r.Header.Get("Range")
	ranged := rangeHeader != ""

	if err := ValidateRange(rangeHeader); err != nil {
		logging.FromContext(r.Context()).Warn("rejecting malformed range", slog.String("range", rangeHeader), slog.String("error", err.Error()))
		metrics.ObserveStream(metrics.OutcomeInvalidRange, ranged)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid range header"})
		return
	}

	ctx, span := logging.StartSpan(r.Context(), "stream.relay",
		slog.String("file_id", fileID),
		slog.String("range", rangeHeader),
	)
	logger := span.Logger()

	started := time.Now()
	resp, err := p.origin.Fetch(ctx, fileID, rangeHeader)
	if err != nil {
		span.End(err)
		switch {
		case r.Context().Err() != nil:
			metrics.ObserveStream(metrics.OutcomeClientGone, ranged)
		case errors.Is(err, ErrObjectNotFound):
			metrics.ObserveStream(metrics.OutcomeNotFound, ranged)
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Video file not found"})
		case errors.Is(err, ErrRangeNotSatisfiable):
			metrics.ObserveStream(metrics.OutcomeUpstreamStatus, ranged)
			var rangeErr *RangeNotSatisfiableError
			if errors.As(err, &rangeErr) && rangeErr.Size >= 0 {
				w.Header().Set("Content-Range", "bytes */"+strconv.FormatInt(rangeErr.Size, 10))
			}
			writeJSON(w, http.StatusRequestedRangeNotSatisfiable, map[string]string{"error": "Requested range not satisfiable"})
		default:
			logger.Error("upstream proxy error", slog.String("error", err.Error()))
			metrics.ObserveStream(metrics.OutcomeUpstreamError, ranged)
			writeJSON(w, http.StatusBadGateway, map[string]string{
				"error":   "Upstream streaming error",
				"details": err.Error(),
			})
		}
		return
	}
	defer resp.Body.Close()
	metrics.ObserveUpstreamResponse(resp.StatusCode, time.Since(started))

	metrics.IncActiveStreams()
	defer metrics.DecActiveStreams()

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	written, err := p.relay(w, resp.Body)
	metrics.AddStreamBytes(written)

	switch {
	case err == nil:
		outcome := metrics.OutcomeOK
		if resp.StatusCode >= http.StatusBadRequest {
			outcome = metrics.OutcomeUpstreamStatus
		}
		metrics.ObserveStream(outcome, ranged)
		span.End(nil)
	case r.Context().Err() != nil || errors.Is(err, errClientWrite):
		logger.Debug("caller went away mid-stream", slog.Int64("bytes", written))
		metrics.ObserveStream(metrics.OutcomeClientGone, ranged)
		span.End(nil)
	default:
		logger.Error("upstream failed mid-stream",
			slog.Int("status", resp.StatusCode),
			slog.Int64("bytes", written),
			slog.String("error", err.Error()),
		)
		metrics.ObserveStream(metrics.OutcomeMidStream, ranged)
		span.End(err)
		panic(http.ErrAbortHandler)
	}
}

var errClientWrite = errors.New("write to caller failed")

// relay copies body to w in fixed-size chunks, flushing after each one so the
// player receives bytes as soon as the origin produces them.
func (p *Proxy) relay(w http.ResponseWriter, body io.Reader) (int64, error) {
	rc := http.NewResponseController(w)
	buf := make([]byte, p.chunkSize)
	var written int64

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			m, err := w.Write(buf[:n])
			written += int64(m)
			if err != nil {
				return written, errors.Join(errClientWrite, err)
			}
			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return written, errors.Join(errClientWrite, err)
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

func copyHeaders(dst, src http.Header) {
	skip := make(map[string]struct{}, len(hopHeaders))
	for _, h := range hopHeaders {
		skip[h] = struct{}{}
	}
	for _, field := range src.Values("Connection") {
		for _, name := range strings.Split(field, ",") {
			if name = strings.TrimSpace(name); name != "" {
				skip[textproto.CanonicalMIMEHeaderKey(name)] = struct{}{}
			}
		}
	}

	for key, values := range src {
		if _, ok := skip[textproto.CanonicalMIMEHeaderKey(key)]; ok {
			continue
		}
		dst.Del(key)
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
