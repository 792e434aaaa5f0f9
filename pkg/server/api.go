package server

import (
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/zeebo/blake3"

	"github.com/conqp/digsigctl/pkg/response"
	"github.com/conqp/digsigctl/pkg/result"
)

var errUnknownProbe = errors.New("no such probe")

// handleSysinfo collects the full report. With ?partial=1 the report is
// returned with status 200 even if some probes failed.
func (s *Server) handleSysinfo(w http.ResponseWriter, r *http.Request) {
	report, outcome := s.assembler.Collect(r.Context())
	if partial(r) {
		outcome = result.Success(report)
	}
	s.write(w, r, outcome)
}

func (s *Server) handleProbes(w http.ResponseWriter, r *http.Request) {
	s.write(w, r, result.Success(s.assembler.Registry().Names()))
}

// handleProbe runs a single probe and returns its outcome alone.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	outcome, ok := s.assembler.Run(r.Context(), name)
	if !ok {
		outcome = result.Failure(result.NotFound(name, errUnknownProbe))
	}
	s.write(w, r, outcome)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary := computeSummary(s.tracker.Snapshots(), time.Now(), s.staleAfter)
	s.write(w, r, result.Success(summary))
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

// write encodes outcome with the codec the client accepts. Successful
// responses carry an ETag and are answered with 304 when it matches
// If-None-Match.
func (s *Server) write(w http.ResponseWriter, r *http.Request, outcome result.Outcome) {
	resp := response.Encode(outcome, response.Negotiate(r.Header.Get("Accept")))
	if resp.Fallback() {
		s.logger.Errorf("Failed to encode response for %s", r.URL.Path)
	}

	w.Header().Add("Vary", "Accept")
	if resp.Status == http.StatusOK {
		tag := etag(resp.Body)
		w.Header().Set("ETag", tag)
		if etagMatch(r.Header.Get("If-None-Match"), tag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	response.Write(w, resp)
}

// etag returns a strong entity tag for body.
func etag(body []byte) string {
	sum := blake3.Sum256(body)
	return strconv.Quote(hex.EncodeToString(sum[:16]))
}

// etagMatch reports whether the If-None-Match header value matches tag.
// Weak comparison is used, as required for If-None-Match.
func etagMatch(header, tag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == tag {
			return true
		}
	}
	return false
}

func partial(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("partial"))
	return err == nil && v
}
