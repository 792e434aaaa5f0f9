package server

import (
	"math/rand/v2"
	"time"
)

// maxStartDelay caps the random delay before the first background sample.
const maxStartDelay = 59 * time.Second

// randomStartDelay spreads the first sample of many agents booting together.
func randomStartDelay(interval time.Duration) func() time.Duration {
	limit := min(interval, maxStartDelay)
	return func() time.Duration {
		if limit < time.Second {
			return 0
		}
		return time.Duration(rand.Int64N(int64(limit/time.Second))+1) * time.Second
	}
}

// sampler periodically collects the full report so that the status tracker
// and the metrics stay current without client requests.
func (s *Server) sampler() {
	defer s.wg.Done()

	startDelay := s.startDelay()
	s.logger.Infof("Sampler will start in %v", startDelay)
	select {
	case <-time.After(startDelay):
		s.sample()
	case <-s.done:
		s.logger.Info("Sampler received shutdown signal before starting")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sample()
		case <-s.done:
			s.logger.Info("Sampler received shutdown signal.")
			return
		}
	}
}

func (s *Server) sample() {
	start := time.Now()
	_, outcome := s.assembler.Collect(s.ctx)
	if outcome.Ok() {
		s.logger.Debugf("Sampler: collected report in %v", time.Since(start))
		return
	}
	s.logger.Debugf("Sampler: collected report in %v with %d error(s)", time.Since(start), outcome.Errors().Len())
}
