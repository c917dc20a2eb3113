package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/recon-dashboard/internal/pkg/logger"
	"github.com/ignite/recon-dashboard/internal/recon"
)

// MultiSource fans a fetch out to several sources concurrently and merges
// their rows, in source order, into one {"data": [...]} payload. A failing
// source is logged and skipped; the fetch fails only when every source
// fails.
type MultiSource struct {
	name    string
	sources []Source
}

// NewMultiSource merges sources under name. Nil sources are ignored.
func NewMultiSource(name string, sources ...Source) *MultiSource {
	m := &MultiSource{name: name}
	for _, s := range sources {
		if s != nil {
			m.sources = append(m.sources, s)
		}
	}
	return m
}

// Name returns the source name.
func (m *MultiSource) Name() string { return m.name }

// Len returns the number of merged sources.
func (m *MultiSource) Len() int { return len(m.sources) }

// Fetch fetches every source and merges the decoded rows.
func (m *MultiSource) Fetch(ctx context.Context, q Query) ([]byte, error) {
	payloads := make([][]byte, len(m.sources))
	errs := make([]error, len(m.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range m.sources {
		g.Go(func() error {
			data, err := s.Fetch(gctx, q)
			if err != nil {
				logger.Warn("upstream: source failed", "source", s.Name(), "merged_into", m.name, "error", err)
				errs[i] = fmt.Errorf("%s: %w", s.Name(), err)
				return nil
			}
			payloads[i] = data
			return nil
		})
	}
	_ = g.Wait()

	rows := make([]recon.RawRecord, 0)
	failed := 0
	for i := range m.sources {
		if errs[i] != nil {
			failed++
			continue
		}
		rows = append(rows, recon.DecodePayload(payloads[i])...)
	}
	if len(m.sources) > 0 && failed == len(m.sources) {
		return nil, fmt.Errorf("%s: all sources failed: %w", m.name, errors.Join(errs...))
	}

	data, err := json.Marshal(map[string]any{"data": rows})
	if err != nil {
		return nil, fmt.Errorf("%s: marshal merged rows: %w", m.name, err)
	}
	return data, nil
}
