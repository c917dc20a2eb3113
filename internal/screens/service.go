// Package screens runs one reconciliation cycle per dashboard screen:
// fetch the raw payload, normalize and reconcile it, and derive the
// screen's rollups.
package screens

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/recon-dashboard/internal/entity"
	"github.com/ignite/recon-dashboard/internal/pkg/logger"
	"github.com/ignite/recon-dashboard/internal/recon"
	"github.com/ignite/recon-dashboard/internal/upstream"
)

var (
	// ErrNotConfigured is returned for screens without an upstream.
	ErrNotConfigured = errors.New("screens: upstream not configured")
	// ErrUnknownEntity is returned when reconciling an unregistered entity.
	ErrUnknownEntity = errors.New("screens: unknown entity")
)

// Snapshot is the outcome of one fetch-and-reconcile cycle.
type Snapshot struct {
	CycleID   string              `json:"cycle_id"`
	FetchedAt time.Time           `json:"fetched_at"`
	Entity    string              `json:"entity"`
	Input     int                 `json:"input"`
	Dropped   int                 `json:"dropped"`
	Records   recon.ReconciledSet `json:"records"`
	Rollups   any                 `json:"rollups,omitempty"`
}

// Sources holds the upstream of each screen. Nil sources are not
// configured.
type Sources struct {
	Benefits   upstream.Source
	Dispatches upstream.Source
	History    upstream.Source
	Channels   upstream.Source
}

// Service produces screen snapshots.
type Service struct {
	sources Sources
	mapper  recon.Mapper
	now     func() time.Time
}

// NewService creates a screen service. loc applies to upstream dates
// without an offset; nil means UTC.
func NewService(sources Sources, loc *time.Location) *Service {
	return &Service{
		sources: sources,
		mapper:  recon.Mapper{Dates: recon.DateParser{Location: loc}},
		now:     time.Now,
	}
}

// Benefits looks up the benefits of a CPF.
func (s *Service) Benefits(ctx context.Context, cpf string) (*Snapshot, error) {
	if recon.DigitsOnly(cpf) == "" {
		return nil, upstream.ErrMissingDocument
	}
	return s.cycle(ctx, s.sources.Benefits, entity.BenefitSchema(), upstream.Query{Document: cpf}, nil)
}

// Dispatches returns the dispatch tracking rows, optionally narrowed to one
// campaign, with per-campaign rollups.
func (s *Service) Dispatches(ctx context.Context, campaign string) (*Snapshot, error) {
	snap, err := s.cycle(ctx, s.sources.Dispatches, entity.DispatchSchema(), upstream.Query{Campaign: campaign}, nil)
	if err != nil {
		return nil, err
	}
	if campaign != "" {
		want := recon.NormalizeText(campaign)
		snap.Records = filter(snap.Records, func(r recon.Record) bool {
			return recon.NormalizeText(r.Text(entity.FieldCampaign)) == want
		})
	}
	snap.Rollups = entity.CampaignRollups(snap.Records, campaign)
	return snap, nil
}

// Campaigns returns only the per-campaign rollups of the dispatch screen.
func (s *Service) Campaigns(ctx context.Context) (*Snapshot, error) {
	snap, err := s.cycle(ctx, s.sources.Dispatches, entity.DispatchSchema(), upstream.Query{}, func(set recon.ReconciledSet) any {
		return entity.CampaignRollups(set)
	})
	if err != nil {
		return nil, err
	}
	snap.Records = recon.ReconciledSet{}
	return snap, nil
}

// Channels returns the channel phones with per-channel capacity rollups.
func (s *Service) Channels(ctx context.Context) (*Snapshot, error) {
	return s.cycle(ctx, s.sources.Channels, entity.ChannelSchema(), upstream.Query{}, func(set recon.ReconciledSet) any {
		return entity.ChannelRollups(set)
	})
}

// BusinessManagers returns the channel phones rolled up per BM.
func (s *Service) BusinessManagers(ctx context.Context) (*Snapshot, error) {
	return s.cycle(ctx, s.sources.Channels, entity.ChannelSchema(), upstream.Query{}, func(set recon.ReconciledSet) any {
		return entity.BMRollups(set)
	})
}

// History returns the consultation history, narrowed to a CPF when given.
func (s *Service) History(ctx context.Context, cpf string) (*Snapshot, error) {
	snap, err := s.cycle(ctx, s.sources.History, entity.HistorySchema(), upstream.Query{Document: cpf}, nil)
	if err != nil {
		return nil, err
	}
	if want := recon.DigitsOnly(cpf); want != "" {
		snap.Records = filter(snap.Records, func(r recon.Record) bool {
			return recon.DigitsOnly(r.Text(entity.FieldDocument)) == want
		})
	}
	return snap, nil
}

// Reconcile runs a posted payload through the named entity's pipeline.
func (s *Service) Reconcile(name string, payload []byte) (*Snapshot, error) {
	schema, ok := entity.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, name)
	}
	snap := s.run(schema, payload)
	snap.Rollups = Rollups(schema.Entity, snap.Records)
	return snap, nil
}

// Rollups derives the default rollups of an entity.
func Rollups(name string, set recon.ReconciledSet) any {
	switch strings.ToLower(name) {
	case entity.Dispatch:
		return entity.CampaignRollups(set)
	case entity.Channel:
		return entity.ChannelRollups(set)
	}
	return nil
}

func (s *Service) cycle(ctx context.Context, src upstream.Source, schema recon.Schema, q upstream.Query, rollups func(recon.ReconciledSet) any) (*Snapshot, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, schema.Entity)
	}
	start := s.now()
	payload, err := src.Fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", schema.Entity, err)
	}

	snap := s.run(schema, payload)
	if rollups != nil {
		snap.Rollups = rollups(snap.Records)
	}
	logger.Info("screens: cycle done",
		"cycle_id", snap.CycleID, "entity", schema.Entity, "source", src.Name(),
		"input", snap.Input, "dropped", snap.Dropped, "records", len(snap.Records),
		"duration_ms", s.now().Sub(start).Milliseconds())
	return snap, nil
}

func (s *Service) run(schema recon.Schema, payload []byte) *Snapshot {
	res := s.mapper.Run(schema, recon.DecodePayload(payload))
	return &Snapshot{
		CycleID:   uuid.NewString(),
		FetchedAt: s.now().UTC(),
		Entity:    res.Entity,
		Input:     res.Input,
		Dropped:   res.Dropped,
		Records:   res.Records,
	}
}

func filter(set recon.ReconciledSet, keep func(recon.Record) bool) recon.ReconciledSet {
	out := make(recon.ReconciledSet, 0, len(set))
	for _, r := range set {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
