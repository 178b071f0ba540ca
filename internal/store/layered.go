package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/handiism/releasedash/internal/model"
	"github.com/hashicorp/go-hclog"
)

var errNoTiers = errors.New("no storage tiers configured")

// Tier is a named Store inside a Layered store.
type Tier struct {
	Name  string
	Store Store
}

// Layered combines several stores, typically the remote blob first and the
// local cache second.
//
// Load returns the first non-empty snapshot in tier order and falls back to
// later tiers when a tier fails. Save writes every tier and joins the
// failures, so a down remote does not lose the local copy.
type Layered struct {
	tiers  []Tier
	logger hclog.Logger
}

var _ Store = (*Layered)(nil)

// NewLayered creates a Layered store. A nil logger disables logging.
func NewLayered(logger hclog.Logger, tiers ...Tier) *Layered {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Layered{tiers: tiers, logger: logger.Named("store")}
}

// Load implements Store.
func (l *Layered) Load(ctx context.Context) ([]*model.Release, error) {
	if len(l.tiers) == 0 {
		return nil, errNoTiers
	}

	var (
		errs      []error
		succeeded bool
	)
	for _, t := range l.tiers {
		releases, err := t.Store.Load(ctx)
		if err != nil {
			l.logger.Warn("cache tier load failed", "tier", t.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
			continue
		}
		succeeded = true
		if len(releases) > 0 {
			l.logger.Debug("cache loaded", "tier", t.Name, "releases", len(releases))
			return releases, nil
		}
	}

	if succeeded {
		return nil, nil
	}
	return nil, errors.Join(errs...)
}

// Save implements Store.
func (l *Layered) Save(ctx context.Context, releases []*model.Release) error {
	if len(l.tiers) == 0 {
		return errNoTiers
	}

	var errs []error
	for _, t := range l.tiers {
		if err := t.Store.Save(ctx, releases); err != nil {
			l.logger.Warn("cache tier save failed", "tier", t.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
		}
	}
	return errors.Join(errs...)
}
