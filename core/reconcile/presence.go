package reconcile

import (
	"context"
	"strings"
	"time"

	"flightplan-bridge/core/identity"
	"flightplan-bridge/core/planning"
	"flightplan-bridge/core/window"

	"go.uber.org/zap"
)

// PlanLister lists plans by status. *planning.Session implements it.
type PlanLister interface {
	ListPlans(ctx context.Context, status string) ([]planning.PlanRow, error)
}

// Presence indexes the plans the planning system reports for the window.
// It answers "is this flight visible there right now" and is rebuilt every
// pass; the cache never stands in for it.
type Presence struct {
	exact map[identity.Key]int64
	loose map[identity.LooseKey]int64
}

// NewPresence returns an empty index.
func NewPresence() *Presence {
	return &Presence{
		exact: make(map[identity.Key]int64),
		loose: make(map[identity.LooseKey]int64),
	}
}

// Put records plan id under k.
func (p *Presence) Put(k identity.Key, id int64) {
	p.exact[k] = id
	p.loose[k.Loose()] = id
}

// Exact returns the plan listed under k.
func (p *Presence) Exact(k identity.Key) (int64, bool) {
	id, ok := p.exact[k]
	return id, ok
}

// Lookup returns the plan under k, falling back to a match that ignores EOBT.
func (p *Presence) Lookup(k identity.Key) (int64, bool) {
	if id, ok := p.exact[k]; ok {
		return id, true
	}
	id, ok := p.loose[k.Loose()]
	return id, ok
}

// Remove drops k from both indices.
func (p *Presence) Remove(k identity.Key) {
	delete(p.exact, k)
	delete(p.loose, k.Loose())
}

// Len returns the number of exact keys.
func (p *Presence) Len() int {
	return len(p.exact)
}

// PresenceOptions configures BuildPresence.
type PresenceOptions struct {
	Window   window.Window
	Statuses []string
	// Widen runs an extra unfiltered listing that fills keys the status
	// listings missed.
	Widen bool
	// Ignored plan ids are never indexed.
	Ignored map[int64]struct{}
	// Naive is the zone of plan timestamps without an offset.
	Naive *time.Location
}

// BuildPresence lists plans per status and indexes those whose EOBT lies in
// the window. A failed listing is logged and skipped.
func BuildPresence(ctx context.Context, lister PlanLister, opts PresenceOptions, logger *zap.Logger) *Presence {
	p := NewPresence()
	seen, kept := 0, 0

	index := func(rows []planning.PlanRow, overwrite bool) {
		for _, row := range rows {
			seen++
			key, ok := row.Key(opts.Naive)
			if !ok {
				continue
			}
			t, ok := key.Time()
			if !ok || !opts.Window.Contains(t) {
				continue
			}
			id, ok := row.ID()
			if !ok {
				continue
			}
			if _, skip := opts.Ignored[id]; skip {
				continue
			}
			if _, exists := p.exact[key]; exists && !overwrite {
				continue
			}
			p.Put(key, id)
			kept++
		}
	}

	for _, status := range opts.Statuses {
		rows, err := lister.ListPlans(ctx, status)
		if err != nil {
			logger.Warn("Plan listing failed", zap.String("status", status), zap.Error(err))
			continue
		}
		index(rows, true)
	}

	if opts.Widen {
		rows, err := lister.ListPlans(ctx, "")
		if err != nil {
			logger.Warn("Widened plan listing failed", zap.Error(err))
		} else {
			index(rows, false)
		}
	}

	logger.Info("Presence index built",
		zap.String("statuses", strings.Join(opts.Statuses, ",")),
		zap.Bool("widened", opts.Widen),
		zap.Int("scanned", seen),
		zap.Int("kept", kept),
		zap.Int("indexed", p.Len()),
		zap.Int("ignored", len(opts.Ignored)),
	)
	return p
}
