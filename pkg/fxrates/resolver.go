package fxrates

import (
	"context"
	"strings"

	"github.com/angelmondragon/campaign-attribution/pkg/logger"
	"github.com/angelmondragon/campaign-attribution/pkg/metrics"
)

const DefaultFallbackRate = 0.96

// Source names where a resolved rate came from.
type Source string

const (
	SourceIdentity Source = "identity"
	SourceCache    Source = "cache"
	SourceAPI      Source = "api"
	SourceFallback Source = "fallback"
)

type Resolution struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Rate   float64 `json:"rate"`
	Source Source  `json:"source"`
}

type rateSource interface {
	Latest(ctx context.Context, from, to string) (float64, error)
}

// ResolverParams wires the resolver. A nil Source always yields the fallback.
type ResolverParams struct {
	Source   rateSource
	Cache    *Cache
	Fallback float64
	Logger   *logger.Logger
	Metrics  *metrics.AttributionMetrics
}

// Resolver never fails: lookup errors degrade to the fallback rate.
type Resolver struct {
	source   rateSource
	cache    *Cache
	fallback float64
	logg     *logger.Logger
	metrics  *metrics.AttributionMetrics
}

func NewResolver(p ResolverParams) *Resolver {
	fallback := p.Fallback
	if fallback <= 0 {
		fallback = DefaultFallbackRate
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Resolver{
		source:   p.Source,
		cache:    p.Cache,
		fallback: fallback,
		logg:     logg,
		metrics:  p.Metrics,
	}
}

func (r *Resolver) Resolve(ctx context.Context, from, to string) Resolution {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	out := Resolution{From: from, To: to}
	if from == to {
		out.Rate, out.Source = 1, SourceIdentity
		return out
	}
	ctx = r.logg.WithFields(ctx, map[string]any{"from": from, "to": to})

	rate, ok, err := r.cache.Get(ctx, from, to)
	if err != nil {
		r.logg.Warn(ctx, "fx rate cache read failed: "+err.Error())
	}
	if ok {
		out.Rate, out.Source = rate, SourceCache
		return out
	}

	if r.source == nil {
		return r.useFallback(ctx, out, nil)
	}
	rate, err = r.source.Latest(ctx, from, to)
	if err != nil {
		return r.useFallback(ctx, out, err)
	}
	if err := r.cache.Put(ctx, from, to, rate); err != nil {
		r.logg.Warn(ctx, "fx rate cache write failed: "+err.Error())
	}
	r.logg.Info(r.logg.WithField(ctx, "rate", rate), "fx rate resolved")
	out.Rate, out.Source = rate, SourceAPI
	return out
}

func (r *Resolver) useFallback(ctx context.Context, out Resolution, err error) Resolution {
	r.metrics.IncFXFallback()
	ctx = r.logg.WithField(ctx, "rate", r.fallback)
	if err != nil {
		r.logg.Error(ctx, "fx rate lookup failed, using fallback rate", err)
	} else {
		r.logg.Warn(ctx, "fx lookup disabled, using fallback rate")
	}
	out.Rate, out.Source = r.fallback, SourceFallback
	return out
}
