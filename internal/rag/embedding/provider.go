package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/rulebook-rag/internal/config"
	"github.com/akolanti/rulebook-rag/internal/domain/commonModels"
	"github.com/akolanti/rulebook-rag/internal/metrics"
	"github.com/akolanti/rulebook-rag/internal/rag/textnorm"
	"github.com/akolanti/rulebook-rag/pkg/logger_i"
	"github.com/sony/gobreaker"
)

var errRemoteDisabled = errors.New("remote embedding disabled")

type ProviderConfig struct {
	// Remote may be nil, in which case every vector comes from Fallback.
	Remote            Remote
	Model             string
	FallbackDimension int
	Timeout           time.Duration
	// BreakerFailures consecutive remote failures open the breaker; 0 disables it.
	BreakerFailures int
}

// Provider turns text into vectors. It never returns an error: remote
// failures degrade to the deterministic Fallback with a warning.
type Provider struct {
	remote    Remote
	model     string
	dimension int
	timeout   time.Duration
	breaker   *gobreaker.CircuitBreaker
	logger    *logger_i.Logger

	mu      sync.Mutex
	learned int
}

func NewProvider(cfg ProviderConfig) *Provider {
	if cfg.Model == "" {
		cfg.Model = config.DefaultEmbeddingModel
	}
	if cfg.FallbackDimension <= 0 {
		cfg.FallbackDimension = config.DefaultFallbackDimension
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultEmbeddingTimeout
	}

	p := &Provider{
		remote:    cfg.Remote,
		model:     cfg.Model,
		dimension: cfg.FallbackDimension,
		timeout:   cfg.Timeout,
		logger:    logger_i.NewLogger("embedding"),
	}

	if cfg.BreakerFailures > 0 {
		threshold := uint32(cfg.BreakerFailures)
		p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "embedding-remote",
			MaxRequests: 1,
			Timeout:     config.BreakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				p.logger.Warn("embedding circuit breaker changed state", "breaker", name, "from", from.String(), "to", to.String())
			},
		})
	}
	return p
}

func FromConfig(cfg *config.Config, remote Remote) *Provider {
	return NewProvider(ProviderConfig{
		Remote:            remote,
		Model:             cfg.EmbeddingModel,
		FallbackDimension: cfg.FallbackDimension,
		Timeout:           cfg.EmbeddingTimeout,
		BreakerFailures:   cfg.EmbeddingBreakerFailure,
	})
}

func (p *Provider) ModelName() string {
	return p.model
}

func (p *Provider) GetEmbedding(ctx context.Context, text string) ([]float32, bool) {
	vec, err := p.embed(ctx, text)
	return vec, err == nil
}

func (p *Provider) BatchEmbedding(ctx context.Context, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i], _ = p.GetEmbedding(ctx, text)
	}
	return out
}

// Dimension is the first dimension the remote model returned, or the
// fallback dimension when the remote has not answered yet and cannot be reached.
func (p *Provider) Dimension(ctx context.Context) int {
	if d := p.learnedDimension(); d > 0 {
		return d
	}
	vec, _ := p.GetEmbedding(ctx, config.StatusProbeText)
	return len(vec)
}

func (p *Provider) Status(ctx context.Context) commonModels.Status {
	status := commonModels.Status{Model: p.model}

	vec, err := p.embed(ctx, config.StatusProbeText)
	status.RemoteConnected = err == nil
	if err != nil {
		status.Error = err.Error()
	}

	sample := vec
	if len(sample) > 5 {
		sample = sample[:5]
	}
	status.TestEmbedding = &commonModels.TestEmbedding{
		Dimension: len(vec),
		Sample:    JSONSafe(sample),
	}
	return status
}

// embed always returns a usable vector; err reports why the fallback was used.
func (p *Provider) embed(ctx context.Context, text string) ([]float32, error) {
	cleaned := textnorm.Clean(text)
	log := p.logger.WithTrace(ctx)

	start := time.Now()
	vec, err := p.callRemote(ctx, cleaned)
	metrics.CaptureExecutionMetrics("embedding", time.Since(start))

	if err != nil {
		if !errors.Is(err, errRemoteDisabled) {
			log.Warn("remote embedding failed, using hash fallback", "model", p.model, "error", err)
		}
		metrics.CountEmbedding(metrics.SourceFallback)
		return Fallback(cleaned, p.fallbackDimension()), err
	}

	if learned := p.learn(len(vec)); learned != len(vec) {
		log.Warn("remote embedding dimension changed", "model", p.model, "first", learned, "now", len(vec))
	}
	metrics.CountEmbedding(metrics.SourceRemote)
	return vec, nil
}

func (p *Provider) callRemote(ctx context.Context, text string) ([]float32, error) {
	if p.remote == nil {
		return nil, errRemoteDisabled
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	call := func() (interface{}, error) {
		vec, err := p.remote.Embed(callCtx, text)
		if err != nil {
			return nil, err
		}
		if len(vec) == 0 {
			return nil, fmt.Errorf("%s returned an empty embedding", p.remote.Name())
		}
		return vec, nil
	}

	var res interface{}
	var err error
	if p.breaker != nil {
		res, err = p.breaker.Execute(call)
	} else {
		res, err = call()
	}
	if err != nil {
		return nil, err
	}
	return res.([]float32), nil
}

func (p *Provider) learn(dim int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.learned == 0 {
		p.learned = dim
	}
	return p.learned
}

// fallbackDimension pads fallback vectors to whatever the remote has
// produced so far, so they still fit a collection sized by the remote.
func (p *Provider) fallbackDimension() int {
	if d := p.learnedDimension(); d > 0 {
		return d
	}
	return p.dimension
}

func (p *Provider) learnedDimension() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.learned
}
