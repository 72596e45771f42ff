package generate

import (
	"context"
	"io"

	"github.com/pion/logging"

	"github.com/samsaffron/genweb/internal/llm"
	"github.com/samsaffron/genweb/internal/log"
)

// Options tune provider requests.
type Options struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int
}

// DefaultTemperature matches the sampling the generator was tuned with.
const DefaultTemperature = 0.7

// ProviderSource generates pages with an llm.Provider.
type ProviderSource struct {
	provider llm.Provider
	opts     Options
	log      logging.LeveledLogger
}

func NewProviderSource(p llm.Provider, opts Options) *ProviderSource {
	if opts.Temperature == 0 {
		opts.Temperature = DefaultTemperature
	}
	return &ProviderSource{provider: p, opts: opts, log: log.For(log.ScopeLLM)}
}

// Name reports the underlying provider.
func (s *ProviderSource) Name() string { return s.provider.Name() }

// Request builds the provider request for a generation.
func (s *ProviderSource) Request(prompt string, prior *string) llm.Request {
	return llm.Request{
		Model: s.opts.Model,
		Messages: []llm.Message{
			llm.SystemText(SystemInstruction),
			llm.UserText(BuildPrompt(prompt, prior)),
		},
		Temperature:     s.opts.Temperature,
		MaxOutputTokens: s.opts.MaxOutputTokens,
	}
}

func (s *ProviderSource) Generate(ctx context.Context, prompt string, prior *string) (FragmentStream, error) {
	stream, err := s.provider.Stream(ctx, s.Request(prompt, prior))
	if err != nil {
		return nil, AsError(s.provider.Name(), err)
	}
	return &providerStream{name: s.provider.Name(), inner: stream, log: s.log}, nil
}

// providerStream filters provider events down to text fragments.
type providerStream struct {
	name  string
	inner llm.Stream
	log   logging.LeveledLogger
	usage *llm.Usage
}

func (p *providerStream) Recv() (Fragment, error) {
	for {
		ev, err := p.inner.Recv()
		if err == io.EOF {
			return Fragment{}, io.EOF
		}
		if err != nil {
			return Fragment{}, AsError(p.name, err)
		}
		switch ev.Type {
		case llm.EventTextDelta:
			return Fragment{Text: ev.Text}, nil
		case llm.EventUsage:
			p.usage = ev.Use
		case llm.EventRetry:
			p.log.Infof("%s: retry %d/%d in %.1fs", p.name, ev.RetryAttempt, ev.RetryMaxAttempts, ev.RetryWaitSecs)
		}
	}
}

// Usage returns token usage once the provider reported it.
func (p *providerStream) Usage() *llm.Usage { return p.usage }

func (p *providerStream) Close() error { return p.inner.Close() }

// UsageReporter is implemented by streams that know their token usage.
type UsageReporter interface {
	Usage() *llm.Usage
}
