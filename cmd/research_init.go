package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-report/internal/curator"
	"github.com/sells-group/research-report/internal/progress"
	"github.com/sells-group/research-report/internal/research"
	"github.com/sells-group/research-report/internal/store"
	anthropicpkg "github.com/sells-group/research-report/pkg/anthropic"
	"github.com/sells-group/research-report/pkg/gemini"
	"github.com/sells-group/research-report/pkg/tavily"
)

// researchEnv holds the initialized store, runner, and notifier shared by
// the run/batch/serve commands.
type researchEnv struct {
	Store    store.Store
	Runner   *research.Runner
	Notifier progress.Notifier
}

// Close releases resources held by the environment.
func (re *researchEnv) Close() {
	if re.Store != nil {
		_ = re.Store.Close()
	}
}

// initResearch sets up the store, API clients, and the job runner. Callers
// should defer env.Close(). The notifier is attached to every stage so
// progress flows through a single channel.
func initResearch(ctx context.Context, notifier progress.Notifier) (*researchEnv, error) {
	if notifier == nil {
		notifier = progress.Log{}
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	if cfg.Anthropic.Key == "" {
		_ = st.Close()
		return nil, eris.New("anthropic API key is required (RESEARCH_ANTHROPIC_KEY)")
	}
	if cfg.Tavily.Key == "" {
		_ = st.Close()
		return nil, eris.New("tavily API key is required (RESEARCH_TAVILY_KEY)")
	}

	prompts, err := research.LoadPrompts(cfg.Research.PromptsPath)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load prompts")
	}

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	tavilyClient := tavily.NewClient(cfg.Tavily.Key, tavily.WithBaseURL(cfg.Tavily.BaseURL))

	geminiClient, err := gemini.NewClient(ctx, cfg.Gemini.Key, gemini.WithModel(cfg.Gemini.Model))
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "init gemini")
	}

	gen := research.NewLLMQueryGenerator(anthropicClient, cfg.Anthropic.Model)
	searcher := research.NewTavilySearcher(tavilyClient, cfg.Tavily.MaxResults)
	facts := research.NewGeminiFactClient(geminiClient, prompts)

	analyzers := research.NewDefaultAnalyzers(gen, searcher, facts, notifier, prompts)
	runner := research.NewRunner(analyzers, curator.New(notifier), st, notifier)

	return &researchEnv{Store: st, Runner: runner, Notifier: notifier}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "research.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
