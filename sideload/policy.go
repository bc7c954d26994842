package sideload

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/on-the-ground/wrapped_ive_go/effects/binding"
	"github.com/on-the-ground/wrapped_ive_go/effects/configkeys"
	"github.com/on-the-ground/wrapped_ive_go/shared/helper"
)

const (
	DefaultPrePrefix  = "pre"
	DefaultPostPrefix = "post"

	// LogEverywhere as log_in_environment enables logging in any environment.
	LogEverywhere = "*"
)

// Prefixes are the hook name prefixes of each phase. An empty field is unset.
type Prefixes struct {
	Pre  string
	Post string
}

func (p Prefixes) For(phase Phase) string {
	if phase == PhasePre {
		return p.Pre
	}
	return p.Post
}

// Snapshot is the resolved policy an interceptor works with between refreshes.
type Snapshot struct {
	Prefixes    Prefixes
	ShouldLog   bool
	Environment string
}

// ResolvePrefixes picks, per phase, the configured prefix, then the
// override, then the default.
func ResolvePrefixes(ctx context.Context, override Prefixes) (Prefixes, error) {
	pre, err := resolvePrefix(ctx, configkeys.SideloadHookPrefixPre, override.Pre, DefaultPrePrefix)
	if err != nil {
		return Prefixes{}, err
	}
	post, err := resolvePrefix(ctx, configkeys.SideloadHookPrefixPost, override.Post, DefaultPostPrefix)
	if err != nil {
		return Prefixes{}, err
	}
	return Prefixes{Pre: pre, Post: post}, nil
}

func resolvePrefix(ctx context.Context, key, override, fallback string) (string, error) {
	raw, ok := binding.Lookup(ctx, key)
	if ok && raw != nil {
		configured, isString := raw.(string)
		if !isString {
			return "", fmt.Errorf("%w: %s is %T", ErrInvalidPrefix, key, raw)
		}
		if configured != "" {
			return configured, nil
		}
	}
	if override != "" {
		return override, nil
	}
	return fallback, nil
}

// ShouldLog reports whether log_in_environment enables logging for the
// current app.env, and returns that environment.
func ShouldLog(ctx context.Context) (bool, string) {
	env, _ := helper.GetTypedValueOf2[string](func() (any, bool) {
		return binding.Lookup(ctx, configkeys.AppEnvironment)
	})
	policy, _ := binding.Lookup(ctx, configkeys.SideloadLogInEnvironment)
	return LogsIn(policy, env), env
}

// LogsIn evaluates a log_in_environment value against env: "*" always logs,
// a string logs in the environment it names, a sequence logs in the
// environments it contains. An empty name matches nothing and anything else
// never logs.
func LogsIn(policy any, env string) bool {
	if policy == LogEverywhere {
		return true
	}
	if env == "" {
		return false
	}
	switch v := policy.(type) {
	case string:
		return v == env
	case []string:
		return slices.Contains(v, env)
	case []any:
		return slices.Contains(v, any(env))
	default:
		return false
	}
}

// Policy holds the current snapshot of one interceptor.
type Policy struct {
	override Prefixes

	mu       sync.RWMutex
	snapshot Snapshot
}

func NewPolicy(ctx context.Context, override Prefixes) (*Policy, error) {
	p := &Policy{override: override}
	if err := p.Refresh(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Policy) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Refresh re-reads the configuration. On error the previous snapshot stays.
func (p *Policy) Refresh(ctx context.Context) error {
	prefixes, err := ResolvePrefixes(ctx, p.override)
	if err != nil {
		return err
	}
	shouldLog, env := ShouldLog(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot = Snapshot{
		Prefixes:    prefixes,
		ShouldLog:   shouldLog,
		Environment: env,
	}
	return nil
}
