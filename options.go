// options
package component

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"time"
)

// Config is the raw user configuration for a service: a key to value
// mapping merged with defaults at build time. Recognized shared keys:
//
//	service_name  identifier, defaults to the builder's name
//	state_name    identifier naming the state in diagnostics ("state")
//	initial_state any value, or func(any) any called at worker creation
//	timeout       int/int64 ms, float64 seconds, or time.Duration
//	top_level     bool - start the service as part of Build
//	child_spec    bool or ChildSpecOverrides
//
// Strategies add their own keys: Pooled reads "pool" (a PoolSize),
// Hungry reads "concurrency". Unknown keys fail the build.
type Config map[string]any

// PoolSize bounds a pooled service: min workers are pre-started, the
// pool may grow to max under load.
type PoolSize struct {
	Min int
	Max int
}

// ChildSpecOverrides customizes the descriptor returned by
// Service.ChildSpec.
type ChildSpecOverrides struct {
	ID       string
	Shutdown time.Duration
}

// Options is the immutable resolved configuration. It is produced once
// per service definition and closed over by everything the strategy
// generates.
type Options struct {
	ServiceName  string
	StateName    string
	InitialState any
	Timeout      time.Duration
	Pool         PoolSize
	Concurrency  int
	TopLevel     bool
	ChildSpec    *ChildSpecOverrides
}

const defaultTimeout = 5000 * time.Millisecond

var identRx = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdentifier(key string, v any) (string, error) {
	s, ok := v.(string)
	if !ok || !identRx.MatchString(s) {
		return "", fmt.Errorf("option %v must be a simple identifier, got %v", key, v)
	}
	return s, nil
}

// An integer timeout is milliseconds, a float is seconds, a Duration
// is taken as-is.
func timeoutValue(v any) (time.Duration, error) {
	var d time.Duration
	switch t := v.(type) {
	case time.Duration:
		d = t
	case int:
		d = time.Duration(t) * time.Millisecond
	case int64:
		d = time.Duration(t) * time.Millisecond
	case float64:
		d = time.Duration(math.Floor(t*1000)) * time.Millisecond
	default:
		return 0, fmt.Errorf("timeout must be int (ms), float (s) or time.Duration, got %T", v)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %v", d)
	}
	return d, nil
}

// resolveOptions merges the raw configuration with the shared defaults,
// then hands the remaining keys to the strategy for its own
// post-processing. Anything left over is a configuration error.
func resolveOptions(cfg Config, strat Strategy, serviceName string) (*Options, error) {
	rest := make(Config, len(cfg))
	for k, v := range cfg {
		rest[k] = v
	}

	opts := &Options{
		ServiceName: serviceName,
		StateName:   "state",
		Timeout:     defaultTimeout,
	}

	var err error
	if v, ok := rest["service_name"]; ok {
		delete(rest, "service_name")
		if opts.ServiceName, err = validIdentifier("service_name", v); err != nil {
			return nil, err
		}
	}
	if v, ok := rest["state_name"]; ok {
		delete(rest, "state_name")
		if opts.StateName, err = validIdentifier("state_name", v); err != nil {
			return nil, err
		}
	}
	if v, ok := rest["initial_state"]; ok {
		delete(rest, "initial_state")
		opts.InitialState = v
	}
	if v, ok := rest["timeout"]; ok {
		delete(rest, "timeout")
		if opts.Timeout, err = timeoutValue(v); err != nil {
			return nil, err
		}
	}
	if v, ok := rest["top_level"]; ok {
		delete(rest, "top_level")
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("option top_level must be a bool, got %T", v)
		}
		opts.TopLevel = b
	}
	if v, ok := rest["child_spec"]; ok {
		delete(rest, "child_spec")
		switch cs := v.(type) {
		case bool:
			if cs {
				opts.ChildSpec = &ChildSpecOverrides{}
			}
		case ChildSpecOverrides:
			opts.ChildSpec = &cs
		default:
			return nil, fmt.Errorf("option child_spec must be a bool or ChildSpecOverrides, got %T", v)
		}
	}

	if err = strat.resolveOptions(rest, opts); err != nil {
		return nil, err
	}

	if len(rest) > 0 {
		keys := make([]string, 0, len(rest))
		for k := range rest {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unsupported option(s) for %v strategy: %v", strat.name(), keys)
	}
	return opts, nil
}
