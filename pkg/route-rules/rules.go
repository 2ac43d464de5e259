package routerules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/always-cache/pagecache"
)

var ErrInvalidRule = errors.New("invalid rule")

var placeholder = regexp.MustCompile(`\{([^{}:]+)(:[^{}]*)?\}`)

type Config struct {
	Defaults Defaults `yaml:"defaults"`
	Rules    Rules    `yaml:"rules"`
}

type Defaults struct {
	Timeout   time.Duration `yaml:"timeout"`
	KeyPrefix string        `yaml:"keyPrefix"`
}

type Rules []Rule

type Rule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	// Timeout of zero means the default timeout.
	Timeout time.Duration `yaml:"timeout"`
	// KeyPrefix may reference route parameters of the pattern as {name}.
	KeyPrefix string `yaml:"keyPrefix"`
	// Bypass disables caching for the route.
	Bypass bool `yaml:"bypass"`
}

// Load reads and validates the rule file at filename.
func Load(filename string) (Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes a rule file, applies the defaults to the rules and validates them.
func Parse(b []byte) (Config, error) {
	var config Config
	decoder := yaml.NewDecoder(bytes.NewReader(b))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	if config.Defaults.Timeout < 0 {
		return config, fmt.Errorf("defaults.timeout: must not be negative: %w", ErrInvalidRule)
	}
	seen := make(map[string]int)
	for i := range config.Rules {
		rule := &config.Rules[i]
		if err := rule.validate(); err != nil {
			return config, fmt.Errorf("rules[%d].%w", i, err)
		}
		if j, ok := seen[rule.Pattern]; ok {
			return config, fmt.Errorf("rules[%d].pattern: %q already used by rules[%d]: %w", i, rule.Pattern, j, ErrInvalidRule)
		}
		seen[rule.Pattern] = i
		if rule.Name == "" {
			rule.Name = rule.Pattern
		}
		if rule.Timeout == 0 {
			rule.Timeout = config.Defaults.Timeout
		}
		if rule.KeyPrefix == "" {
			rule.KeyPrefix = config.Defaults.KeyPrefix
		}
	}
	return config, nil
}

func (r Rule) validate() error {
	if !strings.HasPrefix(r.Pattern, "/") {
		return fmt.Errorf("pattern: %q must start with \"/\": %w", r.Pattern, ErrInvalidRule)
	}
	if r.Timeout < 0 {
		return fmt.Errorf("timeout: must not be negative: %w", ErrInvalidRule)
	}
	params := make(map[string]bool)
	for _, m := range placeholder.FindAllStringSubmatch(r.Pattern, -1) {
		params[m[1]] = true
	}
	for _, m := range placeholder.FindAllStringSubmatch(r.KeyPrefix, -1) {
		if !params[m[1]] {
			return fmt.Errorf("keyPrefix: parameter %q not in pattern %q: %w", m[1], r.Pattern, ErrInvalidRule)
		}
	}
	return nil
}

// Route returns the cache configuration of the rule.
func (r Rule) Route() pagecache.Route {
	route := pagecache.Route{
		Name:      r.Name,
		Timeout:   r.Timeout,
		KeyPrefix: r.KeyPrefix,
		Bypass:    r.Bypass,
	}
	if placeholder.MatchString(r.KeyPrefix) {
		template := r.KeyPrefix
		route.KeyPrefixFunc = func(req *http.Request) (string, error) {
			return ExpandKeyPrefix(template, req)
		}
	}
	return route
}

// ExpandKeyPrefix replaces every {name} in template with the value of the route parameter name.
func ExpandKeyPrefix(template string, r *http.Request) (string, error) {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "", fmt.Errorf("key prefix %q: request has no route parameters", template)
	}
	prefix := placeholder.ReplaceAllStringFunc(template, func(s string) string {
		name := placeholder.FindStringSubmatch(s)[1]
		return rctx.URLParam(name)
	})
	log.Trace().Str("template", template).Str("prefix", prefix).Msg("Expanded key prefix")
	return prefix, nil
}
