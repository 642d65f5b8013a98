// Package merge implements a structural merge of a template Ruby source into
// a destination copy: matched constructs are resolved by preference policy,
// destination freeze regions are preserved verbatim, and compound bodies are
// merged recursively.
package merge

import (
	"github.com/viant/structmerge/merge/analysis"
	"github.com/viant/structmerge/merge/model"
	"github.com/viant/structmerge/merge/refine"
)

// Preference selects which side wins when template and destination carry the
// same construct with different content.
type Preference int

const (
	// PreferDestination keeps the destination version on a signature match
	PreferDestination Preference = iota
	// PreferTemplate keeps the template version on a signature match
	PreferTemplate
)

// String returns the preference name
func (p Preference) String() string {
	if p == PreferTemplate {
		return "template"
	}
	return "destination"
}

// Unbounded disables the recursion depth cap
const Unbounded = -1

// Config collects every merge option
type Config struct {
	// Preference is the global default policy on a signature match
	Preference Preference

	// TypePreferences maps a node's merge type, assigned by NodeTyping, to a
	// per-type preference that overrides the global default.
	TypePreferences map[string]Preference

	// AddTemplateOnlyNodes adds nodes present only in the template
	AddTemplateOnlyNodes bool

	// FreezeToken is the freeze marker keyword
	FreezeToken string

	// SignatureGenerator customizes signature derivation
	SignatureGenerator model.SignatureGenerator

	// NodeTyping maps node kinds to transforms that may tag nodes
	NodeTyping map[model.Kind]model.NodeTransform

	// Refiners are post-signature fuzzy pairing passes, in priority order
	Refiners []refine.Refiner

	// MaxRecursionDepth caps body recursion; Unbounded removes the cap and 0
	// disables recursion entirely.
	MaxRecursionDepth int
}

// Option mutates the merge configuration
type Option func(*Config)

// newConfig applies options over the defaults
func newConfig(options []Option) *Config {
	config := &Config{
		Preference:        PreferDestination,
		FreezeToken:       analysis.DefaultFreezeToken,
		MaxRecursionDepth: Unbounded,
	}
	for _, option := range options {
		option(config)
	}
	if config.FreezeToken == "" {
		config.FreezeToken = analysis.DefaultFreezeToken
	}
	return config
}

// WithPreference sets the global preference
func WithPreference(preference Preference) Option {
	return func(c *Config) {
		c.Preference = preference
	}
}

// WithTypePreferences sets per-merge-type preferences
func WithTypePreferences(preferences map[string]Preference) Option {
	return func(c *Config) {
		c.TypePreferences = preferences
	}
}

// WithAddTemplateOnlyNodes controls whether template-only nodes are added
func WithAddTemplateOnlyNodes(add bool) Option {
	return func(c *Config) {
		c.AddTemplateOnlyNodes = add
	}
}

// WithFreezeToken sets the freeze marker keyword
func WithFreezeToken(token string) Option {
	return func(c *Config) {
		c.FreezeToken = token
	}
}

// WithSignatureGenerator sets a custom signature generator
func WithSignatureGenerator(generator model.SignatureGenerator) Option {
	return func(c *Config) {
		c.SignatureGenerator = generator
	}
}

// WithNodeTyping sets per-kind node transforms
func WithNodeTyping(typing map[model.Kind]model.NodeTransform) Option {
	return func(c *Config) {
		c.NodeTyping = typing
	}
}

// WithMatchRefiners sets the refiner chain
func WithMatchRefiners(refiners ...refine.Refiner) Option {
	return func(c *Config) {
		c.Refiners = refiners
	}
}

// WithMaxRecursionDepth caps the body recursion depth
func WithMaxRecursionDepth(depth int) Option {
	return func(c *Config) {
		c.MaxRecursionDepth = depth
	}
}

// preferenceFor resolves the effective preference for a matched pair: a merge
// type on either node looks up the per-type policy, otherwise the global
// default applies.
func (c *Config) preferenceFor(template, destination *model.Node) Preference {
	if c.TypePreferences != nil {
		if template != nil && template.MergeType != "" {
			if preference, ok := c.TypePreferences[template.MergeType]; ok {
				return preference
			}
		}
		if destination != nil && destination.MergeType != "" {
			if preference, ok := c.TypePreferences[destination.MergeType]; ok {
				return preference
			}
		}
	}
	return c.Preference
}

// analysisOptions projects the merge configuration onto file analysis
func (c *Config) analysisOptions() *analysis.Options {
	return &analysis.Options{
		FreezeToken:        c.FreezeToken,
		SignatureGenerator: c.SignatureGenerator,
		NodeTyping:         c.NodeTyping,
	}
}
