package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/viant/structmerge/merge"
)

// fileConfig is the YAML merge configuration a project can pin its policy in
type fileConfig struct {
	Preference           string            `yaml:"preference"`
	AddTemplateOnlyNodes *bool             `yaml:"add_template_only_nodes"`
	FreezeToken          string            `yaml:"freeze_token"`
	MaxRecursionDepth    *int              `yaml:"max_recursion_depth"`
	RefineMethods        *bool             `yaml:"refine_methods"`
	MethodRefiner        *refinerConfig    `yaml:"method_refiner"`
	TypePreferences      map[string]string `yaml:"type_preferences"`
}

type refinerConfig struct {
	NameWeight   float64 `yaml:"name_weight"`
	ParamsWeight float64 `yaml:"params_weight"`
	Threshold    float64 `yaml:"threshold"`
}

// mergedOptions is the flag set after folding in the config file
type mergedOptions struct {
	prefer          string
	addTemplate     bool
	freezeToken     string
	maxDepth        int
	refineMethods   bool
	methodRefiner   *refinerConfig
	typePreferences map[string]string
}

func loadConfigFile(path string) (*fileConfig, error) {
	if path == "" {
		return &fileConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	config := &fileConfig{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return config, nil
}

// apply folds the config file under the command-line flags: a flag set to a
// non-default value wins over the file, while a flag left at its default
// value yields to the file even when it was given explicitly
func (c *fileConfig) apply(options *cliOptions) *mergedOptions {
	merged := &mergedOptions{
		prefer:          options.prefer,
		addTemplate:     options.addTemplate,
		freezeToken:     options.freezeToken,
		maxDepth:        options.maxDepth,
		refineMethods:   options.refineMethods,
		methodRefiner:   c.MethodRefiner,
		typePreferences: c.TypePreferences,
	}
	if c.Preference != "" && options.prefer == "destination" {
		merged.prefer = c.Preference
	}
	if c.AddTemplateOnlyNodes != nil && !options.addTemplate {
		merged.addTemplate = *c.AddTemplateOnlyNodes
	}
	if c.FreezeToken != "" && options.freezeToken == defaultFreezeToken() {
		merged.freezeToken = c.FreezeToken
	}
	if c.MaxRecursionDepth != nil && options.maxDepth == merge.Unbounded {
		merged.maxDepth = *c.MaxRecursionDepth
	}
	if c.RefineMethods != nil && !options.refineMethods {
		merged.refineMethods = *c.RefineMethods
	}
	return merged
}
