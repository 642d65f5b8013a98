// Package main implements the structmerge CLI, a thin driver over the merge
// engine: it reads the template and destination sources, runs the merge and
// writes the result.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/viant/structmerge/merge"
	"github.com/viant/structmerge/merge/analysis"
	"github.com/viant/structmerge/merge/refine"
)

var version = "0.1.0"

// Exit codes per error kind
const (
	exitOK               = 0
	exitTemplateParse    = 2
	exitDestinationParse = 3
	exitFreezeStructure  = 4
	exitUsage            = 5
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func main() {
	var (
		output         string
		prefer         string
		addTemplate    bool
		freezeToken    string
		maxDepth       int
		refineMethods  bool
		configPath     string
		showStats      bool
		showProvenance bool
		verbose        bool
	)

	rootCmd := &cobra.Command{
		Use:     "structmerge <template> <destination>",
		Short:   "Structural merge of a template Ruby source into a customized copy",
		Version: version,
		Long: `structmerge merges a template source file into a downstream customized copy
by structural identity rather than line diff. Matched constructs are resolved
by preference policy, destination freeze regions are preserved verbatim, and
class and module bodies are merged recursively.`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			options := &cliOptions{
				output:         output,
				prefer:         prefer,
				addTemplate:    addTemplate,
				freezeToken:    freezeToken,
				maxDepth:       maxDepth,
				refineMethods:  refineMethods,
				configPath:     configPath,
				showStats:      showStats,
				showProvenance: showProvenance,
				verbose:        verbose,
			}
			return runMerge(args[0], args[1], options)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&output, "output", "o", "", "write merged source to this file instead of stdout")
	flags.StringVar(&prefer, "prefer", "destination", "side that wins on a structural match: template or destination")
	flags.BoolVar(&addTemplate, "add-template-only", false, "add nodes present only in the template")
	flags.StringVar(&freezeToken, "freeze-token", analysis.DefaultFreezeToken, "freeze marker keyword")
	flags.IntVar(&maxDepth, "max-depth", merge.Unbounded, "recursion depth cap; -1 is unbounded, 0 disables recursion")
	flags.BoolVar(&refineMethods, "refine-methods", false, "pair renamed methods by similarity")
	flags.StringVar(&configPath, "config", "", "YAML merge configuration file")
	flags.BoolVar(&showStats, "stats", false, "print the per-decision line tally")
	flags.BoolVar(&showProvenance, "provenance", false, "print the per-line provenance table")
	flags.BoolVar(&verbose, "verbose", false, "report progress on stderr")

	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			printError(exit.err)
			os.Exit(exit.code)
		}
		printError(err)
		os.Exit(exitUsage)
	}
}

type cliOptions struct {
	output         string
	prefer         string
	addTemplate    bool
	freezeToken    string
	maxDepth       int
	refineMethods  bool
	configPath     string
	showStats      bool
	showProvenance bool
	verbose        bool
}

func runMerge(templateURL, destinationURL string, options *cliOptions) error {
	ctx := context.Background()
	fs := afs.New()

	template, err := fs.DownloadWithURL(ctx, templateURL)
	if err != nil {
		return &exitError{code: exitUsage, err: fmt.Errorf("failed to read template %s: %w", templateURL, err)}
	}
	destination, err := fs.DownloadWithURL(ctx, destinationURL)
	if err != nil {
		return &exitError{code: exitUsage, err: fmt.Errorf("failed to read destination %s: %w", destinationURL, err)}
	}

	mergeOptions, err := buildOptions(options)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	if options.verbose {
		printVerbose("merging %s into %s", templateURL, destinationURL)
	}

	result, err := merge.Merge(string(template), string(destination), mergeOptions...)
	if err != nil {
		return classifyError(err)
	}

	if options.output != "" {
		if err := fs.Upload(ctx, options.output, file.DefaultFileOsMode, bytes.NewReader([]byte(result.Content))); err != nil {
			return &exitError{code: exitUsage, err: fmt.Errorf("failed to write %s: %w", options.output, err)}
		}
		if options.verbose {
			printVerbose("wrote %s", options.output)
		}
	} else {
		fmt.Print(result.Content)
	}

	if options.showStats {
		printStats(result)
	}
	if options.showProvenance {
		printProvenance(result)
	}
	return nil
}

// buildOptions folds the config file and flags into engine options; flags set
// to non-default values win
func buildOptions(options *cliOptions) ([]merge.Option, error) {
	fileConfig, err := loadConfigFile(options.configPath)
	if err != nil {
		return nil, err
	}

	merged := fileConfig.apply(options)

	var result []merge.Option
	switch merged.prefer {
	case "template":
		result = append(result, merge.WithPreference(merge.PreferTemplate))
	case "destination":
		result = append(result, merge.WithPreference(merge.PreferDestination))
	default:
		return nil, fmt.Errorf("unrecognized preference %q: want template or destination", merged.prefer)
	}

	result = append(result,
		merge.WithAddTemplateOnlyNodes(merged.addTemplate),
		merge.WithFreezeToken(merged.freezeToken),
		merge.WithMaxRecursionDepth(merged.maxDepth),
	)

	if len(merged.typePreferences) > 0 {
		preferences := make(map[string]merge.Preference, len(merged.typePreferences))
		for mergeType, side := range merged.typePreferences {
			switch side {
			case "template":
				preferences[mergeType] = merge.PreferTemplate
			case "destination":
				preferences[mergeType] = merge.PreferDestination
			default:
				return nil, fmt.Errorf("unrecognized preference %q for merge type %q", side, mergeType)
			}
		}
		result = append(result, merge.WithTypePreferences(preferences))
	}

	if merged.refineMethods {
		refiner := refine.NewMethodMatchRefiner()
		if merged.methodRefiner != nil {
			if merged.methodRefiner.NameWeight > 0 {
				refiner.NameWeight = merged.methodRefiner.NameWeight
			}
			if merged.methodRefiner.ParamsWeight > 0 {
				refiner.ParamsWeight = merged.methodRefiner.ParamsWeight
			}
			if merged.methodRefiner.Threshold > 0 {
				refiner.Threshold = merged.methodRefiner.Threshold
			}
		}
		result = append(result, merge.WithMatchRefiners(refiner))
	}

	return result, nil
}

// classifyError maps engine error kinds onto distinct exit codes
func classifyError(err error) error {
	var templateErr *merge.TemplateParseError
	if errors.As(err, &templateErr) {
		return &exitError{code: exitTemplateParse, err: err}
	}
	var destinationErr *merge.DestinationParseError
	if errors.As(err, &destinationErr) {
		return &exitError{code: exitDestinationParse, err: err}
	}
	var freezeErr *analysis.InvalidFreezeStructureError
	if errors.As(err, &freezeErr) {
		return &exitError{code: exitFreezeStructure, err: err}
	}
	return &exitError{code: exitUsage, err: err}
}
