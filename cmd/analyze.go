package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/producex-ai/axiom-sub001/pkg/analysis"
	"github.com/producex-ai/axiom-sub001/pkg/checklist"
	"github.com/producex-ai/axiom-sub001/pkg/config"
	"github.com/producex-ai/axiom-sub001/pkg/documents"
	"github.com/producex-ai/axiom-sub001/pkg/llm"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	checklistPath        string
	documentsDir         string
	subModuleDescription string
	analysisTimeout      time.Duration
)

//nolint:gochecknoglobals // Cobra boilerplate
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a full compliance analysis",
	Long: `analyze loads a checklist and a directory of extracted document text,
runs the full analysis path, and prints the result as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var result analysis.AnalysisResult
		result, err = runAnalysis(cmd.Context())
		if err != nil {
			return err
		}
		err = printJSON(result)
		return err
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Run the lightweight score-only analysis",
	Long: `score runs the fast path: relevance check, extraction, assessment, and
calibration only. No recommendations are generated.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		engine, requirements, docs, buildErr := buildEngine()
		if buildErr != nil {
			err = buildErr
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), analysisTimeout)
		defer cancel()

		var result analysis.LightweightResult
		result, err = engine.AnalyzeLightweight(ctx, requirements, docs, subModuleDescription)
		if err != nil {
			err = errors.Wrap(err, "lightweight analysis failed")
			return err
		}

		err = printJSON(result)
		return err
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	for _, c := range []*cobra.Command{analyzeCmd, scoreCmd} {
		c.Flags().StringVar(&checklistPath, "checklist", "", "checklist JSON file (required)")
		c.Flags().StringVar(&documentsDir, "documents", "", "directory of extracted document text (required)")
		c.Flags().StringVar(&subModuleDescription, "submodule", "", "description of the audit submodule topic")
		c.Flags().DurationVar(&analysisTimeout, "timeout", 10*time.Minute, "deadline for the whole analysis")
	}
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(scoreCmd)
}

// runAnalysis executes the full path with the configured deadline.
func runAnalysis(parent context.Context) (result analysis.AnalysisResult, err error) {
	engine, requirements, docs, buildErr := buildEngine()
	if buildErr != nil {
		err = buildErr
		return result, err
	}

	ctx, cancel := context.WithTimeout(parent, analysisTimeout)
	defer cancel()

	result, err = engine.Analyze(ctx, requirements, docs, subModuleDescription)
	if err != nil {
		err = errors.Wrap(err, "analysis failed")
		return result, err
	}

	return result, err
}

// buildEngine loads config and inputs and wires the engine.
func buildEngine() (engine *analysis.Engine, requirements []checklist.Requirement, docs []analysis.Document, err error) {
	var cfg config.Config
	cfg, err = config.Load(getConfigFile())
	if err != nil {
		err = errors.Wrap(err, "failed to load config")
		return engine, requirements, docs, err
	}

	path := checklistPath
	if path == "" {
		path = cfg.Defaults.ChecklistPath
	}
	if path == "" {
		err = errors.New("--checklist is required")
		return engine, requirements, docs, err
	}

	dir := documentsDir
	if dir == "" {
		dir = cfg.Defaults.DocumentsDir
	}
	if dir == "" {
		err = errors.New("--documents is required")
		return engine, requirements, docs, err
	}

	requirements, err = checklist.LoadFile(path)
	if err != nil {
		err = errors.Wrap(err, "failed to load checklist")
		return engine, requirements, docs, err
	}

	docs, err = documents.LoadDir(dir)
	if err != nil {
		err = errors.Wrap(err, "failed to load documents")
		return engine, requirements, docs, err
	}

	client := llm.NewClient(cfg.AnthropicAPIKey, cfg.GetAnalysisModel())
	if cfg.RequestIntervalMS > 0 {
		client.SetRequestInterval(time.Duration(cfg.RequestIntervalMS) * time.Millisecond)
	}

	log := logrus.New()
	if getVerbose() {
		log.SetLevel(logrus.DebugLevel)
	}

	engine = analysis.NewEngine(client, analysis.DefaultTuning(), log)

	return engine, requirements, docs, err
}

// printJSON writes any result as indented JSON on stdout.
func printJSON(value interface{}) (err error) {
	var data []byte
	data, err = json.MarshalIndent(value, "", "  ")
	if err != nil {
		err = errors.Wrap(err, "failed to marshal result")
		return err
	}
	fmt.Println(string(data))
	return err
}
