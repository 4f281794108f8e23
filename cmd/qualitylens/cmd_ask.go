package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/qualitylens/internal/analysis"
	"github.com/kiranshivaraju/qualitylens/internal/domain"
	"github.com/kiranshivaraju/qualitylens/internal/intelligence"
	"github.com/kiranshivaraju/qualitylens/internal/intent"
	"github.com/kiranshivaraju/qualitylens/internal/orchestrator"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

type askFlags struct {
	records string
	model   string
	format  string
	now     string
}

func newAskCmd() *cobra.Command {
	var f askFlags

	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Answer a query over a JSON file of checklist records",
		Long: "ask runs the composite analysis locally over records read from a JSON\n" +
			"array. The reasoning service is not contacted; intents come from the\n" +
			"local classifier and topic analysis uses keyword counting.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, strings.Join(args, " "), f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.records, "records", "r", "", "path to a JSON array of records (- for stdin)")
	fl.StringVar(&f.model, "model", "", "trained intent model (default: train from the embedded corpus)")
	fl.StringVarP(&f.format, "format", "f", "text", "output format: text or json")
	fl.StringVar(&f.now, "now", "", "reference time in RFC3339 (default: current time)")
	_ = cmd.MarkFlagRequired("records")
	return cmd
}

func runAsk(cmd *cobra.Command, query string, f askFlags) error {
	if f.format != "text" && f.format != "json" {
		return fmt.Errorf("unknown format %q: must be text or json", f.format)
	}

	now := time.Now()
	if f.now != "" {
		t, err := time.Parse(time.RFC3339, f.now)
		if err != nil {
			return fmt.Errorf("parse --now: %w", err)
		}
		now = t
	}
	clock := func() time.Time { return now }

	raw, err := readRecords(cmd.InOrStdin(), f.records)
	if err != nil {
		return err
	}

	classifier, err := classifierFrom(f.model)
	if err != nil {
		return err
	}

	engine := analysis.NewEngine(analysis.Config{
		Tables: domain.Default(),
		Local:  classifier,
		Now:    clock,
	})
	orch := orchestrator.New(orchestrator.Config{
		Detector: intent.NewDetector(nil, classifier),
		Engine:   engine,
		Now:      clock,
	})

	var res models.AnalysisResult
	if intelligence.RouteFor(query) == intelligence.RouteRisk {
		res = intelligence.EstimateRisk(orch.Normalize(raw), now)
	} else {
		// Report queries run synchronously here; there is no job store.
		res, err = orch.Answer(cmd.Context(), query, raw, nil)
		if err != nil {
			return err
		}
	}

	return writeAnswer(cmd.OutOrStdout(), f.format, models.NewAnalysisResponse(query, res))
}

func readRecords(stdin io.Reader, path string) ([]models.RawRecord, error) {
	var r io.Reader = stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open records: %w", err)
		}
		defer file.Close()
		r = file
	}

	var raw []models.RawRecord
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return raw, nil
}

func writeAnswer(w io.Writer, format string, resp models.AnalysisResponse) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintln(w, resp.Summary)
	if len(resp.Tips) > 0 {
		fmt.Fprintln(w)
		for _, tip := range resp.Tips {
			fmt.Fprintf(w, "- %s: %s\n", tip.Title, tip.Detail)
		}
	}
	for _, c := range resp.VisualizationData {
		fmt.Fprintf(w, "\n[%s] %s\n", c.ChartType, c.Title)
		for i, label := range c.Labels {
			if len(c.Datasets) > 0 && i < len(c.Datasets[0].Data) {
				fmt.Fprintf(w, "  %-30s %g\n", label, c.Datasets[0].Data[i])
			}
		}
	}
	return nil
}
