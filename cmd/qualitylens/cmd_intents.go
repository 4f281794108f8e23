package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/qualitylens/internal/intent"
)

func newIntentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intents",
		Short: "Train and query the local intent classifier",
	}
	cmd.AddCommand(newIntentsTrainCmd())
	cmd.AddCommand(newIntentsClassifyCmd())
	return cmd
}

func newIntentsTrainCmd() *cobra.Command {
	var (
		corpus    string
		out       string
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the intent model and write it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			samples, err := loadSamples(corpus)
			if err != nil {
				return err
			}
			c, err := intent.Train(samples, threshold)
			if err != nil {
				return fmt.Errorf("train: %w", err)
			}

			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create model file: %w", err)
			}
			if err := c.Save(file); err != nil {
				file.Close()
				return fmt.Errorf("save model: %w", err)
			}
			if err := file.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "trained on %d samples, %d intents -> %s\n",
				len(samples), len(c.Labels()), out)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&corpus, "corpus", "", "YAML training corpus (default: embedded corpus)")
	f.StringVarP(&out, "out", "o", "intent-model.json", "output model path")
	f.Float64Var(&threshold, "threshold", intent.DefaultThreshold, "minimum similarity for a confident prediction")
	return cmd
}

func newIntentsClassifyCmd() *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "classify <query>",
		Short: "Print the local classifier's intent for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := classifierFrom(model)
			if err != nil {
				return err
			}
			label, score := c.PredictScore(strings.Join(args, " "))
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.3f\n", label, score)
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "trained intent model (default: train from the embedded corpus)")
	return cmd
}

func loadSamples(path string) ([]intent.Sample, error) {
	if path == "" {
		return intent.DefaultSamples()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return intent.ParseCorpus(data)
}

func classifierFrom(path string) (*intent.Classifier, error) {
	if path == "" {
		return intent.TrainDefault()
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open intent model: %w", err)
	}
	defer file.Close()
	return intent.Load(file)
}
