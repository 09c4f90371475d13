package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"grocery-sales/internal/format"
	"grocery-sales/internal/ml"
	"grocery-sales/internal/preprocess"
	"grocery-sales/internal/record"

	"github.com/spf13/cobra"
)

type predictOutput struct {
	Prediction float64        `json:"prediction"`
	Confidence float64        `json:"confidence"`
	Formatted  format.Display `json:"formatted"`
}

func predictCmd() *cobra.Command {
	var (
		input  string
		sample bool
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score records from a JSON file, stdin or the built-in sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sample == (input != "") {
				return errors.New("exactly one of --input or --sample is required")
			}

			c, err := loadSettings(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var recs []record.Record
			if sample {
				recs = []record.Record{preprocess.SampleRecord()}
			} else {
				data, err := readInput(cmd.InOrStdin(), input)
				if err != nil {
					return err
				}
				if recs, _, err = record.Decode(data); err != nil {
					return err
				}
			}

			loader, closeLoader, err := buildLoader(c)
			if err != nil {
				return err
			}
			defer closeLoader()

			predictor := ml.NewWithMetrics(loader, nil, c.LoadTimeout)
			values, confidences, err := predictor.PredictBatch(cmd.Context(), preprocess.NormalizeAll(recs))
			if err != nil {
				return err
			}

			out := make([]predictOutput, len(values))
			for i := range values {
				out[i] = predictOutput{
					Prediction: values[i],
					Confidence: confidences[i],
					Formatted:  format.Prediction(values[i], confidences[i]),
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if len(out) == 1 {
				return enc.Encode(out[0])
			}
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON record or array of records; - reads stdin")
	cmd.Flags().BoolVar(&sample, "sample", false, "Score the built-in sample record")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}
