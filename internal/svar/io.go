// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package svar

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// WriteCSVFile creates path and hands a CSV writer to fill. The file is
// flushed and closed on every path, and removed when the write fails.
func WriteCSVFile(path string, fill func(w *csv.Writer) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return writeCSV(file, fill)
}

func writeCSV(out io.Writer, fill func(w *csv.Writer) error) error {
	writer := csv.NewWriter(out)
	if err := fill(writer); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// WriteIRFCSV writes bootstrap IRF results in long format.
// Columns: ShockVar, ResponseVar, Horizon, Point, Median, Lower, Upper
func WriteIRFCSV(out io.Writer, boot []*IRFBootstrapResult, varNames []string) error {
	return writeCSV(out, func(writer *csv.Writer) error {
		header := []string{"ShockVar", "ResponseVar", "Horizon", "Point", "Median", "Lower", "Upper"}
		if err := writer.Write(header); err != nil {
			return err
		}

		for _, res := range boot {
			shockName := varName(varNames, res.ShockIndex)
			H, K := res.Point.Dims()
			for j := 0; j < K; j++ {
				respName := varName(varNames, j)
				for h := 0; h < H; h++ {
					record := []string{
						shockName,
						respName,
						fmt.Sprintf("%d", h),
						fmt.Sprintf("%f", res.Point.At(h, j)),
						fmt.Sprintf("%f", res.Median.At(h, j)),
						fmt.Sprintf("%f", res.Lower.At(h, j)),
						fmt.Sprintf("%f", res.Upper.At(h, j)),
					}
					if err := writer.Write(record); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

// WriteFEVDCSV writes variance decompositions in long format.
// Columns: Variable, Shock, Horizon, Share, Median, Lower, Upper
// Horizon counts forecast steps, starting at 1.
func WriteFEVDCSV(out io.Writer, fevd []*FEVDBootstrapResult, varNames []string) error {
	return writeCSV(out, func(writer *csv.Writer) error {
		header := []string{"Variable", "Shock", "Horizon", "Share", "Median", "Lower", "Upper"}
		if err := writer.Write(header); err != nil {
			return err
		}

		for _, res := range fevd {
			H, K := res.Point.Dims()
			for j := 0; j < K; j++ {
				for h := 0; h < H; h++ {
					record := []string{
						varName(varNames, res.Variable),
						varName(varNames, j),
						fmt.Sprintf("%d", h+1),
						fmt.Sprintf("%f", res.Point.At(h, j)),
						fmt.Sprintf("%f", res.Median.At(h, j)),
						fmt.Sprintf("%f", res.Lower.At(h, j)),
						fmt.Sprintf("%f", res.Upper.At(h, j)),
					}
					if err := writer.Write(record); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

// WriteHistDecompCSV writes one row per period and variable.
// Columns: Time, Variable, Observed, Baseline, then one Shock_<name> per shock.
// times must cover the full sample; rows start at hd.Start.
func WriteHistDecompCSV(out io.Writer, hd *HistDecomp, times []float64) error {
	return writeCSV(out, func(writer *csv.Writer) error {
		header := []string{"Time", "Variable", "Observed", "Baseline"}
		for j := range hd.Contribution {
			header = append(header, "Shock_"+varName(hd.VarNames, j))
		}
		if err := writer.Write(header); err != nil {
			return err
		}

		n, K := hd.Observed.Dims()
		for r := 0; r < n; r++ {
			t := float64(hd.Start + r)
			if hd.Start+r < len(times) {
				t = times[hd.Start+r]
			}
			for i := 0; i < K; i++ {
				record := []string{
					fmt.Sprintf("%.2f", t),
					varName(hd.VarNames, i),
					fmt.Sprintf("%f", hd.Observed.At(r, i)),
					fmt.Sprintf("%f", hd.Baseline.At(r, i)),
				}
				for _, c := range hd.Contribution {
					record = append(record, fmt.Sprintf("%f", c.At(r, i)))
				}
				if err := writer.Write(record); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// WriteGrangerCSV writes the Granger matrix with
// the columns: CauseVar, EffectVar, FStatistic, PValue, Lags, Significant
func WriteGrangerCSV(out io.Writer, gcMatrix [][]*GrangerCausalityResult) error {
	return writeCSV(out, func(writer *csv.Writer) error {
		header := []string{"CauseVar", "EffectVar", "FStatistic", "PValue", "Lags", "Significant"}
		if err := writer.Write(header); err != nil {
			return err
		}

		for i := range gcMatrix {
			for j, result := range gcMatrix[i] {
				if i == j || result == nil {
					continue
				}
				record := []string{
					result.CauseVar,
					result.EffectVar,
					fmt.Sprintf("%f", result.FStatistic),
					fmt.Sprintf("%f", result.PValue),
					fmt.Sprintf("%d", result.Lags),
					fmt.Sprintf("%t", result.Significant),
				}
				if err := writer.Write(record); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// WriteForecastCSV writes one row per forecast step. times, when given,
// labels each row; otherwise the step number is used.
func WriteForecastCSV(out io.Writer, fc *mat.Dense, varNames []string, times []float64) error {
	return writeCSV(out, func(writer *csv.Writer) error {
		rows, cols := fc.Dims()
		header := []string{"Period"}
		for j := 0; j < cols; j++ {
			header = append(header, varName(varNames, j))
		}
		if err := writer.Write(header); err != nil {
			return err
		}

		for i := 0; i < rows; i++ {
			period := fmt.Sprintf("%d", i+1)
			if i < len(times) {
				period = fmt.Sprintf("%.2f", times[i])
			}
			record := []string{period}
			for j := 0; j < cols; j++ {
				record = append(record, fmt.Sprintf("%f", fc.At(i, j)))
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteLagSelectionCSV writes Lags, AIC, BIC, HQ per candidate order.
func WriteLagSelectionCSV(out io.Writer, sel *LagSelection) error {
	return writeCSV(out, func(writer *csv.Writer) error {
		if err := writer.Write([]string{"Lags", "AIC", "BIC", "HQ"}); err != nil {
			return err
		}
		for _, row := range sel.Rows {
			record := []string{
				fmt.Sprintf("%d", row.Lags),
				fmt.Sprintf("%f", row.AIC),
				fmt.Sprintf("%f", row.BIC),
				fmt.Sprintf("%f", row.HQ),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// Summary writes a table of the model parameters to w.
func (sv *StructuralVAR) Summary(w io.Writer, ts *TimeSeries) {
	if sv == nil || sv.ReducedFormVAR == nil {
		fmt.Fprintln(w, "VAR model is nil")
		return
	}
	rf := sv.ReducedFormVAR

	fmt.Fprintln(w, "         Structural VAR Summary      ")

	K := rf.K()
	fmt.Fprintf(w, "Number of variables (K): %d\n", K)
	fmt.Fprintf(w, "Lag order (p):           %d\n", rf.Model.Lags)
	if ts != nil && ts.Y != nil {
		T, _ := ts.Y.Dims()
		fmt.Fprintf(w, "Sample size (T):         %d\n", T)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Model specification:")
	fmt.Fprintf(w, "  Deterministic:  %v\n", rf.Model.Deterministic)
	fmt.Fprintf(w, "  Identification: %s\n", sv.Scheme)
	fmt.Fprintln(w)

	if len(rf.VarNames) > 0 {
		fmt.Fprintln(w, "Variables (causal order):")
		fmt.Fprintf(w, "  %s\n", strings.Join(rf.VarNames, ", "))
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Coefficient matrices A_1 ... A_p:")
	for i, Ai := range rf.A {
		fmt.Fprintf(w, "\nA_%d =\n", i+1)
		fmt.Fprintf(w, "%v\n", mat.Formatted(Ai, mat.Prefix("  ")))
	}
	fmt.Fprintln(w)

	if rf.C != nil {
		fmt.Fprintln(w, "Intercept matrix C:")
		fmt.Fprintf(w, "%v\n", mat.Formatted(rf.C, mat.Prefix("  ")))
		fmt.Fprintln(w)
	}

	if rf.SigmaU != nil {
		fmt.Fprintln(w, "Residual covariance matrix Σ_u:")
		fmt.Fprintf(w, "%v\n", mat.Formatted(rf.SigmaU, mat.Prefix("  ")))
		fmt.Fprintln(w)
	}

	if sv.B0 != nil {
		fmt.Fprintln(w, "Impact matrix B0:")
		fmt.Fprintf(w, "%v\n", mat.Formatted(sv.B0, mat.Prefix("  ")))
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "=======================================")
}
