package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/texmath/internal/adapters/cli"
	"github.com/ZanzyTHEbar/texmath/internal/adapters/output"
	"github.com/ZanzyTHEbar/texmath/pkg/texmath"
)

var rootCmd = &cobra.Command{
	Use:   "texmath",
	Short: "texmath parses, evaluates and transforms TeX math expressions",
	Long: `texmath is a CLI over the TeX math pipeline: it parses a math-mode
expression into a tree, evaluates it against optional variable
bindings, applies symbolic transforms, and exports the tree to TeX,
MathML, JSON or SymPy syntax.`,
	Run: func(cmd *cobra.Command, args []string) {
		// --- Dependency Injection ---
		inputAdapter := cli.NewAdapter(cmd)
		req, err := inputAdapter.GetRequest()
		if err != nil {
			log.Fatalf("Error: %v\n", err)
		}
		outputAdapter := output.NewWriterAdapter(req.OutputFile)

		svc := texmath.New(texmath.WithRealOnly(req.RealOnly))

		result, err := run(svc, req)
		if err != nil {
			log.Fatalf("Error: %v\n", err)
		}
		if err := outputAdapter.Write(result); err != nil {
			log.Fatalf("Error: %v\n", err)
		}
	},
}

func run(svc *texmath.Service, req cli.Request) (string, error) {
	switch req.Action {
	case "", "evaluate":
		res, err := svc.Evaluate(req.Source, texmath.Numbers(req.Locals))
		if err != nil {
			return "", err
		}
		return res.String(), nil

	case "validate":
		v := svc.Validate(req.Source)
		if v.Valid {
			return "valid", nil
		}
		out := fmt.Sprintf("invalid: %s (pos %d)", v.Message, v.Position)
		if v.Suggestion != "" {
			out += " — " + v.Suggestion
		}
		return out, nil

	case "latex":
		expr, err := svc.Parse(req.Source)
		if err != nil {
			return "", err
		}
		return svc.ToLatex(expr)

	case "mathml":
		expr, err := svc.Parse(req.Source)
		if err != nil {
			return "", err
		}
		return svc.ToMathML(expr)

	case "json":
		expr, err := svc.Parse(req.Source)
		if err != nil {
			return "", err
		}
		return svc.ToJSON(expr)

	case "sympy":
		expr, err := svc.Parse(req.Source)
		if err != nil {
			return "", err
		}
		return svc.ToSymPyScript(expr)

	case "differentiate":
		expr, err := svc.Differentiate(req.Source, req.Variable, req.Order)
		if err != nil {
			return "", err
		}
		return svc.ToLatex(expr)

	case "integrate":
		expr, err := svc.Integrate(req.Source, req.Variable)
		if err != nil {
			return "", err
		}
		return svc.ToLatex(expr)

	case "simplify":
		expr, err := svc.Simplify(req.Source)
		if err != nil {
			return "", err
		}
		return svc.ToLatex(expr)

	case "expand":
		expr, err := svc.Expand(req.Source)
		if err != nil {
			return "", err
		}
		return svc.ToLatex(expr)

	case "factor":
		expr, err := svc.Factor(req.Source)
		if err != nil {
			return "", err
		}
		return svc.ToLatex(expr)
	}
	return "", fmt.Errorf("unknown action %q", req.Action)
}

func init() {
	rootCmd.Flags().StringP("input", "i", "", "TeX math expression (required)")
	rootCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	rootCmd.Flags().StringP("action", "a", "evaluate", "Action: evaluate, validate, latex, mathml, json, sympy, differentiate, integrate, simplify, expand, factor")
	rootCmd.Flags().String("variable", "x", "Variable for differentiate/integrate")
	rootCmd.Flags().Int("order", 1, "Derivative order")
	rootCmd.Flags().Bool("real-only", false, "Replace complex results with NaN")
	rootCmd.Flags().StringSlice("let", nil, "Variable bindings, e.g. --let x=3 --let y=4")

	if err := rootCmd.MarkFlagRequired("input"); err != nil {
		fmt.Fprintf(os.Stderr, "Error marking flag required: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
