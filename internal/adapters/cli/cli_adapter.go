// Package cli adapts cobra flag input into a request for the
// application service.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// Request carries everything the command line asked for.
type Request struct {
	Source     string
	Action     string // evaluate | validate | latex | mathml | json | sympy | differentiate | integrate | simplify | expand | factor
	Variable   string
	Order      int
	OutputFile string
	RealOnly   bool
	Locals     map[string]float64
}

// Adapter reads the request from the executed cobra command.
type Adapter struct {
	cmd *cobra.Command
}

// NewAdapter creates an input adapter bound to cmd.
func NewAdapter(cmd *cobra.Command) *Adapter {
	return &Adapter{cmd: cmd}
}

// GetRequest extracts and validates the flag values.
func (a *Adapter) GetRequest() (Request, error) {
	flags := a.cmd.Flags()
	source, _ := flags.GetString("input")
	if source == "" {
		return Request{}, fmt.Errorf("input expression cannot be empty")
	}
	action, _ := flags.GetString("action")
	variable, _ := flags.GetString("variable")
	order, _ := flags.GetInt("order")
	output, _ := flags.GetString("output")
	realOnly, _ := flags.GetBool("real-only")
	localPairs, _ := flags.GetStringSlice("let")

	locals := map[string]float64{}
	for _, pair := range localPairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return Request{}, fmt.Errorf("malformed --let binding %q, want name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Request{}, fmt.Errorf("malformed --let value in %q: %w", pair, err)
		}
		locals[strings.TrimSpace(name)] = v
	}

	return Request{
		Source:     source,
		Action:     action,
		Variable:   variable,
		Order:      order,
		OutputFile: output,
		RealOnly:   realOnly,
		Locals:     locals,
	}, nil
}
