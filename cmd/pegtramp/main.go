// Command pegtramp parses arithmetic expressions with a hand-wired,
// left-recursive grammar (E = E '+' N | N) to demonstrate the
// packrattle trampoline end to end.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	packrattle "github.com/alexzandros/packrattle"
	"github.com/alexzandros/packrattle/leaves"
)

func buildArithmetic() *packrattle.Parser {
	number := packrattle.Map(leaves.MatchRegex(`[0-9]+`), func(_ packrattle.Span, v any) (any, error) {
		return strconv.Atoi(v.(string))
	})

	var expr *packrattle.Parser
	exprRef := packrattle.Lazy(func() *packrattle.Parser { return expr })

	plusTerm := packrattle.Chain(packrattle.Ref(exprRef), leaves.MatchString("+"), func(v1, v2 any) any { return v1 })
	sum := packrattle.Named(
		packrattle.Chain(plusTerm, number, func(v1, v2 any) any { return v1.(int) + v2.(int) }),
		"addition",
		1,
	)

	expr = packrattle.Alt(sum, number)
	return expr
}

func newParseCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "parse [expression]",
		Short: "Parse an arithmetic expression with the demo left-recursive grammar",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readExpression(cmd, args)
			if err != nil {
				return err
			}

			opts := packrattle.LoadEngineOptions(v)
			var reg prometheus.Registerer
			if opts.MetricsEnabled {
				reg = prometheus.NewRegistry()
			}

			grammar := packrattle.Consume(buildArithmetic())
			value, err := packrattle.Run(grammar, packrattle.NewRuneInput(text), opts, reg)
			if err != nil {
				return fmt.Errorf("parse failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	packrattle.BindEngineFlags(cmd.Flags())
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		panic(err)
	}
	v.SetEnvPrefix("PEGTRAMP")
	v.AutomaticEnv()

	return cmd
}

func readExpression(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return strings.TrimSpace(args[0]), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func main() {
	root := &cobra.Command{
		Use:   "pegtramp",
		Short: "Demo CLI for the packrattle trampolined parser-combinator engine",
	}
	root.AddCommand(newParseCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
