package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yegors/procroute/internal/route"
)

var (
	resolveJSON bool

	expandOrigin      string
	expandDestination string
	expandJSON        bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <route...>",
	Short: "Canonicalize the procedure tokens of a route",
	Long: `Canonicalize every DP and STAR token of a route and print the result.

Examples:
  procroute resolve KSFO KAYLN3SMUUV WYNDE3 KJFK
  procroute resolve --json "KSFO KAYLN3 SMUUV KJFK"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

var expandCmd = &cobra.Command{
	Use:   "expand <route...>",
	Short: "Expand the procedures of a route into route points",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExpand,
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "print the full result as JSON")

	expandCmd.Flags().StringVar(&expandOrigin, "origin", "", "origin airport override")
	expandCmd.Flags().StringVar(&expandDestination, "destination", "", "destination airport override")
	expandCmd.Flags().BoolVar(&expandJSON, "json", false, "print the full expansion as JSON")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(expandCmd)
}

// routeTokens accepts a route as separate arguments or as one quoted string
func routeTokens(args []string) []string {
	return route.Tokenize(strings.Join(args, " "))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runResolve(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	a.load(context.Background())

	result := a.routes.Preprocess(routeTokens(args))
	out := cmd.OutOrStdout()
	if resolveJSON {
		return printJSON(out, result)
	}

	fmt.Fprintln(out, strings.Join(result.Tokens, " "))
	if len(result.Origins) > 0 {
		fmt.Fprintf(out, "origins: %s\n", strings.Join(result.Origins, " "))
	}
	if len(result.Destinations) > 0 {
		fmt.Fprintf(out, "destinations: %s\n", strings.Join(result.Destinations, " "))
	}
	return nil
}

func runExpand(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	a.load(context.Background())

	result, expansion := a.routes.Process(routeTokens(args), route.ExpandOptions{
		Origin:      expandOrigin,
		Destination: expandDestination,
	})
	out := cmd.OutOrStdout()
	if expandJSON {
		return printJSON(out, map[string]any{"preprocess": result, "expansion": expansion})
	}

	fmt.Fprintln(out, strings.Join(expansion.Waypoints, " "))
	for _, fan := range expansion.Fans {
		fmt.Fprintf(out, "%s: %s -> %s\n", fan.Kind, fan.From, fan.To)
	}
	return nil
}
