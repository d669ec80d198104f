package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nnnkkk7/sqlexec/pkg/param"
)

var errParamSyntax = errors.New("parameter must be name=value")

func addParamFlag(cmd *cobra.Command, pairs *[]string) {
	cmd.Flags().StringArrayVarP(pairs, "param", "p", nil, "bind a parameter as name=value (repeatable, bound in order)")
}

// parseParams turns name=value pairs into parameters, keeping flag order. Values that
// parse as integers, floats or booleans are bound with that type.
func parseParams(pairs []string) ([]*param.Parameter, error) {
	out := make([]*param.Parameter, 0, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", errParamSyntax, pair)
		}
		out = append(out, param.New(name, inferValue(raw)))
	}
	return out, nil
}

func inferValue(raw string) any {
	if raw == "" {
		return raw
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if strings.EqualFold(raw, "true") || strings.EqualFold(raw, "false") {
		return strings.EqualFold(raw, "true")
	}
	return raw
}
