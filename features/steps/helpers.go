//go:build integration

package steps

import (
	"fmt"
	"strconv"
	"strings"
)

// parseSeconds reads a comma separated list such as "10, 100"; empty is none
func parseSeconds(list string) ([]float64, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return []float64{}, nil
	}

	var out []float64
	for _, part := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seconds %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func equalSeconds(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
