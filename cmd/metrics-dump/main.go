// metrics-dump runs one host metrics collection and prints the result.
// Debug tool for checking what the collector sees on a given machine.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/driftworks/stackpulse/pkg/probes"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	probe := probes.NewGoSystemProbe()
	metrics, err := probe.Collect(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error collecting metrics: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(metrics, "", "  ")
	fmt.Println(string(out))
}
