// snapshot-dump reads published stackpulse snapshots back from Redis and
// pretty-prints them. Debug tool for verifying the publisher end to end.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
)

func main() {
	addr := os.Getenv("STACKPULSE_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	keys, err := client.Keys(ctx, "stackpulse:snapshot:*").Result()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing snapshot keys: %v\n", err)
		os.Exit(1)
	}
	if len(keys) == 0 {
		fmt.Println("No published snapshots found.")
		return
	}

	for _, key := range keys {
		val, err := client.Get(ctx, key).Result()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", key, err)
			continue
		}

		var snap map[string]interface{}
		if err := json.Unmarshal([]byte(val), &snap); err != nil {
			fmt.Fprintf(os.Stderr, "Error decoding %s: %v\n", key, err)
			continue
		}

		fmt.Printf("=== %s ===\n", key)
		pretty, _ := json.MarshalIndent(snap, "", "  ")
		fmt.Println(string(pretty))
		fmt.Println()
	}
}
