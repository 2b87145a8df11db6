/*
	Churn-heavy load generator: overwrites and removes keys from a small
	fixed universe so the log fills up with stale records, then reopens the
	store to time recovery.
*/

package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/0xRadioAc7iv/go-kvs/core"
)

const (
	dataDir = "./churn-data"

	// Fixed universe
	totalKeys   = 100
	totalValues = 100

	// Per-cycle behavior
	keysPerCycleWrite  = 20
	keysPerCycleDelete = 10
	cycles             = 20000

	progressEvery = 2000
)

func main() {
	start := time.Now()
	fmt.Println("Starting kvs churn-heavy load generator")

	keys := makeKeys(totalKeys)
	values := makeValues(totalValues)

	s, err := core.Open(dataDir)
	if err != nil {
		fmt.Println("open error:", err)
		os.Exit(1)
	}

	if err := churn(s, keys, values); err != nil {
		fmt.Println(err)
		s.Close()
		os.Exit(1)
	}

	before := s.Stats()
	if err := s.Close(); err != nil {
		fmt.Println("close error:", err)
		os.Exit(1)
	}
	fmt.Printf("Load finished in %v\n", time.Since(start))
	printStats(before)

	reopen := time.Now()
	s, err = core.Open(dataDir)
	if err != nil {
		fmt.Println("reopen error:", err)
		os.Exit(1)
	}
	defer s.Close()

	after := s.Stats()
	fmt.Printf("Replayed %d records in %v\n", after.Records, time.Since(reopen))
	if after != before {
		fmt.Printf("stats changed across reopen: %+v != %+v\n", before, after)
		os.Exit(1)
	}
}

func churn(s *core.Store, keys []string, values []string) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for cycle := 1; cycle <= cycles; cycle++ {

		// ---- WRITE / OVERWRITE PHASE ----
		for i := 0; i < keysPerCycleWrite; i++ {
			key := keys[rng.Intn(len(keys))]
			val := values[rng.Intn(len(values))]

			if err := s.Set(key, val); err != nil {
				return fmt.Errorf("SET error: %w", err)
			}
		}

		// ---- DELETE PHASE ----
		for i := 0; i < keysPerCycleDelete; i++ {
			key := keys[rng.Intn(len(keys))]

			// Removing an absent key writes nothing, so skip it.
			if !s.Has(key) {
				continue
			}
			if err := s.Remove(key); err != nil {
				return fmt.Errorf("DELETE error: %w", err)
			}
		}

		// ---- REWRITE PHASE (forces overwrite garbage) ----
		for i := 0; i < keysPerCycleWrite/2; i++ {
			key := keys[rng.Intn(len(keys))]
			val := values[rng.Intn(len(values))]

			if err := s.Set(key, val); err != nil {
				return fmt.Errorf("REWRITE error: %w", err)
			}
		}

		if cycle%progressEvery == 0 {
			st := s.Stats()
			fmt.Printf("completed %d cycles: %d keys, log %d bytes, %d stale\n", cycle, st.Keys, st.LogSize, st.StaleBytes)
		}
	}
	return nil
}

func printStats(st core.Stats) {
	fmt.Printf("keys: %d, records: %d, log: %d bytes, live: %d bytes, stale: %d bytes\n",
		st.Keys, st.Records, st.LogSize, st.LiveBytes, st.StaleBytes)
}

func makeKeys(n int) []string {
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = fmt.Sprintf("key-%03d", i)
	}
	return keys
}

func makeValues(n int) []string {
	values := make([]string, n)
	for i := 0; i < n; i++ {
		values[i] = fmt.Sprintf("value-%03d-xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx", i)
	}
	return values
}
