package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// ClientLatencyRow is one row of the clients CSV output (spec §6).
type ClientLatencyRow struct {
	ClientID       int
	PlayoutLatency float64
}

// WriteClientsCSV writes the clients output file: one row per measured
// start-playback latency, matching orchestration.py's gather_statistics.
func WriteClientsCSV(outDir string, rows []ClientLatencyRow) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("metrics: creating output dir: %w", err)
	}
	f, err := os.Create(filepath.Join(outDir, "clients"))
	if err != nil {
		return fmt.Errorf("metrics: creating clients file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"id_client", "playout_latency"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			fmt.Sprintf("%d", row.ClientID),
			fmt.Sprintf("%g", row.PlayoutLatency),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteProxyCSV writes the single-row proxy hit-stats output file (spec §6).
func WriteProxyCSV(outDir string, stats HitStats) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("metrics: creating output dir: %w", err)
	}
	f, err := os.Create(filepath.Join(outDir, "proxy"))
	if err != nil {
		return fmt.Errorf("metrics: creating proxy file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"cache_hits", "nb_served", "hit_ratio", "byte_cache", "byte_served", "byte_hit_ratio"}
	if err := w.Write(header); err != nil {
		return err
	}
	record := []string{
		fmt.Sprintf("%d", stats.CacheHits),
		fmt.Sprintf("%d", stats.NbServed),
		fmt.Sprintf("%g", stats.HitRatio),
		fmt.Sprintf("%g", stats.ByteCache),
		fmt.Sprintf("%g", stats.ByteServed),
		fmt.Sprintf("%g", stats.ByteHitRatio),
	}
	if err := w.Write(record); err != nil {
		return err
	}
	return w.Error()
}
