package orchestrator

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alxayo/videocache-sim/internal/simnet"
)

// traceRow is one parsed line of the trace file (spec §6): columns
// id_client, id_video, id_server, req_timestamp.
type traceRow struct {
	clientID     int
	videoID      string
	serverID     int
	reqTimestamp float64
}

// readCommentedCSV opens path and returns a csv.Reader skipping lines
// whose first byte is '#', matching the original's
// `filter(lambda row: row[0]!='#', trace_file)` applied before
// csv.DictReader.
func readCommentedCSV(path string) (*csv.Reader, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	lines, err := stripCommentLines(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	r := csv.NewReader(strings.NewReader(lines))
	r.TrimLeadingSpace = true
	return r, f, nil
}

func stripCommentLines(f *os.File) (string, error) {
	data, err := os.ReadFile(f.Name())
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// loadTraceRows reads and parses every data row of the trace file, in
// whatever order they appear (spec §6: "Rows need not be sorted by
// timestamp").
func loadTraceRows(path string) ([]traceRow, error) {
	r, f, err := readCommentedCSV(path)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: loading trace %s: %w", path, err)
	}
	defer f.Close()

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: parsing trace %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	col := columnIndex(header)

	rows := make([]traceRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) == 0 || strings.TrimSpace(strings.Join(rec, "")) == "" {
			continue
		}
		clientID, err := strconv.Atoi(strings.TrimSpace(rec[col["id_client"]]))
		if err != nil {
			return nil, fmt.Errorf("orchestrator: trace row id_client: %w", err)
		}
		serverID, err := strconv.Atoi(strings.TrimSpace(rec[col["id_server"]]))
		if err != nil {
			return nil, fmt.Errorf("orchestrator: trace row id_server: %w", err)
		}
		ts, err := strconv.ParseFloat(strings.TrimSpace(rec[col["req_timestamp"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: trace row req_timestamp: %w", err)
		}
		rows = append(rows, traceRow{
			clientID:     clientID,
			videoID:      strings.TrimSpace(rec[col["id_video"]]),
			serverID:     serverID,
			reqTimestamp: ts,
		})
	}
	return rows, nil
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	return idx
}

// catalogRow is one parsed line of the video catalog file (spec §6).
type catalogRow struct {
	serverID    int
	video       simnet.Video
}

func loadCatalogRows(path string) ([]catalogRow, error) {
	r, f, err := readCommentedCSV(path)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: loading catalog %s: %w", path, err)
	}
	defer f.Close()

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: parsing catalog %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	col := columnIndex(header)

	rows := make([]catalogRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) == 0 || strings.TrimSpace(strings.Join(rec, "")) == "" {
			continue
		}
		serverID, err := strconv.Atoi(strings.TrimSpace(rec[col["id_server"]]))
		if err != nil {
			return nil, fmt.Errorf("orchestrator: catalog row id_server: %w", err)
		}
		duration, err := strconv.ParseFloat(strings.TrimSpace(rec[col["duration"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: catalog row duration: %w", err)
		}
		size, err := strconv.ParseFloat(strings.TrimSpace(rec[col["size"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: catalog row size: %w", err)
		}
		bitrate, err := strconv.ParseFloat(strings.TrimSpace(rec[col["bitrate"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: catalog row bitrate: %w", err)
		}
		rows = append(rows, catalogRow{
			serverID: serverID,
			video: simnet.Video{
				VideoID:     strings.TrimSpace(rec[col["id_video"]]),
				DurationS:   duration,
				SizeKb:      size,
				BitrateKbS:  bitrate,
				Title:       rec[col["title"]],
				Description: rec[col["description"]],
			},
		})
	}
	return rows, nil
}
