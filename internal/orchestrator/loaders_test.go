package orchestrator

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTraceRowsSkipsCommentsAndParsesFields(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "trace.dat", ""+
		"# comment line\n"+
		"id_client,id_video,id_server,req_timestamp\n"+
		"1,v1,1,100.0\n"+
		"# another comment\n"+
		"2,v2,1,103.5\n")

	rows, err := loadTraceRows(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(rows), rows)
	}
	if rows[0].clientID != 1 || rows[0].videoID != "v1" || rows[0].serverID != 1 || rows[0].reqTimestamp != 100.0 {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].reqTimestamp != 103.5 {
		t.Fatalf("unexpected second row timestamp: %+v", rows[1])
	}
}

func TestLoadCatalogRowsParsesFields(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "db.dat", ""+
		"id_server,id_video,duration,size,bitrate,title,description\n"+
		"1,v1,120,5000,800,My Video,A description\n")

	rows, err := loadCatalogRows(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.serverID != 1 || row.video.VideoID != "v1" || row.video.DurationS != 120 ||
		row.video.SizeKb != 5000 || row.video.BitrateKbS != 800 || row.video.Title != "My Video" {
		t.Fatalf("unexpected parsed row: %+v", row)
	}
}

func TestLoadTraceRowsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "empty.dat", "id_client,id_video,id_server,req_timestamp\n")
	rows, err := loadTraceRows(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected 0 rows, got %d", len(rows))
	}
}
