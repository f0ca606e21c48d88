package export

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hb9tf/sigview/sweep"
)

func TestSQLWrite(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory DB: %v", err)
	}
	defer db.Close()

	e := &SQL{Identifier: "run-1", Source: "rtlsdr", DB: db}
	ch := make(chan sweep.Detection, 3)
	for i := 0; i < 3; i++ {
		ch <- sweep.Detection{
			FreqHz: 90_000_000 + int64(i)*1_000_000,
			DBFS:   float64(-30 - i),
			Time:   time.UnixMilli(1700000000000 + int64(i)),
		}
	}
	close(ch)

	if err := e.Write(context.Background(), ch); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM detections`).Scan(&n); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if n != 3 {
		t.Errorf("stored %d rows, want 3", n)
	}

	var freq int64
	var dbfs float64
	row := db.QueryRow(`SELECT FreqHz, DBFS FROM detections WHERE Identifier = ? ORDER BY FreqHz LIMIT 1`, "run-1")
	if err := row.Scan(&freq, &dbfs); err != nil {
		t.Fatalf("reading row back: %v", err)
	}
	if freq != 90_000_000 || dbfs != -30 {
		t.Errorf("row = (%d, %v), want (90000000, -30)", freq, dbfs)
	}
}
