package export

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang/glog"

	"github.com/hb9tf/sigview/sweep"
)

// SQL stores detections through database/sql and works against both the
// sqlite and mysql drivers; the DDL below sticks to the syntax they share.
const (
	sqlDetectionCountInfo = 1000

	sqlCreateTableTmpl = `CREATE TABLE IF NOT EXISTS detections (
		Identifier   TEXT NOT NULL,
		Source       TEXT NOT NULL,
		FreqHz       BIGINT,
		DBFS         REAL,
		UnixMilli    BIGINT
	);`
	sqlInsertDetectionTmpl = `INSERT INTO detections (
		Identifier,
		Source,
		FreqHz,
		DBFS,
		UnixMilli
	) VALUES (?, ?, ?, ?, ?);`
)

type SQL struct {
	Identifier string
	Source     string
	DB         *sql.DB
}

func (s *SQL) Write(ctx context.Context, detections <-chan sweep.Detection) error {
	if err := sqlCreateTableIfNotExists(s.DB); err != nil {
		return fmt.Errorf("unable to create table: %s", err)
	}

	counts := map[string]int{
		"error":   0,
		"success": 0,
		"total":   0,
	}
	for d := range detections {
		counts["total"] += 1
		if err := sqlInsertDetection(s.DB, s.Identifier, s.Source, d); err != nil {
			counts["error"] += 1
			glog.Warningf("error storing detection in DB: %s\n", err)
			continue
		}
		counts["success"] += 1
		if counts["total"]%sqlDetectionCountInfo == 0 {
			glog.Infof("Detection export counts: %+v\n", counts)
		}
	}

	return nil
}

func sqlCreateTableIfNotExists(db *sql.DB) error {
	statement, err := db.Prepare(sqlCreateTableTmpl)
	if err != nil {
		return err
	}
	if _, err := statement.Exec(); err != nil {
		return err
	}

	return nil
}

func sqlInsertDetection(db *sql.DB, identifier, source string, d sweep.Detection) error {
	statement, err := db.Prepare(sqlInsertDetectionTmpl)
	if err != nil {
		return err
	}
	if _, err := statement.Exec(identifier, source, d.FreqHz, d.DBFS, d.Time.UnixMilli()); err != nil {
		return err
	}

	return nil
}
