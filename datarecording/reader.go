package datarecording

import (
	"database/sql"
)

// SQLiteReader reads a register trace back from a SQLite database. It is
// the inspection counterpart of SQLiteRecorder.
type SQLiteReader struct {
	*sql.DB
}

// NewSQLiteReader opens the trace database at path.
func NewSQLiteReader(path string) *SQLiteReader {
	db, err := sql.Open("sqlite3", path+".sqlite3")
	if err != nil {
		panic(err)
	}

	return &SQLiteReader{DB: db}
}

// NewSQLiteReaderWithDB wraps an already open database.
func NewSQLiteReaderWithDB(db *sql.DB) *SQLiteReader {
	return &SQLiteReader{DB: db}
}

// CountAccesses returns the total number of recorded accesses.
func (r *SQLiteReader) CountAccesses() (int, error) {
	row := r.QueryRow("select count(*) from register_trace")

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// AccessesAt returns all accesses to one register address in time order.
func (r *SQLiteReader) AccessesAt(addr uint16) ([]AccessRecord, error) {
	rows, err := r.Query(`
		select access_id, time, addr, value, is_write
		from register_trace
		where addr = ?
		order by time;
	`, int(addr))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []AccessRecord
	for rows.Next() {
		var rec AccessRecord
		var a, v int

		err := rows.Scan(&rec.ID, &rec.Time, &a, &v, &rec.Write)
		if err != nil {
			return nil, err
		}

		rec.Addr = uint16(a)
		rec.Value = byte(v)
		records = append(records, rec)
	}

	return records, rows.Err()
}
