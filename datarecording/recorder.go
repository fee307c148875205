// Package datarecording stores register access traces in SQLite databases.
// A recorder hooks onto the register file and stamps every read and write
// with the virtual time at which it happened, so a hosted run leaves behind
// a queryable record of everything the firmware touched.
package datarecording

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/MochiBaga/asm2464pd-firmware/regfile"
	"github.com/MochiBaga/asm2464pd-firmware/sim"
)

// AccessRecord is one row of the register trace.
type AccessRecord struct {
	ID    string
	Time  float64
	Addr  uint16
	Value byte
	Write bool
}

// SQLiteRecorder records register accesses into a SQLite database. It
// implements sim.Hook and is attached to a register file with AcceptHook.
type SQLiteRecorder struct {
	*sql.DB
	statement *sql.Stmt

	timeTeller sim.TimeTeller

	dbName    string
	toWriteDB []AccessRecord
	batchSize int
}

// NewSQLiteRecorder creates a recorder that writes to path. If path is
// empty a unique name is generated. The returned recorder flushes its
// buffer at process exit.
func NewSQLiteRecorder(path string, tt sim.TimeTeller) *SQLiteRecorder {
	r := &SQLiteRecorder{
		dbName:     path,
		timeTeller: tt,
		batchSize:  100000,
	}

	atexit.Register(func() { r.Flush() })

	return r
}

// Init establishes the database connection and creates the trace table.
func (r *SQLiteRecorder) Init() {
	r.createDatabase()
	r.createTable()
	r.prepareStatement()
}

// Func records one register access. It satisfies sim.Hook.
func (r *SQLiteRecorder) Func(ctx sim.HookCtx) {
	if ctx.Pos != regfile.HookPosRegRead && ctx.Pos != regfile.HookPosRegWrite {
		return
	}

	access := ctx.Detail.(regfile.Access)

	r.toWriteDB = append(r.toWriteDB, AccessRecord{
		ID:    xid.New().String(),
		Time:  float64(r.timeTeller.CurrentTime()),
		Addr:  uint16(access.Addr),
		Value: access.Value,
		Write: access.Write,
	})

	if len(r.toWriteDB) >= r.batchSize {
		r.Flush()
	}
}

// Flush writes all buffered records to the database.
func (r *SQLiteRecorder) Flush() {
	if len(r.toWriteDB) == 0 {
		return
	}

	r.mustExecute("BEGIN TRANSACTION")
	defer r.mustExecute("COMMIT TRANSACTION")

	for _, rec := range r.toWriteDB {
		_, err := r.statement.Exec(
			rec.ID,
			rec.Time,
			int(rec.Addr),
			int(rec.Value),
			rec.Write,
		)
		if err != nil {
			fmt.Println(rec)
			panic(err)
		}
	}

	r.toWriteDB = nil
}

func (r *SQLiteRecorder) createDatabase() {
	if r.dbName == "" {
		r.dbName = "asmbridge_trace_" + xid.New().String()
	}

	filename := r.dbName + ".sqlite3"
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	fmt.Fprintf(os.Stderr, "Register trace collected in database: %s\n",
		filename)

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	r.DB = db
}

func (r *SQLiteRecorder) createTable() {
	r.mustExecute(`
		create table register_trace
		(
			access_id varchar(200) not null,
			time      float        not null,
			addr      integer      not null,
			value     integer      not null,
			is_write  boolean      not null
		);
	`)

	r.mustExecute(`
		create index register_trace_addr_index
			on register_trace (addr);
	`)

	r.mustExecute(`
		create index register_trace_time_index
			on register_trace (time);
	`)
}

func (r *SQLiteRecorder) prepareStatement() {
	stmt, err := r.Prepare(`
		insert into register_trace
			(access_id, time, addr, value, is_write)
		values (?, ?, ?, ?, ?);
	`)
	if err != nil {
		panic(err)
	}

	r.statement = stmt
}

func (r *SQLiteRecorder) mustExecute(query string) sql.Result {
	res, err := r.Exec(query)
	if err != nil {
		panic(err)
	}
	return res
}
