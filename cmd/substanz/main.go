package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/blackshadow44/Substanz/internal/analysis"
	"github.com/blackshadow44/Substanz/internal/api"
	"github.com/blackshadow44/Substanz/internal/ingest"
	"github.com/blackshadow44/Substanz/internal/scheduler"
	"github.com/blackshadow44/Substanz/internal/store"
)

type cli struct {
	DataDir string `env:"SUBSTANZ_DATA_DIR" default:"data" help:"Directory for the database and snapshots."`

	Serve   serveCmd   `cmd:"" help:"Run the HTTP server with periodic snapshots."`
	Import  importCmd  `cmd:"" help:"Import a health data CSV file."`
	Analyze analyzeCmd `cmd:"" help:"Print the analysis report."`
	Backup  backupCmd  `cmd:"" help:"Write a rotated JSON backup."`
	Export  exportCmd  `cmd:"" help:"Write a JSON export of all data."`
	Restore restoreCmd `cmd:"" help:"Restore all data from a snapshot file."`
}

type appEnv struct {
	store   *store.Store
	dataDir string
}

func main() {
	var flags cli
	ctx := kong.Parse(&flags,
		kong.Name("substanz"),
		kong.Description("Personal substance diary with health data correlation."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	app, closeDB, err := openApp(flags.DataDir)
	if err != nil {
		log.Fatalf("main: %v", err)
	}
	defer closeDB()

	if err := ctx.Run(app); err != nil {
		log.Fatalf("main: %v", err)
	}
}

func openApp(dataDir string) (*appEnv, func(), error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "substanz.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	s := store.New(db)
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	return &appEnv{store: s, dataDir: dataDir}, func() { db.Close() }, nil
}

type serveCmd struct {
	Port             string        `env:"SUBSTANZ_PORT" default:"8080" help:"HTTP listen port."`
	PasswordHash     string        `env:"SUBSTANZ_PASSWORD_HASH" help:"Hex sha256 of the access token; empty disables auth."`
	SnapshotInterval time.Duration `env:"SUBSTANZ_SNAPSHOT_INTERVAL" default:"5m" help:"How often snapshots and backups are written."`
}

func (c *serveCmd) Run(app *appEnv) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc := scheduler.New(app.store, app.dataDir, filepath.Join(app.dataDir, "backups"), c.SnapshotInterval)
	go sc.Run(ctx)

	server := api.NewServer(app.store, c.Port, c.PasswordHash)
	log.Printf("main: listening on :%s", c.Port)
	return server.Run(ctx)
}

type importCmd struct {
	File string `arg:"" type:"existingfile" help:"CSV file to import."`
	Mode string `default:"append" enum:"append,merge,replace" help:"How to combine with existing samples."`
}

func (c *importCmd) Run(app *appEnv) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.File, err)
	}

	samples, droppedRows := ingest.ParseHealthCSV(string(data), filepath.Base(c.File))
	written, err := app.store.ImportHealthSamples(samples, c.Mode)
	if err != nil {
		return err
	}

	fmt.Printf("%d Zeilen importiert, %d übersprungen\n", written, droppedRows)
	return nil
}

type analyzeCmd struct {
	JSON bool `help:"Emit the report as JSON instead of text."`
}

func (c *analyzeCmd) Run(app *appEnv) error {
	entries, err := app.store.ListEntries()
	if err != nil {
		return err
	}
	samples, err := app.store.ListHealthSamples()
	if err != nil {
		return err
	}

	rep, err := analysis.NewAnalyzer().Run(entries, samples)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := newJSONEncoder(os.Stdout)
		return enc.Encode(rep)
	}
	fmt.Print(rep.RenderText())
	return nil
}

func newJSONEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc
}

type backupCmd struct{}

func (c *backupCmd) Run(app *appEnv) error {
	dir := filepath.Join(app.dataDir, "backups")
	if err := app.store.Backup(dir, time.Now()); err != nil {
		return err
	}
	fmt.Printf("Backup geschrieben nach %s\n", dir)
	return nil
}

type exportCmd struct {
	Output    string `default:"substanz_export.json" help:"Output file path."`
	Anonymize bool   `help:"Replace substance names and strip free text."`
}

func (c *exportCmd) Run(app *appEnv) error {
	snap, err := app.store.BuildSnapshot(time.Now())
	if err != nil {
		return err
	}
	if c.Anonymize {
		snap.Anonymize()
	}

	f, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("create %s: %w", c.Output, err)
	}
	defer f.Close()

	enc := newJSONEncoder(f)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Printf("Export geschrieben nach %s\n", c.Output)
	return nil
}

type restoreCmd struct {
	File string `arg:"" type:"existingfile" help:"Snapshot or backup file to restore."`
}

func (c *restoreCmd) Run(app *appEnv) error {
	if err := app.store.RestoreSnapshot(c.File); err != nil {
		return err
	}
	fmt.Printf("Daten aus %s wiederhergestellt\n", c.File)
	return nil
}
