// Command sessions lists run summaries recorded by pathsense.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/pathsense/internal/hazard"
	"github.com/banshee-data/pathsense/internal/store"
)

var (
	dbFile  = flag.String("db", "pathsense.db", "Path to the SQLite session store")
	limit   = flag.Int("limit", 20, "Maximum number of sessions to list")
	asJSON  = flag.Bool("json", false, "Print sessions as JSON")
	migrate = flag.Bool("migrate", false, "Apply pending schema migrations before listing")
)

func main() {
	flag.Parse()

	st, err := store.Open(*dbFile)
	if err != nil {
		log.Fatalf("failed to open %s: %v", *dbFile, err)
	}
	defer st.Close()

	if *migrate {
		if err := st.MigrateUp(); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}

	sessions, err := st.Sessions(context.Background(), *limit)
	if err != nil {
		log.Fatalf("failed to list sessions: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sessions); err != nil {
			log.Fatalf("encode: %v", err)
		}
		return
	}
	if err := printTable(os.Stdout, sessions); err != nil {
		log.Fatalf("write: %v", err)
	}
}

func printTable(w io.Writer, sessions []store.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSTARTED\tDURATION\tSOURCE\tFRAMES\tDROPPED\tTHRESHOLD\tLATENCY\tCRIT\tHIGH\tMED")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%.2f\t%s\t%d\t%d\t%d\n",
			s.SessionID,
			s.Started.Format(time.RFC3339),
			s.Ended.Sub(s.Started).Round(time.Second),
			s.Source,
			s.FramesAccepted,
			s.FramesDropped,
			s.ScoreThreshold,
			s.MeanLatency.Round(time.Millisecond),
			s.Warnings[hazard.LevelCritical],
			s.Warnings[hazard.LevelHigh],
			s.Warnings[hazard.LevelMedium],
		)
	}
	return tw.Flush()
}
