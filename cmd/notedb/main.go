// Command notedb is a thin CLI wrapper over the notedb library, exercising
// its three synchronous entry points: ingest a line-delimited JSON file,
// run a one-shot filter query, and watch a live subscription.
//
// Grounded on _examples/cuemby-warren/cmd/warren's cobra root-command
// layout (persistent log-level/log-json flags, cobra.OnInitialize wiring
// into the shared logging package), with subcommands mirroring
// original_source/examples/{ingest,query,subscription}.rs.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nostrdb-go/notedb"
	"github.com/nostrdb-go/notedb/filter"
	"github.com/nostrdb-go/notedb/internal/logging"
	"github.com/nostrdb-go/notedb/note"
	"github.com/spf13/cobra"
)

// Exit codes: 0 ok, 1 usage error, 2 database open failure, 3 ingestion failure.
const (
	exitOK           = 0
	exitUsage        = 1
	exitDBOpenFailed = 2
	exitIngestFailed = 3
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitUsage)
	}
}

var rootCmd = &cobra.Command{
	Use:   "notedb",
	Short: "Embedded event-log database CLI",
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(subscribeCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	logging.Init(logging.Config{Level: logging.Level(level), JSONOutput: jsonOut})
}

func openDB(dir string) *notedb.DB {
	db, err := notedb.New(dir, notedb.Config{SkipVerification: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitDBOpenFailed)
	}
	return db
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir> <jsonl-file>",
	Short: "Ingest a line-delimited JSON file of notes into the database",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		dir, path := args[0], args[1]
		relay, _ := cmd.Flags().GetString("relay")

		db := openDB(dir)
		defer db.Close()

		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitIngestFailed)
		}
		defer f.Close()

		processed := 0
		failed := 0
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			envelope := fmt.Sprintf(`["EVENT",%s]`, line)
			if err := db.ProcessEvent([]byte(envelope), relay, false); err != nil {
				failed++
				continue
			}
			processed++
		}
		if err := scanner.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitIngestFailed)
		}

		fmt.Printf("submitted %d events from %s into %s (%d rejected synchronously)\n", processed, path, dir, failed)
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <dir> <filter-json>",
	Short: "Run a one-shot filter query and print matching notes",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		dir, filterJSON := args[0], args[1]

		f := filter.New()
		if err := f.UnmarshalJSON([]byte(filterJSON)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid filter json: %v\n", err)
			os.Exit(exitUsage)
		}

		db := openDB(dir)
		defer db.Close()

		limit := 500
		if l, ok := f.Limit(); ok {
			limit = int(l)
		}

		results, err := db.Query([]*filter.F{f}, limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitUsage)
		}
		if len(results) == 0 {
			fmt.Println("no matches")
			return
		}
		for _, r := range results {
			b, err := note.Encode(r.Note)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(exitUsage)
			}
			fmt.Println(string(b))
		}
	},
}

var subscribeCmd = &cobra.Command{
	Use:   "subscribe <dir> <filter-json>",
	Short: "Open a live subscription and print notes as they're ingested",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		dir, filterJSON := args[0], args[1]
		idleTimeout, _ := cmd.Flags().GetDuration("idle-timeout")
		batch, _ := cmd.Flags().GetInt("batch")

		f := filter.New()
		if err := f.UnmarshalJSON([]byte(filterJSON)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid filter json: %v\n", err)
			os.Exit(exitUsage)
		}

		db := openDB(dir)
		defer db.Close()

		id, err := db.Subscribe([]*filter.F{f})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitUsage)
		}
		fmt.Printf("subscription %d is live - open another terminal and ingest events\n", id)

		stream := db.Stream(id, batch)
		defer stream.Close()

		for {
			ctx, cancel := context.WithTimeout(context.Background(), idleTimeout)
			keys, ok, err := stream.Next(ctx)
			cancel()
			if err != nil {
				fmt.Printf("no new events in %s, exiting\n", idleTimeout)
				return
			}
			if !ok {
				fmt.Println("subscription closed")
				return
			}
			for _, nk := range keys {
				e, err := db.GetNoteByKey(nk)
				if err != nil || e == nil {
					continue
				}
				b, err := note.Encode(e)
				if err != nil {
					continue
				}
				fmt.Println(string(b))
			}
		}
	},
}

func init() {
	ingestCmd.Flags().String("relay", "fixture", "relay name recorded for each ingested note")
	subscribeCmd.Flags().Duration("idle-timeout", 30*time.Second, "exit after this long with no new events")
	subscribeCmd.Flags().Int("batch", 32, "max notes per woken batch")
}
