package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"setmatch/pkg/logger"
	"setmatch/pkg/models"
	"setmatch/pkg/setmatch"
	"setmatch/pkg/setmatch/parser"
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log := logger.GetLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Debugf("Executing command: %s", command)

	switch command {
	case "add":
		handleAdd()
	case "list":
		handleList()
	case "delete":
		handleDelete()
	case "parse":
		handleParse()
	case "match":
		handleMatch()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`setmatch - setlist song match resolver

Usage:
  setmatch add -title <title> [-artist <name>] [-artist <name>] [-key <key>] [-tempo <bpm>] [-time <sig>]
  setmatch list
  setmatch delete <song-id>
  setmatch parse [-file <path>]        (reads stdin when no file is given)
  setmatch match -title <title> [-artist <name>]

Environment:
  SETMATCH_DB_PATH   Path to the SQLite catalog (default: setmatch.sqlite3)
  LOG_LEVEL          DEBUG | INFO | WARN | ERROR | FATAL`)
}

// artistList collects repeated -artist flags.
type artistList []string

func (a *artistList) String() string { return strings.Join(*a, ", ") }

func (a *artistList) Set(value string) error {
	*a = append(*a, value)
	return nil
}

func newService(dbPath string) setmatch.Service {
	svc, err := setmatch.NewService(setmatch.WithDBPath(dbPath))
	if err != nil {
		fmt.Printf("Failed to open catalog: %v\n", err)
		os.Exit(1)
	}
	return svc
}

func handleAdd() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	dbPath := addCmd.String("db", getEnvOrDefault("SETMATCH_DB_PATH", "setmatch.sqlite3"), "Path to the SQLite catalog")
	title := addCmd.String("title", "", "Song title (required)")
	key := addCmd.String("key", "", "Musical key (optional)")
	tempo := addCmd.Int("tempo", 0, "Tempo in BPM (optional)")
	timeSig := addCmd.String("time", "", "Time signature (optional)")
	var artists artistList
	addCmd.Var(&artists, "artist", "Artist name (repeatable)")
	addCmd.Parse(os.Args[2:])

	if *title == "" {
		fmt.Println("Error: -title is required")
		addCmd.Usage()
		os.Exit(1)
	}

	svc := newService(*dbPath)
	defer svc.Close()

	id, err := svc.AddSong(context.Background(), *title, artists, models.SongMeta{
		Key:           *key,
		Tempo:         *tempo,
		TimeSignature: *timeSig,
	})
	if err != nil {
		fmt.Printf("Failed to add song: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Registered %q (ID %s)\n", *title, id)
}

func handleList() {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	dbPath := listCmd.String("db", getEnvOrDefault("SETMATCH_DB_PATH", "setmatch.sqlite3"), "Path to the SQLite catalog")
	listCmd.Parse(os.Args[2:])

	svc := newService(*dbPath)
	defer svc.Close()

	songs, err := svc.ListSongs(context.Background())
	if err != nil {
		fmt.Printf("Failed to list songs: %v\n", err)
		os.Exit(1)
	}
	if len(songs) == 0 {
		fmt.Println("Catalog is empty.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Title", "Artists", "Key", "Tempo", "Time"})
	for _, song := range songs {
		tempo := ""
		if song.Tempo > 0 {
			tempo = fmt.Sprintf("%d", song.Tempo)
		}
		t.AppendRow(table.Row{song.ID, song.Title, strings.Join(song.Artists, ", "), song.Key, tempo, song.TimeSignature})
	}
	t.Render()
	fmt.Printf("%d songs\n", len(songs))
}

func handleDelete() {
	deleteCmd := flag.NewFlagSet("delete", flag.ExitOnError)
	dbPath := deleteCmd.String("db", getEnvOrDefault("SETMATCH_DB_PATH", "setmatch.sqlite3"), "Path to the SQLite catalog")

	args := os.Args[2:]
	var songID string
	var flagArgs []string
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && songID == "" {
			songID = arg
		} else {
			flagArgs = append(flagArgs, args[i:]...)
			break
		}
	}
	deleteCmd.Parse(flagArgs)

	if songID == "" {
		fmt.Println("Usage: setmatch delete <song-id>")
		os.Exit(1)
	}

	svc := newService(*dbPath)
	defer svc.Close()

	if err := svc.DeleteSong(context.Background(), songID); err != nil {
		fmt.Printf("Failed to delete song: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted song %s\n", songID)
}

func handleParse() {
	parseCmd := flag.NewFlagSet("parse", flag.ExitOnError)
	dbPath := parseCmd.String("db", getEnvOrDefault("SETMATCH_DB_PATH", "setmatch.sqlite3"), "Path to the SQLite catalog")
	file := parseCmd.String("file", "", "Setlist text file (stdin when omitted)")
	resolve := parseCmd.Bool("resolve", false, "Also match every candidate against the catalog")
	parseCmd.Parse(os.Args[2:])

	input, err := readInput(*file)
	if err != nil {
		fmt.Printf("Failed to read input: %v\n", err)
		os.Exit(1)
	}

	svc := newService(*dbPath)
	defer svc.Close()

	if *resolve {
		renderResolved(svc.ResolveSetlist(context.Background(), input))
		return
	}
	renderParsed(svc.ParseSetlist(input))
}

func handleMatch() {
	matchCmd := flag.NewFlagSet("match", flag.ExitOnError)
	dbPath := matchCmd.String("db", getEnvOrDefault("SETMATCH_DB_PATH", "setmatch.sqlite3"), "Path to the SQLite catalog")
	title := matchCmd.String("title", "", "Song title to match (required)")
	artist := matchCmd.String("artist", "", "Artist name (optional)")
	matchCmd.Parse(os.Args[2:])

	if *title == "" {
		fmt.Println("Error: -title is required")
		matchCmd.Usage()
		os.Exit(1)
	}

	svc := newService(*dbPath)
	defer svc.Close()

	cand := models.Candidate{
		Title:  parser.NormalizeTitle(*title),
		Artist: parser.NormalizeArtist(*artist),
	}
	outcome := svc.MatchCandidate(context.Background(), cand)
	renderOutcome(cand, outcome)
}

func readInput(file string) (string, error) {
	if file == "" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(file)
	return string(data), err
}

func renderParsed(result models.ParseResult) {
	for _, set := range result.Sets {
		fmt.Printf("\n%s\n", set.Name)
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"#", "Title", "Artist", "Confidence"})
		for _, cand := range set.Songs {
			t.AppendRow(table.Row{cand.LineNumber, cand.Title, cand.Artist, fmt.Sprintf("%.1f", cand.Confidence)})
		}
		t.Render()
	}
	fmt.Printf("\nParsed %d of %d lines (complexity: %s)\n", result.ParsedLines, result.TotalLines, result.Complexity)
	if result.Message != "" {
		fmt.Println(result.Message)
	}
}

func renderResolved(result models.ResolveResult) {
	for _, set := range result.Sets {
		fmt.Printf("\n%s\n", set.Name)
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Title", "Artist", "Match", "Tier", "Score"})
		for _, rc := range set.Songs {
			best := "(new song)"
			tier := rc.Outcome.Confidence.String()
			score := ""
			if rc.Outcome.BestMatch != nil {
				best = rc.Outcome.BestMatch.Song.Title
				score = fmt.Sprintf("%.2f", rc.Outcome.BestMatch.Score)
			}
			t.AppendRow(table.Row{rc.Candidate.Title, rc.Candidate.Artist, best, tier, score})
		}
		t.Render()
	}
	if result.Message != "" {
		fmt.Println(result.Message)
	}
}

func renderOutcome(cand models.Candidate, outcome models.MatchOutcome) {
	if outcome.Confidence == models.ConfidenceError {
		fmt.Println("Catalog lookup failed; no matches available.")
		return
	}
	if outcome.IsNewSong {
		fmt.Printf("No matches for %q: looks like a new song.\n", cand.Title)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Title", "Artists", "Tier", "Score", "Reason"})
	for _, match := range outcome.Matches {
		t.AppendRow(table.Row{
			match.Song.Title,
			strings.Join(match.Song.Artists, ", "),
			match.Confidence.String(),
			fmt.Sprintf("%.2f", match.Score),
			match.Reason,
		})
	}
	t.Render()
}
