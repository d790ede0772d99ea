// chatclean-inspect prints a quick summary of an exported database: table
// counts, the last export run, and a sample of recent messages.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	dbPath := flag.String("db", "messages.db", "Exported database to inspect")
	clean := flag.Bool("clean", false, "Sample messages_clean instead of messages_readable")
	limit := flag.Int("limit", 10, "Number of recent messages to print")
	flag.Parse()

	if _, err := os.Stat(*dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: database not found: %s\n", *dbPath)
		os.Exit(2)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", *dbPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening db: %v\n", err)
		os.Exit(2)
	}
	defer db.Close()

	printCounts(db)
	printLastRun(db)

	view := "messages_readable"
	if *clean {
		view = "messages_clean"
	}
	printRecent(db, view, *limit)
}

func printCounts(db *sql.DB) {
	fmt.Println("Tables:")
	for _, table := range []string{"messages", "chats", "handles", "attachments"} {
		var cnt int64
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&cnt); err != nil {
			fmt.Fprintf(os.Stderr, "Error counting %s: %v\n", table, err)
			os.Exit(2)
		}
		fmt.Printf("  %-12s %d\n", table, cnt)
	}

	var reactions, quotes int64
	_ = db.QueryRow("SELECT COUNT(*) FROM messages WHERE is_reaction = 1").Scan(&reactions)
	_ = db.QueryRow("SELECT COUNT(*) FROM messages WHERE is_quote = 1").Scan(&quotes)
	fmt.Printf("  reactions    %d\n", reactions)
	fmt.Printf("  quotes       %d\n", quotes)
	fmt.Println()
}

func printLastRun(db *sql.DB) {
	var id string
	var messages, finished int64
	err := db.QueryRow(`
		SELECT id, message_count, finished_at FROM export_runs
		ORDER BY finished_at DESC LIMIT 1
	`).Scan(&id, &messages, &finished)
	if err == sql.ErrNoRows {
		fmt.Println("No export runs recorded.")
		fmt.Println()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading export runs: %v\n", err)
		os.Exit(2)
	}
	fmt.Printf("Last export: %s (%d messages, %s)\n\n",
		id, messages, time.Unix(finished, 0).Format("2006-01-02 15:04:05"))
}

func printRecent(db *sql.DB, view string, limit int) {
	rows, err := db.Query(fmt.Sprintf(`
		SELECT date, sender, message FROM %s ORDER BY id DESC LIMIT %d
	`, view, limit))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", view, err)
		os.Exit(2)
	}
	defer rows.Close()

	fmt.Printf("Recent messages (%s):\n", view)
	for rows.Next() {
		var date, sender, message sql.NullString
		if err := rows.Scan(&date, &sender, &message); err != nil {
			fmt.Fprintf(os.Stderr, "Error scanning row: %v\n", err)
			os.Exit(2)
		}
		fmt.Printf("  [%s] %s: %s\n", date.String, sender.String, message.String)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", view, err)
		os.Exit(2)
	}
}
