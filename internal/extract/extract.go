// Package extract copies selected conversations out of an Apple Messages
// chat.db into a clean, portable SQLite database: decoded and normalized
// message text, Unix + calendar timestamps, reaction/quote flags, and the
// chat/handle/attachment metadata needed to read the result standalone.
package extract

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/Napageneral/chatclean/internal/decode"
)

//go:embed schema.sql
var schemaSQL string

// progressEvery controls how often message progress is logged.
const progressEvery = 10000

// Options configures one export run.
type Options struct {
	SourcePath string
	TargetPath string
	// Selector is either "all" or a comma-separated list of chat ROWIDs.
	Selector string
	// Unarchiver optionally provides the platform keyed-archive decoder.
	// Nil means the byte-scan fallback strategies are used alone.
	Unarchiver decode.Unarchiver
}

// Result summarizes a completed export run.
type Result struct {
	RunID       string
	Chats       int
	Handles     int
	Messages    int
	Attachments int
	Reactions   int
	Quotes      int
	Duration    time.Duration
}

// Run performs a full export. The destination schema is dropped and
// recreated, rows are copied inside a single transaction, and nothing is
// committed until every selected row has been transformed.
func Run(ctx context.Context, opts Options, logger zerolog.Logger) (Result, error) {
	start := time.Now()
	var out Result

	if strings.TrimSpace(opts.SourcePath) == "" {
		return out, fmt.Errorf("source path is required")
	}
	if strings.TrimSpace(opts.TargetPath) == "" {
		return out, fmt.Errorf("target path is required")
	}
	if _, err := os.Stat(opts.SourcePath); err != nil {
		return out, fmt.Errorf("source database not found: %s", opts.SourcePath)
	}

	src, err := sql.Open("sqlite", "file:"+opts.SourcePath+"?mode=ro")
	if err != nil {
		return out, fmt.Errorf("failed to open source database: %w", err)
	}
	defer src.Close()

	chatIDs, err := resolveChatIDs(ctx, src, opts.Selector)
	if err != nil {
		return out, err
	}
	logger.Info().
		Str("source", opts.SourcePath).
		Str("target", opts.TargetPath).
		Int("chats", len(chatIDs)).
		Msg("starting export")

	dst, err := openTarget(opts.TargetPath)
	if err != nil {
		return out, err
	}
	defer dst.Close()

	if _, err := dst.ExecContext(ctx, schemaSQL); err != nil {
		return out, fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := dst.BeginTx(ctx, nil)
	if err != nil {
		return out, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	in := placeholders(len(chatIDs))
	args := chatIDArgs(chatIDs)

	out.Chats, err = copyChats(ctx, src, tx, in, args)
	if err != nil {
		return out, err
	}
	out.Handles, err = copyHandles(ctx, src, tx, in, args)
	if err != nil {
		return out, err
	}

	dec := decode.New(opts.Unarchiver)
	out.Messages, out.Reactions, out.Quotes, err = copyMessages(ctx, src, tx, dec, in, args, logger)
	if err != nil {
		return out, err
	}

	if err := copyJoins(ctx, src, tx, in, args); err != nil {
		return out, err
	}
	out.Attachments, err = copyAttachments(ctx, src, tx, in, args)
	if err != nil {
		return out, err
	}

	out.RunID = uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO export_runs (id, source, chat_count, message_count, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, out.RunID, opts.SourcePath, out.Chats, out.Messages, start.Unix(), time.Now().Unix())
	if err != nil {
		return out, fmt.Errorf("failed to record export run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return out, fmt.Errorf("failed to commit: %w", err)
	}

	out.Duration = time.Since(start)
	logger.Info().
		Str("run_id", out.RunID).
		Int("chats", out.Chats).
		Int("handles", out.Handles).
		Int("messages", out.Messages).
		Int("attachments", out.Attachments).
		Int("reactions", out.Reactions).
		Int("quotes", out.Quotes).
		Dur("duration", out.Duration).
		Msg("export complete")

	return out, nil
}

func openTarget(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open target database: %w", err)
	}

	// Pragmas for performance + concurrency.
	// WAL allows concurrent readers while a writer is active.
	// busy_timeout reduces SQLITE_BUSY errors under contention.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set synchronous: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy_timeout: %w", err)
	}
	return db, nil
}

// resolveChatIDs turns the selector into concrete chat ROWIDs. "all" selects
// every chat in the source. Zero resolved chats is an error: exporting an
// empty database is never what the caller wanted.
func resolveChatIDs(ctx context.Context, src *sql.DB, selector string) ([]int64, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, fmt.Errorf("chat selector is required (comma-separated ROWIDs or \"all\")")
	}

	var ids []int64
	if strings.EqualFold(selector, "all") {
		rows, err := src.QueryContext(ctx, "SELECT ROWID FROM chat ORDER BY ROWID")
		if err != nil {
			return nil, fmt.Errorf("failed to list chats: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return nil, fmt.Errorf("failed to scan chat id: %w", err)
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to list chats: %w", err)
		}
	} else {
		for _, part := range strings.Split(selector, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid chat id %q", part)
			}
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("no chat ids resolved from selector %q", selector)
	}
	return ids, nil
}

func copyChats(ctx context.Context, src *sql.DB, tx *sql.Tx, in string, args []any) (int, error) {
	rows, err := src.QueryContext(ctx, `
		SELECT ROWID, guid, chat_identifier, display_name, service_name
		FROM chat WHERE ROWID IN (`+in+`)
	`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to read chats: %w", err)
	}
	defer rows.Close()

	ins, err := tx.PrepareContext(ctx, "INSERT INTO chats VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare chat insert: %w", err)
	}
	defer ins.Close()

	count := 0
	for rows.Next() {
		var id int64
		var guid, identifier, displayName, serviceName sql.NullString
		if err := rows.Scan(&id, &guid, &identifier, &displayName, &serviceName); err != nil {
			return count, fmt.Errorf("failed to scan chat: %w", err)
		}
		if _, err := ins.ExecContext(ctx, id, guid, identifier, displayName, serviceName); err != nil {
			return count, fmt.Errorf("failed to insert chat %d: %w", id, err)
		}
		count++
	}
	return count, rows.Err()
}

func copyHandles(ctx context.Context, src *sql.DB, tx *sql.Tx, in string, args []any) (int, error) {
	rows, err := src.QueryContext(ctx, `
		SELECT DISTINCT h.ROWID, h.id, h.service
		FROM handle h
		JOIN message m ON m.handle_id = h.ROWID
		JOIN chat_message_join cmj ON m.ROWID = cmj.message_id
		WHERE cmj.chat_id IN (`+in+`)
	`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to read handles: %w", err)
	}
	defer rows.Close()

	ins, err := tx.PrepareContext(ctx, "INSERT INTO handles VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare handle insert: %w", err)
	}
	defer ins.Close()

	count := 0
	for rows.Next() {
		var id int64
		var contactID, service sql.NullString
		if err := rows.Scan(&id, &contactID, &service); err != nil {
			return count, fmt.Errorf("failed to scan handle: %w", err)
		}
		if _, err := ins.ExecContext(ctx, id, contactID, service); err != nil {
			return count, fmt.Errorf("failed to insert handle %d: %w", id, err)
		}
		count++
	}
	return count, rows.Err()
}

// copyMessages streams the selected messages in date order, transforming each
// row as it goes. Rows are never buffered: one source row in, one destination
// row out.
func copyMessages(ctx context.Context, src *sql.DB, tx *sql.Tx, dec *decode.Decoder, in string, args []any, logger zerolog.Logger) (count, reactions, quotes int, err error) {
	rows, err := src.QueryContext(ctx, `
		SELECT
			m.ROWID, m.guid, m.text, m.attributedBody, m.date,
			m.is_from_me, m.is_read, m.is_delivered, m.is_sent,
			m.cache_has_attachments, m.service, m.handle_id,
			m.associated_message_type
		FROM message m
		JOIN chat_message_join cmj ON m.ROWID = cmj.message_id
		WHERE cmj.chat_id IN (`+in+`)
		ORDER BY m.date ASC
	`, args...)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to read messages: %w", err)
	}
	defer rows.Close()

	ins, err := tx.PrepareContext(ctx, `
		INSERT INTO messages VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer ins.Close()

	for rows.Next() {
		var raw rawMessage
		if err := rows.Scan(
			&raw.RowID, &raw.GUID, &raw.Text, &raw.AttributedBody, &raw.Date,
			&raw.IsFromMe, &raw.IsRead, &raw.IsDelivered, &raw.IsSent,
			&raw.HasAttachments, &raw.Service, &raw.HandleID,
			&raw.AssociatedMessageType,
		); err != nil {
			return count, reactions, quotes, fmt.Errorf("failed to scan message: %w", err)
		}

		msg := transformRow(dec, raw)
		if _, err := ins.ExecContext(ctx,
			msg.ID, msg.GUID, msg.Text, msg.DecodedText,
			msg.Date, msg.DateUnix,
			msg.IsFromMe, msg.IsRead, msg.IsDelivered, msg.IsSent,
			msg.HasAttachments, msg.Service, msg.HandleID, msg.AssociatedMessageType,
			boolToInt(msg.IsReaction), boolToInt(msg.IsQuote),
		); err != nil {
			return count, reactions, quotes, fmt.Errorf("failed to insert message %d: %w", msg.ID, err)
		}

		count++
		if msg.IsReaction {
			reactions++
		}
		if msg.IsQuote {
			quotes++
		}
		if count%progressEvery == 0 {
			logger.Info().Int("messages", count).Msg("processing messages")
		}
	}
	return count, reactions, quotes, rows.Err()
}

func copyJoins(ctx context.Context, src *sql.DB, tx *sql.Tx, in string, args []any) error {
	type join struct {
		query  string
		insert string
	}
	joins := []join{
		{
			query: `SELECT message_id, chat_id FROM chat_message_join
				WHERE chat_id IN (` + in + `)`,
			insert: "INSERT OR IGNORE INTO message_chat_join VALUES (?, ?)",
		},
		{
			query: `SELECT chat_id, handle_id FROM chat_handle_join
				WHERE chat_id IN (` + in + `)`,
			insert: "INSERT OR IGNORE INTO chat_handle_join VALUES (?, ?)",
		},
		{
			query: `SELECT DISTINCT maj.message_id, maj.attachment_id
				FROM message_attachment_join maj
				JOIN chat_message_join cmj ON cmj.message_id = maj.message_id
				WHERE cmj.chat_id IN (` + in + `)`,
			insert: "INSERT OR IGNORE INTO message_attachment_join VALUES (?, ?)",
		},
	}

	for _, j := range joins {
		rows, err := src.QueryContext(ctx, j.query, args...)
		if err != nil {
			return fmt.Errorf("failed to read join rows: %w", err)
		}
		for rows.Next() {
			var a, b sql.NullInt64
			if err := rows.Scan(&a, &b); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan join row: %w", err)
			}
			if _, err := tx.ExecContext(ctx, j.insert, a, b); err != nil {
				rows.Close()
				return fmt.Errorf("failed to insert join row: %w", err)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("failed to read join rows: %w", err)
		}
		rows.Close()
	}
	return nil
}

func copyAttachments(ctx context.Context, src *sql.DB, tx *sql.Tx, in string, args []any) (int, error) {
	rows, err := src.QueryContext(ctx, `
		SELECT DISTINCT a.ROWID, a.guid, a.filename, a.mime_type, a.total_bytes
		FROM attachment a
		JOIN message_attachment_join maj ON maj.attachment_id = a.ROWID
		JOIN chat_message_join cmj ON cmj.message_id = maj.message_id
		WHERE cmj.chat_id IN (`+in+`)
	`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to read attachments: %w", err)
	}
	defer rows.Close()

	ins, err := tx.PrepareContext(ctx, "INSERT INTO attachments VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare attachment insert: %w", err)
	}
	defer ins.Close()

	count := 0
	for rows.Next() {
		var id int64
		var guid, filename, mimeType sql.NullString
		var totalBytes sql.NullInt64
		if err := rows.Scan(&id, &guid, &filename, &mimeType, &totalBytes); err != nil {
			return count, fmt.Errorf("failed to scan attachment: %w", err)
		}
		if _, err := ins.ExecContext(ctx, id, guid, filename, mimeType, totalBytes); err != nil {
			return count, fmt.Errorf("failed to insert attachment %d: %w", id, err)
		}
		count++
	}
	return count, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func chatIDArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
