package extract

import (
	"database/sql"

	"github.com/Napageneral/chatclean/internal/appletime"
	"github.com/Napageneral/chatclean/internal/decode"
	"github.com/Napageneral/chatclean/internal/textclean"
)

// rawMessage is one row of the source message table, read as-is.
type rawMessage struct {
	RowID                 int64
	GUID                  sql.NullString
	Text                  sql.NullString
	AttributedBody        []byte
	Date                  sql.NullInt64
	IsFromMe              sql.NullInt64
	IsRead                sql.NullInt64
	IsDelivered           sql.NullInt64
	IsSent                sql.NullInt64
	HasAttachments        sql.NullInt64
	Service               sql.NullString
	HandleID              sql.NullInt64
	AssociatedMessageType sql.NullInt64
}

// message is one row of the destination messages table. Built once per source
// row and never touched again.
type message struct {
	ID                    int64
	GUID                  sql.NullString
	Text                  sql.NullString
	DecodedText           string
	Date                  sql.NullString
	DateUnix              sql.NullInt64
	IsFromMe              sql.NullInt64
	IsRead                sql.NullInt64
	IsDelivered           sql.NullInt64
	IsSent                sql.NullInt64
	HasAttachments        sql.NullInt64
	Service               sql.NullString
	HandleID              sql.NullInt64
	AssociatedMessageType sql.NullInt64
	IsReaction            bool
	IsQuote               bool
}

// transformRow maps a source row to a destination row. Plain text wins over
// the attributedBody blob; the blob is only decoded when plain text is absent
// or empty. The mapping is deterministic: the same source row always yields
// the same destination row.
func transformRow(dec *decode.Decoder, row rawMessage) message {
	var raw string
	switch {
	case row.Text.Valid && row.Text.String != "":
		raw = row.Text.String
	case len(row.AttributedBody) > 0:
		raw = dec.Decode(row.AttributedBody)
	}

	cleaned := ""
	if raw != "" {
		cleaned = textclean.Normalize(raw)
	}

	var date sql.NullString
	var dateUnix sql.NullInt64
	if row.Date.Valid {
		if cal, ok := appletime.ToCalendar(row.Date.Int64); ok {
			date = sql.NullString{String: cal, Valid: true}
		}
		if unix, ok := appletime.ToUnix(row.Date.Int64); ok {
			dateUnix = sql.NullInt64{Int64: unix, Valid: true}
		}
	}

	return message{
		ID:                    row.RowID,
		GUID:                  row.GUID,
		Text:                  row.Text,
		DecodedText:           cleaned,
		Date:                  date,
		DateUnix:              dateUnix,
		IsFromMe:              row.IsFromMe,
		IsRead:                row.IsRead,
		IsDelivered:           row.IsDelivered,
		IsSent:                row.IsSent,
		HasAttachments:        row.HasAttachments,
		Service:               row.Service,
		HandleID:              row.HandleID,
		AssociatedMessageType: row.AssociatedMessageType,
		IsReaction:            textclean.IsReaction(cleaned),
		IsQuote:               textclean.IsQuoted(cleaned),
	}
}
