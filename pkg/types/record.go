// Package types defines the value types of the attachment search engine:
// the validated Query, the Record describing one indexed attachment, and
// the ResultBundle a search returns.
package types

import (
	"strings"
	"time"

	"github.com/haystackfs/haystack/pkg/chat"
)

// Record is the searchable metadata for one attachment, derived from a
// message/attachment pair. Records are immutable once built; two Records
// with the same ID describe the same underlying attachment.
type Record struct {
	ID             uint64    `msgpack:"id" json:"id"`
	AuthorID       uint64    `msgpack:"author_id" json:"author_id"`
	MessageContent string    `msgpack:"content" json:"content"`
	Filename       string    `msgpack:"filename" json:"filename"`
	ContentType    string    `msgpack:"content_type" json:"content_type,omitempty"`
	Filetype       string    `msgpack:"filetype" json:"filetype"`
	ChannelID      uint64    `msgpack:"channel_id" json:"channel_id"`
	MessageID      uint64    `msgpack:"message_id" json:"message_id"`
	URL            string    `msgpack:"url" json:"url"`
	Permalink      string    `msgpack:"permalink" json:"permalink"`
	CreatedAt      time.Time `msgpack:"created_at" json:"created_at"`
}

// FiletypeUnknown is the derived extension for filenames without a dot.
const FiletypeUnknown = "unknown"

// NewRecord builds a Record from a message and one of its attachments.
// The Filetype is derived from the filename's extension and is never empty.
func NewRecord(msg *chat.Message, att chat.Attachment) Record {
	return Record{
		ID:             uint64(att.ID),
		AuthorID:       uint64(msg.Author.ID),
		MessageContent: msg.Content,
		Filename:       att.Filename,
		ContentType:    att.ContentType,
		Filetype:       extensionOf(att.Filename),
		ChannelID:      uint64(msg.ChannelID),
		MessageID:      uint64(msg.ID),
		URL:            att.URL,
		Permalink:      msg.Permalink,
		CreatedAt:      msg.CreatedAt,
	}
}

// RecordsFromMessage converts every attachment of msg into a Record.
func RecordsFromMessage(msg *chat.Message) []Record {
	if len(msg.Attachments) == 0 {
		return nil
	}
	recs := make([]Record, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		recs = append(recs, NewRecord(msg, att))
	}
	return recs
}

func extensionOf(filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i >= 0 && i+1 < len(filename) {
		return filename[i+1:]
	}
	return FiletypeUnknown
}
