package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haystackfs/haystack/pkg/chat"
)

func testMessage() *chat.Message {
	return &chat.Message{
		ID:        900,
		ChannelID: 77,
		GuildID:   5,
		Author:    chat.User{ID: 42, Name: "mira"},
		Content:   "photos from the trip",
		Permalink: "https://chat.example/channels/5/77/900",
		CreatedAt: time.Date(2023, 1, 15, 10, 30, 0, 0, time.UTC),
		Attachments: []chat.Attachment{
			{ID: 1001, Filename: "vacation_photo.png", ContentType: "image/png", URL: "https://cdn.example/1001"},
			{ID: 1002, Filename: "README", URL: "https://cdn.example/1002"},
		},
	}
}

func TestNewRecordFields(t *testing.T) {
	msg := testMessage()
	rec := NewRecord(msg, msg.Attachments[0])

	assert.Equal(t, uint64(1001), rec.ID)
	assert.Equal(t, uint64(42), rec.AuthorID)
	assert.Equal(t, "photos from the trip", rec.MessageContent)
	assert.Equal(t, "vacation_photo.png", rec.Filename)
	assert.Equal(t, "image/png", rec.ContentType)
	assert.Equal(t, "png", rec.Filetype)
	assert.Equal(t, uint64(77), rec.ChannelID)
	assert.Equal(t, uint64(900), rec.MessageID)
	assert.Equal(t, msg.Permalink, rec.Permalink)
	assert.True(t, rec.CreatedAt.Equal(msg.CreatedAt))
}

func TestNewRecordFiletypeFallback(t *testing.T) {
	msg := testMessage()

	// No dot in the filename: the derived filetype is never empty.
	rec := NewRecord(msg, msg.Attachments[1])
	assert.Equal(t, FiletypeUnknown, rec.Filetype)
	assert.Empty(t, rec.ContentType)

	rec = NewRecord(msg, chat.Attachment{ID: 3, Filename: "archive.tar.gz"})
	assert.Equal(t, "gz", rec.Filetype)
}

func TestRecordsFromMessage(t *testing.T) {
	msg := testMessage()
	recs := RecordsFromMessage(msg)
	require.Len(t, recs, 2)
	assert.Equal(t, uint64(1001), recs[0].ID)
	assert.Equal(t, uint64(1002), recs[1].ID)

	assert.Nil(t, RecordsFromMessage(&chat.Message{}))
}
