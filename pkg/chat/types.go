// Package chat abstracts the chat platform the engine crawls. The concrete
// binding (event dispatch, command parsing, rendering) lives outside this
// module; implementations of Provider adapt a platform client to these types.
package chat

import (
	"fmt"
	"time"
)

// ID is a snowflake identifier as used by the chat platform.
type ID uint64

// String renders the id in its canonical decimal form.
func (id ID) String() string { return fmt.Sprintf("%d", uint64(id)) }

// User identifies an acting identity (a member or a bot).
type User struct {
	ID   ID
	Name string
	Bot  bool
}

// Channel is a message channel. GuildID is zero for direct-message channels.
type Channel struct {
	ID      ID
	GuildID ID
	Name    string
	DM      bool
}

// Attachment is a file posted alongside a message.
type Attachment struct {
	ID          ID
	Filename    string
	ContentType string // MIME type as reported by the platform, may be empty
	URL         string
	Size        int64
}

// Message is one channel message together with its attachments.
type Message struct {
	ID          ID
	ChannelID   ID
	GuildID     ID
	Author      User
	Content     string
	Attachments []Attachment
	Permalink   string
	CreatedAt   time.Time
}

// HasAttachments reports whether the message carries any files.
func (m *Message) HasAttachments() bool { return len(m.Attachments) > 0 }
