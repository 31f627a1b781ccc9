package telegram

import "time"

// Channel represents a telegram channel info
type Channel struct {
	ID         int64  // channel id
	AccessHash int64  // access hash for api calls
	Username   string // channel username (without @)
	Title      string // channel title
}

// Photo references a downloadable photo attached to a message.
type Photo struct {
	ID            int64  // photo id
	AccessHash    int64  // access hash for download calls
	FileReference []byte // file reference required by the api
	ThumbSize     string // largest available size type
}

// Message represents a parsed telegram message
type Message struct {
	ID        int       // message id (unique within channel)
	ChannelID int64     // channel id
	Text      string    // message text content
	Date      time.Time // message creation timestamp
	Views     int       // view count
	Forwards  int       // forward count
	Photo     *Photo    // attached photo, nil when the message has none
}

// HasPhoto reports whether the message carries downloadable photo media.
func (m *Message) HasPhoto() bool {
	return m.Photo != nil
}
