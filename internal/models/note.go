package models

// Note is a server-confirmed note. IDs are assigned by the server and grow
// monotonically in creation order. Field names follow the wire format.
type Note struct {
	ID          int64   `json:"id"`
	Text        string  `json:"text"`
	Images      []Image `json:"images,omitempty"`
	CreatedTime int64   `json:"created_time"`
	UpdatedTime int64   `json:"updated_time,omitempty"`
	OwnerID     int64   `json:"owner_id,omitempty"`
	DeletedAt   *int64  `json:"deleted_at,omitempty"`
}

// LocalNote is a note buffered on the client, not yet confirmed by the
// server. Its id is the creation timestamp in milliseconds, assumed unique
// within the buffer.
type LocalNote struct {
	ID          int64   `json:"id"`
	Text        string  `json:"text"`
	Images      []Image `json:"images,omitempty"`
	CreatedTime int64   `json:"created_time"`
	UpdatedTime int64   `json:"updated_time,omitempty"`
}
