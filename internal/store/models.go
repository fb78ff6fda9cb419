package store

import "time"

// User is an account that can sign in
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FullName       *string   `json:"full_name"`
	HashedPassword string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	IsSuperuser    bool      `json:"is_superuser"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserUpdate is a partial update, nil fields are left untouched
type UserUpdate struct {
	Username       *string `json:"username,omitempty"`
	Email          *string `json:"email,omitempty"`
	FullName       *string `json:"full_name,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
	IsSuperuser    *bool   `json:"is_superuser,omitempty"`
	HashedPassword *string `json:"-"`
}

// Image is a user-owned image record
type Image struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ImageUpdate is a partial update, nil fields are left untouched
type ImageUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	URL         *string `json:"url,omitempty"`
}

// Cursor is one imported page of Civitai generation history
// NextCursorID links to the next (older) page
type Cursor struct {
	ID           string    `json:"id"`
	NextCursorID *string   `json:"next_cursor_id"`
	PageNumber   *int      `json:"page_number"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Next returns the linked cursor id or "" for the chain tail
func (c *Cursor) Next() string {
	if c == nil || c.NextCursorID == nil {
		return ""
	}
	return *c.NextCursorID
}

// CursorFields is a reconciliation update applied by chain repair
type CursorFields struct {
	NextCursorID *string
	PageNumber   int
	CreatedAt    time.Time
}

// GeneratedImage is an image produced upstream, owned by its cursor page
type GeneratedImage struct {
	ID        string    `json:"id"`
	CursorID  string    `json:"cursor_id"`
	URL       string    `json:"url"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Settings holds the singleton application settings row
type Settings struct {
	ID           string    `json:"id"`
	CookieString string    `json:"cookie_string"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CurrentSettingsID is the primary key of the singleton settings row
const CurrentSettingsID = "current"
