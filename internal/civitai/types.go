package civitai

import (
	"bytes"
	"encoding/json"
	"time"
)

// Image is one generated image reported on a page
type Image struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Completed time.Time `json:"completed"`
}

// Page is one fetched page of generation history
type Page struct {
	Cursor     string  // Cursor the page was requested with, "" for the latest page
	NextCursor string  // Token of the next (older) page, "" at the end
	Images     []Image // Images flattened across items and steps
	Items      int     // Number of generation requests on the page
}

// envelope mirrors the tRPC response of orchestrator.queryGeneratedImages
type envelope struct {
	Result *struct {
		Data *struct {
			JSON struct {
				Items []struct {
					Steps []struct {
						Images []wireImage `json:"images"`
					} `json:"steps"`
				} `json:"items"`
				NextCursor *string `json:"nextCursor"`
			} `json:"json"`
		} `json:"data"`
	} `json:"result"`
	Error *struct {
		JSON struct {
			Message string `json:"message"`
			Data    struct {
				Code       string `json:"code"`
				HTTPStatus int    `json:"httpStatus"`
			} `json:"data"`
		} `json:"json"`
	} `json:"error"`
}

type wireImage struct {
	ID        flexString `json:"id"`
	URL       string     `json:"url"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	Completed *time.Time `json:"completed"`
}

// flexString accepts both JSON strings and numbers
// Upstream image ids have been served as either
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
