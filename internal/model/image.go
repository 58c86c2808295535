package model

import "time"

// Image is an uploaded media asset in the tenant's content library.
type Image struct {
	ID           string    `json:"id"`
	URL          string    `json:"url,omitempty"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	FileName     string    `json:"fileName"`
	ContentType  string    `json:"contentType"`
	FileSize     int64     `json:"fileSize"`
	CreatedAt    time.Time `json:"createdAt"`
}
