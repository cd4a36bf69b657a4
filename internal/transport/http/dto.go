package http

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreatePresentationRequest struct {
	Title string `json:"title"`
}

type PresentationItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type PresentationsListResponse struct {
	Items      []PresentationItem `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

type StatsResponse struct {
	Rooms   int `json:"rooms"`
	Clients int `json:"clients"`
}
