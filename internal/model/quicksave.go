package model

import "time"

// QuickSave is a bookmark owned by exactly one user.
//
// Content is free-form JSON. The "title" and "description" keys are the
// only ones the search looks at, everything else is stored and returned as-is.
type QuickSave struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Content   map[string]any `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
