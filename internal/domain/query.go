package domain

import "time"

// QueryDocument carries previously extracted content. Only the text is read.
type QueryDocument struct {
	ExtractedText string `json:"extractedText"`
}

// QueryRequest is the inbound body of the qa-query endpoint.
type QueryRequest struct {
	Query        string         `json:"query" validate:"required"`
	DocumentData *QueryDocument `json:"documentData" validate:"required"`
}

// QueryAnswer is the response to a free-text question. Answer is never empty.
type QueryAnswer struct {
	Answer    string    `json:"answer"`
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}
