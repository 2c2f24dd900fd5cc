package core

// Message is one email's metadata as supplied by the message store. Values
// are raw header strings; Date is display-only and never parsed.
type Message struct {
	ID      string
	From    string
	Subject string
	Snippet string
	Date    string
}

// MessageBody is one node of a MIME body tree. A node is either a leaf
// carrying base64url-encoded content for a single MIME type, or a composite
// holding child parts. Gmail's "full" message payload maps onto this shape
// directly.
type MessageBody struct {
	MimeType string
	Data     string
	Parts    []*MessageBody
}

// Verdict is the classification decision for a single message.
type Verdict struct {
	IsSpam bool
	Reason string
}

// ClassificationRequest is the payload handed to the model classifier. The
// body has already been redacted and truncated; no field changes between
// retry attempts.
type ClassificationRequest struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Snippet string `json:"snippet"`
	Body    string `json:"body"`
}
