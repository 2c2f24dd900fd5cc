package core

import (
	"encoding/base64"
	"strings"
)

const mimeTextPlain = "text/plain"

// ExtractPlainText returns the decoded content of the first text/plain leaf
// in the body tree, walking depth-first and left to right. The root node is
// checked before its children. A tree without any text/plain leaf yields an
// empty string, not an error.
func ExtractPlainText(body *MessageBody) string {
	if body == nil {
		return ""
	}
	if body.MimeType == mimeTextPlain && body.Data != "" {
		return decodeBase64URL(body.Data)
	}
	return walkParts(body.Parts)
}

func walkParts(parts []*MessageBody) string {
	for _, p := range parts {
		if p == nil {
			continue
		}
		if p.MimeType == mimeTextPlain && p.Data != "" {
			return decodeBase64URL(p.Data)
		}
		if len(p.Parts) > 0 {
			if content := walkParts(p.Parts); content != "" {
				return content
			}
		}
	}
	return ""
}

// decodeBase64URL decodes leniently: both padded and unpadded input are
// accepted, whatever decoded before a malformed sequence is kept, and invalid
// UTF-8 is dropped so encoding noise never fails the message.
func decodeBase64URL(data string) string {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		if raw, rawErr := base64.RawURLEncoding.DecodeString(data); rawErr == nil {
			b = raw
		}
	}
	return strings.ToValidUTF8(string(b), "")
}
