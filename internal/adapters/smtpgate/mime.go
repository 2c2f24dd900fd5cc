package smtpgate

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"mailgate/internal/core"
)

// Nested multipart bombs get cut off rather than recursed into forever.
const maxMultipartDepth = 8

// bodyTreeFromMessage converts a parsed email into the core MIME body tree.
// Leaf content is re-encoded as base64url so SMTP-delivered and Gmail-fetched
// bodies flow through the same extractor.
func bodyTreeFromMessage(msg *mail.Message) (*core.MessageBody, error) {
	contentType := msg.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		data, readErr := io.ReadAll(msg.Body)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read message body: %w", readErr)
		}
		data = decodeTransferEncoding(data, msg.Header.Get("Content-Transfer-Encoding"))
		if mediaType == "" {
			mediaType = "text/plain"
		}
		return &core.MessageBody{
			MimeType: mediaType,
			Data:     base64.URLEncoding.EncodeToString(data),
		}, nil
	}

	parts, err := parseMultipart(msg.Body, params["boundary"], 0)
	if err != nil {
		return nil, err
	}
	return &core.MessageBody{MimeType: mediaType, Parts: parts}, nil
}

// parseMultipart reads each part of a multipart body into the tree, recursing
// into nested multiparts. A malformed part ends the walk with whatever was
// collected so far rather than failing the message.
func parseMultipart(r io.Reader, boundary string, depth int) ([]*core.MessageBody, error) {
	if boundary == "" {
		return nil, fmt.Errorf("multipart content without boundary")
	}
	if depth > maxMultipartDepth {
		return nil, fmt.Errorf("multipart nesting exceeds depth %d", maxMultipartDepth)
	}

	mr := multipart.NewReader(r, boundary)
	var parts []*core.MessageBody
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return parts, nil
		}

		partType, partParams, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			partType = "text/plain"
		}

		if strings.HasPrefix(partType, "multipart/") {
			children, err := parseMultipart(part, partParams["boundary"], depth+1)
			if err != nil {
				continue
			}
			parts = append(parts, &core.MessageBody{MimeType: partType, Parts: children})
			continue
		}

		data, err := io.ReadAll(part)
		if err != nil {
			continue
		}
		data = decodeTransferEncoding(data, part.Header.Get("Content-Transfer-Encoding"))
		parts = append(parts, &core.MessageBody{
			MimeType: partType,
			Data:     base64.URLEncoding.EncodeToString(data),
		})
	}

	return parts, nil
}

// decodeTransferEncoding undoes base64 and quoted-printable transfer
// encodings; anything else passes through unchanged.
func decodeTransferEncoding(data []byte, encoding string) []byte {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		decoded, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, bytes.NewReader(data)))
		if err == nil {
			return decoded
		}
	case "quoted-printable":
		decoded, err := io.ReadAll(quotedprintable.NewReader(bytes.NewReader(data)))
		if err == nil {
			return decoded
		}
	}
	return data
}

// decodeEncodedHeader decodes RFC 2047 encoded-words in a header value.
func decodeEncodedHeader(value string) string {
	decoder := new(mime.WordDecoder)
	decoded, err := decoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}
