package smtpgate

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailgate/internal/core"
)

func parseMail(t *testing.T, raw string) *mail.Message {
	t.Helper()
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)
	return msg
}

func TestBodyTreeSimplePlainText(t *testing.T) {
	msg := parseMail(t, "From: a@b.c\r\n"+
		"Content-Type: text/plain; charset=utf-8\r\n"+
		"\r\n"+
		"just a plain body\r\n")

	tree, err := bodyTreeFromMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", tree.MimeType)
	assert.Empty(t, tree.Parts)
	assert.Equal(t, "just a plain body", strings.TrimSpace(core.ExtractPlainText(tree)))
}

func TestBodyTreeMissingContentType(t *testing.T) {
	msg := parseMail(t, "From: a@b.c\r\n"+
		"\r\n"+
		"implicit plain text\r\n")

	tree, err := bodyTreeFromMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", tree.MimeType)
}

func TestBodyTreeMultipartAlternative(t *testing.T) {
	raw := "From: a@b.c\r\n" +
		"Content-Type: multipart/alternative; boundary=\"outer\"\r\n" +
		"\r\n" +
		"--outer\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"the plain version\r\n" +
		"--outer\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>the html version</p>\r\n" +
		"--outer--\r\n"

	tree, err := bodyTreeFromMessage(parseMail(t, raw))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", tree.MimeType)
	require.Len(t, tree.Parts, 2)
	assert.Equal(t, "text/plain", tree.Parts[0].MimeType)
	assert.Equal(t, "text/html", tree.Parts[1].MimeType)
	assert.Equal(t, "the plain version", strings.TrimSpace(core.ExtractPlainText(tree)))
}

func TestBodyTreeNestedMultipart(t *testing.T) {
	raw := "From: a@b.c\r\n" +
		"Content-Type: multipart/mixed; boundary=\"outer\"\r\n" +
		"\r\n" +
		"--outer\r\n" +
		"Content-Type: multipart/alternative; boundary=\"inner\"\r\n" +
		"\r\n" +
		"--inner\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>html</p>\r\n" +
		"--inner\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"nested plain\r\n" +
		"--inner--\r\n" +
		"--outer\r\n" +
		"Content-Type: application/pdf\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"JVBERi0=\r\n" +
		"--outer--\r\n"

	tree, err := bodyTreeFromMessage(parseMail(t, raw))
	require.NoError(t, err)
	require.Len(t, tree.Parts, 2)
	assert.Equal(t, "multipart/alternative", tree.Parts[0].MimeType)
	require.Len(t, tree.Parts[0].Parts, 2)
	assert.Equal(t, "nested plain", strings.TrimSpace(core.ExtractPlainText(tree)))
}

func TestBodyTreeQuotedPrintablePart(t *testing.T) {
	raw := "From: a@b.c\r\n" +
		"Content-Type: multipart/alternative; boundary=\"qp\"\r\n" +
		"\r\n" +
		"--qp\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"caf=C3=A9 time\r\n" +
		"--qp--\r\n"

	tree, err := bodyTreeFromMessage(parseMail(t, raw))
	require.NoError(t, err)
	assert.Equal(t, "café time", strings.TrimSpace(core.ExtractPlainText(tree)))
}

func TestBodyTreeBase64Body(t *testing.T) {
	msg := parseMail(t, "From: a@b.c\r\n"+
		"Content-Type: text/plain; charset=utf-8\r\n"+
		"Content-Transfer-Encoding: base64\r\n"+
		"\r\n"+
		"aGVsbG8gd29ybGQ=\r\n")

	tree, err := bodyTreeFromMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, "hello world", strings.TrimSpace(core.ExtractPlainText(tree)))
}

func TestBodyTreeMissingBoundary(t *testing.T) {
	msg := parseMail(t, "From: a@b.c\r\n"+
		"Content-Type: multipart/mixed\r\n"+
		"\r\n"+
		"body\r\n")

	_, err := bodyTreeFromMessage(msg)
	assert.Error(t, err)
}

func TestDecodeTransferEncodingPassThrough(t *testing.T) {
	data := []byte("unchanged")
	assert.Equal(t, data, decodeTransferEncoding(data, "7bit"))
	assert.Equal(t, data, decodeTransferEncoding(data, ""))
	// Corrupt base64 falls back to the raw bytes.
	assert.Equal(t, []byte("!!!"), decodeTransferEncoding([]byte("!!!"), "base64"))
}

func TestDecodeEncodedHeader(t *testing.T) {
	assert.Equal(t, "café", decodeEncodedHeader("=?utf-8?Q?caf=C3=A9?="))
	assert.Equal(t, "plain subject", decodeEncodedHeader("plain subject"))
}
