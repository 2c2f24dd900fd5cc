package smtpgate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"mailgate/internal/config"
	"mailgate/internal/core"
)

const snippetLength = 160

// Filter is an SMTP content filter: it accepts a message, classifies it
// through the pipeline, stamps verdict headers and forwards the result to an
// upstream MTA. Classification failure fails open — the mail is forwarded
// with an error header rather than dropped.
type Filter struct {
	pipeline *core.Pipeline
	logger   *zap.Logger
	cfg      config.ServerConfig
	server   *smtp.Server
}

// NewFilter creates a new SMTP gate filter.
func NewFilter(pipeline *core.Pipeline, cfg config.ServerConfig, logger *zap.Logger) *Filter {
	return &Filter{
		pipeline: pipeline,
		logger:   logger,
		cfg:      cfg,
	}
}

// Start starts the SMTP listener.
func (f *Filter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.cfg.ListenAddress
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("SMTP gate starting", zap.String("address", f.cfg.ListenAddress))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP listener.
func (f *Filter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// forwardUpstream sends the processed email to the upstream MTA.
func (f *Filter) forwardUpstream(sender string, recipients []string, emailData []byte) error {
	upstreamAddr := fmt.Sprintf("%s:%d", f.cfg.UpstreamAddress, f.cfg.UpstreamPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", upstreamAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to upstream MTA: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *Filter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *Filter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (not needed for the gate)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data classifies the received message and forwards it upstream with verdict
// headers prepended.
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.filter.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	bodyTree, err := bodyTreeFromMessage(msg)
	if err != nil {
		s.filter.logger.Error("Failed to build message body tree", zap.Error(err))
		return err
	}

	message := s.buildMessage(msg, bodyTree)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	verdict, classifyErr := s.filter.pipeline.Classify(ctx, message, staticBody{tree: bodyTree})
	if classifyErr != nil {
		s.filter.logger.Error("Failed to classify email",
			zap.Error(classifyErr),
			zap.String("from", message.From))
		verdict = &core.Verdict{
			IsSpam: false,
			Reason: fmt.Sprintf("Error during classification: %v", classifyErr),
		}
	}

	if verdict.IsSpam && s.filter.cfg.BlockSpam && classifyErr == nil {
		s.filter.logger.Info("Rejecting spam email",
			zap.String("from", message.From),
			zap.String("reason", verdict.Reason))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      "Rejected as spam",
		}
	}

	var modified bytes.Buffer
	fmt.Fprintf(&modified, "%s: %s\r\n", s.filter.cfg.SpamHeader, spamStatus(verdict.IsSpam))
	fmt.Fprintf(&modified, "%s: %s\r\n", s.filter.cfg.ReasonHeader, sanitizeHeaderValue(verdict.Reason))
	if classifyErr != nil {
		fmt.Fprintf(&modified, "X-Spam-Analysis-Error: %s\r\n", sanitizeHeaderValue(classifyErr.Error()))
	}
	for key, values := range msg.Header {
		for _, value := range values {
			fmt.Fprintf(&modified, "%s: %s\r\n", key, value)
		}
	}
	fmt.Fprintf(&modified, "\r\n")
	modified.Write(originalBody(rawData))

	if err := s.filter.forwardUpstream(s.sender, s.recipients, modified.Bytes()); err != nil {
		s.filter.logger.Error("Failed to forward email upstream",
			zap.Error(err),
			zap.String("from", message.From))
		return err
	}

	s.filter.logger.Info("Processed email",
		zap.String("from", message.From),
		zap.Bool("is_spam", verdict.IsSpam),
		zap.String("reason", verdict.Reason))

	return nil
}

// Logout handles SMTP logout (not needed for the gate)
func (s *smtpSession) Logout() error {
	return nil
}

// buildMessage maps the parsed mail into the pipeline's message shape. SMTP
// delivery has no provider snippet, so one is derived from the body text.
func (s *smtpSession) buildMessage(msg *mail.Message, bodyTree *core.MessageBody) *core.Message {
	from := msg.Header.Get("From")
	if from == "" {
		from = s.sender
	}

	id := msg.Header.Get("Message-ID")
	if id == "" {
		id = fmt.Sprintf("smtp-%d", time.Now().UnixNano())
	}

	snippet := strings.TrimSpace(strings.Join(strings.Fields(core.ExtractPlainText(bodyTree)), " "))
	if len(snippet) > snippetLength {
		snippet = snippet[:snippetLength]
	}

	return &core.Message{
		ID:      id,
		From:    from,
		Subject: decodeEncodedHeader(msg.Header.Get("Subject")),
		Snippet: snippet,
		Date:    msg.Header.Get("Date"),
	}
}

// staticBody serves the already-parsed body tree to the pipeline.
type staticBody struct {
	tree *core.MessageBody
}

func (b staticBody) GetBody(_ context.Context, _ string) (*core.MessageBody, error) {
	return b.tree, nil
}

func spamStatus(isSpam bool) string {
	if isSpam {
		return "yes"
	}
	return "no"
}

// sanitizeHeaderValue keeps injected header values on a single line.
func sanitizeHeaderValue(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	return strings.ReplaceAll(value, "\n", " ")
}

// originalBody returns the raw message body, skipping the header block.
func originalBody(rawData []byte) []byte {
	if idx := bytes.Index(rawData, []byte("\r\n\r\n")); idx != -1 {
		return rawData[idx+4:]
	}
	if idx := bytes.Index(rawData, []byte("\n\n")); idx != -1 {
		return rawData[idx+2:]
	}
	return nil
}
