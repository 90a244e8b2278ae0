package smtpingress

import (
	"errors"
	"io"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/sendgate/sendgate/pkg/logger"
)

// MessageHandler is a function that processes an accepted inbound report
type MessageHandler func(from string, to []string, data []byte) error

// Authenticator checks AUTH PLAIN credentials. A nil authenticator leaves
// the listener as a plain MX with no AUTH advertised.
type Authenticator func(username, password string) error

// Backend implements smtp.Backend for the return-path listener
type Backend struct {
	authenticator Authenticator
	handler       MessageHandler
	domain        string
	logger        logger.Logger
}

// NewBackend creates a new feedback listener backend. Recipients outside
// domain are refused on unauthenticated sessions; an empty domain accepts
// any recipient.
func NewBackend(domain string, authenticator Authenticator, handler MessageHandler, logger logger.Logger) *Backend {
	return &Backend{
		authenticator: authenticator,
		handler:       handler,
		domain:        domain,
		logger:        logger,
	}
}

// NewSession creates a new SMTP session
// This is called when a client connects to the listener
func (b *Backend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &Session{
		backend: b,
		logger:  b.logger,
	}, nil
}

// acceptsRecipient reports whether the recipient address belongs to the
// configured return-path domain
func (b *Backend) acceptsRecipient(to string) bool {
	if b.domain == "" {
		return true
	}
	at := strings.LastIndex(to, "@")
	if at < 0 {
		return false
	}
	return strings.EqualFold(to[at+1:], b.domain)
}

// Session represents an SMTP session for a single connection
type Session struct {
	backend       *Backend
	logger        logger.Logger
	authenticated bool
	from          string
	to            []string
}

// AuthMechanisms returns the available auth mechanisms. PLAIN is only
// advertised when the listener has credentials configured.
func (s *Session) AuthMechanisms() []string {
	if s.backend.authenticator == nil {
		return nil
	}
	return []string{sasl.Plain}
}

// Auth returns a SASL server for the specified mechanism
func (s *Session) Auth(mech string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(identity, username, password string) error {
		if s.backend.authenticator == nil {
			return errors.New("authentication not enabled")
		}

		s.logger.WithFields(map[string]interface{}{
			"username": username,
		}).Debug("Feedback listener: AUTH PLAIN attempt")

		if err := s.backend.authenticator(username, password); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"username": username,
				"error":    err.Error(),
			}).Warn("Feedback listener: Authentication failed")
			return errors.New("invalid credentials")
		}

		s.authenticated = true
		s.logger.WithFields(map[string]interface{}{
			"username": username,
		}).Info("Feedback listener: Authentication successful")

		return nil
	}), nil
}

// Mail is called when the client sends a MAIL FROM command. Any reverse
// path is accepted; bounce reports routinely arrive with the null sender.
func (s *Session) Mail(from string, opts *smtp.MailOptions) error {
	s.logger.WithFields(map[string]interface{}{
		"from": from,
	}).Debug("Feedback listener: MAIL FROM")

	s.from = from
	return nil
}

// Rcpt is called when the client sends a RCPT TO command. Unauthenticated
// sessions may only address the return-path domain so the listener never
// relays.
func (s *Session) Rcpt(to string, opts *smtp.RcptOptions) error {
	if !s.authenticated && !s.backend.acceptsRecipient(to) {
		s.logger.WithFields(map[string]interface{}{
			"to": to,
		}).Warn("Feedback listener: Recipient outside return-path domain refused")
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      "relay not permitted",
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"to": to,
	}).Debug("Feedback listener: RCPT TO")

	s.to = append(s.to, to)
	return nil
}

// Data is called when the client sends the message data
func (s *Session) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Error("Feedback listener: Failed to read message data")
		return errors.New("failed to read message")
	}

	err = s.backend.handler(s.from, s.to, data)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"error": err.Error(),
			"from":  s.from,
		}).Error("Feedback listener: Failed to process report")
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"from":         s.from,
		"message_size": len(data),
	}).Info("Feedback listener: Report accepted")

	return nil
}

// Reset is called when the client sends a RSET command
func (s *Session) Reset() {
	s.from = ""
	s.to = nil
}

// Logout is called when the client disconnects
func (s *Session) Logout() error {
	return nil
}
