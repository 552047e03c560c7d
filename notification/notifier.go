package notification

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/Kesavanmessi/secure-voting-system-second-sub001/logging"
)

type Kind string

const (
	KindRegistered Kind = "registered"
	KindStarted    Kind = "started"
	KindEnded      Kind = "ended"
	KindUpdated    Kind = "updated"
	KindCancelled  Kind = "cancelled"
)

// Payload carries the election facts a message is built from. Fields are
// filled per kind: Credential only for registered, Winner/IsTie only for
// ended.
type Payload struct {
	ElectionName string
	VoterName    string
	Credential   string
	Winner       string
	IsTie        bool
}

// Notifier delivers lifecycle messages to a single recipient. Delivery is
// best-effort: callers log and swallow a false return, they never retry
// and never let it affect election state.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, recipient string, payload Payload) bool
}

// EmailNotifier sends plain-text mail over SMTP, fire and forget.
type EmailNotifier struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (n *EmailNotifier) Notify(_ context.Context, kind Kind, recipient string, payload Payload) bool {
	subject, body := composeMessage(kind, payload)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", n.From, recipient, subject, body)

	addr := fmt.Sprintf("%s:%d", n.Host, n.Port)
	var auth smtp.Auth
	if n.Username != "" {
		auth = smtp.PlainAuth("", n.Username, n.Password, n.Host)
	}

	if err := smtp.SendMail(addr, auth, n.From, []string{recipient}, []byte(msg)); err != nil {
		logging.Log.Warnf("NOTIFY: failed to send %s mail to %s: %v", kind, recipient, err)
		return false
	}
	return true
}

// LogNotifier stands in for mail delivery on local runs.
type LogNotifier struct{}

func (n *LogNotifier) Notify(_ context.Context, kind Kind, recipient string, payload Payload) bool {
	subject, _ := composeMessage(kind, payload)
	logging.Log.Infof("NOTIFY: [%s] to %s: %s", kind, recipient, subject)
	return true
}

func composeMessage(kind Kind, p Payload) (subject, body string) {
	switch kind {
	case KindRegistered:
		subject = fmt.Sprintf("You are registered for %s", p.ElectionName)
		body = fmt.Sprintf("Hello %s,\n\nYou are registered to vote in %s.\nYour one-time voting credential is: %s\n", p.VoterName, p.ElectionName, p.Credential)
	case KindStarted:
		subject = fmt.Sprintf("Voting is open for %s", p.ElectionName)
		body = fmt.Sprintf("Hello %s,\n\nVoting for %s is now open.\n", p.VoterName, p.ElectionName)
	case KindEnded:
		subject = fmt.Sprintf("Results for %s", p.ElectionName)
		if p.IsTie {
			body = fmt.Sprintf("Hello %s,\n\n%s has ended in a tie. Winner selected by tie-break: %s\n", p.VoterName, p.ElectionName, p.Winner)
		} else {
			body = fmt.Sprintf("Hello %s,\n\n%s has ended. Winner: %s\n", p.VoterName, p.ElectionName, p.Winner)
		}
	case KindUpdated:
		subject = fmt.Sprintf("%s has been updated", p.ElectionName)
		body = fmt.Sprintf("Hello %s,\n\nThe details of %s have changed. Please check the new schedule.\n", p.VoterName, p.ElectionName)
	case KindCancelled:
		subject = fmt.Sprintf("%s has been cancelled", p.ElectionName)
		body = fmt.Sprintf("Hello %s,\n\n%s has been cancelled.\n", p.VoterName, p.ElectionName)
	}
	return subject, body
}
