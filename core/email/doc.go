// Package email defines the EmailSender interface used by the alert
// dispatcher, plus a development sender that writes messages to disk.
//
// Transport implementations live under integration/email: smtp speaks plain
// SMTP with STARTTLS/TLS modes, postmark uses Postmark's transactional API.
// Both validate SendEmailParams before touching the network.
package email
