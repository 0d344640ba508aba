package mail

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      bool
	CertFile string
	KeyFile  string
	CAFile   string
}

// SMTPMailSender delivers messages through an SMTP relay. The server
// certificate is always verified; CAFile substitutes the system roots for
// relays with a private CA, and CertFile/KeyFile present a client certificate
// when the relay demands mutual TLS.
type SMTPMailSender struct {
	dialer *gomail.Dialer
	from   string
}

func buildTLSConfig(smtpCfg SMTPConfig) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		ServerName: smtpCfg.Host,
	}
	if smtpCfg.CAFile != "" {
		caCert, err := os.ReadFile(smtpCfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		caPool := x509.NewCertPool()
		if !caPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("no certificates found in %s", smtpCfg.CAFile)
		}
		tlsCfg.RootCAs = caPool
	}
	if smtpCfg.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(smtpCfg.CertFile, smtpCfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return tlsCfg, nil
}

func (s *SMTPMailSender) Send(message *Message) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", message.To...)
	if len(message.Cc) > 0 {
		msg.SetHeader("Cc", message.Cc...)
	}
	if len(message.Bcc) > 0 {
		msg.SetHeader("Bcc", message.Bcc...)
	}
	msg.SetHeader("Subject", message.Subject)
	if message.IsHTML {
		msg.SetBody("text/html", message.Body)
	} else {
		msg.SetBody("text/plain", message.Body)
	}
	for cid, file := range message.Embeds {
		msg.Embed(file, gomail.SetHeader(map[string][]string{
			"Content-ID": {"<" + cid + ">"},
		}))
	}
	for _, file := range message.Attachments {
		msg.Attach(file)
	}
	return s.dialer.DialAndSend(msg)
}

func NewSMTPMailSender(smtpCfg SMTPConfig, from string) (*SMTPMailSender, error) {
	dialer := gomail.NewDialer(smtpCfg.Host, smtpCfg.Port, smtpCfg.Username, smtpCfg.Password)
	dialer.SSL = smtpCfg.TLS
	tlsCfg, err := buildTLSConfig(smtpCfg)
	if err != nil {
		return nil, err
	}
	dialer.TLSConfig = tlsCfg
	return &SMTPMailSender{
		dialer: dialer,
		from:   from,
	}, nil
}
