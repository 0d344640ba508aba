package mail

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTLSConfigVerifiesServer(t *testing.T) {
	tlsCfg, err := buildTLSConfig(SMTPConfig{Host: "smtp.example.com", Port: 587})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", tlsCfg.ServerName)
	assert.False(t, tlsCfg.InsecureSkipVerify)
	assert.Nil(t, tlsCfg.RootCAs)
}

func TestBuildTLSConfigRejectsBadCAFile(t *testing.T) {
	_, err := buildTLSConfig(SMTPConfig{Host: "smtp.example.com", CAFile: "/does/not/exist.pem"})
	assert.Error(t, err)

	junk := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(junk, []byte("not a certificate"), 0o600))
	_, err = buildTLSConfig(SMTPConfig{Host: "smtp.example.com", CAFile: junk})
	assert.Error(t, err)
}

func TestNewSMTPMailSenderRejectsBadClientCert(t *testing.T) {
	_, err := NewSMTPMailSender(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     465,
		CertFile: "/does/not/exist.crt",
		KeyFile:  "/does/not/exist.key",
	}, "noreply@example.com")
	assert.Error(t, err)
}
