package email

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSend_UnconfiguredIsNoOpSuccess(t *testing.T) {
	svc := NewService("", "", "", "", "")

	require.False(t, svc.IsConfigured())

	result := svc.Send(context.Background(), "jane@example.com", "subject", "<p>hi</p>")
	require.True(t, result.Success)
	require.NoError(t, result.Err)
	require.Empty(t, result.ID)
}

func TestSendOTP_UnreachableTransportReportsFailure(t *testing.T) {
	// Configured but pointing at a port nothing listens on
	svc := NewService("127.0.0.1", "1", "user", "pass", "noreply@sentriom.app")

	require.True(t, svc.IsConfigured())

	result := svc.SendOTP(context.Background(), "jane@example.com", "Jane", "123456", OTPContextLogin)
	require.False(t, result.Success)
	require.Error(t, result.Err)
}

func TestNewService_FromFallsBackToSMTPUser(t *testing.T) {
	svc := NewService("smtp.example.com", "587", "mailer@example.com", "pass", "")
	require.Equal(t, "mailer@example.com", svc.fromEmail)
}

func TestRenderOTPTemplate(t *testing.T) {
	body, err := renderOTPTemplate("Jane", "123456")
	require.NoError(t, err)
	require.Contains(t, body, "Hi Jane,")
	require.Contains(t, body, "123456")
	require.Contains(t, body, "10 minutes")

	body, err = renderOTPTemplate("", "654321")
	require.NoError(t, err)
	require.True(t, strings.Contains(body, "Hi,"))
}
