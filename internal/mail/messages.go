package mail

import (
	"fmt"

	"github.com/khanghh/taskvault/internal/render"
	"github.com/khanghh/taskvault/params"
)

func SendVerificationCode(sender MailSender, toEmail string, otpCode string) error {
	body, err := render.RenderHTML("mail/verify-code", map[string]interface{}{
		"otpCode":       otpCode,
		"expireMinutes": int(params.OTPExpiration.Minutes()),
	})
	if err != nil {
		return err
	}
	return sender.Send(&Message{
		To:      []string{toEmail},
		Subject: fmt.Sprintf("%s is your verification code", otpCode),
		Body:    body,
		IsHTML:  true,
	})
}

func SendPasswordResetCode(sender MailSender, toEmail string, otpCode string) error {
	body, err := render.RenderHTML("mail/reset-code", map[string]interface{}{
		"otpCode":       otpCode,
		"expireMinutes": int(params.OTPExpiration.Minutes()),
	})
	if err != nil {
		return err
	}
	return sender.Send(&Message{
		To:      []string{toEmail},
		Subject: "Reset your password",
		Body:    body,
		IsHTML:  true,
	})
}

func SendVerifiedNotice(sender MailSender, toEmail string, message string) error {
	body, err := render.RenderHTML("mail/verified-notice", map[string]interface{}{
		"message": message,
	})
	if err != nil {
		return err
	}
	return sender.Send(&Message{
		To:      []string{toEmail},
		Subject: "Your email has been verified",
		Body:    body,
		IsHTML:  true,
	})
}
