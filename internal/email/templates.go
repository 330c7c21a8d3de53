package email

import "html/template"

const layoutStyle = `
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #4F46E5; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
        .content { background-color: #f9fafb; padding: 30px; border-radius: 0 0 5px 5px; }
        .button { display: inline-block; padding: 12px 30px; background-color: #4F46E5; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
        .token { font-family: monospace; font-size: 16px; background: #eef; padding: 8px 12px; border-radius: 4px; word-break: break-all; }
        .footer { margin-top: 20px; font-size: 12px; color: #666; text-align: center; }
    </style>`

var verificationTemplate = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">` + layoutStyle + `
</head>
<body>
    <div class="header">
        <h1>Confirm your email</h1>
    </div>
    <div class="content">
        <p>Hi {{.Username}},</p>
        <p>Thanks for signing up. Please confirm your email address by clicking the button below:</p>
        <a href="{{.VerificationLink}}" class="button" style="color: white !important;">Confirm Email</a>
        <p>Or copy and paste this link into your browser:</p>
        <p style="word-break: break-all; color: #4F46E5;">{{.VerificationLink}}</p>
        <p>This link will expire in 7 days.</p>
    </div>
    <div class="footer">
        <p>If you didn't create an account, you can safely ignore this email.</p>
    </div>
</body>
</html>`))

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">` + layoutStyle + `
</head>
<body>
    <div class="header">
        <h1>Reset your password</h1>
    </div>
    <div class="content">
        <p>Hi {{.Username}},</p>
        <p>We received a request to reset your password. Use this token to choose a new one:</p>
        <p class="token">{{.ResetToken}}</p>
        <p>Submit it together with your new password to <span style="word-break: break-all;">{{.ConfirmURL}}</span>.</p>
        <p>The token can be used once and expires in 1 hour.</p>
    </div>
    <div class="footer">
        <p>If you didn't request a password reset, you can safely ignore this email.</p>
    </div>
</body>
</html>`))
