package mailer

import "html/template"

var verificationTemplate = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(to right, #4CAF50, #45a049); padding: 20px; text-align: center;">
    <h1 style="color: white; margin: 0;">Verify Your Email</h1>
  </div>
  <div style="background: #f9f9f9; padding: 20px;">
    <p>Hello,</p>
    <p>Thanks for signing up! Your verification code is:</p>
    <div style="text-align: center; margin: 30px 0;">
      <span style="font-size: 32px; font-weight: bold; letter-spacing: 4px; color: #4CAF50;">{{.Code}}</span>
    </div>
    <p>Enter this code on the verification page to complete your registration.</p>
    <p>This code expires in 24 hours. If you didn't create an account, you can ignore this email.</p>
  </div>
</body>
</html>`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(to right, #4CAF50, #45a049); padding: 20px; text-align: center;">
    <h1 style="color: white; margin: 0;">Welcome, {{.Name}}!</h1>
  </div>
  <div style="background: #f9f9f9; padding: 20px;">
    <p>Your email has been verified and your account is ready to use.</p>
    <p>We're glad to have you on board.</p>
  </div>
</body>
</html>`))

var resetRequestTemplate = template.Must(template.New("reset-request").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(to right, #4CAF50, #45a049); padding: 20px; text-align: center;">
    <h1 style="color: white; margin: 0;">Password Reset</h1>
  </div>
  <div style="background: #f9f9f9; padding: 20px;">
    <p>Hello,</p>
    <p>We received a request to reset your password. Click the button below to choose a new one:</p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="{{.ResetURL}}" style="background: #4CAF50; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Reset Password</a>
    </div>
    <p>This link expires in 1 hour. If you didn't request a reset, you can ignore this email.</p>
  </div>
</body>
</html>`))

var resetSuccessTemplate = template.Must(template.New("reset-success").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(to right, #4CAF50, #45a049); padding: 20px; text-align: center;">
    <h1 style="color: white; margin: 0;">Password Reset Successful</h1>
  </div>
  <div style="background: #f9f9f9; padding: 20px;">
    <p>Hello,</p>
    <p>Your password has been changed. You can now log in with your new password.</p>
    <p>If you didn't make this change, contact support immediately.</p>
  </div>
</body>
</html>`))
