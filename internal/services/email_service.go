package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"reqgather/internal/config"
	"reqgather/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
)

// EmailService sends transactional mail. Sends from request paths are
// best-effort: errors are logged, never returned to the triggering operation.
type EmailService interface {
	// SendVerificationEmail mails a 24h verification link. Best-effort.
	SendVerificationEmail(ctx context.Context, user *models.User)
	// SendWelcomeEmail mails the post-verification welcome. Best-effort.
	SendWelcomeEmail(ctx context.Context, user *models.User)
	// VerificationToken issues the signed token embedded in verification links.
	VerificationToken(userID uuid.UUID) (string, error)
	// ParseVerificationToken validates a verification token and returns the user id.
	ParseVerificationToken(token string) (uuid.UUID, error)
}

type emailService struct {
	smtp        config.SMTPConfig
	frontendURL string
	jwtSecret   []byte
}

func NewEmailService(smtp config.SMTPConfig, frontendURL, jwtSecret string) EmailService {
	return &emailService{
		smtp:        smtp,
		frontendURL: frontendURL,
		jwtSecret:   []byte(jwtSecret),
	}
}

func (s *emailService) SendVerificationEmail(ctx context.Context, user *models.User) {
	token, err := s.VerificationToken(user.ID)
	if err != nil {
		log.Printf("Failed to create verification token for %s: %v", user.Email, err)
		return
	}

	verificationURL := fmt.Sprintf("%s/verify-email?token=%s", s.frontendURL, token)
	body := fmt.Sprintf(`<h2>Welcome to ReqGather!</h2>
<p>Thank you for registering. Please verify your email address:</p>
<p><a href="%s">Verify Email Address</a></p>
<p>If the link doesn't work, copy and paste it into your browser:</p>
<p>%s</p>
<p>This link will expire in 24 hours. If you didn't create an account, you can safely ignore this email.</p>`,
		verificationURL, verificationURL)

	if err := s.send(ctx, user.Email, "Verify Your Email - ReqGather", body); err != nil {
		log.Printf("Failed to send verification email to %s: %v", user.Email, err)
		return
	}
	log.Printf("Verification email sent to %s", user.Email)
}

func (s *emailService) SendWelcomeEmail(ctx context.Context, user *models.User) {
	body := fmt.Sprintf(`<h2>Welcome, %s!</h2>
<p>Your email has been verified and your account is now active.</p>
<p><a href="%s/dashboard">Go to Dashboard</a></p>`,
		user.FirstName, s.frontendURL)

	if err := s.send(ctx, user.Email, "Welcome to ReqGather!", body); err != nil {
		log.Printf("Failed to send welcome email to %s: %v", user.Email, err)
		return
	}
	log.Printf("Welcome email sent to %s", user.Email)
}

// verificationPurpose scopes verification tokens so access tokens signed with
// the same secret are not accepted here.
const verificationPurpose = "email_verification"

type verificationClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func (s *emailService) VerificationToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := verificationClaims{
		Purpose: verificationPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "reqgather",
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *emailService) ParseVerificationToken(token string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(token, &verificationClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid verification token: %w", err)
	}

	claims, ok := parsed.Claims.(*verificationClaims)
	if !ok || !parsed.Valid || claims.Purpose != verificationPurpose {
		return uuid.Nil, fmt.Errorf("invalid verification token claims")
	}
	return uuid.Parse(claims.Subject)
}

func (s *emailService) send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.smtp.From); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	opts := []mail.Option{
		mail.WithPort(s.smtp.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.smtp.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.smtp.Username),
			mail.WithPassword(s.smtp.Password),
		)
	}

	client, err := mail.NewClient(s.smtp.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}
