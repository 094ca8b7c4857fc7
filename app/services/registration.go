package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/pending"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/pkg/event"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/mail"
	"github.com/shashiranjanraj/bazaar/pkg/metrics"
)

// RegistrationOptions tunes the OTP flow.
type RegistrationOptions struct {
	TTL        time.Duration
	CodeLength int
	HashCost   int
}

// RegistrationService runs the send-otp / verify-otp flow.
type RegistrationService struct {
	users   repositories.UserRepository
	pending pending.Store
	mailer  mail.Mailer
	events  event.Publisher
	opts    RegistrationOptions

	now  func() time.Time
	code func(length int) (string, error)
}

// NewRegistrationService wires the flow. Zero options fall back to a
// 10 minute TTL, 6 digit codes and bcrypt cost 10.
func NewRegistrationService(users repositories.UserRepository, store pending.Store, mailer mail.Mailer, events event.Publisher, opts RegistrationOptions) *RegistrationService {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.CodeLength <= 0 {
		opts.CodeLength = 6
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	if events == nil {
		events = event.Nop{}
	}
	return &RegistrationService{
		users:   users,
		pending: store,
		mailer:  mailer,
		events:  events,
		opts:    opts,
		now:     time.Now,
		code:    GenerateCode,
	}
}

// WithClock overrides the clock.
func (s *RegistrationService) WithClock(now func() time.Time) *RegistrationService {
	s.now = now
	return s
}

// WithCodeGenerator overrides OTP generation.
func (s *RegistrationService) WithCodeGenerator(fn func(length int) (string, error)) *RegistrationService {
	s.code = fn
	return s
}

// maxPasswordBytes is the longest password bcrypt will hash.
const maxPasswordBytes = 72

// IssueOTPInput is the registration form.
type IssueOTPInput struct {
	FullName string
	Email    string
	Mobile   string
	Location string
	Password string
}

// IssueOTP stores a pending registration and mails its code. A later call
// for the same email replaces the earlier code. If mailing fails the
// entry is kept and the error is returned.
func (s *RegistrationService) IssueOTP(ctx context.Context, in IssueOTPInput) error {
	if blank(in.FullName, in.Email, in.Mobile, in.Location) || in.Password == "" {
		return ErrMissingFields
	}
	// bcrypt refuses longer input, which would only surface at verification.
	if len(in.Password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}

	code, err := s.code(s.opts.CodeLength)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	entry := pending.Entry{
		Code:      code,
		ExpiresAt: s.now().Add(s.opts.TTL),
		Registration: pending.Registration{
			FullName: in.FullName,
			Email:    in.Email,
			Mobile:   in.Mobile,
			Location: in.Location,
			Password: in.Password,
		},
	}
	if err := s.pending.Put(ctx, in.Email, entry); err != nil {
		return fmt.Errorf("store pending registration: %w", err)
	}

	if err := s.mailer.Send(ctx, otpMessage(in.Email, code, s.opts.TTL)); err != nil {
		metrics.OTPEvents.WithLabelValues("mail_failed").Inc()
		return fmt.Errorf("send otp mail: %w", err)
	}

	metrics.OTPEvents.WithLabelValues("issued").Inc()
	logger.WithCtx(ctx).Info("otp issued", "email", in.Email, "expires_at", entry.ExpiresAt)
	return nil
}

// VerifyOTP checks code against the pending entry for email and, on a
// match, creates the user.
func (s *RegistrationService) VerifyOTP(ctx context.Context, email, code string) error {
	if blank(email, code) {
		return ErrMissingFields
	}

	entry, err := s.pending.Get(ctx, email)
	if errors.Is(err, pending.ErrNotFound) {
		metrics.OTPEvents.WithLabelValues("no_pending").Inc()
		return ErrNoPendingRequest
	}
	if err != nil {
		return fmt.Errorf("load pending registration: %w", err)
	}

	if entry.Expired(s.now()) {
		s.discard(ctx, email)
		metrics.OTPEvents.WithLabelValues("expired").Inc()
		return ErrOTPExpired
	}

	if subtle.ConstantTimeCompare([]byte(entry.Code), []byte(code)) != 1 {
		metrics.OTPEvents.WithLabelValues("invalid").Inc()
		return ErrInvalidOTP
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		s.discard(ctx, email)
		metrics.OTPEvents.WithLabelValues("already_registered").Inc()
		return ErrAlreadyRegistered
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(entry.Registration.Password), s.opts.HashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	reg := entry.Registration
	user := &models.User{
		FullName: reg.FullName,
		Email:    email,
		Mobile:   reg.Mobile,
		Location: reg.Location,
		Password: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			s.discard(ctx, email)
			metrics.OTPEvents.WithLabelValues("already_registered").Inc()
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("create user: %w", err)
	}

	s.discard(ctx, email)
	metrics.OTPEvents.WithLabelValues("verified").Inc()
	logger.WithCtx(ctx).Info("user registered", "email", email, "user_id", user.ID)
	s.events.Publish(ctx, event.UserRegistered, user.ID, user.Profile())
	return nil
}

// SweepExpired drops pending entries that expired before now.
func (s *RegistrationService) SweepExpired(ctx context.Context) (int, error) {
	n, err := s.pending.SweepExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep pending registrations: %w", err)
	}
	if n > 0 {
		metrics.PendingSwept.Add(float64(n))
		logger.WithCtx(ctx).Info("expired pending registrations swept", "count", n)
	}
	return n, nil
}

func (s *RegistrationService) discard(ctx context.Context, email string) {
	if err := s.pending.Delete(ctx, email); err != nil {
		logger.WithCtx(ctx).Warn("pending registration delete failed", "email", email, "error", err)
	}
}

// GenerateCode returns length decimal digits drawn uniformly from crypto/rand.
func GenerateCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

func otpMessage(to, code string, ttl time.Duration) mail.Message {
	minutes := int(ttl / time.Minute)
	return mail.Message{
		To:      []string{to},
		Subject: "Your OTP Code",
		Text:    fmt.Sprintf("Your OTP code is %s. It will expire in %d minutes.", code, minutes),
		HTML:    fmt.Sprintf("<p>Your OTP code is <b>%s</b>. It will expire in %d minutes.</p>", code, minutes),
	}
}

func blank(vals ...string) bool {
	for _, v := range vals {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
