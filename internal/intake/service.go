// Package intake implements the public application-intake pipeline: abuse
// control, decoding, sanitization, validation, persistence and the audit
// trail of a prospective model's submission.
//
// A submission moves through
//
//	rate limit -> read body -> decode -> normalize -> validate -> truncate -> persist -> audit
//
// and any failure before persist rejects it with no state written. Once the
// application is stored the caller is told it succeeded, even when the audit
// write fails.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/tbourn/agency-intake/internal/domain"
	"github.com/tbourn/agency-intake/internal/ratelimit"
)

// UnknownClient is the rate-limit key used when no forwarded address exists.
const UnknownClient = "unknown"

// ApplicationStore inserts one application row.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, a *domain.Application) error
}

// AuditSink appends one audit event.
type AuditSink interface {
	RecordAuditEvent(ctx context.Context, e *domain.AuditEvent) error
}

// IdempotencyStore remembers which application a (client, key) pair created.
type IdempotencyStore interface {
	FindSubmission(ctx context.Context, clientKey, key string, now time.Time) (applicationID string, found bool, err error)
	RememberSubmission(ctx context.Context, clientKey, key, applicationID string, ttl time.Duration) error
}

// Request is one submission attempt as seen by the transport.
type Request struct {
	Body           io.Reader // read only after the rate-limit check
	ClientKey      string    // rate-limit key
	IPAddress      string    // recorded on the audit event
	UserAgent      string
	IdempotencyKey string // optional
}

// Result of an accepted submission.
type Result struct {
	ID       string
	Replayed bool // served from a previous submission with the same key
}

// Service runs the intake pipeline. Applications and Audit are required;
// Limiter and Idempotency are optional.
type Service struct {
	Applications ApplicationStore
	Audit        AuditSink
	Idempotency  IdempotencyStore
	Limiter      ratelimit.Counter

	StoreTimeout   time.Duration // bound for the insert and, separately, the audit write
	IdempotencyTTL time.Duration

	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) storeTimeout() time.Duration {
	if s.StoreTimeout > 0 {
		return s.StoreTimeout
	}
	return 5 * time.Second
}

// Submit runs one submission through the pipeline.
//
// Errors: *RateLimitError, ErrBodyTooLarge, ErrMalformedJSON,
// *ValidationError or ErrPersistence (wrapped). Anything else is unexpected.
func (s *Service) Submit(ctx context.Context, req Request) (Result, error) {
	ctx, span := otel.Tracer("intake/Service").Start(ctx, "Submit",
		trace.WithAttributes(attribute.Bool("idempotency.key_present", req.IdempotencyKey != "")),
	)
	defer span.End()

	log := zerolog.Ctx(ctx)
	if req.ClientKey == "" {
		req.ClientKey = UnknownClient
	}

	res, outcome, err := s.submit(ctx, req)
	submissionsTotal.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String("intake.outcome", outcome))
	if err != nil {
		if outcome == outcomeStoreError {
			span.SetStatus(codes.Error, "persist failed")
		}
		return Result{}, err
	}
	span.SetAttributes(attribute.String("application.id", res.ID))
	log.Info().Str("application_id", res.ID).Bool("replayed", res.Replayed).Msg("application submitted")
	return res, nil
}

func (s *Service) submit(ctx context.Context, req Request) (Result, string, error) {
	log := zerolog.Ctx(ctx)

	if id, ok := s.replay(ctx, req); ok {
		return Result{ID: id, Replayed: true}, outcomeReplayed, nil
	}

	if s.Limiter != nil {
		d, err := s.Limiter.Allow(ctx, req.ClientKey)
		switch {
		case err != nil:
			rateLimitStoreErrors.Inc()
			log.Warn().Err(err).Msg("rate limit store unavailable; allowing submission")
		case !d.Allowed:
			log.Warn().Str("client", req.ClientKey).Int("count", d.Count).Msg("intake rate limit exceeded")
			return Result{}, outcomeRateLimited, &RateLimitError{RetryAfter: d.RetryAfter(s.now())}
		}
	}

	raw, err := readBody(req.Body)
	if errors.Is(err, ErrBodyTooLarge) {
		return Result{}, outcomeTooLarge, err
	}
	if err != nil {
		return Result{}, outcomeMalformed, err
	}

	sub, decodeErrs, err := Decode(raw)
	if err != nil {
		return Result{}, outcomeMalformed, err
	}
	sub = Normalize(sub)
	if vs := mergeViolations(decodeErrs, Validate(sub)); len(vs) > 0 {
		log.Debug().Int("violations", len(vs)).Msg("application rejected by validation")
		return Result{}, outcomeInvalid, &ValidationError{Violations: vs}
	}
	sub = Truncate(sub)

	app := newApplication(sub, s.now())
	pctx, cancel := context.WithTimeout(ctx, s.storeTimeout())
	err = s.Applications.CreateApplication(pctx, app)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("persist application failed")
		return Result{}, outcomeStoreError, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// The row exists; from here on nothing may fail the request.
	detached := context.WithoutCancel(ctx)
	s.audit(detached, app, sub, req)
	s.remember(detached, req, app.ID)

	return Result{ID: app.ID}, outcomeAccepted, nil
}

// readBody drains r. A body over the transport cap maps to ErrBodyTooLarge,
// any other read failure to ErrMalformedJSON.
func readBody(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(r)
	if err == nil {
		return raw, nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, ErrBodyTooLarge
	}
	return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
}

func (s *Service) replay(ctx context.Context, req Request) (string, bool) {
	if req.IdempotencyKey == "" || s.Idempotency == nil {
		return "", false
	}
	id, found, err := s.Idempotency.FindSubmission(ctx, req.ClientKey, req.IdempotencyKey, s.now())
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("idempotency lookup failed")
		return "", false
	}
	return id, found
}

func (s *Service) audit(ctx context.Context, app *domain.Application, sub Submission, req Request) {
	log := zerolog.Ctx(ctx)
	snapshot, err := json.Marshal(sub)
	if err != nil {
		auditFailures.Inc()
		log.Error().Err(err).Str("application_id", app.ID).Msg("audit snapshot failed")
		return
	}
	ev := &domain.AuditEvent{
		ID:        uuid.NewString(),
		Action:    domain.ActionApplicationSubmitted,
		Subject:   app.TableName(),
		RecordID:  &app.ID,
		NewValues: datatypes.JSON(snapshot),
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		CreatedAt: s.now(),
	}
	actx, cancel := context.WithTimeout(ctx, s.storeTimeout())
	defer cancel()
	if err := s.Audit.RecordAuditEvent(actx, ev); err != nil {
		auditFailures.Inc()
		log.Error().Err(err).Str("application_id", app.ID).Msg("audit event write failed")
	}
}

func (s *Service) remember(ctx context.Context, req Request, id string) {
	if req.IdempotencyKey == "" || s.Idempotency == nil {
		return
	}
	ttl := s.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	ictx, cancel := context.WithTimeout(ctx, s.storeTimeout())
	defer cancel()
	if err := s.Idempotency.RememberSubmission(ictx, req.ClientKey, req.IdempotencyKey, id, ttl); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("application_id", id).Msg("idempotency record not saved")
	}
}

func newApplication(s Submission, now time.Time) *domain.Application {
	return &domain.Application{
		ID:             uuid.NewString(),
		Name:           deref(s.Name),
		Email:          deref(s.Email),
		Phone:          s.Phone,
		Age:            s.Age,
		Height:         s.Height,
		Weight:         s.Weight,
		Measurements:   s.Measurements,
		Experience:     s.Experience,
		PortfolioURLs:  datatypes.JSONSlice[string](s.PortfolioURLs),
		AdditionalInfo: s.AdditionalInfo,
		Status:         domain.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ClientKey derives the rate-limit key from an X-Forwarded-For value: the
// first (client-most) entry, or UnknownClient when empty.
func ClientKey(forwardedFor string) string {
	first, _, _ := strings.Cut(forwardedFor, ",")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	return UnknownClient
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	var ve *ValidationError
	var rl *RateLimitError
	return errors.Is(err, ErrMalformedJSON) || errors.Is(err, ErrBodyTooLarge) || errors.As(err, &ve) || errors.As(err, &rl)
}
