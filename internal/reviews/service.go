package reviews

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/verified-reviews/internal/businesses"
	"github.com/richxcame/verified-reviews/internal/coupons"
	"github.com/richxcame/verified-reviews/internal/fraud"
	"github.com/richxcame/verified-reviews/internal/geo"
	"github.com/richxcame/verified-reviews/internal/notifications"
	"github.com/richxcame/verified-reviews/internal/security"
	"github.com/richxcame/verified-reviews/pkg/logger"
	"github.com/richxcame/verified-reviews/pkg/tracing"
	"github.com/richxcame/verified-reviews/pkg/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = tracing.Tracer("reviews")

// Config tunes the submission pipeline
type Config struct {
	DailyLimit          int
	DefaultRadiusMeters float64
	Location            *time.Location
	InflightLockTTL     time.Duration
	NotificationTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.DailyLimit <= 0 {
		c.DailyLimit = DefaultDailyLimit
	}
	if c.DefaultRadiusMeters <= 0 {
		c.DefaultRadiusMeters = geo.DefaultRadiusMeters
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.InflightLockTTL <= 0 {
		c.InflightLockTTL = 30 * time.Second
	}
	if c.NotificationTimeout <= 0 {
		c.NotificationTimeout = 5 * time.Second
	}
}

// Service runs the location-verified review submission pipeline
type Service struct {
	store      Store
	businesses businesses.Lookup
	evaluator  *security.Evaluator
	recorder   security.ActivityRecorder
	issuer     *coupons.Issuer
	guard      *Guard
	cfg        Config

	indexer     *geo.Indexer
	notifier    notifications.Dispatcher
	locker      Locker
	invalidator CacheInvalidator

	now func() time.Time
	wg  sync.WaitGroup
}

// NewService creates a new review service
func NewService(store Store, lookup businesses.Lookup, evaluator *security.Evaluator, recorder security.ActivityRecorder, issuer *coupons.Issuer, cfg Config) *Service {
	cfg.applyDefaults()
	return &Service{
		store:      store,
		businesses: lookup,
		evaluator:  evaluator,
		recorder:   recorder,
		issuer:     issuer,
		guard:      NewGuard(store, cfg.DailyLimit, cfg.Location),
		cfg:        cfg,
		notifier:   notifications.NewLogDispatcher(),
		now:        time.Now,
	}
}

// SetIndexer enables H3 cell tagging of accepted reviews
func (s *Service) SetIndexer(indexer *geo.Indexer) {
	s.indexer = indexer
}

// SetNotifier replaces the default log dispatcher
func (s *Service) SetNotifier(notifier notifications.Dispatcher) {
	if notifier != nil {
		s.notifier = notifier
	}
}

// SetLocker enables the in-flight submission lock
func (s *Service) SetLocker(locker Locker) {
	s.locker = locker
}

// SetCacheInvalidator wires business cache invalidation after commits
func (s *Service) SetCacheInvalidator(invalidator CacheInvalidator) {
	s.invalidator = invalidator
}

// Wait blocks until background notifications finish
func (s *Service) Wait() {
	s.wg.Wait()
}

// SubmitReview validates, verifies and commits a review. Rejections are
// returned as *SubmissionError.
func (s *Service) SubmitReview(ctx context.Context, sub *Submission) (*SubmissionResult, error) {
	ctx, span := tracer.Start(ctx, "reviews.SubmitReview",
		trace.WithAttributes(
			attribute.String("user_id", sub.UserID.String()),
			attribute.String("business_id", sub.BusinessID.String()),
		))
	defer span.End()

	start := time.Now()
	result, err := s.submit(ctx, sub)

	outcome := outcomeAccepted
	if err != nil {
		outcome = string(KindInternal)
		var se *SubmissionError
		if errors.As(err, &se) {
			outcome = string(se.Kind)
		}
		span.SetStatus(codes.Error, outcome)
		span.RecordError(err)
	}
	span.SetAttributes(attribute.String("outcome", outcome))
	submissionsTotal.WithLabelValues(outcome).Inc()
	submissionDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return result, err
}

func (s *Service) submit(ctx context.Context, sub *Submission) (*SubmissionResult, error) {
	log := logger.WithContext(ctx).With(
		zap.String("user_id", sub.UserID.String()),
		zap.String("business_id", sub.BusinessID.String()),
	)

	if err := s.validate(sub); err != nil {
		return nil, err
	}

	if s.locker != nil {
		release, err := s.acquireInflight(ctx, sub)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	now := s.now()

	if err := s.guard.CheckRateLimit(ctx, sub.UserID, now); err != nil {
		if IsKind(err, KindRateLimitExceeded) {
			s.record(sub.UserID, fraud.EventRateLimitExceeded, now, map[string]interface{}{
				"business_id": sub.BusinessID.String(),
				"daily_limit": s.cfg.DailyLimit,
			})
		}
		return nil, err
	}

	if err := s.guard.CheckDuplicate(ctx, sub.UserID, sub.BusinessID, now); err != nil {
		return nil, err
	}

	business, err := s.loadBusiness(ctx, sub.BusinessID)
	if err != nil {
		return nil, err
	}

	decision := s.checkGeofence(ctx, sub, business)
	geofenceDistance.Observe(decision.DistanceMeters)
	if !decision.WithinFence {
		s.record(sub.UserID, fraud.EventGeofenceViolation, now, map[string]interface{}{
			"business_id":     business.ID.String(),
			"distance_meters": decision.DistanceMeters,
			"radius_meters":   decision.RadiusMeters,
			"latitude":        *sub.Latitude,
			"longitude":       *sub.Longitude,
		})
		log.Info("review rejected outside geofence",
			zap.Float64("distance_meters", decision.DistanceMeters),
			zap.Float64("radius_meters", decision.RadiusMeters))
		return nil, newGeofenceError(decision.DistanceMeters, decision.RadiusMeters)
	}

	sameDevice := s.sameDeviceCount(ctx, sub.DeviceID(), now)

	verdict := s.evaluate(ctx, sub, sameDevice)
	if verdict.Blocked() {
		log.Info("review blocked by security policy",
			zap.String("reason", verdict.Reason),
			zap.Int("flag_count", verdict.FlagCount))
		return nil, &SubmissionError{Kind: KindSecurityHardBlock, Message: verdict.Reason}
	}

	review := s.buildReview(ctx, sub, decision, verdict, sameDevice, now)

	committed, err := s.commit(ctx, review)
	if err != nil {
		log.Error("review commit failed", zap.Error(err))
		return nil, &SubmissionError{Kind: KindCommitFailure, Message: MessageCommitFailure, Err: err}
	}
	couponsIssuedTotal.Inc()

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, business.ID)
	}

	s.wg.Add(1)
	go s.notifyAccepted(context.Background(), business, committed.Review, committed.Coupon)

	log.Info("review accepted",
		zap.String("review_id", committed.Review.ID.String()),
		zap.String("coupon_code", committed.Coupon.Code),
		zap.Int("flag_count", verdict.FlagCount))

	return &SubmissionResult{
		Review:         committed.Review,
		Coupon:         committed.Coupon,
		BusinessRating: committed.Rating,
		DistanceMeters: decision.DistanceMeters,
		FlagCount:      verdict.FlagCount,
	}, nil
}

func (s *Service) validate(sub *Submission) error {
	if sub.UserID == uuid.Nil {
		return newValidationError("user identity is required", nil)
	}
	if err := validation.ValidateStruct(sub); err != nil {
		return newValidationError(err.Error(), err)
	}
	if !geo.ValidCoordinates(*sub.Latitude, *sub.Longitude) {
		fields := &validation.ValidationError{}
		fields.Add("latitude", "latitude and longitude must be finite and in range")
		fields.Add("longitude", "latitude and longitude must be finite and in range")
		return newValidationError(fields.Error(), fields)
	}
	return nil
}

func inflightKey(userID, businessID uuid.UUID) string {
	return fmt.Sprintf("review:inflight:%s:%s", userID, businessID)
}

// acquireInflight takes the per user+business lock. Lock backend errors fail
// open.
func (s *Service) acquireInflight(ctx context.Context, sub *Submission) (func(), error) {
	key := inflightKey(sub.UserID, sub.BusinessID)
	noop := func() {}

	token, acquired, err := s.locker.AcquireLock(ctx, key, s.cfg.InflightLockTTL)
	if err != nil {
		logger.WithContext(ctx).Warn("in-flight lock unavailable", zap.String("key", key), zap.Error(err))
		return noop, nil
	}
	if !acquired {
		return nil, &SubmissionError{Kind: KindDuplicateSubmission, Message: MessageInFlight}
	}

	return func() {
		if err := s.locker.ReleaseLock(context.Background(), key, token); err != nil {
			logger.Warn("failed to release in-flight lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (s *Service) loadBusiness(ctx context.Context, id uuid.UUID) (*businesses.Business, error) {
	ctx, span := tracer.Start(ctx, "reviews.loadBusiness")
	defer span.End()

	business, err := s.businesses.GetBusinessByID(ctx, id)
	if err != nil {
		if errors.Is(err, businesses.ErrBusinessNotFound) {
			return nil, &SubmissionError{Kind: KindBusinessUnavailable, Message: MessageNotFound, Err: err}
		}
		return nil, &SubmissionError{Kind: KindInternal, Message: MessageInternalFailure, Err: err}
	}
	if !business.IsActive() {
		return nil, &SubmissionError{Kind: KindBusinessUnavailable, Message: MessageInactive, Inactive: true}
	}
	return business, nil
}

func (s *Service) checkGeofence(ctx context.Context, sub *Submission, business *businesses.Business) geo.GeofenceDecision {
	_, span := tracer.Start(ctx, "reviews.checkGeofence")
	defer span.End()

	decision := geo.Evaluate(sub.Point(), business.Location, business.GeofenceRadius(s.cfg.DefaultRadiusMeters))
	span.SetAttributes(
		attribute.Float64("distance_meters", decision.DistanceMeters),
		attribute.Float64("radius_meters", decision.RadiusMeters),
		attribute.Bool("within_fence", decision.WithinFence),
	)
	return decision
}

// sameDeviceCount is informational; lookup errors count as zero
func (s *Service) sameDeviceCount(ctx context.Context, deviceID string, now time.Time) int {
	if deviceID == "" {
		return 0
	}
	n, err := s.store.CountDeviceReviewsSince(ctx, deviceID, s.guard.StartOfDay(now))
	if err != nil {
		logger.WithContext(ctx).Warn("same-device count failed", zap.String("device_id", deviceID), zap.Error(err))
		return 0
	}
	return n
}

func (s *Service) evaluate(ctx context.Context, sub *Submission, sameDevice int) security.Verdict {
	_, span := tracer.Start(ctx, "reviews.evaluateSecurity")
	defer span.End()

	verdict := s.evaluator.Evaluate(sub.UserID, sub.BusinessID, sub.Telemetry, sameDevice)
	span.SetAttributes(
		attribute.String("outcome", string(verdict.Outcome)),
		attribute.Int("flag_count", verdict.FlagCount),
	)
	return verdict
}

func (s *Service) buildReview(ctx context.Context, sub *Submission, decision geo.GeofenceDecision, verdict security.Verdict, sameDevice int, now time.Time) *Review {
	review := &Review{
		ID:         uuid.New(),
		UserID:     sub.UserID,
		BusinessID: sub.BusinessID,
		Rating:     sub.Rating,
		Comment:    sub.Comment,
		Images:     sub.Images,
		Location:   sub.Point(),
		DeviceID:   sub.DeviceID(),
		Verified:   true,
		Status:     StatusApproved,
		SecurityMetadata: SecurityMetadata{
			Telemetry:              sub.Telemetry,
			DistanceMeters:         decision.DistanceMeters,
			RadiusMeters:           decision.RadiusMeters,
			FlagCount:              verdict.FlagCount,
			Signals:                verdict.Signals,
			SameDeviceReviewsToday: sameDevice,
			EvaluatedAt:            now,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if review.Images == nil {
		review.Images = []string{}
	}

	if s.indexer != nil {
		cell, err := s.indexer.CellFor(review.Location)
		if err != nil {
			logger.WithContext(ctx).Warn("h3 indexing failed", zap.Error(err))
		} else {
			review.H3Cell = cell
		}
	}

	return review
}

func (s *Service) commit(ctx context.Context, review *Review) (*CommitResult, error) {
	ctx, span := tracer.Start(ctx, "reviews.commit")
	defer span.End()

	result, err := s.store.CommitReview(ctx, review, s.issuer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return nil, err
	}
	return result, nil
}

func (s *Service) record(userID uuid.UUID, eventType string, now time.Time, metadata map[string]interface{}) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(fraud.ActivityEntry{
		UserID:    userID,
		EventType: eventType,
		Metadata:  metadata,
		Timestamp: now,
	})
}

// notifyAccepted tells the reviewer about the reward and the owner about the
// new review. Failures are logged only.
func (s *Service) notifyAccepted(ctx context.Context, business *businesses.Business, review *Review, coupon *coupons.Coupon) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.NotificationTimeout)
	defer cancel()

	validFor := coupon.ValidUntil.Sub(coupon.ValidFrom).Round(time.Minute)
	reviewerBody := fmt.Sprintf(
		"Thank you for reviewing %s! Your reward: %s. Use code %s within %s.",
		business.Name, coupon.Description, coupon.Code, formatWindow(validFor),
	)
	if err := s.notifier.Notify(ctx, review.UserID, "Review submitted", reviewerBody, map[string]interface{}{
		"type":        "review_reward",
		"review_id":   review.ID.String(),
		"business_id": business.ID.String(),
		"coupon_id":   coupon.ID.String(),
		"coupon_code": coupon.Code,
		"valid_until": coupon.ValidUntil.Format(time.RFC3339),
	}); err != nil {
		notificationFailuresTotal.Inc()
		logger.Get().Warn("Failed to notify reviewer",
			zap.String("review_id", review.ID.String()),
			zap.String("user_id", review.UserID.String()),
			zap.Error(err))
	}

	ownerBody := fmt.Sprintf("%s received a new %d-star review.", business.Name, review.Rating)
	if err := s.notifier.Notify(ctx, business.OwnerID, "New review", ownerBody, map[string]interface{}{
		"type":        "new_review",
		"review_id":   review.ID.String(),
		"business_id": business.ID.String(),
		"rating":      review.Rating,
	}); err != nil {
		notificationFailuresTotal.Inc()
		logger.Get().Warn("Failed to notify business owner",
			zap.String("review_id", review.ID.String()),
			zap.String("owner_id", business.OwnerID.String()),
			zap.Error(err))
	}
}

func formatWindow(d time.Duration) string {
	hours := int(d.Hours())
	switch {
	case d%time.Hour != 0:
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	case hours == 1:
		return "1 hour"
	default:
		return fmt.Sprintf("%d hours", hours)
	}
}

// GetReview returns a review by ID
func (s *Service) GetReview(ctx context.Context, id uuid.UUID) (*Review, error) {
	return s.store.GetReviewByID(ctx, id)
}

// ListBusinessReviews lists a business's reviews, newest first
func (s *Service) ListBusinessReviews(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*Review, int64, error) {
	return s.store.ListBusinessReviews(ctx, businessID, limit, offset)
}
