package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/lead-service/internal/domain"
	"github.com/spec-kit/lead-service/internal/events"
	"github.com/spec-kit/lead-service/internal/repository"
	"github.com/spec-kit/lead-service/internal/validation"
	apperrors "github.com/spec-kit/lead-service/pkg/util/errorutil"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// LeadInput is a public lead submission.
type LeadInput struct {
	Name        string  `json:"name" validate:"required,min=3"`
	Email       string  `json:"email" validate:"required,email"`
	Telephone   string  `json:"telephone" validate:"required,brphone"`
	Position    string  `json:"position" validate:"required,notblank"`
	Message     string  `json:"message" validate:"required,notblank"`
	DateBirth   string  `json:"dateBirth" validate:"required,birthdate,min_age16"`
	UTMSource   *string `json:"utm_source"`
	UTMMedium   *string `json:"utm_medium"`
	UTMCampaign *string `json:"utm_campaign"`
	UTMTerm     *string `json:"utm_term"`
	UTMContent  *string `json:"utm_content"`
	GCLID       *string `json:"gclid"`
	FBCLID      *string `json:"fbclid"`
}

// LeadPatch is a partial update; nil fields are left unchanged and set
// fields follow the LeadInput rules.
type LeadPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=3"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Telephone   *string `json:"telephone" validate:"omitempty,brphone"`
	Position    *string `json:"position" validate:"omitempty,notblank"`
	Message     *string `json:"message" validate:"omitempty,notblank"`
	DateBirth   *string `json:"dateBirth" validate:"omitempty,birthdate,min_age16"`
	UTMSource   *string `json:"utm_source"`
	UTMMedium   *string `json:"utm_medium"`
	UTMCampaign *string `json:"utm_campaign"`
	UTMTerm     *string `json:"utm_term"`
	UTMContent  *string `json:"utm_content"`
	GCLID       *string `json:"gclid"`
	FBCLID      *string `json:"fbclid"`
}

// LeadPage is one page of the admin listing.
type LeadPage struct {
	Leads      []domain.Lead
	TotalPages int
}

// LeadService implements lead submission and administration.
type LeadService struct {
	leads      repository.LeadRepository
	dispatcher events.Dispatcher
	domains    *DomainChecker
	validate   *validation.Validator
	logger     *zap.Logger
	now        func() time.Time
}

// NewLeadService builds the service.
func NewLeadService(leads repository.LeadRepository, dispatcher events.Dispatcher, domains *DomainChecker, logger *zap.Logger) *LeadService {
	s := &LeadService{
		leads:      leads,
		dispatcher: dispatcher,
		domains:    domains,
		logger:     logger,
		now:        time.Now,
	}
	s.validate = validation.New(func() time.Time { return s.now() })
	return s
}

// Create validates and stores a public submission.
func (s *LeadService) Create(ctx context.Context, in LeadInput) (*domain.Lead, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Telephone = strings.TrimSpace(in.Telephone)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	birth, _ := validation.ParseDate(in.DateBirth)

	lead := &domain.Lead{
		Name:        in.Name,
		Email:       in.Email,
		Telephone:   in.Telephone,
		Position:    in.Position,
		Message:     in.Message,
		DateBirth:   birth,
		UTMSource:   in.UTMSource,
		UTMMedium:   in.UTMMedium,
		UTMCampaign: in.UTMCampaign,
		UTMTerm:     in.UTMTerm,
		UTMContent:  in.UTMContent,
		GCLID:       in.GCLID,
		FBCLID:      in.FBCLID,
	}

	s.domains.CheckAsync(lead.Email)

	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventLeadCreated,
		SubjectID: lead.ID,
		Payload: events.LeadCreatedPayload{
			Name:        lead.Name,
			Email:       lead.Email,
			UTMSource:   lead.UTMSource,
			UTMCampaign: lead.UTMCampaign,
		},
	})
	return lead, nil
}

// List returns leads newest first.
func (s *LeadService) List(ctx context.Context, page, pageSize int) (LeadPage, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	leads, err := s.leads.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return LeadPage{}, apperrors.MapError(err)
	}
	total, err := s.leads.Count(ctx)
	if err != nil {
		return LeadPage{}, apperrors.MapError(err)
	}
	if leads == nil {
		leads = []domain.Lead{}
	}
	return LeadPage{Leads: leads, TotalPages: (total + pageSize - 1) / pageSize}, nil
}

// Get returns a single lead.
func (s *LeadService) Get(ctx context.Context, id string) (*domain.Lead, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "lead")
	}
	return lead, nil
}

// Update applies a partial update using the same field rules as Create.
func (s *LeadService) Update(ctx context.Context, id string, patch LeadPatch) (*domain.Lead, error) {
	patch.Name = trimmed(patch.Name)
	patch.Email = trimmed(patch.Email)
	patch.Telephone = trimmed(patch.Telephone)
	if err := s.validate.Struct(patch); err != nil {
		return nil, err
	}

	lead, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	assignIfSet(&lead.Name, patch.Name)
	assignIfSet(&lead.Email, patch.Email)
	assignIfSet(&lead.Telephone, patch.Telephone)
	assignIfSet(&lead.Position, patch.Position)
	assignIfSet(&lead.Message, patch.Message)
	if patch.DateBirth != nil {
		lead.DateBirth, _ = validation.ParseDate(*patch.DateBirth)
	}
	assignPtrIfSet(&lead.UTMSource, patch.UTMSource)
	assignPtrIfSet(&lead.UTMMedium, patch.UTMMedium)
	assignPtrIfSet(&lead.UTMCampaign, patch.UTMCampaign)
	assignPtrIfSet(&lead.UTMTerm, patch.UTMTerm)
	assignPtrIfSet(&lead.UTMContent, patch.UTMContent)
	assignPtrIfSet(&lead.GCLID, patch.GCLID)
	assignPtrIfSet(&lead.FBCLID, patch.FBCLID)

	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, notFoundAs(err, "lead")
	}
	return lead, nil
}

// Delete removes a lead.
func (s *LeadService) Delete(ctx context.Context, actorID, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.leads.Delete(ctx, id); err != nil {
		return notFoundAs(err, "lead")
	}
	s.publish(ctx, events.Event{Type: events.EventLeadDeleted, SubjectID: id, ActorID: actorID})
	return nil
}

func (s *LeadService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now().UTC()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func assignIfSet(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func assignPtrIfSet(dst **string, src *string) {
	if src != nil {
		*dst = src
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewValidationError("id must be a valid UUID", map[string]any{"id": id})
	}
	return nil
}

func notFoundAs(err error, resource string) error {
	if apperrors.IsNotFound(err) {
		return apperrors.NewNotFound(resource)
	}
	return apperrors.MapError(err)
}
