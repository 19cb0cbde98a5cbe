package services

import (
	"context"
	"fmt"

	"clientdesk_backend/internal/calendar"
	"clientdesk_backend/internal/logger"
	"clientdesk_backend/internal/models"
	"clientdesk_backend/internal/repositories"
	"clientdesk_backend/internal/services/dto"
	"clientdesk_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type MeetingService interface {
	Create(ctx context.Context, db *gorm.DB, creatorID string, req *dto.CreateMeetingRequest) (*dto.MeetingDTO, error)
	List(db *gorm.DB, userID string) ([]*dto.MeetingDTO, error)
	Cancel(ctx context.Context, db *gorm.DB, id, userID string) error
}

type MeetingServiceImpl struct {
	meetingRepo      repositories.MeetingRepository
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	cal              *calendar.Client
}

func NewMeetingService(
	meetingRepo repositories.MeetingRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	cal *calendar.Client,
) MeetingService {
	return &MeetingServiceImpl{
		meetingRepo:      meetingRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		cal:              cal,
	}
}

// Create бронирует встречу во внешнем календаре и сохраняет ее локально.
// Сначала бронь, потом запись: встреча без брони бесполезна.
func (s *MeetingServiceImpl) Create(ctx context.Context, db *gorm.DB, creatorID string, req *dto.CreateMeetingRequest) (*dto.MeetingDTO, error) {
	slug := fmt.Sprintf("clientdesk-meeting-%dmin", req.Duration)
	eventType, err := s.cal.EnsureEventType(ctx, "ClientDesk meeting", slug, req.Duration)
	if err != nil {
		return nil, apperrors.ExternalServiceError(err, "Failed to prepare calendar event type")
	}

	attendees := make([]calendar.Attendee, 0, len(req.Participants))
	for _, p := range req.Participants {
		attendees = append(attendees, calendar.Attendee{
			Email: p.Email,
			Name:  p.Name,
		})
	}

	booking, err := s.cal.CreateBooking(ctx, calendar.BookingParams{
		EventTypeID: eventType.ID,
		Title:       req.Title,
		Description: req.Description,
		Start:       req.Datetime,
		Attendees:   attendees,
	})
	if err != nil {
		return nil, apperrors.ExternalServiceError(err, "Failed to book meeting")
	}

	meeting := &models.Meeting{
		Title:       req.Title,
		Description: req.Description,
		Datetime:    req.Datetime,
		Duration:    req.Duration,
		MeetLink:    fmt.Sprintf("https://app.cal.com/booking/%s", booking.UID),
		BookingID:   booking.UID,
		CreatedBy:   creatorID,
		Status:      models.MeetingStatusScheduled,
	}

	for _, p := range req.Participants {
		participant := models.MeetingParticipant{
			Email: p.Email,
			Name:  p.Name,
		}
		// Зарегистрированные участники получают уведомление,
		// внешние гости остаются просто email-адресом
		if user, err := s.userRepo.FindByEmail(db, p.Email); err == nil {
			participant.UserID = user.ID
		}
		meeting.Participants = append(meeting.Participants, participant)
	}

	if err := s.meetingRepo.Create(db, meeting); err != nil {
		if cancelErr := s.cal.CancelBooking(ctx, booking.UID, "failed to save meeting"); cancelErr != nil {
			logger.WithError(cancelErr).Warn("failed to cancel orphaned booking", "booking_uid", booking.UID)
		}
		return nil, apperrors.InternalError(err)
	}

	s.notifyParticipants(db, meeting)

	return dto.NewMeetingDTO(meeting), nil
}

func (s *MeetingServiceImpl) List(db *gorm.DB, userID string) ([]*dto.MeetingDTO, error) {
	meetings, err := s.meetingRepo.FindForUser(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewMeetingDTOs(meetings), nil
}

// Cancel отменяет встречу у организатора и в календаре
func (s *MeetingServiceImpl) Cancel(ctx context.Context, db *gorm.DB, id, userID string) error {
	meeting, err := s.meetingRepo.FindByID(db, id)
	if err != nil {
		if apperrors.Is(err, repositories.ErrMeetingNotFound) {
			return apperrors.NewNotFoundError("Meeting not found")
		}
		return apperrors.InternalError(err)
	}

	if meeting.CreatedBy != userID {
		return apperrors.NewForbiddenError("Only the meeting organizer can cancel it")
	}
	if meeting.Status == models.MeetingStatusCancelled {
		return nil
	}

	if err := s.meetingRepo.UpdateStatus(db, meeting.ID, models.MeetingStatusCancelled); err != nil {
		return apperrors.InternalError(err)
	}

	// Бронь снимаем после локальной отмены: лишняя бронь в календаре
	// безопаснее встречи, которая считается активной без брони
	if err := s.cal.CancelBooking(ctx, meeting.BookingID, "cancelled by organizer"); err != nil && !apperrors.Is(err, calendar.ErrBookingNotFound) {
		logger.WithError(err).Warn("failed to cancel calendar booking", "booking_uid", meeting.BookingID)
	}

	meeting.Status = models.MeetingStatusCancelled
	s.notifyParticipants(db, meeting)
	return nil
}

func (s *MeetingServiceImpl) notifyParticipants(db *gorm.DB, meeting *models.Meeting) {
	notifType := "meeting_scheduled"
	message := fmt.Sprintf("Meeting %q is scheduled for %s", meeting.Title, meeting.Datetime.Format("2006-01-02 15:04 MST"))
	if meeting.Status == models.MeetingStatusCancelled {
		notifType = "meeting_cancelled"
		message = fmt.Sprintf("Meeting %q has been cancelled", meeting.Title)
	}

	for _, p := range meeting.Participants {
		if p.UserID == "" {
			continue
		}
		notification := &models.Notification{
			UserID:           p.UserID,
			Type:             notifType,
			Message:          message,
			RelatedMeetingID: meeting.ID,
		}
		if err := s.notificationRepo.Create(db, notification); err != nil {
			logger.WithError(err).Warn("failed to create meeting notification", "user_id", p.UserID)
		}
	}
}
