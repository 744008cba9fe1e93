package service

import (
	"context"
	"fmt"
	"time"

	"salon-service/internal/models"
	"salon-service/internal/schedule"
	"salon-service/pkg/response"
)

// validateBooking runs the slot checks shared by creation and reschedule.
// excludeID lets a reschedule keep its own current slot out of the conflict
// check.
func (s *Service) validateBooking(ctx context.Context, m *models.Manicurist, manos, pies *models.Service, date time.Time, startOff time.Duration, excludeID string) error {
	const op = "service.validateBooking"

	if !m.Available {
		return fmt.Errorf("%s: %w", op, response.ErrStaffUnavailable)
	}

	if manos == nil && pies == nil {
		return fmt.Errorf("%s: %w", op, response.ErrNoServiceSelected)
	}

	workStart, err := schedule.ParseClock(m.StartTime)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	workEnd, err := schedule.ParseClock(m.EndTime)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if startOff < workStart || startOff >= workEnd {
		return fmt.Errorf("%s: %w", op, response.ErrOutsideWorkingHours)
	}

	days := schedule.ParseWorkingDays(m.WorkingDays)
	if !days.Contains(schedule.WeekdayIndex(date)) {
		return fmt.Errorf("%s: %s no trabaja los %s: %w",
			op, m.Name, schedule.DayName(schedule.WeekdayIndex(date)), response.ErrNonWorkingDay)
	}

	taken, err := s.store.SlotTaken(ctx, m.ID, date.Format("2006-01-02"), schedule.FormatClock(startOff), excludeID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if taken {
		return fmt.Errorf("%s: %w", op, response.ErrSlotTaken)
	}

	return nil
}
