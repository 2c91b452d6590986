package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/acadsys/uniplan-api/internal/models"
	appErrors "github.com/acadsys/uniplan-api/pkg/errors"
	"github.com/acadsys/uniplan-api/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type historySource interface {
	History(ctx context.Context, studentID string) (*models.AcademicSummary, error)
}

type timetableSource interface {
	ListByStudentActive(ctx context.Context, studentID string) ([]models.Group, error)
}

// ExportService renders a student's history as CSV and their weekly
// timetable as PDF.
type ExportService struct {
	enrollments historySource
	groups      timetableSource
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(enrollments historySource, groups timetableSource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{enrollments: enrollments, groups: groups, csv: csv, pdf: pdf, logger: logger}
}

var historyHeaders = []string{"Period", "Subject", "Credits", "Status", "Attempt", "Grade", "Letter"}

// HistoryCSV renders the student's full academic history.
func (s *ExportService) HistoryCSV(ctx context.Context, studentID string) ([]byte, string, error) {
	summary, err := s.enrollments.History(ctx, studentID)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{Headers: historyHeaders}
	records := append(append([]models.Enrollment{}, summary.CurrentEnrollments...), summary.History...)
	for _, item := range records {
		row := map[string]string{
			"Period":  item.PeriodCode,
			"Subject": item.SubjectCode,
			"Credits": strconv.Itoa(item.SubjectCredits),
			"Status":  string(item.Status),
			"Attempt": strconv.Itoa(item.AttemptNumber),
		}
		if item.Grade != nil {
			row["Grade"] = fmt.Sprintf("%.1f", *item.Grade)
		}
		if item.GradeLetter != nil {
			row["Letter"] = *item.GradeLetter
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render history export")
	}
	filename := fmt.Sprintf("history_%s.csv", studentID)
	return payload, filename, nil
}

var timetableHeaders = []string{"Day", "Time", "Subject", "Section", "Room", "Type"}

// TimetablePDF renders the student's active weekly schedule.
func (s *ExportService) TimetablePDF(ctx context.Context, studentID string) ([]byte, string, error) {
	groups, err := s.groups.ListByStudentActive(ctx, studentID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrolled groups")
	}

	type slot struct {
		schedule models.Schedule
		group    models.Group
	}
	var slots []slot
	for _, group := range groups {
		for _, sched := range group.Schedules {
			slots = append(slots, slot{schedule: sched, group: group})
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].schedule.DayOfWeek != slots[j].schedule.DayOfWeek {
			return slots[i].schedule.DayOfWeek < slots[j].schedule.DayOfWeek
		}
		return slots[i].schedule.StartTime < slots[j].schedule.StartTime
	})

	dataset := export.Dataset{Headers: timetableHeaders}
	for _, item := range slots {
		room := item.schedule.Room
		if room == "" {
			room = item.group.Room
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Day":     models.DayName(item.schedule.DayOfWeek),
			"Time":    item.schedule.TimeRange(),
			"Subject": item.group.SubjectCode,
			"Section": item.group.GroupNumber,
			"Room":    room,
			"Type":    string(item.schedule.Type),
		})
	}

	payload, err := s.pdf.Render(dataset, "Weekly Timetable")
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable export")
	}
	filename := fmt.Sprintf("timetable_%s.pdf", studentID)
	return payload, filename, nil
}
