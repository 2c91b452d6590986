package service

import (
	"github.com/acadsys/uniplan-api/internal/models"
)

// ConflictDetector finds timetable collisions among groups. It is pure and
// safe for concurrent use. The pairwise scan is quadratic, which is fine for
// the documented bound of ten candidate groups per request.
type ConflictDetector struct{}

// NewConflictDetector constructs the detector.
func NewConflictDetector() *ConflictDetector {
	return &ConflictDetector{}
}

// DetectConflicts emits every overlapping schedule pair across all distinct
// group pairs. A group may appear in multiple conflict tuples.
func (d *ConflictDetector) DetectConflicts(groups []models.Group) []models.GroupConflict {
	var conflicts []models.GroupConflict
	for i := range groups {
		for j := i + 1; j < len(groups); j++ {
			for _, a := range groups[i].Schedules {
				for _, b := range groups[j].Schedules {
					if a.Overlaps(b) {
						conflicts = append(conflicts, models.GroupConflict{
							GroupAID:  groups[i].ID,
							GroupBID:  groups[j].ID,
							ScheduleA: a,
							ScheduleB: b,
						})
					}
				}
			}
		}
	}
	return conflicts
}

// HasConflict reports whether the candidate collides with any existing
// group, short-circuiting on the first overlap.
func (d *ConflictDetector) HasConflict(candidate *models.Group, existing []models.Group) bool {
	for _, sched := range candidate.Schedules {
		for i := range existing {
			for _, other := range existing[i].Schedules {
				if sched.Overlaps(other) {
					return true
				}
			}
		}
	}
	return false
}

// ConflictDetails collects every collision between the candidate and the
// existing groups in a display-ready form.
func (d *ConflictDetector) ConflictDetails(candidate *models.Group, existing []models.Group) []models.ConflictDetail {
	var details []models.ConflictDetail
	for _, sched := range candidate.Schedules {
		for i := range existing {
			for _, other := range existing[i].Schedules {
				if sched.Overlaps(other) {
					details = append(details, models.ConflictDetail{
						NewGroupID:       candidate.ID,
						ExistingGroupID:  existing[i].ID,
						NewSubjectCode:   candidate.SubjectCode,
						ExistingSubject:  existing[i].SubjectCode,
						Day:              models.DayName(sched.DayOfWeek),
						NewTimeRange:     sched.TimeRange(),
						ExistingTimeSlot: other.TimeRange(),
					})
				}
			}
		}
	}
	return details
}

// CompatibleGroups filters candidates down to those that fit around the
// already enrolled groups.
func (d *ConflictDetector) CompatibleGroups(candidates, enrolled []models.Group) []models.Group {
	var out []models.Group
	for i := range candidates {
		if !d.HasConflict(&candidates[i], enrolled) {
			out = append(out, candidates[i])
		}
	}
	return out
}
