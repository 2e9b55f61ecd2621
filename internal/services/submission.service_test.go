package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"checklist/internal/events"
	"checklist/internal/models"
	"checklist/internal/repositories"
	"checklist/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-03-03 is a Monday.
var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

var safetyItems = []string{
	"Inspect fire extinguishers",
	"Check emergency exits",
	"Test alarm panel",
	"Verify first aid kit",
	"Sign off logbook",
}

type submissionHarness struct {
	store     *memoryStore
	tx        *fakeTransactor
	audit     *fakeAudit
	publisher *fakePublisher
	service   *SubmissionService
}

func newSubmissionHarness(t *testing.T, provider IdentityProvider) *submissionHarness {
	t.Helper()

	store := newMemoryStore()
	repos := repositories.Repository{
		User:                &fakeUserRepo{store: store},
		ChecklistSchedule:   &fakeScheduleRepo{store: store},
		ChecklistSubmission: &fakeSubmissionRepo{store: store},
		ChecklistLog:        &fakeLogRepo{store: store},
	}

	h := &submissionHarness{
		store:     store,
		tx:        &fakeTransactor{},
		audit:     &fakeAudit{},
		publisher: &fakePublisher{},
	}
	resolver := NewUserResolver(provider, repos.User, 50*time.Millisecond)
	h.service = NewSubmissionService(h.tx, repos, resolver, h.audit, h.publisher, time.UTC)
	h.service.now = func() time.Time { return monday.Add(8 * time.Hour) }
	return h
}

func (h *submissionHarness) dailySafetyCheck() (*models.ChecklistMaster, *models.ChecklistSchedule) {
	master := h.store.addMaster("Daily Safety Check", safetyItems...)
	schedule := h.store.addSchedule(models.ChecklistSchedule{
		ChecklistMasterID: master.ID,
		Name:              "JDL-20250301-SAFETY",
		PeriodeType:       models.PeriodeDaily,
	})
	return master, schedule
}

func (h *submissionHarness) check(t *testing.T, detailID int, checked bool, notes *string) *models.ChecklistSubmissionDetail {
	t.Helper()
	detail, err := h.service.ApplyCheck(context.Background(), CheckAction{
		DetailID:        detailID,
		IsChecked:       checked,
		Notes:           notes,
		ActorEmployeeID: "E-100",
	})
	require.NoError(t, err)
	return detail
}

func (h *submissionHarness) status(t *testing.T, submissionID int) models.SubmissionStatus {
	t.Helper()
	submission, err := h.service.GetSubmission(context.Background(), submissionID)
	require.NoError(t, err)
	return submission.Status
}

func strPtr(s string) *string {
	return &s
}

func TestGetOrCreateSubmission_MaterializesDetailsInPositionOrder(t *testing.T) {
	h := newSubmissionHarness(t, directoryDown())
	_, schedule := h.dailySafetyCheck()

	submission, created, err := h.service.GetOrCreateSubmission(context.Background(), schedule.ID, monday)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.SubmissionPending, submission.Status)
	assert.Equal(t, "2025-03-03", utils.FormatDate(submission.SubmissionDate))
	require.Len(t, submission.Details, len(safetyItems))

	for i, detail := range submission.Details {
		assert.False(t, detail.IsChecked)
		assert.Nil(t, detail.Notes)
		require.NotNil(t, detail.Item)
		assert.Equal(t, i+1, detail.Item.Position)
		assert.Equal(t, safetyItems[i], detail.Item.ActivityName)
	}

	again, created, err := h.service.GetOrCreateSubmission(context.Background(), schedule.ID, monday)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, submission.ID, again.ID)
	assert.Equal(t, 1, h.store.submissionCount())
	assert.Equal(t, len(safetyItems), h.store.detailCount())

	started := h.audit.byActivity(models.ActivityStartSubmission)
	require.Len(t, started, 1)
	assert.Equal(t, models.SystemEmployeeID, started[0].ActorEmployeeID)
	assert.Equal(t, submission.ID, started[0].EntityID)

	require.Len(t, h.publisher.events, 1)
	assert.Equal(t, events.SUBMISSION_CREATED, h.publisher.events[0].Type)
}

func TestGetOrCreateSubmission_ConcurrentCallersShareOneSubmission(t *testing.T) {
	h := newSubmissionHarness(t, directoryDown())
	_, schedule := h.dailySafetyCheck()

	const callers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[int]bool{}
		created int
	)

	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			submission, isNew, err := h.service.GetOrCreateSubmission(context.Background(), schedule.ID, monday)
			assert.NoError(t, err)
			if submission == nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[submission.ID] = true
			if isNew {
				created++
			}
			assert.Len(t, submission.Details, len(safetyItems))
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, h.store.submissionCount())
	assert.Equal(t, len(safetyItems), h.store.detailCount())
	assert.Len(t, h.audit.byActivity(models.ActivityStartSubmission), 1)
}

func TestGetOrCreateSubmission_AdoptsExistingSubmission(t *testing.T) {
	h := newSubmissionHarness(t, directoryDown())
	master, schedule := h.dailySafetyCheck()

	submissions := &fakeSubmissionRepo{store: h.store}
	winner := &models.ChecklistSubmission{ChecklistScheduleID: schedule.ID, SubmissionDate: monday, Status: models.SubmissionPending}
	inserted, err := submissions.InsertIfAbsent(context.Background(), nil, winner)
	require.NoError(t, err)
	require.True(t, inserted)

	var details []models.ChecklistSubmissionDetail
	for _, item := range master.Items {
		details = append(details, models.ChecklistSubmissionDetail{SubmissionID: winner.ID, ItemID: item.ID})
	}
	require.NoError(t, submissions.CreateDetails(context.Background(), nil, details))

	submission, created, err := h.service.GetOrCreateSubmission(context.Background(), schedule.ID, monday)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, winner.ID, submission.ID)
	assert.Len(t, submission.Details, len(safetyItems))
	assert.Equal(t, len(safetyItems), h.store.detailCount())
	assert.Empty(t, h.audit.byActivity(models.ActivityStartSubmission))
}

func TestGetOrCreateSubmission_Failures(t *testing.T) {
	h := newSubmissionHarness(t, directoryDown())

	deleted := h.store.addMaster("Forklift Inspection", "Check forks")
	orphaned := h.store.addSchedule(models.ChecklistSchedule{
		ChecklistMasterID: deleted.ID,
		Name:              "JDL-20250101-FORK01",
		PeriodeType:       models.PeriodeDaily,
	})
	h.store.deleteMaster(deleted.ID)

	empty := h.store.addMaster("Empty Master")
	emptySchedule := h.store.addSchedule(models.ChecklistSchedule{
		ChecklistMasterID: empty.ID,
		PeriodeType:       models.PeriodeDaily,
	})

	weekly := h.store.addMaster("Weekly Audit", "Review logs")
	fridays := h.store.addSchedule(models.ChecklistSchedule{
		ChecklistMasterID: weekly.ID,
		PeriodeType:       models.PeriodeWeekly,
		ScheduleDetails:   []string{"friday"},
	})

	tests := []struct {
		name       string
		scheduleID int
		sentinel   error
		mentions   []string
	}{
		{"unknown schedule", 9999, ErrNotFound, []string{"9999"}},
		{"soft-deleted master", orphaned.ID, ErrNotFound, []string{"Forklift Inspection", "JDL-20250101-FORK01"}},
		{"master without items", emptySchedule.ID, ErrValidation, []string{"Empty Master"}},
		{"schedule not due", fridays.ID, ErrValidation, []string{"2025-03-03"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			submission, created, err := h.service.GetOrCreateSubmission(context.Background(), tt.scheduleID, monday)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Nil(t, submission)
			assert.False(t, created)
			for _, fragment := range tt.mentions {
				assert.Contains(t, err.Error(), fragment)
			}
		})
	}

	assert.Zero(t, h.store.submissionCount())
}

func TestApplyCheck_StatusFollowsCheckedCount(t *testing.T) {
	h := newSubmissionHarness(t, directoryWith(map[string]EmployeeRecord{
		"E-100": {EmployeeID: "E-100", Name: "Dewi Lestari", Email: "dewi@example.com"},
	}))
	_, schedule := h.dailySafetyCheck()

	submission, _, err := h.service.GetOrCreateSubmission(context.Background(), schedule.ID, monday)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionPending, h.status(t, submission.ID))

	for _, detail := range submission.Details[:3] {
		h.check(t, detail.ID, true, nil)
	}
	assert.Equal(t, models.SubmissionIncomplete, h.status(t, submission.ID))

	for _, detail := range submission.Details[3:] {
		h.check(t, detail.ID, true, nil)
	}
	assert.Equal(t, models.SubmissionCompleted, h.status(t, submission.ID))

	h.check(t, submission.Details[4].ID, false, nil)
	assert.Equal(t, models.SubmissionIncomplete, h.status(t, submission.ID))

	assert.Len(t, h.audit.byActivity(models.ActivityCheckItem), 5)
	assert.Len(t, h.audit.byActivity(models.ActivityUncheckItem), 1)

	transitions := h.audit.byActivity(models.ActivitySubmissionStatusChanged)
	require.Len(t, transitions, 3)
	assert.Equal(t, "pending", transitions[0].Before["status"])
	assert.Equal(t, "incomplete", transitions[0].After["status"])
	assert.Equal(t, "completed", transitions[1].After["status"])
	assert.Equal(t, "incomplete", transitions[2].After["status"])

	for _, entry := range transitions {
		assert.Equal(t, "E-100", entry.ActorEmployeeID)
		assert.Equal(t, "Dewi Lestari", entry.ActorName)
		require.NotNil(t, entry.UserID)
	}

	stored, err := h.service.GetSubmission(context.Background(), submission.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.SubmittedBy)
	assert.Equal(t, *transitions[0].UserID, *stored.SubmittedBy)
}

func TestApplyCheck_RepeatedActionOnlyAuditsChanges(t *testing.T) {
	h := newSubmissionHarness(t, directoryDown())
	_, schedule := h.dailySafetyCheck()

	submission, _, err := h.service.GetOrCreateSubmission(context.Background(), schedule.ID, monday)
	require.NoError(t, err)
	detailID := submission.Details[0].ID

	h.check(t, detailID, true, nil)
	h.check(t, detailID, true, nil)

	assert.Len(t, h.audit.byActivity(models.ActivityCheckItem), 1)
	assert.Len(t, h.audit.byActivity(models.ActivitySubmissionStatusChanged), 1)
}

func TestApplyCheck_NoteLifecycle(t *testing.T) {
	h := newSubmissionHarness(t, directoryDown())
	_, schedule := h.dailySafetyCheck()

	submission, _, err := h.service.GetOrCreateSubmission(context.Background(), schedule.ID, monday)
	require.NoError(t, err)
	detailID := submission.Details[1].ID

	detail := h.check(t, detailID, true, strPtr("  north exit blocked  "))
	require.NotNil(t, detail.Notes)
	assert.Equal(t, "north exit blocked", *detail.Notes)

	h.check(t, detailID, true, strPtr("north exit cleared"))
	h.check(t, detailID, true, strPtr("north exit cleared"))
	detail = h.check(t, detailID, true, strPtr("   "))
	assert.Nil(t, detail.Notes)

	added := h.audit.byActivity(models.ActivityAddNote)
	changed := h.audit.byActivity(models.ActivityChangeNote)
	removed := h.audit.byActivity(models.ActivityRemoveNote)
	require.Len(t, added, 1)
	require.Len(t, changed, 1)
	require.Len(t, removed, 1)

	assert.Equal(t, "north exit blocked", changed[0].Before["notes"])
	assert.Equal(t, "north exit cleared", changed[0].After["notes"])
	assert.Equal(t, "Check emergency exits", added[0].After["activityName"])
	assert.Len(t, h.audit.byActivity(models.ActivityCheckItem), 1)
}

func TestApplyCheck_DirectoryDownUsesPlaceholderActor(t *testing.T) {
	h := newSubmissionHarness(t, directoryDown())
	_, schedule := h.dailySafetyCheck()

	submission, _, err := h.service.GetOrCreateSubmission(context.Background(), schedule.ID, monday)
	require.NoError(t, err)

	_, err = h.service.ApplyCheck(context.Background(), CheckAction{
		DetailID:        submission.Details[0].ID,
		IsChecked:       true,
		ActorEmployeeID: `"E-200\`,
	})
	require.NoError(t, err)

	users := &fakeUserRepo{store: h.store}
	placeholder, err := users.GetByEmployeeID(context.Background(), nil, "E-200")
	require.NoError(t, err)
	assert.True(t, placeholder.IsPlaceholder)
	assert.Equal(t, "User E-200", placeholder.Name)
	assert.Equal(t, "E-200@internal.com", placeholder.Email)

	stored, err := h.service.GetSubmission(context.Background(), submission.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.SubmittedBy)
	assert.Equal(t, placeholder.ID, *stored.SubmittedBy)
}

func TestApplyCheck_Rejections(t *testing.T) {
	h := newSubmissionHarness(t, directoryDown())
	master, schedule := h.dailySafetyCheck()

	submission, _, err := h.service.GetOrCreateSubmission(context.Background(), schedule.ID, monday)
	require.NoError(t, err)
	detailID := submission.Details[0].ID

	t.Run("missing actor", func(t *testing.T) {
		_, err := h.service.ApplyCheck(context.Background(), CheckAction{DetailID: detailID, IsChecked: true})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("notes too long", func(t *testing.T) {
		_, err := h.service.ApplyCheck(context.Background(), CheckAction{
			DetailID:        detailID,
			IsChecked:       true,
			Notes:           strPtr(strings.Repeat("x", models.MaxNotesLength+1)),
			ActorEmployeeID: "E-100",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown detail", func(t *testing.T) {
		_, err := h.service.ApplyCheck(context.Background(), CheckAction{DetailID: 9999, IsChecked: true, ActorEmployeeID: "E-100"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("soft-deleted master", func(t *testing.T) {
		h.store.deleteMaster(master.ID)
		_, err := h.service.ApplyCheck(context.Background(), CheckAction{DetailID: detailID, IsChecked: true, ActorEmployeeID: "E-100"})
		require.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "Daily Safety Check")
		assert.Contains(t, err.Error(), schedule.Name)
	})

	assert.Equal(t, models.SubmissionPending, h.status(t, submission.ID))
	assert.Empty(t, h.audit.byActivity(models.ActivityCheckItem))
}

func TestRecomputeStatus_IsIdempotent(t *testing.T) {
	h := newSubmissionHarness(t, directoryDown())
	_, schedule := h.dailySafetyCheck()

	submission, _, err := h.service.GetOrCreateSubmission(context.Background(), schedule.ID, monday)
	require.NoError(t, err)

	// Flip details directly so the stored status is stale.
	submissions := &fakeSubmissionRepo{store: h.store}
	for _, detail := range submission.Details[:2] {
		detail.IsChecked = true
		require.NoError(t, submissions.UpdateDetail(context.Background(), nil, &detail))
	}

	for range 3 {
		status, err := h.service.RecomputeStatus(context.Background(), submission.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SubmissionIncomplete, status)
	}
	assert.Equal(t, models.SubmissionIncomplete, h.status(t, submission.ID))

	_, err = h.service.RecomputeStatus(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDueSchedules_RespectsRecurrenceAndEndDate(t *testing.T) {
	h := newSubmissionHarness(t, directoryDown())
	master := h.store.addMaster("Warehouse Walkthrough", "Walk aisles")

	ended := monday.AddDate(0, 0, -1)
	daily := h.store.addSchedule(models.ChecklistSchedule{ChecklistMasterID: master.ID, PeriodeType: models.PeriodeDaily})
	h.store.addSchedule(models.ChecklistSchedule{ChecklistMasterID: master.ID, PeriodeType: models.PeriodeDaily, EndDate: &ended})
	monWed := h.store.addSchedule(models.ChecklistSchedule{
		ChecklistMasterID: master.ID,
		PeriodeType:       models.PeriodeWeekly,
		ScheduleDetails:   []string{"monday", "wednesday"},
	})
	h.store.addSchedule(models.ChecklistSchedule{
		ChecklistMasterID: master.ID,
		PeriodeType:       models.PeriodeSpecificDates,
		ScheduleDetails:   []string{"2025-03-04"},
	})

	due, err := h.service.DueSchedules(context.Background(), monday)
	require.NoError(t, err)

	var ids []int
	for _, schedule := range due {
		ids = append(ids, schedule.ID)
	}
	assert.Equal(t, []int{daily.ID, monWed.ID}, ids)
}

func TestTodaySchedules_SpecificDatesScenario(t *testing.T) {
	h := newSubmissionHarness(t, directoryDown())
	master := h.store.addMaster("Quarterly Fire Drill", "Sound alarm", "Evacuate floor", "Roll call", "Reset panel", "File report")
	drill := h.store.addSchedule(models.ChecklistSchedule{
		ChecklistMasterID: master.ID,
		PeriodeType:       models.PeriodeSpecificDates,
		ScheduleDetails:   []string{"2025-03-03", "2025-06-02"},
	})
	_, safety := h.dailySafetyCheck()

	today, err := h.service.TodaySchedules(context.Background())
	require.NoError(t, err)
	require.Len(t, today, 2)
	for _, entry := range today {
		assert.Nil(t, entry.SubmissionID)
		assert.Equal(t, models.SubmissionPending, entry.Status)
		assert.True(t, decimal.Zero.Equal(entry.CompletionRate))
	}
	assert.Equal(t, "Specific dates (03/03/2025, 02/06/2025)", today[0].Period)

	submission, created, err := h.service.StartToday(context.Background(), drill.ID, "")
	require.NoError(t, err)
	require.True(t, created)
	h.check(t, submission.Details[0].ID, true, nil)
	h.check(t, submission.Details[1].ID, true, nil)

	today, err = h.service.TodaySchedules(context.Background())
	require.NoError(t, err)
	require.Len(t, today, 2)

	assert.Equal(t, drill.ID, today[0].Schedule.ID)
	require.NotNil(t, today[0].SubmissionID)
	assert.Equal(t, submission.ID, *today[0].SubmissionID)
	assert.Equal(t, models.SubmissionIncomplete, today[0].Status)
	assert.Equal(t, 2, today[0].CheckedCount)
	assert.Equal(t, 5, today[0].TotalCount)
	assert.True(t, decimal.NewFromInt(40).Equal(today[0].CompletionRate))

	assert.Equal(t, safety.ID, today[1].Schedule.ID)
	assert.Nil(t, today[1].SubmissionID)
	assert.Equal(t, len(safetyItems), today[1].TotalCount)

	h.service.now = func() time.Time { return monday.AddDate(0, 0, 1) }
	_, _, err = h.service.StartToday(context.Background(), drill.ID, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMaterializeDue_CountsOutcomes(t *testing.T) {
	h := newSubmissionHarness(t, directoryDown())
	_, safety := h.dailySafetyCheck()
	empty := h.store.addMaster("Empty Master")
	h.store.addSchedule(models.ChecklistSchedule{ChecklistMasterID: empty.ID, PeriodeType: models.PeriodeDaily})
	other := h.store.addMaster("Loading Dock", "Check ramps")
	h.store.addSchedule(models.ChecklistSchedule{ChecklistMasterID: other.ID, PeriodeType: models.PeriodeDaily})

	_, _, err := h.service.GetOrCreateSubmission(context.Background(), safety.ID, monday)
	require.NoError(t, err)

	result, err := h.service.MaterializeDue(context.Background(), monday)
	require.NoError(t, err)
	assert.Equal(t, MaterializeResult{Date: "2025-03-03", Due: 3, Created: 1, Existing: 1, Failed: 1}, result)
	assert.Equal(t, 2, h.store.submissionCount())

	require.NotEmpty(t, h.publisher.events)
	summary := h.publisher.events[len(h.publisher.events)-1]
	assert.Equal(t, events.MATERIALIZATION_DONE, summary.Type)
	assert.Equal(t, events.SUBMISSION_CHANNEL, summary.Channel)
	assert.Equal(t, 1, summary.Data["failed"])
}

func TestCompletionRate(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(completionRate(0, 0)))
	assert.True(t, decimal.NewFromInt(100).Equal(completionRate(4, 4)))
	assert.Equal(t, "66.67", completionRate(2, 3).String())
}
