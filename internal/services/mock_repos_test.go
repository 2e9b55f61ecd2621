package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"checklist/internal/events"
	"checklist/internal/models"
	"checklist/internal/utils"

	"gorm.io/gorm"
)

// memoryStore backs the repository doubles. Every method copies on the way in
// and out so callers cannot mutate stored rows behind the store's back.
type memoryStore struct {
	mu          sync.Mutex
	nextID      int
	users       map[int]*models.User
	masters     map[int]*models.ChecklistMaster
	schedules   map[int]*models.ChecklistSchedule
	submissions map[int]*models.ChecklistSubmission
	details     map[int]*models.ChecklistSubmissionDetail
	logs        []models.ChecklistLog
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:       map[int]*models.User{},
		masters:     map[int]*models.ChecklistMaster{},
		schedules:   map[int]*models.ChecklistSchedule{},
		submissions: map[int]*models.ChecklistSubmission{},
		details:     map[int]*models.ChecklistSubmissionDetail{},
	}
}

func (s *memoryStore) id() int {
	s.nextID++
	return s.nextID
}

func (s *memoryStore) addUser(user models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = s.id()
	s.users[user.ID] = &user
	copied := user
	return &copied
}

func (s *memoryStore) addMaster(name string, activities ...string) *models.ChecklistMaster {
	s.mu.Lock()
	defer s.mu.Unlock()
	master := &models.ChecklistMaster{Name: name, Code: models.MasterCodePrefix + name, ChecklistTypeID: 1}
	master.ID = s.id()
	for i, activity := range activities {
		item := models.ChecklistItem{
			ChecklistMasterID: master.ID,
			ActivityName:      activity,
			IsRequired:        true,
			Position:          i + 1,
		}
		item.ID = s.id()
		master.Items = append(master.Items, item)
	}
	s.masters[master.ID] = master
	return s.copyMaster(master)
}

func (s *memoryStore) deleteMaster(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masters[id].DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
}

func (s *memoryStore) addSchedule(schedule models.ChecklistSchedule) *models.ChecklistSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	schedule.ID = s.id()
	if schedule.Name == "" {
		schedule.Name = models.ScheduleNamePrefix + utils.RandomCode(6)
	}
	s.schedules[schedule.ID] = &schedule
	return s.copySchedule(&schedule)
}

func (s *memoryStore) submissionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.submissions)
}

func (s *memoryStore) detailCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.details)
}

func (s *memoryStore) copyMaster(master *models.ChecklistMaster) *models.ChecklistMaster {
	if master == nil {
		return nil
	}
	copied := *master
	copied.Items = append([]models.ChecklistItem(nil), master.Items...)
	return &copied
}

func (s *memoryStore) copySchedule(schedule *models.ChecklistSchedule) *models.ChecklistSchedule {
	copied := *schedule
	copied.ScheduleDetails = append([]string(nil), schedule.ScheduleDetails...)
	copied.Master = s.copyMaster(s.masters[schedule.ChecklistMasterID])
	return &copied
}

func (s *memoryStore) item(id int) *models.ChecklistItem {
	for _, master := range s.masters {
		for i := range master.Items {
			if master.Items[i].ID == id {
				item := master.Items[i]
				return &item
			}
		}
	}
	return nil
}

func (s *memoryStore) copySubmission(submission *models.ChecklistSubmission) *models.ChecklistSubmission {
	copied := *submission
	copied.Details = nil
	for _, detail := range s.details {
		if detail.SubmissionID == submission.ID {
			d := *detail
			d.Item = s.item(d.ItemID)
			copied.Details = append(copied.Details, d)
		}
	}
	sort.SliceStable(copied.Details, func(i, j int) bool {
		a, b := copied.Details[i], copied.Details[j]
		if a.Item != nil && b.Item != nil && a.Item.Position != b.Item.Position {
			return a.Item.Position < b.Item.Position
		}
		return a.ID < b.ID
	})
	return &copied
}

type fakeTransactor struct {
	mu    sync.Mutex
	calls int
}

// Execute serializes transactions, standing in for the row locks the database
// holds until commit.
func (f *fakeTransactor) Execute(ctx context.Context, fn func(context.Context, *gorm.DB) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return fn(ctx, nil)
}

func (f *fakeTransactor) DB(ctx context.Context) *gorm.DB {
	return nil
}

type fakeUserRepo struct {
	store     *memoryStore
	upsertErr error
}

func (r *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id int) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmployeeID(ctx context.Context, tx *gorm.DB, employeeID string) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.users {
		if user.EmployeeID == employeeID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Upsert(ctx context.Context, tx *gorm.DB, user *models.User) (*models.User, error) {
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.users {
		if existing.EmployeeID == user.EmployeeID {
			existing.Name = user.Name
			existing.Email = user.Email
			existing.IsPlaceholder = user.IsPlaceholder
			copied := *existing
			return &copied, nil
		}
	}
	created := *user
	created.ID = r.store.id()
	r.store.users[created.ID] = &created
	copied := created
	return &copied, nil
}

func (r *fakeUserRepo) FirstOrCreate(ctx context.Context, tx *gorm.DB, user *models.User) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.users {
		if existing.EmployeeID == user.EmployeeID {
			copied := *existing
			return &copied, nil
		}
	}
	created := *user
	created.ID = r.store.id()
	r.store.users[created.ID] = &created
	copied := created
	return &copied, nil
}

type fakeScheduleRepo struct {
	store *memoryStore
}

func (r *fakeScheduleRepo) List(ctx context.Context, tx *gorm.DB) ([]*models.ChecklistSchedule, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var schedules []*models.ChecklistSchedule
	for _, schedule := range r.store.schedules {
		schedules = append(schedules, r.store.copySchedule(schedule))
	}
	return schedules, nil
}

func (r *fakeScheduleRepo) GetByID(ctx context.Context, tx *gorm.DB, id int) (*models.ChecklistSchedule, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	schedule, ok := r.store.schedules[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.store.copySchedule(schedule), nil
}

func (r *fakeScheduleRepo) Create(ctx context.Context, tx *gorm.DB, schedule *models.ChecklistSchedule) error {
	created := r.store.addSchedule(*schedule)
	schedule.ID = created.ID
	return nil
}

func (r *fakeScheduleRepo) Update(ctx context.Context, tx *gorm.DB, schedule *models.ChecklistSchedule) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.schedules[schedule.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *schedule
	r.store.schedules[schedule.ID] = &copied
	return nil
}

func (r *fakeScheduleRepo) Delete(ctx context.Context, tx *gorm.DB, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.schedules[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.store.schedules, id)
	return nil
}

func (r *fakeScheduleRepo) ListEligible(ctx context.Context, tx *gorm.DB, date time.Time) ([]*models.ChecklistSchedule, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var eligible []*models.ChecklistSchedule
	for _, schedule := range r.store.schedules {
		master := r.store.masters[schedule.ChecklistMasterID]
		if !master.IsAvailable() {
			continue
		}
		if schedule.EndDate != nil && utils.FormatDate(*schedule.EndDate) < utils.FormatDate(date) {
			continue
		}
		eligible = append(eligible, r.store.copySchedule(schedule))
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].ID < eligible[j].ID })
	return eligible, nil
}

type fakeSubmissionRepo struct {
	store *memoryStore
}

func (r *fakeSubmissionRepo) find(scheduleID int, date time.Time) *models.ChecklistSubmission {
	for _, submission := range r.store.submissions {
		if submission.ChecklistScheduleID == scheduleID &&
			utils.FormatDate(submission.SubmissionDate) == utils.FormatDate(date) {
			return submission
		}
	}
	return nil
}

func (r *fakeSubmissionRepo) FindByScheduleDate(ctx context.Context, tx *gorm.DB, scheduleID int, date time.Time) (*models.ChecklistSubmission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	submission := r.find(scheduleID, date)
	if submission == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.store.copySubmission(submission), nil
}

func (r *fakeSubmissionRepo) InsertIfAbsent(ctx context.Context, tx *gorm.DB, submission *models.ChecklistSubmission) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.find(submission.ChecklistScheduleID, submission.SubmissionDate) != nil {
		return false, nil
	}
	stored := *submission
	stored.ID = r.store.id()
	r.store.submissions[stored.ID] = &stored
	submission.ID = stored.ID
	return true, nil
}

func (r *fakeSubmissionRepo) CreateDetails(ctx context.Context, tx *gorm.DB, details []models.ChecklistSubmissionDetail) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, detail := range details {
		duplicate := false
		for _, existing := range r.store.details {
			if existing.SubmissionID == detail.SubmissionID && existing.ItemID == detail.ItemID {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		stored := detail
		stored.ID = r.store.id()
		r.store.details[stored.ID] = &stored
	}
	return nil
}

func (r *fakeSubmissionRepo) GetByID(ctx context.Context, tx *gorm.DB, id int) (*models.ChecklistSubmission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	submission, ok := r.store.submissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.store.copySubmission(submission), nil
}

func (r *fakeSubmissionRepo) ListByDate(ctx context.Context, tx *gorm.DB, date time.Time) ([]*models.ChecklistSubmission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var submissions []*models.ChecklistSubmission
	for _, submission := range r.store.submissions {
		if utils.FormatDate(submission.SubmissionDate) == utils.FormatDate(date) {
			submissions = append(submissions, r.store.copySubmission(submission))
		}
	}
	return submissions, nil
}

func (r *fakeSubmissionRepo) ListForSchedulesOnDate(ctx context.Context, tx *gorm.DB, scheduleIDs []int, date time.Time) ([]*models.ChecklistSubmission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var submissions []*models.ChecklistSubmission
	for _, scheduleID := range scheduleIDs {
		if submission := r.find(scheduleID, date); submission != nil {
			submissions = append(submissions, r.store.copySubmission(submission))
		}
	}
	return submissions, nil
}

func (r *fakeSubmissionRepo) LockForUpdate(ctx context.Context, tx *gorm.DB, id int) (*models.ChecklistSubmission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	submission, ok := r.store.submissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *submission
	return &copied, nil
}

func (r *fakeSubmissionRepo) GetDetail(ctx context.Context, tx *gorm.DB, detailID int) (*models.ChecklistSubmissionDetail, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	detail, ok := r.store.details[detailID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *detail
	copied.Item = r.store.item(detail.ItemID)
	if submission, ok := r.store.submissions[detail.SubmissionID]; ok {
		sub := *submission
		if schedule, ok := r.store.schedules[submission.ChecklistScheduleID]; ok {
			sub.Schedule = r.store.copySchedule(schedule)
		}
		copied.Submission = &sub
	}
	return &copied, nil
}

func (r *fakeSubmissionRepo) UpdateDetail(ctx context.Context, tx *gorm.DB, detail *models.ChecklistSubmissionDetail) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.details[detail.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.IsChecked = detail.IsChecked
	stored.Notes = detail.Notes
	return nil
}

func (r *fakeSubmissionRepo) CountDetails(ctx context.Context, tx *gorm.DB, submissionID int) (int, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	checked, total := 0, 0
	for _, detail := range r.store.details {
		if detail.SubmissionID != submissionID {
			continue
		}
		total++
		if detail.IsChecked {
			checked++
		}
	}
	return checked, total, nil
}

func (r *fakeSubmissionRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, submissionID int, status models.SubmissionStatus, submittedBy *int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	submission, ok := r.store.submissions[submissionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	submission.Status = status
	submission.SubmittedBy = submittedBy
	return nil
}

type fakeLogRepo struct {
	store     *memoryStore
	createErr error
}

func (r *fakeLogRepo) Create(ctx context.Context, tx *gorm.DB, entry *models.ChecklistLog) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entry.ID = r.store.id()
	r.store.logs = append(r.store.logs, *entry)
	return nil
}

func (r *fakeLogRepo) ListByMaster(ctx context.Context, tx *gorm.DB, masterID int, activity models.AuditActivity) ([]models.ChecklistLog, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var entries []models.ChecklistLog
	for i := len(r.store.logs) - 1; i >= 0; i-- {
		entry := r.store.logs[i]
		if entry.ChecklistMasterID == masterID && (activity == "" || entry.Activity == activity) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []models.ChecklistLog
}

func (f *fakeAudit) Record(ctx context.Context, entries ...models.ChecklistLog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entries...)
}

func (f *fakeAudit) byActivity(activity models.AuditActivity) []models.ChecklistLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.ChecklistLog
	for _, entry := range f.entries {
		if entry.Activity == activity {
			matched = append(matched, entry)
		}
	}
	return matched
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (f *fakePublisher) Publish(channel events.Channel, event events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	event.Channel = channel
	f.events = append(f.events, event)
	return nil
}

type providerFunc func(ctx context.Context, employeeID string) (EmployeeRecord, error)

func (f providerFunc) Lookup(ctx context.Context, employeeID string) (EmployeeRecord, error) {
	return f(ctx, employeeID)
}

var errDirectoryDown = errors.New("directory unavailable")

func directoryDown() IdentityProvider {
	return providerFunc(func(ctx context.Context, employeeID string) (EmployeeRecord, error) {
		return EmployeeRecord{}, errDirectoryDown
	})
}

func directoryWith(records map[string]EmployeeRecord) IdentityProvider {
	return providerFunc(func(ctx context.Context, employeeID string) (EmployeeRecord, error) {
		record, ok := records[employeeID]
		if !ok {
			return EmployeeRecord{}, errors.New("employee not found")
		}
		return record, nil
	})
}
