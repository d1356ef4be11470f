package services

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

// fakeRepo is an in-memory Repository. WithTransaction runs fn against the
// same store under one lock, which is enough to exercise the service flows.
type fakeRepo struct {
	mu sync.Mutex

	accounts      map[string]*models.Account
	forbidden     map[string]bool
	courses       map[string]*models.Course
	enrollments   map[uint]*models.Enrollment
	certificates  map[string]*models.Certificate
	conversations map[string]*models.Conversation
	participants  map[string]map[string]int
	messages      []*models.Message
	feedback      map[uint]*models.Feedback
	contacts      map[uint]*models.ContactMessage
	notifications map[string]*models.Notification
	reads         map[string]map[string]bool

	nextID uint

	// failIdentity makes SetForbidden fail
	failIdentity error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		accounts:      map[string]*models.Account{},
		forbidden:     map[string]bool{},
		courses:       map[string]*models.Course{},
		enrollments:   map[uint]*models.Enrollment{},
		certificates:  map[string]*models.Certificate{},
		conversations: map[string]*models.Conversation{},
		participants:  map[string]map[string]int{},
		feedback:      map[uint]*models.Feedback{},
		contacts:      map[uint]*models.ContactMessage{},
		notifications: map[string]*models.Notification{},
		reads:         map[string]map[string]bool{},
	}
}

func (r *fakeRepo) id() uint {
	r.nextID++
	return r.nextID
}

func (r *fakeRepo) Account() repositories.AccountRepository           { return fakeAccounts{r} }
func (r *fakeRepo) Identity() repositories.IdentityRepository         { return fakeIdentity{r} }
func (r *fakeRepo) Course() repositories.CourseRepository             { return fakeCourses{r} }
func (r *fakeRepo) Enrollment() repositories.EnrollmentRepository     { return fakeEnrollments{r} }
func (r *fakeRepo) Certificate() repositories.CertificateRepository   { return fakeCertificates{r} }
func (r *fakeRepo) Conversation() repositories.ConversationRepository { return fakeConversations{r} }
func (r *fakeRepo) Message() repositories.MessageRepository           { return fakeMessages{r} }
func (r *fakeRepo) Feedback() repositories.FeedbackRepository         { return fakeFeedback{r} }
func (r *fakeRepo) ContactMessage() repositories.ContactMessageRepository {
	return fakeContacts{r}
}
func (r *fakeRepo) Notification() repositories.NotificationRepository {
	return fakeNotifications{r}
}
func (r *fakeRepo) Dashboard() repositories.DashboardRepository { return fakeDashboard{r} }

func (r *fakeRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

func (r *fakeRepo) Ping(ctx context.Context) error { return nil }
func (r *fakeRepo) Close() error                   { return nil }

func page[T any](items []T, limit, offset int) []T {
	if offset > len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func clone[T any](v *T) *T {
	c := *v
	return &c
}

// ===== ACCOUNTS =====

type fakeAccounts struct{ r *fakeRepo }

func (f fakeAccounts) Create(ctx context.Context, a *models.Account) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	if _, ok := f.r.accounts[a.ID]; ok {
		return repositories.ErrDuplicate
	}
	a.CreatedAt = time.Now().UTC()
	f.r.accounts[a.ID] = clone(a)
	return nil
}

func (f fakeAccounts) GetByID(ctx context.Context, id string) (*models.Account, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	a, ok := f.r.accounts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clone(a), nil
}

func (f fakeAccounts) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, a := range f.r.accounts {
		if strings.EqualFold(a.Email, email) {
			return clone(a), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeAccounts) GetByIDs(ctx context.Context, ids []string) ([]*models.Account, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	out := []*models.Account{}
	for _, id := range ids {
		if a, ok := f.r.accounts[id]; ok {
			out = append(out, clone(a))
		}
	}
	return out, nil
}

func (f fakeAccounts) Update(ctx context.Context, a *models.Account) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	stored, ok := f.r.accounts[a.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.DisplayName, stored.Bio, stored.Phone = a.DisplayName, a.Bio, a.Phone
	stored.AvatarURL, stored.Preferences = a.AvatarURL, a.Preferences
	return nil
}

func (f fakeAccounts) SetDisabled(ctx context.Context, id string, disabled bool) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	a, ok := f.r.accounts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	a.Disabled = disabled
	return nil
}

func (f fakeAccounts) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return nil
}

func (f fakeAccounts) List(ctx context.Context, filters repositories.AccountFilters) ([]*models.Account, int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.Account
	for _, a := range f.r.accounts {
		if filters.Role != nil && a.Role != *filters.Role {
			continue
		}
		if filters.Disabled != nil && a.Disabled != *filters.Disabled {
			continue
		}
		if q := strings.ToLower(filters.Query); q != "" &&
			!strings.Contains(strings.ToLower(a.Email), q) && !strings.Contains(strings.ToLower(a.DisplayName), q) {
			continue
		}
		out = append(out, clone(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (f fakeAccounts) CountByRole(ctx context.Context) (map[models.UserRole]int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	out := map[models.UserRole]int64{}
	for _, a := range f.r.accounts {
		out[a.Role]++
	}
	return out, nil
}

type fakeIdentity struct{ r *fakeRepo }

func (f fakeIdentity) ParseToken(token string) (*models.Identity, error) {
	return nil, errors.New("not supported")
}

func (f fakeIdentity) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	return &models.Identity{ID: id}, nil
}

func (f fakeIdentity) SetForbidden(ctx context.Context, id string, forbidden bool) error {
	if f.r.failIdentity != nil {
		return f.r.failIdentity
	}
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	f.r.forbidden[id] = forbidden
	return nil
}

// ===== COURSES =====

type fakeCourses struct{ r *fakeRepo }

func (f fakeCourses) Create(ctx context.Context, c *models.Course) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.AssignIDs()
	c.CreatedAt = time.Now().UTC()
	f.r.courses[c.ID] = clone(c)
	return nil
}

func (f fakeCourses) GetByID(ctx context.Context, id string) (*models.Course, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	c, ok := f.r.courses[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clone(c), nil
}

func (f fakeCourses) GetByIDs(ctx context.Context, ids []string) ([]*models.Course, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.Course
	for _, id := range ids {
		if c, ok := f.r.courses[id]; ok {
			out = append(out, clone(c))
		}
	}
	return out, nil
}

func (f fakeCourses) Update(ctx context.Context, c *models.Course) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	if _, ok := f.r.courses[c.ID]; !ok {
		return repositories.ErrNotFound
	}
	c.AssignIDs()
	f.r.courses[c.ID] = clone(c)
	return nil
}

func (f fakeCourses) UpdateStatus(ctx context.Context, id string, status models.CourseStatus) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	c, ok := f.r.courses[id]
	if !ok {
		return repositories.ErrNotFound
	}
	c.Status = status
	return nil
}

func (f fakeCourses) Delete(ctx context.Context, id string) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	if _, ok := f.r.courses[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.r.courses, id)
	return nil
}

func (f fakeCourses) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.Course
	for _, c := range f.r.courses {
		if filters.Status != nil && c.Status != *filters.Status {
			continue
		}
		if filters.InstructorID != nil && c.InstructorID != *filters.InstructorID {
			continue
		}
		if filters.Category != "" && c.Category != filters.Category {
			continue
		}
		if q := strings.ToLower(filters.Query); q != "" && !strings.Contains(strings.ToLower(c.Title), q) {
			continue
		}
		out = append(out, clone(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (f fakeCourses) Categories(ctx context.Context) ([]string, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []string
	for _, c := range f.r.courses {
		if c.Category != "" && !slices.Contains(out, c.Category) {
			out = append(out, c.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f fakeCourses) CountByStatus(ctx context.Context) (map[models.CourseStatus]int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	out := map[models.CourseStatus]int64{}
	for _, c := range f.r.courses {
		out[c.Status]++
	}
	return out, nil
}

// ===== ENROLLMENTS =====

type fakeEnrollments struct{ r *fakeRepo }

func (f fakeEnrollments) find(accountID, courseID string) *models.Enrollment {
	for _, e := range f.r.enrollments {
		if e.AccountID == accountID && e.CourseID == courseID {
			return e
		}
	}
	return nil
}

func (f fakeEnrollments) Create(ctx context.Context, e *models.Enrollment) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	if f.find(e.AccountID, e.CourseID) != nil {
		return repositories.ErrDuplicate
	}
	e.ID = f.r.id()
	f.r.enrollments[e.ID] = clone(e)
	return nil
}

func (f fakeEnrollments) Get(ctx context.Context, accountID, courseID string) (*models.Enrollment, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	e := f.find(accountID, courseID)
	if e == nil {
		return nil, repositories.ErrNotFound
	}
	c := clone(e)
	c.CompletedVideos = slices.Clone(e.CompletedVideos)
	return c, nil
}

func (f fakeEnrollments) GetForUpdate(ctx context.Context, accountID, courseID string) (*models.Enrollment, error) {
	return f.Get(ctx, accountID, courseID)
}

func (f fakeEnrollments) AddCompletedVideo(ctx context.Context, id uint, videoID string) ([]string, bool, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	e, ok := f.r.enrollments[id]
	if !ok {
		return nil, false, repositories.ErrNotFound
	}
	if slices.Contains(e.CompletedVideos, videoID) {
		return slices.Clone(e.CompletedVideos), false, nil
	}
	e.CompletedVideos = append(e.CompletedVideos, videoID)
	return slices.Clone(e.CompletedVideos), true, nil
}

func (f fakeEnrollments) UpdateProgress(ctx context.Context, id uint, progress int) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	e, ok := f.r.enrollments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	e.Progress = progress
	return nil
}

func (f fakeEnrollments) MarkCompleted(ctx context.Context, id uint, certificateID *string, at time.Time) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	e, ok := f.r.enrollments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	e.Completed = true
	if e.CompletedAt == nil {
		e.CompletedAt = &at
	}
	if e.CertificateID == nil {
		e.CertificateID = certificateID
	}
	return nil
}

func (f fakeEnrollments) TouchLastAccessed(ctx context.Context, id uint, at time.Time) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	e, ok := f.r.enrollments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	e.LastAccessedAt = &at
	return nil
}

func (f fakeEnrollments) ListByAccount(ctx context.Context, accountID string) ([]*models.Enrollment, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.Enrollment
	for _, e := range f.r.enrollments {
		if e.AccountID == accountID {
			c := clone(e)
			if course, ok := f.r.courses[e.CourseID]; ok {
				c.Course = clone(course)
			}
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeEnrollments) ListByCourse(ctx context.Context, courseID string, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.Enrollment
	for _, e := range f.r.enrollments {
		if e.CourseID != courseID {
			continue
		}
		if filters.Completed != nil && e.Completed != *filters.Completed {
			continue
		}
		out = append(out, clone(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (f fakeEnrollments) CountByCourses(ctx context.Context, courseIDs []string) (map[string]int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	out := map[string]int64{}
	for _, e := range f.r.enrollments {
		if slices.Contains(courseIDs, e.CourseID) {
			out[e.CourseID]++
		}
	}
	return out, nil
}

// ===== CERTIFICATES =====

type fakeCertificates struct{ r *fakeRepo }

func (f fakeCertificates) Create(ctx context.Context, c *models.Certificate) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, existing := range f.r.certificates {
		if existing.UserID == c.UserID && existing.CourseID == c.CourseID {
			return repositories.ErrDuplicate
		}
	}
	if _, ok := f.r.certificates[c.ID]; ok {
		return repositories.ErrDuplicate
	}
	f.r.certificates[c.ID] = clone(c)
	return nil
}

func (f fakeCertificates) GetByID(ctx context.Context, id string) (*models.Certificate, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	c, ok := f.r.certificates[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clone(c), nil
}

func (f fakeCertificates) GetByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Certificate, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, c := range f.r.certificates {
		if c.UserID == userID && c.CourseID == courseID {
			return clone(c), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeCertificates) ListByUser(ctx context.Context, userID string) ([]*models.Certificate, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.Certificate
	for _, c := range f.r.certificates {
		if c.UserID == userID {
			out = append(out, clone(c))
		}
	}
	return out, nil
}

func (f fakeCertificates) CountByCourses(ctx context.Context, courseIDs []string) (int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var n int64
	for _, c := range f.r.certificates {
		if courseIDs == nil || slices.Contains(courseIDs, c.CourseID) {
			n++
		}
	}
	return n, nil
}

// ===== MESSAGING =====

type fakeConversations struct{ r *fakeRepo }

func (f fakeConversations) Upsert(ctx context.Context, c *models.Conversation) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	if existing, ok := f.r.conversations[c.ID]; ok {
		existing.LastMessage = c.LastMessage
		existing.LastMessageAt = c.LastMessageAt
		existing.LastMessageSenderID = c.LastMessageSenderID
		return nil
	}
	f.r.conversations[c.ID] = clone(c)
	return nil
}

func (f fakeConversations) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	c, ok := f.r.conversations[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clone(c), nil
}

func (f fakeConversations) ListByParticipant(ctx context.Context, accountID string) ([]*repositories.ConversationSummary, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*repositories.ConversationSummary
	for id, counts := range f.r.participants {
		unread, ok := counts[accountID]
		if !ok {
			continue
		}
		out = append(out, &repositories.ConversationSummary{Conversation: *f.r.conversations[id], UnreadCount: unread})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].LastMessageAt, out[j].LastMessageAt
		return a != nil && (b == nil || a.After(*b))
	})
	return out, nil
}

func (f fakeConversations) EnsureParticipants(ctx context.Context, conversationID string, accountIDs []string) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	counts, ok := f.r.participants[conversationID]
	if !ok {
		counts = map[string]int{}
		f.r.participants[conversationID] = counts
	}
	for _, id := range accountIDs {
		if _, ok := counts[id]; !ok {
			counts[id] = 0
		}
	}
	return nil
}

func (f fakeConversations) IncrementUnread(ctx context.Context, conversationID, accountID string) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	counts, ok := f.r.participants[conversationID]
	if !ok {
		return repositories.ErrNotFound
	}
	counts[accountID]++
	return nil
}

func (f fakeConversations) ResetUnread(ctx context.Context, conversationID, accountID string) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	if counts, ok := f.r.participants[conversationID]; ok {
		counts[accountID] = 0
	}
	return nil
}

func (f fakeConversations) UnreadTotal(ctx context.Context, accountID string) (int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var n int64
	for _, counts := range f.r.participants {
		n += int64(counts[accountID])
	}
	return n, nil
}

type fakeMessages struct{ r *fakeRepo }

func (f fakeMessages) Create(ctx context.Context, m *models.Message) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	m.ID = f.r.id()
	f.r.messages = append(f.r.messages, clone(m))
	return nil
}

func (f fakeMessages) ListByConversation(ctx context.Context, conversationID string, since *time.Time, limit int) ([]*models.Message, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.Message
	for _, m := range f.r.messages {
		if m.ConversationID == conversationID && (since == nil || m.CreatedAt.After(*since)) {
			out = append(out, clone(m))
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f fakeMessages) MarkReadFrom(ctx context.Context, conversationID, senderID string) (int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var n int64
	for _, m := range f.r.messages {
		if m.ConversationID == conversationID && m.SenderID == senderID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (f fakeMessages) CountSince(ctx context.Context, since time.Time) (int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var n int64
	for _, m := range f.r.messages {
		if !m.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// ===== ADMIN PANELS =====

type fakeFeedback struct{ r *fakeRepo }

func (f fakeFeedback) Create(ctx context.Context, fb *models.Feedback) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	fb.ID = f.r.id()
	fb.CreatedAt = time.Now().UTC()
	f.r.feedback[fb.ID] = clone(fb)
	return nil
}

func (f fakeFeedback) GetByID(ctx context.Context, id uint) (*models.Feedback, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	fb, ok := f.r.feedback[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clone(fb), nil
}

func (f fakeFeedback) List(ctx context.Context, filters repositories.FeedbackFilters) ([]*models.Feedback, int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.Feedback
	for _, fb := range f.r.feedback {
		if filters.Status != nil && fb.Status != *filters.Status {
			continue
		}
		if fb.Rating < filters.MinRating {
			continue
		}
		out = append(out, clone(fb))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (f fakeFeedback) UpdateStatus(ctx context.Context, id uint, status models.FeedbackStatus) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	fb, ok := f.r.feedback[id]
	if !ok {
		return repositories.ErrNotFound
	}
	fb.Status = status
	return nil
}

func (f fakeFeedback) TransitionStatus(ctx context.Context, id uint, from, to models.FeedbackStatus) (bool, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	fb, ok := f.r.feedback[id]
	if !ok || fb.Status != from {
		return false, nil
	}
	fb.Status = to
	return true, nil
}

func (f fakeFeedback) CountByStatus(ctx context.Context, status models.FeedbackStatus) (int64, error) {
	items, _, _ := f.List(ctx, repositories.FeedbackFilters{Status: &status})
	return int64(len(items)), nil
}

type fakeContacts struct{ r *fakeRepo }

func (f fakeContacts) Create(ctx context.Context, m *models.ContactMessage) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	m.ID = f.r.id()
	m.CreatedAt = time.Now().UTC()
	f.r.contacts[m.ID] = clone(m)
	return nil
}

func (f fakeContacts) GetByID(ctx context.Context, id uint) (*models.ContactMessage, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	m, ok := f.r.contacts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clone(m), nil
}

func (f fakeContacts) List(ctx context.Context, filters repositories.ContactMessageFilters) ([]*models.ContactMessage, int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.ContactMessage
	for _, m := range f.r.contacts {
		if filters.Status != nil && m.Status != *filters.Status {
			continue
		}
		out = append(out, clone(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (f fakeContacts) UpdateStatus(ctx context.Context, id uint, status models.ContactStatus) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	m, ok := f.r.contacts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	m.Status = status
	return nil
}

func (f fakeContacts) TransitionStatus(ctx context.Context, id uint, from, to models.ContactStatus) (bool, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	m, ok := f.r.contacts[id]
	if !ok || m.Status != from {
		return false, nil
	}
	m.Status = to
	return true, nil
}

func (f fakeContacts) SaveReply(ctx context.Context, id uint, reply, respondedBy string, at time.Time) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	m, ok := f.r.contacts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	m.Reply, m.RespondedBy, m.RespondedAt = &reply, &respondedBy, &at
	m.Status = models.ContactResponded
	return nil
}

func (f fakeContacts) CountByStatus(ctx context.Context, status models.ContactStatus) (int64, error) {
	items, _, _ := f.List(ctx, repositories.ContactMessageFilters{Status: &status})
	return int64(len(items)), nil
}

type fakeNotifications struct{ r *fakeRepo }

func (f fakeNotifications) Create(ctx context.Context, n *models.Notification) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	n.CreatedAt = time.Now().UTC()
	f.r.notifications[n.ID] = clone(n)
	return nil
}

func (f fakeNotifications) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	n, ok := f.r.notifications[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clone(n), nil
}

func (f fakeNotifications) List(ctx context.Context, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var out []*models.Notification
	for _, n := range f.r.notifications {
		if filters.Status != nil && n.Status != *filters.Status {
			continue
		}
		if filters.Audiences != nil && !slices.Contains(filters.Audiences, n.Audience) {
			continue
		}
		out = append(out, clone(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (f fakeNotifications) UpdateStatus(ctx context.Context, id string, status models.NotificationStatus) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	n, ok := f.r.notifications[id]
	if !ok {
		return repositories.ErrNotFound
	}
	n.Status = status
	return nil
}

func (f fakeNotifications) Delete(ctx context.Context, id string) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	if _, ok := f.r.notifications[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.r.notifications, id)
	delete(f.r.reads, id)
	return nil
}

func (f fakeNotifications) MarkRead(ctx context.Context, notificationID, accountID string, at time.Time) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	if f.r.reads[notificationID] == nil {
		f.r.reads[notificationID] = map[string]bool{}
	}
	f.r.reads[notificationID][accountID] = true
	return nil
}

func (f fakeNotifications) ReadIDs(ctx context.Context, accountID string, notificationIDs []string) (map[string]bool, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	out := map[string]bool{}
	for _, id := range notificationIDs {
		if f.r.reads[id][accountID] {
			out[id] = true
		}
	}
	return out, nil
}

type fakeDashboard struct{ r *fakeRepo }

func (f fakeDashboard) GetAdminStats(ctx context.Context) (*repositories.AdminStatsData, error) {
	roles, _ := fakeAccounts(f).CountByRole(ctx)
	statuses, _ := fakeCourses(f).CountByStatus(ctx)
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	return &repositories.AdminStatsData{
		Students:         roles[models.RoleStudent],
		Instructors:      roles[models.RoleInstructor],
		Admins:           roles[models.RoleAdmin],
		DraftCourses:     statuses[models.CourseDraft],
		PublishedCourses: statuses[models.CoursePublished],
		Enrollments:      int64(len(f.r.enrollments)),
		Certificates:     int64(len(f.r.certificates)),
	}, nil
}

func (f fakeDashboard) GetInstructorStats(ctx context.Context, instructorID string) (*repositories.InstructorStatsData, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	stats := &repositories.InstructorStatsData{}
	for _, c := range f.r.courses {
		if c.InstructorID != instructorID {
			continue
		}
		stats.Courses++
		if c.Status == models.CoursePublished {
			stats.PublishedCourses++
		}
		for _, e := range f.r.enrollments {
			if e.CourseID == c.ID {
				stats.Enrollments++
				if e.Completed {
					stats.Completions++
				}
			}
		}
	}
	return stats, nil
}

func (f fakeDashboard) GetEnrollmentTrend(ctx context.Context, courseIDs []string, days int) ([]repositories.EnrollmentTrendData, error) {
	return make([]repositories.EnrollmentTrendData, days), nil
}
