package service

import (
	"context"
	"errors"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/supermock-admin/internal/errs"
	"github.com/and161185/supermock-admin/internal/model"
	"github.com/and161185/supermock-admin/internal/repository"
)

// journal records remote side effects in call order.
type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	j.calls = append(j.calls, s)
	j.mu.Unlock()
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

type fakeAuthAdmin struct {
	j       *journal
	byEmail map[string]model.AuthUser

	createErr error
	deleteErr error
	deleted   []uuid.UUID
}

var _ repository.AuthAdmin = (*fakeAuthAdmin)(nil)

func (f *fakeAuthAdmin) CreateUser(_ context.Context, u model.NewAuthUser) (model.AuthUser, error) {
	f.j.add("create_user")
	if f.createErr != nil {
		return model.AuthUser{}, f.createErr
	}
	if f.byEmail == nil {
		f.byEmail = map[string]model.AuthUser{}
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return model.AuthUser{}, errs.ErrAlreadyExists
	}
	au := model.AuthUser{ID: uuid.Must(uuid.NewV4()), Email: u.Email}
	f.byEmail[u.Email] = au
	return au, nil
}

func (f *fakeAuthAdmin) DeleteUser(_ context.Context, id uuid.UUID) error {
	f.j.add("delete_user")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	for k, u := range f.byEmail {
		if u.ID == id {
			delete(f.byEmail, k)
		}
	}
	return nil
}

type fakeProfiles struct {
	j       *journal
	byEmail map[string]model.Profile
	orphans map[string]model.AuthUser

	findErr   error
	upsertErr error
	orphanErr error
	deleted   []uuid.UUID
}

var _ repository.ProfileRepository = (*fakeProfiles)(nil)

func (f *fakeProfiles) FindByEmail(_ context.Context, email string) (*model.Profile, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	p, ok := f.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProfiles) Upsert(_ context.Context, p model.Profile) (bool, error) {
	f.j.add("upsert_profile")
	if f.upsertErr != nil {
		return false, f.upsertErr
	}
	if f.byEmail == nil {
		f.byEmail = map[string]model.Profile{}
	}
	for _, existing := range f.byEmail {
		if existing.ID == p.ID {
			return false, nil
		}
	}
	f.byEmail[p.Email] = p
	return true, nil
}

func (f *fakeProfiles) Delete(_ context.Context, id uuid.UUID) error {
	f.j.add("delete_profile")
	f.deleted = append(f.deleted, id)
	for k, p := range f.byEmail {
		if p.ID == id {
			delete(f.byEmail, k)
		}
	}
	return nil
}

func (f *fakeProfiles) AuthUserByEmail(_ context.Context, email string) (*model.AuthUser, error) {
	if f.orphanErr != nil {
		return nil, f.orphanErr
	}
	u, ok := f.orphans[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &u, nil
}

type fakeCenters struct {
	j       *journal
	owners  map[uuid.UUID]uuid.UUID
	members map[uuid.UUID]map[uuid.UUID]bool

	ownerErr  error
	memberErr error
	createErr error
}

var _ repository.CenterRepository = (*fakeCenters)(nil)

func (f *fakeCenters) IsOwner(_ context.Context, centerID, userID uuid.UUID) (bool, error) {
	if f.ownerErr != nil {
		return false, f.ownerErr
	}
	return f.owners[centerID] == userID, nil
}

func (f *fakeCenters) IsMember(_ context.Context, centerID, userID uuid.UUID) (bool, error) {
	if f.memberErr != nil {
		return false, f.memberErr
	}
	return f.members[centerID][userID], nil
}

func (f *fakeCenters) CreateMembership(_ context.Context, m model.Membership) (model.Membership, error) {
	f.j.add("create_membership")
	if f.createErr != nil {
		return model.Membership{}, f.createErr
	}
	if f.members == nil {
		f.members = map[uuid.UUID]map[uuid.UUID]bool{}
	}
	if f.members[m.CenterID] == nil {
		f.members[m.CenterID] = map[uuid.UUID]bool{}
	}
	if f.members[m.CenterID][m.UserID] {
		return model.Membership{}, errs.ErrAlreadyExists
	}
	f.members[m.CenterID][m.UserID] = true
	m.ID = uuid.Must(uuid.NewV4())
	return m, nil
}

type fakeStudents struct {
	j         *journal
	createErr error
	created   []model.StudentProfile
}

var _ repository.StudentRepository = (*fakeStudents)(nil)

func (f *fakeStudents) Create(_ context.Context, s model.StudentProfile) (model.StudentProfile, error) {
	f.j.add("create_student")
	if f.createErr != nil {
		return model.StudentProfile{}, f.createErr
	}
	s.ID = uuid.Must(uuid.NewV4())
	f.created = append(f.created, s)
	return s, nil
}

type fakeReviews struct {
	reviews []model.RawAttemptReview
	preview *model.RawAttemptDetail
	grading *model.RawGradingData
	save    model.SaveGradesResult
	join    model.JoinResult
	err     error

	savedAnswers  []model.GradeAnswer
	savedFeedback *string
	saveCalls     int
	joinHash      string
	// onSave runs inside SaveGrades before it returns.
	onSave func()
}

var _ repository.ReviewRepository = (*fakeReviews)(nil)

var errUpstream = errors.New("upstream down")

func (f *fakeReviews) CenterReviews(context.Context, model.Principal, uuid.UUID) ([]model.RawAttemptReview, error) {
	return f.reviews, f.err
}

func (f *fakeReviews) AttemptPreview(context.Context, model.Principal, uuid.UUID) (*model.RawAttemptDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.preview == nil {
		return nil, errs.ErrNotFound
	}
	return f.preview, nil
}

func (f *fakeReviews) GradingData(context.Context, model.Principal, uuid.UUID) (*model.RawGradingData, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.grading == nil {
		return nil, errs.ErrNotFound
	}
	return f.grading, nil
}

func (f *fakeReviews) SaveGrades(_ context.Context, _ model.Principal, _ uuid.UUID, answers []model.GradeAnswer, feedback *string) (model.SaveGradesResult, error) {
	f.saveCalls++
	f.savedAnswers = answers
	f.savedFeedback = feedback
	if f.onSave != nil {
		f.onSave()
	}
	return f.save, f.err
}

func (f *fakeReviews) JoinCenter(_ context.Context, _ model.Principal, hash string) (model.JoinResult, error) {
	f.joinHash = hash
	return f.join, f.err
}
