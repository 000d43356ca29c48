// Package service contains application services for provisioning and review.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/supermock-admin/internal/errs"
	"github.com/and161185/supermock-admin/internal/metrics"
	"github.com/and161185/supermock-admin/internal/model"
	"github.com/and161185/supermock-admin/internal/repository"
	"github.com/and161185/supermock-admin/internal/saga"
)

// Conflict messages shown to the caller.
const (
	msgAlreadyMember   = "User is already a member of this center"
	msgCannotLink      = "An account with this email already exists but could not be linked"
	msgUnverifiedEmail = "An account with this email already exists but its email is not verified"
	msgEmailRegistered = "A user with this email is already registered"
	msgAlreadyEnrolled = "Student is already enrolled"
)

// ProvisioningOptions tunes both provisioning workflows.
type ProvisioningOptions struct {
	// Timeout bounds a whole workflow; zero means no extra bound.
	Timeout time.Duration
	// RollbackTimeout bounds compensations, which run even after the request is cancelled.
	RollbackTimeout time.Duration
	// LinkUnconfirmedOrphans allows linking an auth identity whose email was never verified.
	LinkUnconfirmedOrphans bool
	Metrics                *metrics.Metrics
}

// MemberProvisioner adds staff to a center.
type MemberProvisioner interface {
	// Provision creates or links the identity for req and adds it to req.CenterID.
	Provision(ctx context.Context, p model.Principal, req model.MemberRequest) (model.Membership, error)
}

// StudentProvisioner enrolls students in a center.
type StudentProvisioner interface {
	// Provision creates a fresh identity and student profile for req.
	Provision(ctx context.Context, p model.Principal, req model.StudentRequest) (model.StudentProfile, error)
}

// MemberService implements MemberProvisioner.
type MemberService struct {
	auth     repository.AuthAdmin
	profiles repository.ProfileRepository
	centers  repository.CenterRepository
	log      *zap.Logger
	opts     ProvisioningOptions
}

// NewMemberService constructs MemberService with required dependencies.
func NewMemberService(
	auth repository.AuthAdmin, profiles repository.ProfileRepository, centers repository.CenterRepository,
	log *zap.Logger, opts ProvisioningOptions,
) *MemberService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemberService{auth: auth, profiles: profiles, centers: centers, log: log, opts: opts}
}

// Provision runs the member workflow. Identities and profiles created here are removed if a later step fails.
func (s *MemberService) Provision(ctx context.Context, p model.Principal, req model.MemberRequest) (m model.Membership, err error) {
	defer func() { s.opts.Metrics.ObserveProvisioning("member", err) }()
	ctx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()

	owner, err := s.centers.IsOwner(ctx, req.CenterID, p.ID)
	if err != nil {
		return model.Membership{}, fmt.Errorf("check center owner: %w", err)
	}
	if !owner {
		return model.Membership{}, errs.ErrForbidden
	}

	sg := newSaga("member", s.log, s.opts)

	id, err := s.resolveIdentity(ctx, req)
	if err != nil {
		return model.Membership{}, err
	}
	log := s.log.With(zap.Stringer("user_id", id.UserID), zap.Stringer("identity", id.Kind))
	if id.Created() {
		sg.Completed("delete_auth_user", func(ctx context.Context) error { return s.auth.DeleteUser(ctx, id.UserID) })
	}

	if id.NeedsProfile() {
		created, err := s.profiles.Upsert(ctx, model.Profile{ID: id.UserID, Email: req.Email, FullName: req.FullName})
		if err != nil {
			return model.Membership{}, sg.Abort(ctx, fmt.Errorf("create profile: %w", err))
		}
		// a linked orphan keeps its auth identity but not a profile row made here
		if created {
			sg.Completed("delete_profile", func(ctx context.Context) error { return s.profiles.Delete(ctx, id.UserID) })
		}
	}

	member, err := s.centers.IsMember(ctx, req.CenterID, id.UserID)
	if err != nil {
		return model.Membership{}, sg.Abort(ctx, fmt.Errorf("check membership: %w", err))
	}
	if member {
		return model.Membership{}, sg.Abort(ctx, errs.Conflict(msgAlreadyMember))
	}

	m, err = s.centers.CreateMembership(ctx, model.Membership{CenterID: req.CenterID, UserID: id.UserID, Role: req.Role})
	if err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			err = errs.Conflict(msgAlreadyMember)
		} else {
			err = fmt.Errorf("create membership: %w", err)
		}
		return model.Membership{}, sg.Abort(ctx, err)
	}

	log.Info("member provisioned", zap.Stringer("center_id", req.CenterID), zap.String("role", string(req.Role)))
	return m, nil
}

// resolveIdentity maps req.Email to a user id, creating an auth identity only when none exists.
func (s *MemberService) resolveIdentity(ctx context.Context, req model.MemberRequest) (model.IdentityOutcome, error) {
	prof, err := s.profiles.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return model.IdentityOutcome{Kind: model.IdentityExistingProfile, UserID: prof.ID}, nil
	case !errors.Is(err, errs.ErrNotFound):
		return model.IdentityOutcome{}, fmt.Errorf("lookup profile: %w", err)
	}

	u, err := s.auth.CreateUser(ctx, model.NewAuthUser{
		Email:    req.Email,
		Password: req.Password,
		Metadata: map[string]any{"full_name": req.FullName},
	})
	if err == nil {
		return model.IdentityOutcome{Kind: model.IdentityFresh, UserID: u.ID}, nil
	}
	if !errors.Is(err, errs.ErrAlreadyExists) {
		return model.IdentityOutcome{}, fmt.Errorf("create auth user: %w", err)
	}

	orphan, err := s.profiles.AuthUserByEmail(ctx, req.Email)
	if err != nil {
		s.log.Warn("orphan identity lookup failed", zap.Error(err))
		return model.IdentityOutcome{}, errs.Conflict(msgCannotLink)
	}
	if !orphan.Confirmed() && !s.opts.LinkUnconfirmedOrphans {
		return model.IdentityOutcome{}, errs.Conflict(msgUnverifiedEmail)
	}
	return model.IdentityOutcome{Kind: model.IdentityOrphan, UserID: orphan.ID}, nil
}

// StudentService implements StudentProvisioner.
type StudentService struct {
	auth     repository.AuthAdmin
	centers  repository.CenterRepository
	students repository.StudentRepository
	log      *zap.Logger
	opts     ProvisioningOptions
}

// NewStudentService constructs StudentService with required dependencies.
func NewStudentService(
	auth repository.AuthAdmin, centers repository.CenterRepository, students repository.StudentRepository,
	log *zap.Logger, opts ProvisioningOptions,
) *StudentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &StudentService{auth: auth, centers: centers, students: students, log: log, opts: opts}
}

// Provision runs the student workflow. The auth identity is removed if the profile cannot be stored.
func (s *StudentService) Provision(ctx context.Context, p model.Principal, req model.StudentRequest) (st model.StudentProfile, err error) {
	defer func() { s.opts.Metrics.ObserveProvisioning("student", err) }()
	ctx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if err := s.authorize(ctx, req.CenterID, p); err != nil {
		return model.StudentProfile{}, err
	}

	u, err := s.auth.CreateUser(ctx, model.NewAuthUser{
		Email:    req.Email,
		Password: req.Password,
		Metadata: map[string]any{"full_name": req.Name, "role": "student"},
	})
	if err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return model.StudentProfile{}, errs.Conflict(msgEmailRegistered)
		}
		return model.StudentProfile{}, fmt.Errorf("create auth user: %w", err)
	}
	sg := newSaga("student", s.log, s.opts)
	sg.Completed("delete_auth_user", func(ctx context.Context) error { return s.auth.DeleteUser(ctx, u.ID) })

	st, err = s.students.Create(ctx, model.StudentProfile{
		UserID:         u.ID,
		CenterID:       req.CenterID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Guardian:       req.Guardian,
		GuardianPhone:  req.GuardianPhone,
		DateOfBirth:    req.DateOfBirth,
		Address:        req.Address,
		EnrollmentType: req.EnrollmentType,
	})
	if err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			err = errs.Conflict(msgAlreadyEnrolled)
		} else {
			err = fmt.Errorf("create student: %w", err)
		}
		return model.StudentProfile{}, sg.Abort(ctx, err)
	}

	s.log.Info("student provisioned", zap.Stringer("user_id", u.ID), zap.Stringer("center_id", req.CenterID))
	return st, nil
}

// authorize allows the center owner or any member.
func (s *StudentService) authorize(ctx context.Context, centerID uuid.UUID, p model.Principal) error {
	owner, err := s.centers.IsOwner(ctx, centerID, p.ID)
	if err != nil {
		return fmt.Errorf("check center owner: %w", err)
	}
	if owner {
		return nil
	}
	member, err := s.centers.IsMember(ctx, centerID, p.ID)
	if err != nil {
		return fmt.Errorf("check center member: %w", err)
	}
	if !member {
		return errs.ErrForbidden
	}
	return nil
}

func newSaga(workflow string, log *zap.Logger, opts ProvisioningOptions) *saga.Saga {
	return saga.New(workflow, log).
		WithTimeout(opts.RollbackTimeout).
		WithObserver(opts.Metrics.ObserveRollback)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
