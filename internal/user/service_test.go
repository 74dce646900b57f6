package user_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/timeR3/ToolCTV/internal"
	"github.com/timeR3/ToolCTV/internal/auth"
	"github.com/timeR3/ToolCTV/internal/authz"
	userDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/user"
	"github.com/timeR3/ToolCTV/internal/user"
)

func TestUserService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Service Suite")
}

// stubGrants implements authz.GrantRepository with a fixed grant set.
type stubGrants struct {
	grants map[string]bool
}

func newStubGrants() *stubGrants {
	return &stubGrants{grants: make(map[string]bool)}
}

func (s *stubGrants) allow(role auth.Role, permission string) {
	s.grants[string(role)+"/"+permission] = true
}

func (s *stubGrants) HasGrant(ctx context.Context, role auth.Role, permissionName string) (bool, error) {
	return s.grants[string(role)+"/"+permissionName], nil
}

func (s *stubGrants) Grant(ctx context.Context, role auth.Role, permissionID int64) error { return nil }
func (s *stubGrants) Revoke(ctx context.Context, role auth.Role, permissionID int64) error {
	return nil
}
func (s *stubGrants) GetPermissionByID(ctx context.Context, id int64) (*userDatamodel.Permission, error) {
	return nil, auth.ErrNotFound
}
func (s *stubGrants) ListPermissions(ctx context.Context) ([]*userDatamodel.Permission, error) {
	return nil, nil
}
func (s *stubGrants) RolePermissions(ctx context.Context) (map[string][]string, error) {
	return nil, nil
}

// stubRecorder captures audit entries in memory.
type stubRecorder struct {
	actions []string
	details []string
}

func (s *stubRecorder) Record(ctx context.Context, actorID int64, actorName, action, details string) {
	s.actions = append(s.actions, action)
	s.details = append(s.details, details)
}

// MockRepository implements user.RepositoryAPI for testing
type MockRepository struct {
	users       map[int64]*userDatamodel.User
	assignments map[int64][]int64
	shouldFail  bool
	failError   error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		users:       make(map[int64]*userDatamodel.User),
		assignments: make(map[int64][]int64),
	}
}

func (m *MockRepository) GetAll(ctx context.Context) ([]*userDatamodel.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var rows []*userDatamodel.User
	for _, u := range m.users {
		rows = append(rows, u)
	}
	return rows, nil
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return u, nil
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *MockRepository) GetAssignedToolIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	return m.assignments[userID], nil
}

func (m *MockRepository) UpdateProfile(ctx context.Context, id int64, name, email, avatar string) error {
	if m.shouldFail {
		return m.failError
	}
	u := m.users[id]
	u.Name, u.Email, u.Avatar = name, email, avatar
	return nil
}

func (m *MockRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if m.shouldFail {
		return m.failError
	}
	m.users[id].PasswordHash = passwordHash
	return nil
}

func (m *MockRepository) UpdateRole(ctx context.Context, id int64, role string) error {
	if m.shouldFail {
		return m.failError
	}
	m.users[id].Role = role
	return nil
}

func (m *MockRepository) ReplaceAssignedTools(ctx context.Context, userID int64, toolIDs []int64, assignedBy int64) error {
	if m.shouldFail {
		return m.failError
	}
	m.assignments[userID] = toolIDs
	return nil
}

func (m *MockRepository) AddUser(id int64, name, email, role string) *userDatamodel.User {
	u := &userDatamodel.User{ID: id, Name: name, Email: email, Role: role}
	m.users[id] = u
	return u
}

func (m *MockRepository) SetShouldFail(shouldFail bool, err error) {
	m.shouldFail = shouldFail
	m.failError = err
}

var fakeHash = func(password string) (string, error) { return "hashed:" + password, nil }

var _ = Describe("User Service", func() {
	var (
		mockRepo *MockRepository
		grants   *stubGrants
		recorder *stubRecorder
		service  *user.Service
		ctx      context.Context
		admin    *auth.User
		regular  *auth.User
	)

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		grants = newStubGrants()
		recorder = &stubRecorder{}
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		engine := authz.NewEngine(grants, recorder, 5*time.Second, lg)
		service = user.NewService(mockRepo, engine, recorder, 5*time.Second, lg)
		ctx = context.Background()

		admin = &auth.User{ID: 1, Name: "Admin", Role: auth.RoleAdmin}
		regular = &auth.User{ID: 7, Name: "Worker", Role: auth.RoleUser}

		mockRepo.AddUser(1, "Admin", "admin@example.com", string(auth.RoleAdmin))
		mockRepo.AddUser(7, "Worker", "worker@example.com", string(auth.RoleUser))
	})

	Describe("ListUsers", func() {
		It("should attach each user's assignment set", func() {
			mockRepo.assignments[7] = []int64{2, 5}

			users, err := service.ListUsers(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))

			for _, u := range users {
				if u.ID == 7 {
					Expect(u.AssignedTools).To(ConsistOf(int64(2), int64(5)))
				}
			}
		})

		Context("when the store fails", func() {
			It("should return the generic store error", func() {
				mockRepo.SetShouldFail(true, errors.New("boom"))
				_, err := service.ListUsers(ctx)
				Expect(err).To(MatchError(internal.ErrStoreError))
			})
		})
	})

	Describe("UpdateProfile", func() {
		It("should let a user edit their own profile without any permission", func() {
			err := service.UpdateProfile(ctx, regular, 7, user.UpdateProfileDTO{
				Name:  "Worker Renamed",
				Email: "worker@example.com",
			}, fakeHash)
			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.users[7].Name).To(Equal("Worker Renamed"))
		})

		It("should not audit a self-edit", func() {
			err := service.UpdateProfile(ctx, regular, 7, user.UpdateProfileDTO{
				Name:  "Worker",
				Email: "worker@example.com",
			}, fakeHash)
			Expect(err).NotTo(HaveOccurred())
			Expect(recorder.actions).To(BeEmpty())
		})

		Context("editing someone else", func() {
			It("should deny without edit_any_user", func() {
				err := service.UpdateProfile(ctx, regular, 1, user.UpdateProfileDTO{
					Name:  "Hacked",
					Email: "admin@example.com",
				}, fakeHash)
				Expect(err).To(MatchError(internal.ErrPermissionDenied))
			})

			It("should allow with edit_any_user and write an audit entry", func() {
				grants.allow(auth.RoleAdmin, authz.PermEditAnyUser)
				err := service.UpdateProfile(ctx, admin, 7, user.UpdateProfileDTO{
					Name:  "Worker Fixed",
					Email: "worker@example.com",
				}, fakeHash)
				Expect(err).NotTo(HaveOccurred())
				Expect(recorder.actions).To(ContainElement("Updated user profile: Worker Fixed"))
			})
		})

		Context("when the new email belongs to another account", func() {
			It("should return ErrEmailTaken", func() {
				err := service.UpdateProfile(ctx, regular, 7, user.UpdateProfileDTO{
					Name:  "Worker",
					Email: "admin@example.com",
				}, fakeHash)
				Expect(err).To(MatchError(internal.ErrEmailTaken))
			})
		})

		Context("with a new password", func() {
			It("should store the hash, never the plaintext", func() {
				err := service.UpdateProfile(ctx, regular, 7, user.UpdateProfileDTO{
					Name:     "Worker",
					Email:    "worker@example.com",
					Password: "brand-new-pass",
				}, fakeHash)
				Expect(err).NotTo(HaveOccurred())
				Expect(mockRepo.users[7].PasswordHash).To(Equal("hashed:brand-new-pass"))
			})

			It("should reject a short password", func() {
				err := service.UpdateProfile(ctx, regular, 7, user.UpdateProfileDTO{
					Name:     "Worker",
					Email:    "worker@example.com",
					Password: "short",
				}, fakeHash)
				Expect(err).To(BeAssignableToTypeOf(user.ValidationError{}))
			})
		})
	})

	Describe("UpdateRole", func() {
		It("should deny without change_user_roles", func() {
			err := service.UpdateRole(ctx, admin, 7, auth.RoleAdmin)
			Expect(err).To(MatchError(internal.ErrPermissionDenied))
		})

		Context("with change_user_roles", func() {
			BeforeEach(func() {
				grants.allow(auth.RoleAdmin, authz.PermChangeUserRoles)
			})

			It("should change the role and audit the transition", func() {
				err := service.UpdateRole(ctx, admin, 7, auth.RoleAdmin)
				Expect(err).NotTo(HaveOccurred())
				Expect(mockRepo.users[7].Role).To(Equal(string(auth.RoleAdmin)))
				Expect(recorder.details).To(ContainElement("Role changed from User to Admin"))
			})

			It("should reject an unknown role", func() {
				err := service.UpdateRole(ctx, admin, 7, auth.Role("Owner"))
				Expect(err).To(HaveOccurred())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidRole))
			})

			It("should return ErrUserNotFound for a missing target", func() {
				err := service.UpdateRole(ctx, admin, 999, auth.RoleAdmin)
				Expect(err).To(MatchError(internal.ErrUserNotFound))
			})
		})
	})

	Describe("ReplaceAssignedTools", func() {
		It("should deny without assign_tools", func() {
			err := service.ReplaceAssignedTools(ctx, admin, 7, []int64{1, 2})
			Expect(err).To(MatchError(internal.ErrPermissionDenied))
		})

		Context("with assign_tools", func() {
			BeforeEach(func() {
				grants.allow(auth.RoleAdmin, authz.PermAssignTools)
			})

			It("should replace the set wholesale", func() {
				mockRepo.assignments[7] = []int64{4}
				err := service.ReplaceAssignedTools(ctx, admin, 7, []int64{1, 2})
				Expect(err).NotTo(HaveOccurred())
				Expect(mockRepo.assignments[7]).To(Equal([]int64{1, 2}))
			})

			It("should deduplicate ids", func() {
				err := service.ReplaceAssignedTools(ctx, admin, 7, []int64{5, 5, 2, 5})
				Expect(err).NotTo(HaveOccurred())
				Expect(mockRepo.assignments[7]).To(Equal([]int64{5, 2}))
				Expect(recorder.details).To(ContainElement("Assigned 2 tools"))
			})

			It("should accept an empty set", func() {
				mockRepo.assignments[7] = []int64{4}
				err := service.ReplaceAssignedTools(ctx, admin, 7, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(mockRepo.assignments[7]).To(BeEmpty())
			})
		})
	})
})
