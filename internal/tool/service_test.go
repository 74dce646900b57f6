package tool_test

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
	toolDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/tool"
	userDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/user"
	"github.com/timeR3/ToolCTV/internal/tool"
)

func TestToolService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Tool Service Suite")
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

// MockRepository implements tool.RepositoryAPI for testing
type MockRepository struct {
	tools      map[int64]*toolDatamodel.Tool
	creators   map[int64]string
	nextID     int64
	shouldFail bool
	failError  error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		tools:    make(map[int64]*toolDatamodel.Tool),
		creators: make(map[int64]string),
		nextID:   1,
	}
}

func (m *MockRepository) GetAll(ctx context.Context) ([]*toolDatamodel.Tool, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var rows []*toolDatamodel.Tool
	for _, t := range m.tools {
		rows = append(rows, t)
	}
	return rows, nil
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*toolDatamodel.Tool, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	t, ok := m.tools[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return t, nil
}

func (m *MockRepository) Create(ctx context.Context, t *toolDatamodel.Tool) error {
	if m.shouldFail {
		return m.failError
	}
	t.ID = m.nextID
	m.nextID++
	m.tools[t.ID] = t
	return nil
}

func (m *MockRepository) Update(ctx context.Context, t *toolDatamodel.Tool) error {
	if m.shouldFail {
		return m.failError
	}
	m.tools[t.ID] = t
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, id int64) error {
	if m.shouldFail {
		return m.failError
	}
	delete(m.tools, id)
	return nil
}

func (m *MockRepository) CreatorName(ctx context.Context, userID int64) (string, error) {
	if m.shouldFail {
		return "", m.failError
	}
	name, ok := m.creators[userID]
	if !ok {
		return "", auth.ErrNotFound
	}
	return name, nil
}

func (m *MockRepository) AddTool(id, createdBy int64, name string, enabled bool) *toolDatamodel.Tool {
	t := &toolDatamodel.Tool{ID: id, Name: name, URL: "https://example.com", Enabled: enabled, CreatedByUserID: createdBy}
	m.tools[id] = t
	if id >= m.nextID {
		m.nextID = id + 1
	}
	return t
}

func (m *MockRepository) SetShouldFail(shouldFail bool, err error) {
	m.shouldFail = shouldFail
	m.failError = err
}

var _ = Describe("Tool Service", func() {
	var (
		mockRepo *MockRepository
		grants   *stubGrants
		recorder *stubRecorder
		service  *tool.Service
		ctx      context.Context
		admin    *auth.User
		owner    *auth.User
		other    *auth.User
	)

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		grants = newStubGrants()
		recorder = &stubRecorder{}
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		engine := authz.NewEngine(grants, recorder, 5*time.Second, lg)
		service = tool.NewService(mockRepo, engine, recorder, 5*time.Second, lg)
		ctx = context.Background()

		admin = &auth.User{ID: 1, Name: "Admin", Role: auth.RoleAdmin}
		owner = &auth.User{ID: 7, Name: "Owner", Role: auth.RoleUser}
		other = &auth.User{ID: 8, Name: "Other", Role: auth.RoleUser}
	})

	Describe("ListForUser", func() {
		BeforeEach(func() {
			mockRepo.AddTool(1, 1, "Grafana", true)
			mockRepo.AddTool(2, 1, "Retired Tool", false)
			mockRepo.AddTool(3, 1, "Jenkins", true)
		})

		Context("for a caller with access_manage_tools", func() {
			It("should return the full catalog, disabled tools included", func() {
				grants.allow(auth.RoleAdmin, authz.PermAccessManageTools)
				tools, err := service.ListForUser(ctx, admin)
				Expect(err).NotTo(HaveOccurred())
				Expect(tools).To(HaveLen(3))
			})
		})

		Context("for a regular caller", func() {
			It("should return only enabled tools from their assignment set", func() {
				owner.AssignedTools = []int64{1, 2}
				tools, err := service.ListForUser(ctx, owner)
				Expect(err).NotTo(HaveOccurred())
				Expect(tools).To(HaveLen(1))
				Expect(tools[0].Name).To(Equal("Grafana"))
			})

			It("should drop assignment ids pointing at deleted tools", func() {
				owner.AssignedTools = []int64{1, 99}
				tools, err := service.ListForUser(ctx, owner)
				Expect(err).NotTo(HaveOccurred())
				Expect(tools).To(HaveLen(1))
			})

			It("should return an empty slice for an empty assignment set", func() {
				tools, err := service.ListForUser(ctx, owner)
				Expect(err).NotTo(HaveOccurred())
				Expect(tools).To(BeEmpty())
			})
		})

		Context("with a nil caller", func() {
			It("should deny", func() {
				_, err := service.ListForUser(ctx, nil)
				Expect(err).To(MatchError(internal.ErrPermissionDenied))
			})
		})
	})

	Describe("Create", func() {
		It("should stamp the actor as creator and audit", func() {
			created, err := service.Create(ctx, owner, tool.ToolDTO{Name: "Kibana", URL: "https://kibana.local"})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.CreatedByUserID).To(Equal(owner.ID))
			Expect(created.Enabled).To(BeTrue())
			Expect(recorder.actions).To(ContainElement("Created tool: Kibana"))
		})

		It("should reject a tool without a url", func() {
			_, err := service.Create(ctx, owner, tool.ToolDTO{Name: "Kibana"})
			Expect(err).To(BeAssignableToTypeOf(tool.ValidationError{}))
		})
	})

	Describe("Update", func() {
		BeforeEach(func() {
			mockRepo.AddTool(5, owner.ID, "Owned Tool", true)
		})

		Context("with edit_own_tool only", func() {
			BeforeEach(func() {
				grants.allow(auth.RoleUser, authz.PermEditOwnTool)
			})

			It("should allow the creator", func() {
				updated, err := service.Update(ctx, owner, 5, tool.ToolDTO{Name: "Renamed", URL: "https://example.com"})
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.Name).To(Equal("Renamed"))
				Expect(recorder.actions).To(ContainElement("Updated tool: Renamed"))
			})

			It("should deny a different user", func() {
				_, err := service.Update(ctx, other, 5, tool.ToolDTO{Name: "Hijacked", URL: "https://example.com"})
				Expect(err).To(MatchError(internal.ErrPermissionDenied))
			})
		})

		Context("with edit_any_tool", func() {
			It("should allow a non-creator", func() {
				grants.allow(auth.RoleAdmin, authz.PermEditAnyTool)
				_, err := service.Update(ctx, admin, 5, tool.ToolDTO{Name: "Fixed", URL: "https://example.com"})
				Expect(err).NotTo(HaveOccurred())
			})
		})

		It("should return ErrToolNotFound for a missing tool", func() {
			grants.allow(auth.RoleUser, authz.PermEditOwnTool)
			_, err := service.Update(ctx, owner, 999, tool.ToolDTO{Name: "X", URL: "https://example.com"})
			Expect(err).To(MatchError(internal.ErrToolNotFound))
		})
	})

	Describe("Delete", func() {
		BeforeEach(func() {
			mockRepo.AddTool(5, owner.ID, "Owned Tool", true)
		})

		Context("with delete_own_tool only", func() {
			BeforeEach(func() {
				grants.allow(auth.RoleUser, authz.PermDeleteOwnTool)
			})

			It("should allow the creator and audit", func() {
				err := service.Delete(ctx, owner, 5)
				Expect(err).NotTo(HaveOccurred())
				Expect(mockRepo.tools).NotTo(HaveKey(int64(5)))
				Expect(recorder.actions).To(ContainElement("Deleted tool: Owned Tool"))
			})

			It("should deny a different user", func() {
				err := service.Delete(ctx, other, 5)
				Expect(err).To(MatchError(internal.ErrPermissionDenied))
				Expect(mockRepo.tools).To(HaveKey(int64(5)))
			})
		})

		Context("with delete_any_tool", func() {
			It("should allow a non-creator", func() {
				grants.allow(auth.RoleAdmin, authz.PermDeleteAnyTool)
				Expect(service.Delete(ctx, admin, 5)).To(Succeed())
			})
		})

		Context("when the store fails", func() {
			It("should surface the generic store error", func() {
				grants.allow(auth.RoleUser, authz.PermDeleteOwnTool)
				mockRepo.SetShouldFail(true, errors.New("boom"))
				err := service.Delete(ctx, owner, 5)
				Expect(err).To(MatchError(internal.ErrStoreError))
			})
		})
	})
})
