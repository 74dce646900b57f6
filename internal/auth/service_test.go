package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/timeR3/ToolCTV/internal"
	"github.com/timeR3/ToolCTV/internal/auth"
	userDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/user"
)

// MockUserRepository implements auth.UserRepository for testing
type MockUserRepository struct {
	usersByEmail map[string]*userDatamodel.User
	usersByID    map[int64]*userDatamodel.User
	toolIDs      map[int64][]int64
	nextID       int64
	shouldFail   bool
	failError    error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		usersByEmail: make(map[string]*userDatamodel.User),
		usersByID:    make(map[int64]*userDatamodel.User),
		toolIDs:      make(map[int64][]int64),
		nextID:       1,
	}
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	u, ok := m.usersByEmail[email]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return u, nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	u, ok := m.usersByID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return u, nil
}

func (m *MockUserRepository) GetAssignedToolIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	return m.toolIDs[userID], nil
}

func (m *MockUserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	if m.shouldFail {
		return m.failError
	}
	u.ID = m.nextID
	m.nextID++
	m.usersByEmail[u.Email] = u
	m.usersByID[u.ID] = u
	return nil
}

func (m *MockUserRepository) AddUser(email, password string, role auth.Role) *userDatamodel.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &userDatamodel.User{
		ID:           m.nextID,
		Name:         "Test User",
		Email:        email,
		PasswordHash: string(hash),
		Role:         string(role),
	}
	m.nextID++
	m.usersByEmail[email] = u
	m.usersByID[u.ID] = u
	return u
}

func (m *MockUserRepository) SetShouldFail(shouldFail bool, err error) {
	m.shouldFail = shouldFail
	m.failError = err
}

var _ = Describe("Auth Service", func() {
	var (
		mockRepo *MockUserRepository
		service  *auth.Service
		ctx      context.Context
	)

	BeforeEach(func() {
		mockRepo = NewMockUserRepository()
		codec, err := auth.NewSessionCodec(testSecret, time.Hour)
		Expect(err).NotTo(HaveOccurred())
		sessions := auth.NewSessionManager(codec, false)
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = auth.NewService(mockRepo, sessions, bcrypt.MinCost, 5*time.Second, lg)
		ctx = context.Background()
	})

	Describe("Login", func() {
		BeforeEach(func() {
			mockRepo.AddUser("dave@example.com", "correct-horse", auth.RoleUser)
		})

		Context("with valid credentials", func() {
			It("should return the account", func() {
				user, err := service.Login(ctx, auth.LoginDTO{Email: "dave@example.com", Password: "correct-horse"})
				Expect(err).NotTo(HaveOccurred())
				Expect(user.Email).To(Equal("dave@example.com"))
				Expect(user.Role).To(Equal(auth.RoleUser))
			})

			It("should accept a differently-cased email", func() {
				user, err := service.Login(ctx, auth.LoginDTO{Email: "  DAVE@Example.COM ", Password: "correct-horse"})
				Expect(err).NotTo(HaveOccurred())
				Expect(user.Email).To(Equal("dave@example.com"))
			})
		})

		Context("with an unknown email", func() {
			It("should return the same error as a wrong password", func() {
				_, unknownErr := service.Login(ctx, auth.LoginDTO{Email: "nobody@example.com", Password: "whatever"})
				_, wrongErr := service.Login(ctx, auth.LoginDTO{Email: "dave@example.com", Password: "wrong"})

				Expect(unknownErr).To(MatchError(internal.ErrInvalidCredentials))
				Expect(wrongErr).To(MatchError(internal.ErrInvalidCredentials))
				Expect(unknownErr.Error()).To(Equal(wrongErr.Error()))
			})
		})

		Context("when the store fails", func() {
			It("should not leak the underlying error", func() {
				mockRepo.SetShouldFail(true, errors.New("connection refused"))
				_, err := service.Login(ctx, auth.LoginDTO{Email: "dave@example.com", Password: "correct-horse"})
				Expect(err).To(MatchError(internal.ErrStoreError))
				Expect(err.Error()).NotTo(ContainSubstring("connection refused"))
			})
		})

		Context("with missing fields", func() {
			It("should return a validation error", func() {
				_, err := service.Login(ctx, auth.LoginDTO{Email: "dave@example.com"})
				Expect(err).To(BeAssignableToTypeOf(auth.ValidationError{}))
			})
		})
	})

	Describe("Register", func() {
		It("should create the account with role forced to User", func() {
			err := service.Register(ctx, auth.RegisterDTO{
				Name:     "Eve",
				Email:    "EVE@Example.com",
				Password: "long-enough-pass",
			})
			Expect(err).NotTo(HaveOccurred())

			row, err := mockRepo.GetByEmail(ctx, "eve@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(row.Role).To(Equal(string(auth.RoleUser)))
			Expect(row.PasswordHash).NotTo(Equal("long-enough-pass"))
		})

		Context("when the email is already registered", func() {
			It("should return ErrEmailTaken", func() {
				mockRepo.AddUser("eve@example.com", "whatever1", auth.RoleUser)
				err := service.Register(ctx, auth.RegisterDTO{
					Name:     "Eve",
					Email:    "eve@example.com",
					Password: "long-enough-pass",
				})
				Expect(err).To(MatchError(internal.ErrEmailTaken))
			})
		})

		Context("when the password is too short", func() {
			It("should return a validation error", func() {
				err := service.Register(ctx, auth.RegisterDTO{
					Name:     "Eve",
					Email:    "eve@example.com",
					Password: "short",
				})
				Expect(err).To(BeAssignableToTypeOf(auth.ValidationError{}))
			})
		})
	})

	Describe("CurrentUser", func() {
		It("should resolve claims to the account with its assigned tools", func() {
			row := mockRepo.AddUser("frank@example.com", "password1", auth.RoleAdmin)
			mockRepo.toolIDs[row.ID] = []int64{3, 9}

			user := service.CurrentUser(ctx, &auth.SessionClaims{UserID: row.ID})
			Expect(user).NotTo(BeNil())
			Expect(user.Role).To(Equal(auth.RoleAdmin))
			Expect(user.AssignedTools).To(ConsistOf(int64(3), int64(9)))
		})

		Context("when the account no longer exists", func() {
			It("should return nil", func() {
				user := service.CurrentUser(ctx, &auth.SessionClaims{UserID: 999})
				Expect(user).To(BeNil())
			})
		})

		Context("with nil claims", func() {
			It("should return nil", func() {
				Expect(service.CurrentUser(ctx, nil)).To(BeNil())
			})
		})

		Context("when the store fails", func() {
			It("should return nil rather than a partial user", func() {
				row := mockRepo.AddUser("frank@example.com", "password1", auth.RoleAdmin)
				mockRepo.SetShouldFail(true, errors.New("timeout"))
				Expect(service.CurrentUser(ctx, &auth.SessionClaims{UserID: row.ID})).To(BeNil())
			})
		})
	})
})
