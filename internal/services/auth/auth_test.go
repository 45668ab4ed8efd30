package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/team-portal/internal/lib/password"
	"github.com/magabrotheeeer/team-portal/internal/metrics"
	"github.com/magabrotheeeer/team-portal/internal/models"
	services "github.com/magabrotheeeer/team-portal/internal/services/auth"
	"github.com/magabrotheeeer/team-portal/internal/session"
	"github.com/magabrotheeeer/team-portal/internal/storage"
	"github.com/magabrotheeeer/team-portal/internal/storage/memory"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// Мок для session.Store
type SessionStoreMock struct {
	mock.Mock
}

func (m *SessionStoreMock) Save(ctx context.Context, s *session.Session, ttl time.Duration) error {
	args := m.Called(ctx, s, ttl)
	return args.Error(0)
}

func (m *SessionStoreMock) Load(ctx context.Context, token string) (*session.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *SessionStoreMock) Delete(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// Мок для Notifier
type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) UserRegistered(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(repo services.UserRepository, store session.Store, n services.Notifier) *services.AuthService {
	return services.NewAuthService(repo, store, time.Hour, n, metrics.New(prometheus.NewRegistry()), newNoopLogger())
}

var annInput = services.SignupInput{
	Name:     "Ann",
	Username: "ann",
	Password: "secret",
	Team:     "core",
	Role:     "member",
}

func TestAuthService_Signup(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *UserRepoMock, n *NotifierMock)
		wantErr    error
		wantAnyErr bool
	}{
		{
			name: "successful signup",
			setupMocks: func(r *UserRepoMock, n *NotifierMock) {
				r.On("GetUserByUsername", mock.Anything, "ann").
					Return(nil, storage.ErrUserNotFound).Once()
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
					return user.Name == "Ann" &&
						user.Username == "ann" &&
						user.Team == "core" &&
						user.Role == "member" &&
						user.PasswordHash != "" &&
						user.PasswordHash != "secret" &&
						password.CompareHash(user.PasswordHash, "secret") == nil
				})).Return("uid-1", nil).Once()
				n.On("UserRegistered", mock.Anything, mock.MatchedBy(func(user models.User) bool {
					return user.UUID == "uid-1" && user.Username == "ann"
				})).Return(nil).Once()
			},
		},
		{
			name: "user already exists, nothing written",
			setupMocks: func(r *UserRepoMock, _ *NotifierMock) {
				r.On("GetUserByUsername", mock.Anything, "ann").
					Return(&models.User{Username: "ann"}, nil).Once()
			},
			wantErr: services.ErrUserExists,
		},
		{
			name: "lost race on unique constraint",
			setupMocks: func(r *UserRepoMock, _ *NotifierMock) {
				r.On("GetUserByUsername", mock.Anything, "ann").
					Return(nil, storage.ErrUserNotFound).Once()
				r.On("CreateUser", mock.Anything, mock.Anything).
					Return("", storage.ErrDuplicateUsername).Once()
			},
			wantErr: services.ErrUserExists,
		},
		{
			name: "lookup failure",
			setupMocks: func(r *UserRepoMock, _ *NotifierMock) {
				r.On("GetUserByUsername", mock.Anything, "ann").
					Return(nil, errors.New("connection refused")).Once()
			},
			wantAnyErr: true,
		},
		{
			name: "write failure",
			setupMocks: func(r *UserRepoMock, _ *NotifierMock) {
				r.On("GetUserByUsername", mock.Anything, "ann").
					Return(nil, storage.ErrUserNotFound).Once()
				r.On("CreateUser", mock.Anything, mock.Anything).
					Return("", errors.New("disk full")).Once()
			},
			wantAnyErr: true,
		},
		{
			name: "notifier failure does not fail signup",
			setupMocks: func(r *UserRepoMock, n *NotifierMock) {
				r.On("GetUserByUsername", mock.Anything, "ann").
					Return(nil, storage.ErrUserNotFound).Once()
				r.On("CreateUser", mock.Anything, mock.Anything).Return("uid-1", nil).Once()
				n.On("UserRegistered", mock.Anything, mock.Anything).
					Return(errors.New("broker down")).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			store := new(SessionStoreMock)
			notifier := new(NotifierMock)
			svc := newService(repo, store, notifier)

			tt.setupMocks(repo, notifier)

			err := svc.Signup(context.Background(), annInput)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantAnyErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, services.ErrUserExists)
			default:
				assert.NoError(t, err)
			}

			repo.AssertExpectations(t)
			notifier.AssertExpectations(t)
			store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAuthService_Signup_PasswordOverByteLimit(t *testing.T) {
	repo := new(UserRepoMock)
	notifier := new(NotifierMock)
	svc := newService(repo, new(SessionStoreMock), notifier)
	repo.On("GetUserByUsername", mock.Anything, "ann").
		Return(nil, storage.ErrUserNotFound).Once()

	in := annInput
	in.Password = strings.Repeat("п", 40)
	err := svc.Signup(context.Background(), in)

	assert.ErrorIs(t, err, services.ErrPasswordTooLong)
	repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "UserRegistered", mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	hashedPassword, err := password.GetHash("secret")
	require.NoError(t, err)

	ann := &models.User{
		UUID:         "uid-1",
		Name:         "Ann",
		Username:     "ann",
		PasswordHash: hashedPassword,
		Team:         "core",
		Role:         "member",
	}

	tests := []struct {
		name         string
		currentToken string
		username     string
		password     string
		setupMocks   func(r *UserRepoMock, s *SessionStoreMock)
		wantErr      error
		wantAnyErr   bool
		wantSession  bool
	}{
		{
			name:     "successful login",
			username: "ann",
			password: "secret",
			setupMocks: func(r *UserRepoMock, s *SessionStoreMock) {
				r.On("GetUserByUsername", mock.Anything, "ann").Return(ann, nil).Once()
				s.On("Save", mock.Anything, mock.MatchedBy(func(sess *session.Session) bool {
					return sess.Token != "" && sess.User.Username == "ann" && sess.User.Role == "member"
				}), time.Hour).Return(nil).Once()
			},
			wantSession: true,
		},
		{
			name:         "login replaces previous session",
			currentToken: "old-token",
			username:     "ann",
			password:     "secret",
			setupMocks: func(r *UserRepoMock, s *SessionStoreMock) {
				r.On("GetUserByUsername", mock.Anything, "ann").Return(ann, nil).Once()
				s.On("Delete", mock.Anything, "old-token").Return(nil).Once()
				s.On("Save", mock.Anything, mock.MatchedBy(func(sess *session.Session) bool {
					return sess.Token != "old-token"
				}), time.Hour).Return(nil).Once()
			},
			wantSession: true,
		},
		{
			name:     "user not found",
			username: "ghost",
			password: "secret",
			setupMocks: func(r *UserRepoMock, _ *SessionStoreMock) {
				r.On("GetUserByUsername", mock.Anything, "ghost").
					Return(nil, storage.ErrUserNotFound).Once()
			},
			wantErr: services.ErrUserNotFound,
		},
		{
			name:         "invalid password leaves session untouched",
			currentToken: "old-token",
			username:     "ann",
			password:     "wrong",
			setupMocks: func(r *UserRepoMock, _ *SessionStoreMock) {
				r.On("GetUserByUsername", mock.Anything, "ann").Return(ann, nil).Once()
			},
			wantErr: services.ErrInvalidPassword,
		},
		{
			name:     "store unavailable",
			username: "ann",
			password: "secret",
			setupMocks: func(r *UserRepoMock, _ *SessionStoreMock) {
				r.On("GetUserByUsername", mock.Anything, "ann").
					Return(nil, errors.New("connection refused")).Once()
			},
			wantAnyErr: true,
		},
		{
			name:     "session store failure",
			username: "ann",
			password: "secret",
			setupMocks: func(r *UserRepoMock, s *SessionStoreMock) {
				r.On("GetUserByUsername", mock.Anything, "ann").Return(ann, nil).Once()
				s.On("Save", mock.Anything, mock.Anything, time.Hour).
					Return(errors.New("redis down")).Once()
			},
			wantAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			store := new(SessionStoreMock)
			svc := newService(repo, store, nil)

			tt.setupMocks(repo, store)

			sess, err := svc.Login(context.Background(), tt.currentToken, tt.username, tt.password)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, sess)
			case tt.wantAnyErr:
				assert.Error(t, err)
				assert.Nil(t, sess)
			default:
				require.NoError(t, err)
			}

			if tt.wantSession {
				require.NotNil(t, sess)
				assert.Equal(t, "member", sess.User.Role)
				assert.NotEmpty(t, sess.Token)
			}

			repo.AssertExpectations(t)
			store.AssertExpectations(t)
			if tt.wantErr != nil {
				store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
				store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestAuthService_Logout(t *testing.T) {
	t.Run("empty token is a no-op", func(t *testing.T) {
		store := new(SessionStoreMock)
		svc := newService(new(UserRepoMock), store, nil)

		require.NoError(t, svc.Logout(context.Background(), ""))
		store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("deletes session", func(t *testing.T) {
		store := new(SessionStoreMock)
		store.On("Delete", mock.Anything, "tok").Return(nil).Once()
		svc := newService(new(UserRepoMock), store, nil)

		require.NoError(t, svc.Logout(context.Background(), "tok"))
		store.AssertExpectations(t)
	})

	t.Run("store failure is reported", func(t *testing.T) {
		store := new(SessionStoreMock)
		store.On("Delete", mock.Anything, "tok").Return(errors.New("redis down")).Once()
		svc := newService(new(UserRepoMock), store, nil)

		assert.Error(t, svc.Logout(context.Background(), "tok"))
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	user := models.User{Username: "ann", Role: "member"}

	tests := []struct {
		name       string
		token      string
		setupMocks func(s *SessionStoreMock)
		wantErr    error
		wantAnyErr bool
	}{
		{
			name:  "valid session",
			token: "tok",
			setupMocks: func(s *SessionStoreMock) {
				s.On("Load", mock.Anything, "tok").
					Return(&session.Session{Token: "tok", User: user}, nil).Once()
			},
		},
		{
			name:       "empty token",
			token:      "",
			setupMocks: func(_ *SessionStoreMock) {},
			wantErr:    services.ErrUnauthenticated,
		},
		{
			name:  "unknown session",
			token: "tok",
			setupMocks: func(s *SessionStoreMock) {
				s.On("Load", mock.Anything, "tok").Return(nil, session.ErrNotFound).Once()
			},
			wantErr: services.ErrUnauthenticated,
		},
		{
			name:  "store failure",
			token: "tok",
			setupMocks: func(s *SessionStoreMock) {
				s.On("Load", mock.Anything, "tok").Return(nil, errors.New("redis down")).Once()
			},
			wantAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(SessionStoreMock)
			tt.setupMocks(store)
			svc := newService(new(UserRepoMock), store, nil)

			got, err := svc.Authenticate(context.Background(), tt.token)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantAnyErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, services.ErrUnauthenticated)
			default:
				require.NoError(t, err)
				assert.Equal(t, "member", got.Role)
			}
			store.AssertExpectations(t)
		})
	}
}

// Полный жизненный цикл на реальных хранилищах в памяти.
func TestAuthService_Lifecycle(t *testing.T) {
	svc := newService(memory.New(), session.NewMemoryStore(), nil)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, annInput))
	assert.ErrorIs(t, svc.Signup(ctx, annInput), services.ErrUserExists)

	_, err := svc.Login(ctx, "", "ann", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidPassword)
	_, err = svc.Login(ctx, "", "nobody", "secret")
	assert.ErrorIs(t, err, services.ErrUserNotFound)

	sess, err := svc.Login(ctx, "", "ann", "secret")
	require.NoError(t, err)
	assert.Equal(t, annInput.Role, sess.User.Role)

	user, err := svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "ann", user.Username)

	require.NoError(t, svc.Logout(ctx, sess.Token))
	require.NoError(t, svc.Logout(ctx, sess.Token))
	_, err = svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, services.ErrUnauthenticated)
}

func TestAuthService_ConcurrentSignupSameUsername(t *testing.T) {
	svc := newService(memory.New(), session.NewMemoryStore(), nil)
	ctx := context.Background()

	const callers = 6
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		ok     int
		exists int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.Signup(ctx, annInput)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, services.ErrUserExists) {
				exists++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, exists)
}
