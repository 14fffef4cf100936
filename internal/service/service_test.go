package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/claimdesk/internal/model"
	"github.com/mmeshcher/claimdesk/internal/repository"
)

type stubRepo struct {
	pingErr error

	count    int64
	countErr error

	createAdminErr error

	getUser    *model.User
	getUserErr error

	createClaimErr error
	createdClaim   model.Claim
}

func (s *stubRepo) Close() error                   { return nil }
func (s *stubRepo) Ping(ctx context.Context) error { return s.pingErr }

func (s *stubRepo) CountUsers(ctx context.Context) (int64, error) {
	return s.count, s.countErr
}

func (s *stubRepo) CreateAdmin(ctx context.Context, email string, passwordHash []byte) (int64, error) {
	if s.createAdminErr != nil {
		return 0, s.createAdminErr
	}
	return 1, nil
}

func (s *stubRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser, s.getUserErr
}

func (s *stubRepo) CreateClaim(ctx context.Context, c model.Claim) (*model.Claim, error) {
	if s.createClaimErr != nil {
		return nil, s.createClaimErr
	}
	s.createdClaim = c
	return &c, nil
}

func submission(order string) model.ClaimSubmission {
	return model.ClaimSubmission{
		OrderNumber:        order,
		Email:              "customer@example.com",
		Name:               "Jane Doe",
		Address:            "1 Main St",
		PhoneNumber:        "+1 555 0100",
		Brand:              "Acme",
		ProblemDescription: "Does not turn on",
	}
}

func TestHashPassword(t *testing.T) {
	a, err := hashPassword("pw123")
	require.NoError(t, err)
	b, err := hashPassword("pw123")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "bcrypt hashes must be salted")
	assert.True(t, checkPassword(a, "pw123"))
	assert.False(t, checkPassword(a, "wrong"))
	assert.NotContains(t, string(a), "pw123")
}

func TestPing_WrapsStoreUnavailable(t *testing.T) {
	svc := NewService(&stubRepo{pingErr: errors.New("dial tcp: connection refused")})

	err := svc.Ping(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCheckUsersExist(t *testing.T) {
	tests := []struct {
		name    string
		repo    *stubRepo
		want    bool
		wantErr error
	}{
		{name: "empty store", repo: &stubRepo{}, want: false},
		{name: "one user", repo: &stubRepo{count: 1}, want: true},
		{name: "store failure", repo: &stubRepo{countErr: errors.New("boom")}, wantErr: ErrPersistenceFailure},
		{
			name:    "store unavailable",
			repo:    &stubRepo{countErr: fmt.Errorf("count: %w", repository.ErrStoreUnavailable)},
			wantErr: ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewService(tt.repo).CheckUsersExist(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateAdmin(t *testing.T) {
	tests := []struct {
		name     string
		repo     *stubRepo
		email    string
		password string
		wantErr  error
	}{
		{name: "fresh store", repo: &stubRepo{}, email: "a@x.com", password: "pw"},
		{name: "missing password", repo: &stubRepo{}, email: "a@x.com", wantErr: ErrInvalidInput},
		{name: "blank email", repo: &stubRepo{}, email: "  ", password: "pw", wantErr: ErrInvalidInput},
		{name: "password over bcrypt limit", repo: &stubRepo{}, email: "a@x.com", password: strings.Repeat("p", 80), wantErr: ErrInvalidInput},
		{name: "password at bcrypt limit", repo: &stubRepo{}, email: "a@x.com", password: strings.Repeat("p", MaxPasswordBytes)},
		{name: "users exist", repo: &stubRepo{count: 1}, email: "a@x.com", password: "pw", wantErr: ErrAlreadyInitialized},
		{
			name:     "lost the race to another bootstrap",
			repo:     &stubRepo{createAdminErr: repository.ErrAdminExists},
			email:    "a@x.com",
			password: "pw",
			wantErr:  ErrAlreadyInitialized,
		},
		{
			name:     "insert failure",
			repo:     &stubRepo{createAdminErr: errors.New("disk full")},
			email:    "a@x.com",
			password: "pw",
			wantErr:  ErrPersistenceFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewService(tt.repo).CreateAdmin(context.Background(), tt.email, tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLogin(t *testing.T) {
	hash, err := hashPassword("correct")
	require.NoError(t, err)
	admin := &model.User{ID: 7, Email: "a@x.com", PasswordHash: hash, IsAdmin: true}

	tests := []struct {
		name     string
		repo     *stubRepo
		email    string
		password string
		wantErr  error
	}{
		{name: "no users", repo: &stubRepo{}, email: "A@x.com ", password: "correct", wantErr: ErrSystemUninitialized},
		{name: "empty email", repo: &stubRepo{count: 1, getUserErr: repository.ErrUserNotFound}, email: "", password: "correct", wantErr: ErrInvalidCredentials},
		{name: "empty password", repo: &stubRepo{count: 1, getUser: admin}, email: "A@x.com ", password: "", wantErr: ErrInvalidCredentials},
		{name: "unknown email", repo: &stubRepo{count: 1, getUserErr: repository.ErrUserNotFound}, email: "A@x.com ", password: "correct", wantErr: ErrInvalidCredentials},
		{name: "wrong password", repo: &stubRepo{count: 1, getUser: admin}, email: "A@x.com ", password: "wrong", wantErr: ErrInvalidCredentials},
		{name: "lookup failure", repo: &stubRepo{count: 1, getUserErr: errors.New("boom")}, email: "A@x.com ", password: "correct", wantErr: ErrPersistenceFailure},
		{name: "success", repo: &stubRepo{count: 1, getUser: admin}, email: "A@x.com ", password: "correct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewService(tt.repo).Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, &model.Principal{ID: 7, Email: "a@x.com", IsAdmin: true}, p)
		})
	}
}

func TestSubmitClaim_ForcesPendingAndTrims(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)
	svc.newID = func() string { return "fixed-id" }

	sub := submission("  ORD-1 ")
	c, err := svc.SubmitClaim(context.Background(), sub)
	require.NoError(t, err)

	assert.Equal(t, "fixed-id", c.ID)
	assert.Equal(t, "ORD-1", c.OrderNumber)
	assert.Equal(t, model.ClaimStatusPending, c.Status)
	assert.Equal(t, model.ClaimStatusPending, repo.createdClaim.Status)
}

func TestSubmitClaim_Errors(t *testing.T) {
	tests := []struct {
		name    string
		repo    *stubRepo
		sub     model.ClaimSubmission
		wantErr error
	}{
		{name: "invalid submission", repo: &stubRepo{}, sub: model.ClaimSubmission{OrderNumber: "ORD-1"}, wantErr: ErrInvalidInput},
		{name: "duplicate", repo: &stubRepo{createClaimErr: repository.ErrOrderNumberExists}, sub: submission("ORD-1"), wantErr: ErrDuplicateOrderNumber},
		{name: "insert failure", repo: &stubRepo{createClaimErr: errors.New("boom")}, sub: submission("ORD-1"), wantErr: ErrPersistenceFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.repo).SubmitClaim(context.Background(), tt.sub)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateAdmin_ConcurrentBootstrap(t *testing.T) {
	svc := NewService(repository.NewMemoryRepository())

	const attempts = 8
	var (
		wg      sync.WaitGroup
		success atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := svc.CreateAdmin(context.Background(), fmt.Sprintf("admin%d@x.com", i), "pw")
			if err == nil {
				success.Add(1)
				return
			}
			assert.ErrorIs(t, err, ErrAlreadyInitialized)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), success.Load())

	exists, err := svc.CheckUsersExist(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSubmitClaim_ConcurrentSameOrderNumber(t *testing.T) {
	svc := NewService(repository.NewMemoryRepository())

	const attempts = 16
	var (
		wg      sync.WaitGroup
		success atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitClaim(context.Background(), submission("ORD-42"))
			if err == nil {
				success.Add(1)
				return
			}
			assert.ErrorIs(t, err, ErrDuplicateOrderNumber)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), success.Load())
}

func TestBootstrapScenario(t *testing.T) {
	ctx := context.Background()
	svc := NewService(repository.NewMemoryRepository())

	for _, creds := range [][2]string{{"a@x.com", "pw123"}, {"", ""}, {"root@localhost", "admin"}} {
		_, err := svc.Login(ctx, creds[0], creds[1])
		assert.ErrorIs(t, err, ErrSystemUninitialized)
	}

	for i := 0; i < 3; i++ {
		exists, err := svc.CheckUsersExist(ctx)
		require.NoError(t, err)
		assert.False(t, exists)
	}

	require.NoError(t, svc.CreateAdmin(ctx, "a@x.com", "pw123"))

	exists, err := svc.CheckUsersExist(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.ErrorIs(t, svc.CreateAdmin(ctx, "b@x.com", "pw456"), ErrAlreadyInitialized)

	p, err := svc.Login(ctx, "a@x.com", "pw123")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", p.Email)
	assert.True(t, p.IsAdmin)

	_, err = svc.Login(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "b@x.com", "pw456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	for _, creds := range [][2]string{{"", "pw123"}, {"a@x.com", ""}, {"", ""}} {
		_, err = svc.Login(ctx, creds[0], creds[1])
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
}
