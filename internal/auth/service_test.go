package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/document-workspace/internal/auth"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*auth.User
	hashes map[int64]string
	emails map[string]int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		nextID: 1,
		users:  make(map[int64]*auth.User),
		hashes: make(map[int64]string),
		emails: make(map[string]int64),
	}
}

func (r *fakeUserRepo) addUser(email, password string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	Expect(err).NotTo(HaveOccurred())

	id := r.nextID
	r.nextID++
	r.users[id] = &auth.User{ID: id, Email: email}
	r.hashes[id] = hash
	r.emails[email] = id
	return id
}

func (r *fakeUserRepo) GetPasswordForEmail(email string) (string, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.emails[email]
	if !ok {
		return "", 0, errors.New("user not found")
	}
	return r.hashes[id], id, nil
}

func (r *fakeUserRepo) GetPasswordForUserID(userID int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hash, ok := r.hashes[userID]
	if !ok {
		return "", errors.New("user not found")
	}
	return hash, nil
}

func (r *fakeUserRepo) GetUserIDByEmail(email string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.emails[email], nil
}

func (r *fakeUserRepo) CreateUser(email, name, passwordHash string, departmentID *int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.users[id] = &auth.User{ID: id, Email: email, DepartmentID: departmentID}
	r.hashes[id] = passwordHash
	r.emails[email] = id
	return id, nil
}

func (r *fakeUserRepo) UpdatePassword(userID int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return errors.New("user not found")
	}
	r.hashes[userID] = passwordHash
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(userID int64) error {
	return nil
}

func (r *fakeUserRepo) GetUserWithPermissions(userID int64) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, errors.New("user not found")
	}
	copied := *u
	return &copied, nil
}

// fakeSessionStore mirrors the redis-backed store with plain maps. Entries
// never expire; expiry behavior is covered by the SessionStore specs.
type fakeSessionStore struct {
	mu          sync.Mutex
	refresh     map[int64]string
	blacklist   map[string]bool
	resetTokens map[string]int64
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		refresh:     make(map[int64]string),
		blacklist:   make(map[string]bool),
		resetTokens: make(map[string]int64),
	}
}

func (s *fakeSessionStore) StoreRefreshToken(ctx context.Context, userID int64, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[userID] = token
	return nil
}

func (s *fakeSessionStore) RotateRefreshToken(ctx context.Context, userID int64, presented, next string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.refresh[userID]
	if !ok || current != presented {
		return false, nil
	}
	s.refresh[userID] = next
	return true, nil
}

func (s *fakeSessionStore) DeleteRefreshToken(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refresh, userID)
	return nil
}

func (s *fakeSessionStore) BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ttl <= 0 {
		return nil
	}
	s.blacklist[token] = true
	return nil
}

func (s *fakeSessionStore) IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blacklist[token], nil
}

func (s *fakeSessionStore) StorePasswordResetToken(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetTokens[token] = userID
	return nil
}

func (s *fakeSessionStore) ConsumePasswordResetToken(ctx context.Context, token string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.resetTokens[token]
	if !ok {
		return 0, auth.ErrInvalidResetToken
	}
	delete(s.resetTokens, token)
	return userID, nil
}

var _ = Describe("Auth Service", func() {
	var (
		repo     *fakeUserRepo
		sessions *fakeSessionStore
		service  *auth.Service
		ctx      context.Context
	)

	BeforeEach(func() {
		repo = newFakeUserRepo()
		sessions = newFakeSessionStore()
		gen := auth.NewJWTTokenGenerator(
			"access-secret-for-tests-0123456789ab",
			"refresh-secret-for-tests-0123456789a",
			time.Minute,
			time.Hour,
		)
		service = auth.NewService(repo, gen, sessions, nil, bcrypt.MinCost, time.Hour, testLogger())
		ctx = context.Background()
	})

	Describe("Register", func() {
		It("creates a user with a hashed password", func() {
			user, err := service.Register(ctx, auth.RegisterDTO{
				Email:    "new@workspace.local",
				Name:     "New User",
				Password: "s3cret-pass",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).NotTo(BeZero())

			hash, err := repo.GetPasswordForUserID(user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(hash).NotTo(Equal("s3cret-pass"))
			Expect(bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass"))).To(Succeed())
		})

		It("rejects a duplicate email", func() {
			repo.addUser("taken@workspace.local", "password-1")

			_, err := service.Register(ctx, auth.RegisterDTO{
				Email:    "taken@workspace.local",
				Name:     "Someone",
				Password: "password-2",
			})
			Expect(err).To(MatchError(auth.ErrDuplicateEmail))
		})

		It("rejects a short password", func() {
			_, err := service.Register(ctx, auth.RegisterDTO{
				Email:    "new@workspace.local",
				Name:     "New User",
				Password: "short",
			})
			Expect(err).To(BeAssignableToTypeOf(auth.ValidationError{}))
		})

		It("rejects a malformed email", func() {
			_, err := service.Register(ctx, auth.RegisterDTO{
				Email:    "not-an-email",
				Name:     "New User",
				Password: "long-enough",
			})
			Expect(err).To(BeAssignableToTypeOf(auth.ValidationError{}))
		})
	})

	Describe("Authenticate", func() {
		BeforeEach(func() {
			repo.addUser("member@workspace.local", "correct-horse")
		})

		It("returns a token pair for valid credentials", func() {
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "member@workspace.local",
				Password: "correct-horse",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.AccessToken).NotTo(BeEmpty())
			Expect(tokens.RefreshToken).NotTo(BeEmpty())

			claims, err := service.ValidateAccessToken(ctx, tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Email).To(Equal("member@workspace.local"))
		})

		It("rejects a wrong password", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "member@workspace.local",
				Password: "wrong",
			})
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
		})

		It("rejects an unknown email with the same error", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "nobody@workspace.local",
				Password: "correct-horse",
			})
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
		})
	})

	Describe("token generation", func() {
		It("never mints identical tokens back to back", func() {
			gen := auth.NewJWTTokenGenerator(
				"access-secret-for-tests-0123456789ab",
				"refresh-secret-for-tests-0123456789a",
				time.Minute,
				time.Hour,
			)

			// timestamps are second-granular, so only the jti claim keeps two
			// tokens minted in the same second distinct
			first, err := gen.GenerateRefreshToken(1, "member@workspace.local")
			Expect(err).NotTo(HaveOccurred())
			second, err := gen.GenerateRefreshToken(1, "member@workspace.local")
			Expect(err).NotTo(HaveOccurred())
			Expect(second).NotTo(Equal(first))
		})
	})

	Describe("RefreshTokens", func() {
		var tokens auth.AuthTokens

		BeforeEach(func() {
			repo.addUser("member@workspace.local", "correct-horse")

			var err error
			tokens, err = service.Authenticate(ctx, auth.LoginDTO{
				Email:    "member@workspace.local",
				Password: "correct-horse",
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rotates the pair and invalidates the presented token", func() {
			next, err := service.RefreshTokens(ctx, tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(next.RefreshToken).NotTo(Equal(tokens.RefreshToken))

			_, err = service.RefreshTokens(ctx, tokens.RefreshToken)
			Expect(err).To(MatchError(auth.ErrInvalidRefreshToken))

			_, err = service.RefreshTokens(ctx, next.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects an access token presented as a refresh token", func() {
			_, err := service.RefreshTokens(ctx, tokens.AccessToken)
			Expect(err).To(MatchError(auth.ErrInvalidToken))
		})

		It("rejects a refresh after logout", func() {
			service.Logout(ctx, 1, tokens.AccessToken)

			_, err := service.RefreshTokens(ctx, tokens.RefreshToken)
			Expect(err).To(MatchError(auth.ErrInvalidRefreshToken))
		})
	})

	Describe("Logout", func() {
		It("revokes the presented access token", func() {
			userID := repo.addUser("member@workspace.local", "correct-horse")

			tokens, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "member@workspace.local",
				Password: "correct-horse",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ValidateAccessToken(ctx, tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())

			service.Logout(ctx, userID, tokens.AccessToken)

			_, err = service.ValidateAccessToken(ctx, tokens.AccessToken)
			Expect(err).To(MatchError(auth.ErrTokenRevoked))
		})
	})

	Describe("ChangePassword", func() {
		var userID int64

		BeforeEach(func() {
			userID = repo.addUser("member@workspace.local", "old-password")
		})

		It("rejects a wrong current password", func() {
			err := service.ChangePassword(ctx, userID, "", auth.ChangePasswordDTO{
				OldPassword: "not-the-password",
				NewPassword: "new-password",
			})
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
		})

		It("updates the hash and drops the live session", func() {
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "member@workspace.local",
				Password: "old-password",
			})
			Expect(err).NotTo(HaveOccurred())

			err = service.ChangePassword(ctx, userID, tokens.AccessToken, auth.ChangePasswordDTO{
				OldPassword: "old-password",
				NewPassword: "new-password",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.RefreshTokens(ctx, tokens.RefreshToken)
			Expect(err).To(MatchError(auth.ErrInvalidRefreshToken))

			_, err = service.Authenticate(ctx, auth.LoginDTO{
				Email:    "member@workspace.local",
				Password: "new-password",
			})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("password reset flow", func() {
		BeforeEach(func() {
			repo.addUser("member@workspace.local", "old-password")
		})

		It("reports success for an unknown email", func() {
			Expect(service.ForgotPassword(ctx, "nobody@workspace.local")).To(Succeed())
			Expect(sessions.resetTokens).To(BeEmpty())
		})

		It("stores a token for a known email", func() {
			Expect(service.ForgotPassword(ctx, "member@workspace.local")).To(Succeed())
			Expect(sessions.resetTokens).To(HaveLen(1))
		})

		It("redeems a reset token once and invalidates the session", func() {
			userID := int64(1)
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "member@workspace.local",
				Password: "old-password",
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(sessions.StorePasswordResetToken(ctx, "reset-token", userID, time.Hour)).To(Succeed())

			err = service.ResetPassword(ctx, auth.ResetPasswordDTO{
				Token:       "reset-token",
				NewPassword: "brand-new-password",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.RefreshTokens(ctx, tokens.RefreshToken)
			Expect(err).To(MatchError(auth.ErrInvalidRefreshToken))

			err = service.ResetPassword(ctx, auth.ResetPasswordDTO{
				Token:       "reset-token",
				NewPassword: "another-password",
			})
			Expect(err).To(MatchError(auth.ErrInvalidResetToken))

			_, err = service.Authenticate(ctx, auth.LoginDTO{
				Email:    "member@workspace.local",
				Password: "brand-new-password",
			})
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
