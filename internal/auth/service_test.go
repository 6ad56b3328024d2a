package auth_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/org-chat/internal/auth"
	"github.com/frahmantamala/org-chat/internal/directory"
)

func TestAuthService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "AuthService Suite")
}

// Mock credential store for testing
type mockCredentialStore struct {
	users     map[string]*directory.User
	passwords map[string]string
}

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{
		users:     make(map[string]*directory.User),
		passwords: make(map[string]string),
	}
}

func (m *mockCredentialStore) addUser(user *directory.User, password string) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	m.users[user.ID] = user
	m.passwords[user.Email] = string(hash)
}

func (m *mockCredentialStore) GetPasswordForEmail(ctx context.Context, email string) (string, string, error) {
	hash, ok := m.passwords[email]
	if !ok {
		return "", "", directory.ErrUserNotFound
	}
	for _, u := range m.users {
		if u.Email == email {
			return hash, u.ID, nil
		}
	}
	return "", "", directory.ErrUserNotFound
}

func (m *mockCredentialStore) GetUser(ctx context.Context, id string) (*directory.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, directory.ErrUserNotFound
	}
	return user, nil
}

var _ = Describe("AuthService", func() {
	var (
		store   *mockCredentialStore
		tokens  *auth.JWTTokenGenerator
		service *auth.Service
		ctx     context.Context
		user    *directory.User
	)

	BeforeEach(func() {
		store = newMockCredentialStore()
		user = &directory.User{
			ID:    "user-1",
			Email: "dika@mail.com",
			Role:  directory.RoleEmployee,
		}
		store.addUser(user, "s3cret")

		tokens = auth.NewJWTTokenGenerator(
			"access-secret-for-testing-only-0123456789",
			"refresh-secret-for-testing-only-012345678",
			15*time.Minute,
			7*24*time.Hour,
		)
		service = auth.NewService(store, tokens)
		ctx = context.Background()
	})

	Describe("Authenticate", func() {
		It("should issue a token pair for valid credentials", func() {
			pair, err := service.Authenticate(ctx, auth.LoginDTO{
				Email: "dika@mail.com", Password: "s3cret",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(pair.AccessToken).NotTo(BeEmpty())
			Expect(pair.RefreshToken).NotTo(BeEmpty())

			claims, err := service.ValidateAccessToken(pair.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal("user-1"))
		})

		It("should reject a wrong password", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{
				Email: "dika@mail.com", Password: "wrong",
			})
			Expect(err).To(Equal(auth.ErrInvalidCredentials))
		})

		It("should reject an unknown email", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{
				Email: "ghost@mail.com", Password: "s3cret",
			})
			Expect(err).To(Equal(auth.ErrInvalidCredentials))
		})

		It("should reject missing fields before touching the store", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{Email: "dika@mail.com"})
			Expect(err).To(BeAssignableToTypeOf(auth.ValidationError{}))
		})
	})

	Describe("RefreshTokens", func() {
		It("should issue a fresh pair from a valid refresh token", func() {
			pair, err := service.Authenticate(ctx, auth.LoginDTO{
				Email: "dika@mail.com", Password: "s3cret",
			})
			Expect(err).NotTo(HaveOccurred())

			renewed, err := service.RefreshTokens(pair.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(renewed.AccessToken).NotTo(BeEmpty())

			claims, err := service.ValidateAccessToken(renewed.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal("user-1"))
		})

		It("should reject garbage", func() {
			_, err := service.RefreshTokens("not-a-token")
			Expect(err).To(Equal(auth.ErrInvalidToken))
		})
	})

	Describe("VerifyToken", func() {
		It("should resolve the token's user", func() {
			pair, err := service.Authenticate(ctx, auth.LoginDTO{
				Email: "dika@mail.com", Password: "s3cret",
			})
			Expect(err).NotTo(HaveOccurred())

			resolved, err := service.VerifyToken(ctx, pair.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved.ID).To(Equal("user-1"))
			Expect(resolved.Role).To(Equal(directory.RoleEmployee))
		})

		It("should reject a token for a user no longer in the directory", func() {
			pair, err := service.Authenticate(ctx, auth.LoginDTO{
				Email: "dika@mail.com", Password: "s3cret",
			})
			Expect(err).NotTo(HaveOccurred())

			delete(store.users, user.ID)

			_, err = service.VerifyToken(ctx, pair.AccessToken)
			Expect(err).To(Equal(auth.ErrInvalidToken))
		})

		It("should reject an expired token", func() {
			expiredGen := &auth.JWTTokenGenerator{
				AccessTokenSecret:  tokens.AccessTokenSecret,
				RefreshTokenSecret: tokens.RefreshTokenSecret,
				AccessTokenTTL:     -time.Minute,
				RefreshTokenTTL:    tokens.RefreshTokenTTL,
			}
			stale, err := expiredGen.GenerateAccessToken("user-1")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.VerifyToken(ctx, stale)
			Expect(err).To(Equal(auth.ErrTokenExpired))
		})

		It("should reject a token signed with a different secret", func() {
			otherGen := auth.NewJWTTokenGenerator(
				"completely-different-secret-0123456789abc",
				"another-different-secret-0123456789abcdef",
				15*time.Minute,
				7*24*time.Hour,
			)
			foreign, err := otherGen.GenerateAccessToken("user-1")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.VerifyToken(ctx, foreign)
			Expect(err).To(Equal(auth.ErrInvalidToken))
		})
	})
})
