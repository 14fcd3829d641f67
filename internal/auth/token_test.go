package auth_test

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
)

var _ = Describe("TokenManager", func() {
	var (
		tokens *auth.TokenManager
		user   *domain.User
	)

	BeforeEach(func() {
		tokens = auth.NewTokenManager("test-secret", "support-desk", 30*time.Minute)
		user = &domain.User{ID: 7, Username: "frank", Roles: []domain.Role{domain.RoleAdmin}}
	})

	It("round-trips the user id, username and roles", func() {
		signed, exp, err := tokens.GenerateToken(user)
		Expect(err).NotTo(HaveOccurred())
		Expect(exp).To(BeTemporally("~", time.Now().Add(30*time.Minute), 5*time.Second))

		claims, err := tokens.ParseToken(signed)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.UserID).To(Equal(int64(7)))
		Expect(claims.Username).To(Equal("frank"))
		Expect(claims.Subject).To(Equal("7"))
		Expect(claims.Roles).To(Equal([]string{string(domain.RoleAdmin)}))
	})

	It("rejects tokens signed with another secret", func() {
		other := auth.NewTokenManager("other-secret", "support-desk", time.Minute)
		signed, _, err := other.GenerateToken(user)
		Expect(err).NotTo(HaveOccurred())

		_, err = tokens.ParseToken(signed)
		Expect(err).To(HaveOccurred())
	})

	It("rejects tokens from another issuer", func() {
		other := auth.NewTokenManager("test-secret", "someone-else", time.Minute)
		signed, _, err := other.GenerateToken(user)
		Expect(err).NotTo(HaveOccurred())

		_, err = tokens.ParseToken(signed)
		Expect(err).To(HaveOccurred())
	})

	It("rejects expired tokens", func() {
		claims := &auth.Claims{
			UserID: 7,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "support-desk",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		Expect(err).NotTo(HaveOccurred())

		_, err = tokens.ParseToken(signed)
		Expect(err).To(MatchError(jwt.ErrTokenExpired))
	})

	It("rejects non-HMAC algorithms", func() {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, &auth.Claims{UserID: 7}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		Expect(err).NotTo(HaveOccurred())

		_, err = tokens.ParseToken(signed)
		Expect(err).To(HaveOccurred())
	})
})
