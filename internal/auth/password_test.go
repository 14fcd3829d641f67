package auth_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/support-desk/internal/auth"
)

var _ = Describe("BcryptHasher", func() {
	It("verifies the original password only", func() {
		hasher := auth.NewBcryptHasher(bcrypt.MinCost)
		hash, err := hasher.Hash("hunter2")
		Expect(err).NotTo(HaveOccurred())
		Expect(hash).NotTo(Equal("hunter2"))

		Expect(hasher.Compare(hash, "hunter2")).To(Succeed())
		Expect(hasher.Compare(hash, "hunter3")).To(MatchError(bcrypt.ErrMismatchedHashAndPassword))
	})

	It("falls back to the default cost when out of range", func() {
		Expect(auth.NewBcryptHasher(0).Cost).To(Equal(bcrypt.DefaultCost))
		Expect(auth.NewBcryptHasher(64).Cost).To(Equal(bcrypt.DefaultCost))
		Expect(auth.NewBcryptHasher(bcrypt.MinCost).Cost).To(Equal(bcrypt.MinCost))
	})
})
