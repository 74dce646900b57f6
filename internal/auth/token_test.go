package auth_test

import (
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/timeR3/ToolCTV/internal/auth"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

const testSecret = "0123456789abcdef0123456789abcdef"

var _ = Describe("SessionCodec", func() {
	var codec *auth.SessionCodec

	BeforeEach(func() {
		var err error
		codec, err = auth.NewSessionCodec(testSecret, time.Hour)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewSessionCodec", func() {
		Context("when the secret is empty", func() {
			It("should refuse construction", func() {
				_, err := auth.NewSessionCodec("", time.Hour)
				Expect(err).To(HaveOccurred())
			})
		})

		Context("when the ttl is non-positive", func() {
			It("should default to 24 hours", func() {
				c, err := auth.NewSessionCodec(testSecret, 0)
				Expect(err).NotTo(HaveOccurred())
				Expect(c.TTL()).To(Equal(24 * time.Hour))
			})
		})
	})

	Describe("Encode and Decode", func() {
		It("should round-trip identity claims", func() {
			token, expiresAt, err := codec.Encode(42, "alice@example.com", auth.RoleAdmin)
			Expect(err).NotTo(HaveOccurred())
			Expect(token).NotTo(BeEmpty())
			Expect(expiresAt).To(BeTemporally("~", time.Now().Add(time.Hour), 5*time.Second))

			claims, err := codec.Decode(token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal(int64(42)))
			Expect(claims.Email).To(Equal("alice@example.com"))
			Expect(claims.Role).To(Equal(auth.RoleAdmin))
		})

		Context("when the token has expired", func() {
			It("should return ErrTokenExpired", func() {
				issued := time.Now()
				codec.WithClock(func() time.Time { return issued })
				token, _, err := codec.Encode(1, "bob@example.com", auth.RoleUser)
				Expect(err).NotTo(HaveOccurred())

				codec.WithClock(func() time.Time { return issued.Add(2 * time.Hour) })
				_, err = codec.Decode(token)
				Expect(err).To(MatchError(auth.ErrTokenExpired))
			})
		})

		Context("when the signature is tampered with", func() {
			It("should return ErrBadSignature", func() {
				token, _, err := codec.Encode(1, "bob@example.com", auth.RoleUser)
				Expect(err).NotTo(HaveOccurred())

				parts := strings.Split(token, ".")
				Expect(parts).To(HaveLen(3))

				sig := []byte(parts[2])
				if sig[0] == 'A' {
					sig[0] = 'B'
				} else {
					sig[0] = 'A'
				}
				tampered := parts[0] + "." + parts[1] + "." + string(sig)

				_, err = codec.Decode(tampered)
				Expect(err).To(MatchError(auth.ErrBadSignature))
			})
		})

		Context("when the token was signed with a different secret", func() {
			It("should return ErrBadSignature", func() {
				other, err := auth.NewSessionCodec("another-secret-another-secret-xx", time.Hour)
				Expect(err).NotTo(HaveOccurred())

				token, _, err := other.Encode(1, "bob@example.com", auth.RoleUser)
				Expect(err).NotTo(HaveOccurred())

				_, err = codec.Decode(token)
				Expect(err).To(MatchError(auth.ErrBadSignature))
			})
		})

		Context("when the token is not a JWT at all", func() {
			It("should return ErrTokenMalformed", func() {
				_, err := codec.Decode("definitely-not-a-token")
				Expect(err).To(MatchError(auth.ErrTokenMalformed))
			})
		})
	})
})
