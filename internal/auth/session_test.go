package auth_test

import (
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/timeR3/ToolCTV/internal/auth"
)

var _ = Describe("SessionManager", func() {
	var (
		codec    *auth.SessionCodec
		sessions *auth.SessionManager
	)

	BeforeEach(func() {
		var err error
		codec, err = auth.NewSessionCodec(testSecret, time.Hour)
		Expect(err).NotTo(HaveOccurred())
		sessions = auth.NewSessionManager(codec, true)
	})

	findCookie := func(rec *httptest.ResponseRecorder) *http.Cookie {
		for _, c := range rec.Result().Cookies() {
			if c.Name == auth.SessionCookieName {
				return c
			}
		}
		return nil
	}

	Describe("Issue", func() {
		It("should set a hardened session cookie expiring with the token", func() {
			rec := httptest.NewRecorder()
			expiresAt, err := sessions.Issue(rec, 7, "carol@example.com", auth.RoleUser)
			Expect(err).NotTo(HaveOccurred())

			cookie := findCookie(rec)
			Expect(cookie).NotTo(BeNil())
			Expect(cookie.Value).NotTo(BeEmpty())
			Expect(cookie.HttpOnly).To(BeTrue())
			Expect(cookie.Secure).To(BeTrue())
			Expect(cookie.Path).To(Equal("/"))
			Expect(cookie.SameSite).To(Equal(http.SameSiteLaxMode))
			Expect(cookie.Expires).To(BeTemporally("~", expiresAt, time.Second))
		})

		Context("in development", func() {
			It("should leave the Secure attribute off", func() {
				dev := auth.NewSessionManager(codec, false)
				rec := httptest.NewRecorder()
				_, err := dev.Issue(rec, 7, "carol@example.com", auth.RoleUser)
				Expect(err).NotTo(HaveOccurred())
				Expect(findCookie(rec).Secure).To(BeFalse())
			})
		})
	})

	Describe("FromRequest", func() {
		It("should resolve an issued cookie back to its claims", func() {
			rec := httptest.NewRecorder()
			_, err := sessions.Issue(rec, 7, "carol@example.com", auth.RoleAdmin)
			Expect(err).NotTo(HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(findCookie(rec))

			claims := sessions.FromRequest(req)
			Expect(claims).NotTo(BeNil())
			Expect(claims.UserID).To(Equal(int64(7)))
			Expect(claims.Role).To(Equal(auth.RoleAdmin))
		})

		Context("when there is no cookie", func() {
			It("should return nil", func() {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				Expect(sessions.FromRequest(req)).To(BeNil())
			})
		})

		Context("when the cookie value is garbage", func() {
			It("should return nil", func() {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "garbage"})
				Expect(sessions.FromRequest(req)).To(BeNil())
			})
		})
	})

	Describe("Revoke", func() {
		It("should clear the cookie with an epoch expiry", func() {
			rec := httptest.NewRecorder()
			sessions.Revoke(rec)

			cookie := findCookie(rec)
			Expect(cookie).NotTo(BeNil())
			Expect(cookie.Value).To(BeEmpty())
			Expect(cookie.Expires).To(BeTemporally("<=", time.Unix(0, 0)))
		})

		It("should be idempotent", func() {
			rec := httptest.NewRecorder()
			sessions.Revoke(rec)
			sessions.Revoke(rec)

			for _, c := range rec.Result().Cookies() {
				if c.Name == auth.SessionCookieName {
					Expect(c.Value).To(BeEmpty())
				}
			}
		})
	})
})
