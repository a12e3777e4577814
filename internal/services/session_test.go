package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"ivyx/readiness-api/internal/models"
	"ivyx/readiness-api/internal/repositories"
)

const testSecret = "test-secret-with-enough-entropy-for-hs256"

func TestSessionService(t *testing.T) {
	Convey("Given a session service with a registered user", t, func() {
		ctx := context.Background()
		users := repositories.NewMemoryUserRepository()
		accounts := newTestAccounts(users, repositories.NewMemoryAssessmentRepository())
		store := NewMemorySessionStore()
		sessions := NewSessionService(testSecret, 15*time.Minute, time.Hour, store, accounts)

		user, err := accounts.Create(ctx, signupRequest("maya@example.com"))
		So(err, ShouldBeNil)

		Convey("When a session is issued", func() {
			session, err := sessions.Issue(ctx, user)
			So(err, ShouldBeNil)

			Convey("Then the access token parses back to the user", func() {
				claims, err := sessions.ParseAccessToken(session.AccessToken)
				So(err, ShouldBeNil)
				id, err := claims.UserID()
				So(err, ShouldBeNil)
				So(id, ShouldEqual, user.ID)
				So(claims.Role, ShouldEqual, models.RoleStudent)
				So(session.ExpiresAt, ShouldHappenAfter, time.Now())
			})

			Convey("Then the refresh token rotates and cannot be reused", func() {
				next, refreshed, err := sessions.Refresh(ctx, session.RefreshToken)
				So(err, ShouldBeNil)
				So(refreshed.ID, ShouldEqual, user.ID)
				So(next.RefreshToken, ShouldNotEqual, session.RefreshToken)

				_, _, err = sessions.Refresh(ctx, session.RefreshToken)
				So(err, ShouldEqual, ErrInvalidToken)

				_, _, err = sessions.Refresh(ctx, next.RefreshToken)
				So(err, ShouldBeNil)
			})

			Convey("Then a revoked refresh token is dead", func() {
				So(sessions.Revoke(ctx, session.RefreshToken), ShouldBeNil)
				_, _, err := sessions.Refresh(ctx, session.RefreshToken)
				So(err, ShouldEqual, ErrInvalidToken)
			})

			Convey("Then the raw refresh token is not the stored key", func() {
				_, err := store.Consume(ctx, session.RefreshToken)
				So(err, ShouldEqual, ErrInvalidToken)
			})

			Convey("Then a refresh for a deleted user fails", func() {
				So(accounts.Delete(ctx, user.ID), ShouldBeNil)
				_, _, err := sessions.Refresh(ctx, session.RefreshToken)
				So(err, ShouldEqual, ErrInvalidToken)
			})

			Convey("Then a tampered access token is rejected", func() {
				_, err := sessions.ParseAccessToken(session.AccessToken + "x")
				So(err, ShouldEqual, ErrInvalidToken)
			})

			Convey("Then a token signed with another secret is rejected", func() {
				other := NewSessionService("another-secret", time.Minute, time.Hour, NewMemorySessionStore(), accounts)
				foreign, err := other.Issue(ctx, user)
				So(err, ShouldBeNil)
				_, err = sessions.ParseAccessToken(foreign.AccessToken)
				So(err, ShouldEqual, ErrInvalidToken)
			})
		})

		Convey("When an unsigned token is presented", func() {
			claims := AccessClaims{
				Role: models.RoleAdmin,
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   user.ID.String(),
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
			}
			unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
			So(err, ShouldBeNil)

			_, err = sessions.ParseAccessToken(unsigned)
			So(err, ShouldEqual, ErrInvalidToken)
		})

		Convey("When a token has expired", func() {
			expired := NewSessionService(testSecret, -time.Minute, time.Hour, store, accounts)
			session, err := expired.Issue(ctx, user)
			So(err, ShouldBeNil)

			_, err = sessions.ParseAccessToken(session.AccessToken)
			So(err, ShouldEqual, ErrInvalidToken)
		})

		Convey("When the refresh token is empty or unknown", func() {
			_, _, err := sessions.Refresh(ctx, "")
			So(err, ShouldEqual, ErrInvalidToken)
			_, _, err = sessions.Refresh(ctx, "unknown-token")
			So(err, ShouldEqual, ErrInvalidToken)
		})
	})

	Convey("An expired memory session cannot be consumed", t, func() {
		ctx := context.Background()
		store := NewMemorySessionStore()
		So(store.Save(ctx, "key", uuid.New(), -time.Second), ShouldBeNil)
		_, err := store.Consume(ctx, "key")
		So(err, ShouldEqual, ErrInvalidToken)
	})
}
