package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
	"gorm.io/datatypes"

	"ivyx/readiness-api/internal/models"
	"ivyx/readiness-api/internal/repositories"
)

func newAssessment(userID uuid.UUID, overall int, at time.Time) *models.Assessment {
	return &models.Assessment{
		ID:        uuid.New(),
		UserID:    userID,
		Results:   datatypes.NewJSONType(models.AssessmentResult{OverallScore: overall}),
		CreatedAt: at,
	}
}

func TestMemoryAssessmentRepository(t *testing.T) {
	Convey("Given an in-memory assessment repository", t, func() {
		ctx := context.Background()
		repo := repositories.NewMemoryAssessmentRepository()
		alice, bob := uuid.New(), uuid.New()
		base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

		first := newAssessment(alice, 60, base)
		second := newAssessment(alice, 70, base.Add(time.Minute))
		tied := newAssessment(alice, 80, base.Add(time.Minute))
		other := newAssessment(bob, 90, base)
		for _, a := range []*models.Assessment{first, second, tied, other} {
			So(repo.Create(ctx, a), ShouldBeNil)
		}

		Convey("ListByUser returns only the owner's records newest first", func() {
			list, err := repo.ListByUser(ctx, alice, 0)
			So(err, ShouldBeNil)
			So(len(list), ShouldEqual, 3)
			So(list[0].ID, ShouldEqual, tied.ID)
			So(list[1].ID, ShouldEqual, second.ID)
			So(list[2].ID, ShouldEqual, first.ID)
		})

		Convey("ListByUser honours the limit", func() {
			list, err := repo.ListByUser(ctx, alice, 2)
			So(err, ShouldBeNil)
			So(len(list), ShouldEqual, 2)
			So(list[0].ID, ShouldEqual, tied.ID)
		})

		Convey("DeleteOne refuses another user's record", func() {
			err := repo.DeleteOne(ctx, alice, other.ID)
			So(err, ShouldEqual, repositories.ErrNotFound)

			count, _ := repo.CountByUser(ctx, bob)
			So(count, ShouldEqual, int64(1))
		})

		Convey("DeleteByUser clears only that user", func() {
			deleted, err := repo.DeleteByUser(ctx, alice)
			So(err, ShouldBeNil)
			So(deleted, ShouldEqual, int64(3))

			total, _ := repo.CountAll(ctx)
			So(total, ShouldEqual, int64(1))
		})
	})
}

func TestMemoryUserRepository(t *testing.T) {
	Convey("Given an in-memory user repository", t, func() {
		ctx := context.Background()
		repo := repositories.NewMemoryUserRepository()
		user := &models.User{FullName: "Ada", Email: "ada@example.com", Role: models.RoleStudent}
		So(repo.Create(ctx, user), ShouldBeNil)
		So(user.ID, ShouldNotEqual, uuid.Nil)

		Convey("A second user with the same email is rejected", func() {
			err := repo.Create(ctx, &models.User{Email: "ada@example.com"})
			So(err, ShouldEqual, repositories.ErrDuplicateEmail)
		})

		Convey("Lookups by email and id find the user", func() {
			byEmail, err := repo.FindByEmail(ctx, "ada@example.com")
			So(err, ShouldBeNil)
			So(byEmail.ID, ShouldEqual, user.ID)

			byID, err := repo.FindByID(ctx, user.ID)
			So(err, ShouldBeNil)
			So(byID.FullName, ShouldEqual, "Ada")
		})

		Convey("Delete frees the email", func() {
			So(repo.Delete(ctx, user.ID), ShouldBeNil)
			So(repo.Delete(ctx, user.ID), ShouldEqual, repositories.ErrNotFound)

			_, err := repo.FindByEmail(ctx, "ada@example.com")
			So(err, ShouldEqual, repositories.ErrNotFound)
			So(repo.Create(ctx, &models.User{Email: "ada@example.com"}), ShouldBeNil)
		})
	})
}
