package models

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourse_AddRemoveLecture(t *testing.T) {
	c := &Course{ID: "c1"}
	c.AddLecture(Lecture{ID: "l1", Title: "intro"})
	c.AddLecture(Lecture{ID: "l2", Title: "basics"})
	c.AddLecture(Lecture{ID: "l3", Title: "advanced"})

	require.Equal(t, 3, c.NumberOfLectures)
	assert.Equal(t, "c1", c.Lectures[0].CourseID)

	removed, ok := c.RemoveLecture("l2")
	require.True(t, ok)
	assert.Equal(t, "basics", removed.Title)
	assert.Equal(t, 2, c.NumberOfLectures)
	assert.Equal(t, []string{"l1", "l3"}, lectureIDs(c))

	_, ok = c.RemoveLecture("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, c.NumberOfLectures)
}

func TestCourse_LectureCountMatchesLength(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 50; run++ {
		c := &Course{ID: fmt.Sprintf("course-%d", run)}
		next := 0
		for step := 0; step < 200; step++ {
			if len(c.Lectures) == 0 || rng.Intn(3) > 0 {
				c.AddLecture(Lecture{ID: fmt.Sprintf("l%d", next)})
				next++
			} else {
				victim := c.Lectures[rng.Intn(len(c.Lectures))].ID
				_, ok := c.RemoveLecture(victim)
				require.True(t, ok)
			}
			require.Equal(t, len(c.Lectures), c.NumberOfLectures)
		}
	}
}

func TestCourse_RemoveKeepsBackingArrayOfCopies(t *testing.T) {
	c := &Course{ID: "c1"}
	c.AddLecture(Lecture{ID: "a"})
	c.AddLecture(Lecture{ID: "b"})
	snapshot := c.Lectures

	c.RemoveLecture("a")

	assert.Equal(t, "a", snapshot[0].ID)
	assert.Equal(t, []string{"b"}, lectureIDs(c))
}

func TestCourseUpdate_Apply(t *testing.T) {
	title := "Go"
	c := &Course{Title: "old", Category: "dev"}
	upd := CourseUpdate{Title: &title}

	assert.False(t, upd.Empty())
	upd.Apply(c)

	assert.Equal(t, "Go", c.Title)
	assert.Equal(t, "dev", c.Category)
	assert.True(t, CourseUpdate{}.Empty())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to SubscriptionStatus
		want     bool
	}{
		{SubscriptionCreated, SubscriptionActive, true},
		{SubscriptionActive, SubscriptionCancelled, true},
		{SubscriptionActive, SubscriptionExpired, true},
		{SubscriptionCreated, SubscriptionCancelled, false},
		{SubscriptionCancelled, SubscriptionActive, false},
		{SubscriptionExpired, SubscriptionActive, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestUser_View(t *testing.T) {
	u := &User{
		ID:           "u1",
		Email:        "a@b.c",
		PasswordHash: "hash",
		Role:         RoleLearner,
		Subscription: &Subscription{GatewaySubscriptionID: "sub_1", Status: SubscriptionActive},
	}
	v := u.View()

	assert.Equal(t, "u1", v.ID)
	require.NotNil(t, v.Subscription)
	assert.Equal(t, "sub_1", v.Subscription.ID)
	assert.True(t, u.HasActiveSubscription())
	assert.False(t, u.IsAdmin())
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
}

func lectureIDs(c *Course) []string {
	ids := make([]string, 0, len(c.Lectures))
	for _, l := range c.Lectures {
		ids = append(ids, l.ID)
	}
	return ids
}
