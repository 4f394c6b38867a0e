package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJob_IsExpired(t *testing.T) {
	deadline := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	j := &Job{ApplicationDeadline: &deadline}

	assert.False(t, j.IsExpired(time.Date(2026, 5, 10, 23, 59, 0, 0, time.UTC)), "deadline day is still open")
	assert.True(t, j.IsExpired(time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC)))
	assert.False(t, (&Job{}).IsExpired(time.Now()))
}

func TestEnumValidators(t *testing.T) {
	assert.True(t, IsValidJobType(JobTypeInternship))
	assert.False(t, IsValidJobType("gig"))
	assert.True(t, IsValidExperienceLevel(ExperienceSenior))
	assert.False(t, IsValidExperienceLevel("junior"))
	assert.True(t, IsValidApplicationStatus(ApplicationOffered))
	assert.False(t, IsValidApplicationStatus("accepted"))
	assert.True(t, IsValidEventType(EventCareerFair))
	assert.False(t, IsValidEventType("party"))
}

func TestEvent_Registration(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(time.Hour)
	capacity := 2
	e := &Event{RegistrationDeadline: &deadline, MaxParticipants: &capacity}

	assert.True(t, e.IsRegistrationOpen(now))
	assert.False(t, e.IsRegistrationOpen(deadline))
	assert.False(t, e.IsFull(1))
	assert.True(t, e.IsFull(2))
	assert.False(t, (&Event{}).IsFull(1000))
}
