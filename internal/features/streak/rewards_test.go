package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taslogit/pressfbot/internal/ledger"
)

func day(offset int) *time.Time {
	d := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	return &d
}

func TestTransition(t *testing.T) {
	today := *day(0)

	tests := []struct {
		name  string
		state ledger.StreakState
		want  Outcome
	}{
		{
			name:  "first check-in",
			state: ledger.StreakState{},
			want:  Outcome{Kind: KindFirst, NewStreak: 1, LongestStreak: 1, AwardXP: true, Date: today},
		},
		{
			name:  "same day is a no-op",
			state: ledger.StreakState{CurrentStreak: 5, LongestStreak: 9, LastStreakDate: day(0), FreeSkipCount: 2},
			want:  Outcome{Kind: KindSameDay, NewStreak: 5, LongestStreak: 9, Date: today},
		},
		{
			name:  "date in the future never moves back",
			state: ledger.StreakState{CurrentStreak: 5, LongestStreak: 5, LastStreakDate: day(1)},
			want:  Outcome{Kind: KindSameDay, NewStreak: 5, LongestStreak: 5, Date: *day(1)},
		},
		{
			name:  "yesterday hits the 7 day milestone",
			state: ledger.StreakState{CurrentStreak: 6, LongestStreak: 6, LastStreakDate: day(-1)},
			want:  Outcome{Kind: KindContinued, NewStreak: 7, LongestStreak: 7, MilestoneRep: 15, Achievement: true, AwardXP: true, Date: today},
		},
		{
			name:  "longest kept when higher",
			state: ledger.StreakState{CurrentStreak: 6, LongestStreak: 20, LastStreakDate: day(-1)},
			want:  Outcome{Kind: KindContinued, NewStreak: 7, LongestStreak: 20, MilestoneRep: 15, AwardXP: true, Date: today},
		},
		{
			name:  "past a milestone gives nothing",
			state: ledger.StreakState{CurrentStreak: 7, LongestStreak: 7, LastStreakDate: day(-1)},
			want:  Outcome{Kind: KindContinued, NewStreak: 8, LongestStreak: 8, AwardXP: true, Date: today},
		},
		{
			name:  "hundred days",
			state: ledger.StreakState{CurrentStreak: 99, LongestStreak: 99, LastStreakDate: day(-1)},
			want:  Outcome{Kind: KindContinued, NewStreak: 100, LongestStreak: 100, MilestoneRep: 500, Achievement: true, AwardXP: true, Date: today},
		},
		{
			name:  "one missed day covered by a skip",
			state: ledger.StreakState{CurrentStreak: 2, LongestStreak: 4, LastStreakDate: day(-2), FreeSkipCount: 1},
			want:  Outcome{Kind: KindSkipUsed, NewStreak: 3, LongestStreak: 4, SkipsUsed: 1, MilestoneRep: 5, AwardXP: true, Date: today},
		},
		{
			name:  "one missed day without a skip resets",
			state: ledger.StreakState{CurrentStreak: 2, LongestStreak: 4, LastStreakDate: day(-2)},
			want:  Outcome{Kind: KindReset, NewStreak: 1, LongestStreak: 4, AwardXP: true, Date: today},
		},
		{
			name:  "two missed days reset even with a skip",
			state: ledger.StreakState{CurrentStreak: 12, LongestStreak: 12, LastStreakDate: day(-3), FreeSkipCount: 1},
			want:  Outcome{Kind: KindReset, NewStreak: 1, LongestStreak: 12, AwardXP: true, Date: today},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Transition(today, tt.state))
		})
	}
}

func TestMilestones(t *testing.T) {
	for streak, want := range map[int]int64{1: 0, 3: 5, 4: 0, 7: 15, 14: 30, 30: 100, 31: 0, 100: 500, 101: 0} {
		assert.Equal(t, want, MilestoneReward(streak), "streak %d", streak)
	}

	d, r, ok := NextMilestone(0)
	assert.True(t, ok)
	assert.Equal(t, 3, d)
	assert.Equal(t, int64(5), r)

	d, _, ok = NextMilestone(7)
	assert.True(t, ok)
	assert.Equal(t, 14, d)

	_, _, ok = NextMilestone(100)
	assert.False(t, ok)
}
