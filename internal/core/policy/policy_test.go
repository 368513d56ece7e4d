package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langschool/internal/core/apperror"
)

func TestTuitionFor(t *testing.T) {
	tests := []struct {
		weeks int
		want  string
	}{
		{1, "485"},    // 260 + 150 + 75
		{4, "1265"},   // 1040 + 225
		{11, "3085"},  // 2860 + 225
		{12, "3033"},  // 3120 - 312 + 225
		{52, "12393"}, // 13520 - 1352 + 225
	}

	for _, tt := range tests {
		got, err := TuitionFor(tt.weeks)
		require.NoError(t, err)
		assert.True(t, got.Equal(mustMoney(tt.want)), "weeks=%d got %s want %s", tt.weeks, got, tt.want)
	}
}

func TestTuitionFor_OutOfRange(t *testing.T) {
	for _, weeks := range []int{0, -3, MaxCourseWeeks + 1} {
		_, err := TuitionFor(weeks)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "weeks=%d", weeks)
	}
}

func TestGradeFor(t *testing.T) {
	cases := map[int]Grade{
		100: GradeA, 90: GradeA,
		89: GradeB, 80: GradeB,
		79: GradeC, 70: GradeC,
		69: GradeD, 60: GradeD,
		59: GradeF, 0: GradeF,
	}
	for score, want := range cases {
		got, err := GradeFor(score)
		require.NoError(t, err)
		assert.Equal(t, want, got, "score=%d", score)
	}

	_, err := GradeFor(101)
	assert.Error(t, err)
	_, err = GradeFor(-1)
	assert.Error(t, err)
}

func TestRules(t *testing.T) {
	assert.True(t, Passed(60))
	assert.False(t, Passed(59))

	assert.True(t, MeetsVisaHours(15))
	assert.False(t, MeetsVisaHours(14))

	assert.True(t, ClassHasCapacity(MaxClassSize-1))
	assert.False(t, ClassHasCapacity(MaxClassSize))
}
