package beans

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type audit struct {
	UpdatedBy string
	UpdatedAt time.Time
}

type profile struct {
	audit
	Number   string `beans:"-"`
	Name     string
	Email    *string
	Hours    int
	Tags     []string
	Visa     *bool
	internal string
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestCopyNonNil(t *testing.T) {
	dst := profile{
		audit:    audit{UpdatedBy: "seed"},
		Number:   "S202500001",
		Name:     "Ana",
		Email:    strPtr("ana@example.com"),
		Hours:    20,
		Tags:     []string{"b2"},
		Visa:     boolPtr(true),
		internal: "keep",
	}
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	patch := profile{
		audit:    audit{UpdatedAt: now},
		Number:   "S209999999",
		Email:    strPtr("ana.k@example.com"),
		Visa:     boolPtr(false),
		internal: "overwrite",
	}

	require.NoError(t, CopyNonNil(&dst, patch))

	assert.Equal(t, "S202500001", dst.Number, "tagged field must not be copied")
	assert.Equal(t, "Ana", dst.Name)
	assert.Equal(t, "ana.k@example.com", *dst.Email)
	assert.Equal(t, 20, dst.Hours)
	assert.Equal(t, []string{"b2"}, dst.Tags)
	assert.False(t, *dst.Visa, "non-nil pointer to false is copied")
	assert.Equal(t, "keep", dst.internal)
	assert.Equal(t, "seed", dst.UpdatedBy)
	assert.Equal(t, now, dst.UpdatedAt)
}

func TestCopyNonNil_PointerSource(t *testing.T) {
	dst := profile{Name: "Ana"}
	require.NoError(t, CopyNonNil(&dst, &profile{Name: "Bea"}))
	assert.Equal(t, "Bea", dst.Name)

	var nilPatch *profile
	require.NoError(t, CopyNonNil(&dst, nilPatch))
	assert.Equal(t, "Bea", dst.Name)
}

func TestCopyNonNil_Errors(t *testing.T) {
	dst := profile{}

	assert.Error(t, CopyNonNil(dst, profile{}), "dst must be a pointer")
	assert.Error(t, CopyNonNil(&dst, audit{}), "types must match")

	var nilDst *profile
	assert.Error(t, CopyNonNil(nilDst, profile{}))
}
