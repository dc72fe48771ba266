package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	p := NewPage([]int{1, 2}, 25, 2, 10)

	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasPrevPage)
	assert.True(t, p.HasNextPage)
	assert.Equal(t, 1, *p.PrevPage)
	assert.Equal(t, 3, *p.NextPage)
}

func TestNewPage_LastAndEmpty(t *testing.T) {
	last := NewPage([]int{1}, 21, 3, 10)
	assert.False(t, last.HasNextPage)
	assert.Nil(t, last.NextPage)

	empty := NewPage[int](nil, 0, 1, 10)
	assert.NotNil(t, empty.Docs)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasPrevPage)
	assert.False(t, empty.HasNextPage)
}

func TestUserPublic_DropsCredentials(t *testing.T) {
	u := User{ID: "u1", Username: "alice", PasswordHash: "$2a$...", RefreshToken: "rt"}

	p := u.Public()
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "alice", p.Username)
}

func TestPageOffset(t *testing.T) {
	off, ok := PageOffset(3, 10)
	assert.True(t, ok)
	assert.Equal(t, 20, off)

	off, ok = PageOffset(0, 10)
	assert.True(t, ok)
	assert.Zero(t, off)

	_, ok = PageOffset(math.MaxInt, 100)
	assert.False(t, ok)
	_, ok = PageOffset(math.MaxInt/100+2, 100)
	assert.False(t, ok)

	off, ok = PageOffset(math.MaxInt/100+1, 100)
	assert.True(t, ok)
	assert.Positive(t, off)
}
