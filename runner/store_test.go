package runner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/e2etap/e2etap/model"
)

func TestStoreAddGetList(t *testing.T) {
	s := NewStore()
	require.Nil(t, s.Latest())

	r1 := &model.Run{ID: "aaaa"}
	r2 := &model.Run{ID: "bbbb"}
	s.Add(r1)
	s.Add(r2)

	got, err := s.Get("aaaa")
	require.NoError(t, err)
	require.Equal(t, r1, got)

	require.Equal(t, r2, s.Latest())
	require.Equal(t, []*model.Run{r1, r2}, s.List())
}

func TestStoreUnknownRun(t *testing.T) {
	s := NewStore()
	s.Add(&model.Run{ID: "aaaa"})

	_, err := s.Get("zzzz")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown run")
	require.Contains(t, err.Error(), "1 runs recorded")
}

func TestStoreIgnoresDuplicateIDs(t *testing.T) {
	s := NewStore()
	first := &model.Run{ID: "aaaa", WorkDir: "one"}
	s.Add(first)
	s.Add(&model.Run{ID: "aaaa", WorkDir: "two"})

	got, err := s.Get("aaaa")
	require.NoError(t, err)
	require.Equal(t, "one", got.WorkDir)
	require.Len(t, s.List(), 1)
}
