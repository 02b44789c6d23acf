package cases

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/myrjola/blackwood/internal/models"
	"github.com/myrjola/blackwood/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func TestNewRepositoryLoadsEmbeddedCase(t *testing.T) {
	repo, err := NewRepository(testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)
	require.Equal(t, 1, repo.Len())

	c, err := repo.Get("blackwood-mansion")
	require.NoError(t, err)
	require.Equal(t, "The Blackwood Mansion", c.Title)
	require.Len(t, c.Suspects, 3)
	require.Equal(t, "s1", c.Solution.SuspectID)
	require.Equal(t, models.RoleKiller, c.Killer().Role)
	require.Contains(t, c.Weapons, c.Solution.Weapon)
	require.Contains(t, c.Motives, c.Solution.Motive)

	_, err = repo.Get("no-such-case")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRandomFromEmptyRepository(t *testing.T) {
	repo := NewEmptyRepository(testhelpers.NewLogger(io.Discard))
	_, err := repo.Random()
	require.ErrorIs(t, err, ErrEmpty)
}

func TestRandomReturnsLoadedCase(t *testing.T) {
	repo, err := NewRepository(testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)

	c, err := repo.Random()
	require.NoError(t, err)
	require.Equal(t, "blackwood-mansion", c.ID)
}

func TestLoadDir(t *testing.T) {
	repo, err := NewRepository(testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)

	require.NoError(t, repo.LoadDir("testdata"))
	require.Equal(t, 2, repo.Len())

	c, err := repo.Get("seaside-villa")
	require.NoError(t, err)
	require.Equal(t, "The Seaside Villa", c.Title)

	witness, ok := c.Suspect("w1")
	require.True(t, ok)
	require.Equal(t, models.RoleWitness, witness.Role)
	require.NotEmpty(t, witness.Observation)

	summaries := repo.List()
	require.Equal(t, []Summary{
		{ID: "blackwood-mansion", Title: "The Blackwood Mansion"},
		{ID: "seaside-villa", Title: "The Seaside Villa"},
	}, summaries)
}

func TestLoadDirRejectsInvalidCase(t *testing.T) {
	dir := t.TempDir()
	// Two killers and a missing observation.
	invalid := `
id: broken
title: Broken Case
solution: {suspect: k1, weapon: rope, motive: greed}
weapons: [rope]
motives: [greed]
suspects:
  - {id: k1, name: A, role: killer, voice: v, public_story: p, secret: s, redlines: [x]}
  - {id: k2, name: B, role: killer, voice: v, public_story: p, secret: s, redlines: [x]}
  - {id: w1, name: C, role: witness, voice: v, public_story: p}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(invalid), 0o600))

	repo, err := NewRepository(testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)
	require.ErrorIs(t, repo.LoadDir(dir), ErrInvalidCase)
	require.Equal(t, 1, repo.Len())
}

func TestValidateRequiresRoleFields(t *testing.T) {
	repo, err := NewRepository(testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)
	base, err := repo.Get("blackwood-mansion")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *models.Case)
	}{
		{
			name: "killer without secret",
			mutate: func(c *models.Case) {
				c.Suspects[0].Secret = ""
			},
		},
		{
			name: "killer without redlines",
			mutate: func(c *models.Case) {
				c.Suspects[0].Redlines = nil
			},
		},
		{
			name: "accomplice without assistance",
			mutate: func(c *models.Case) {
				c.Suspects[1].Assistance = ""
			},
		},
		{
			name: "witness without observation",
			mutate: func(c *models.Case) {
				c.Suspects[2].Observation = ""
			},
		},
		{
			name: "solution weapon not declared",
			mutate: func(c *models.Case) {
				c.Solution.Weapon = "chandelier"
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			c.Suspects = append([]models.SuspectPersona(nil), base.Suspects...)
			tt.mutate(&c)
			require.ErrorIs(t, validate(&c), ErrInvalidCase)
		})
	}
}
