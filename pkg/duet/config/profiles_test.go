package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duetcmp/duet/pkg/duet/config"
	"github.com/duetcmp/duet/pkg/duet/engine"
)

func TestProfiles(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	t.Run("empty without a profiles file", func(t *testing.T) {
		profiles, err := config.LoadProfiles()
		require.NoError(t, err)
		assert.Empty(t, profiles)
	})

	t.Run("save and load", func(t *testing.T) {
		require.NoError(t, config.SaveProfile(config.Profile{
			Name:  "photos",
			Left:  "/home/me/photos",
			Right: "/backup/photos",
			Options: engine.Options{
				VerifyHashes: true,
				Ignore:       []string{"*.xmp"},
			},
		}))

		profiles, err := config.LoadProfiles()
		require.NoError(t, err)
		require.Len(t, profiles, 1)

		p := profiles[0]
		assert.Equal(t, "photos", p.Name)
		assert.Equal(t, "/home/me/photos", p.Left)
		assert.True(t, p.Options.VerifyHashes)
		assert.Equal(t, []string{"*.xmp"}, p.Options.Ignore)
		assert.False(t, p.SavedAt.IsZero())
	})

	t.Run("sorted by name", func(t *testing.T) {
		require.NoError(t, config.SaveProfile(config.Profile{Name: "archive", Left: "/a", Right: "/b"}))

		profiles, err := config.LoadProfiles()
		require.NoError(t, err)
		require.Len(t, profiles, 2)
		assert.Equal(t, "archive", profiles[0].Name)
		assert.Equal(t, "photos", profiles[1].Name)
	})

	t.Run("save replaces by name", func(t *testing.T) {
		require.NoError(t, config.SaveProfile(config.Profile{
			Name:  "photos",
			Left:  "/home/me/pictures",
			Right: "/backup/photos",
		}))

		profiles, err := config.LoadProfiles()
		require.NoError(t, err)
		require.Len(t, profiles, 2)
		assert.Equal(t, "/home/me/pictures", profiles[1].Left)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, config.DeleteProfile("archive"))

		profiles, err := config.LoadProfiles()
		require.NoError(t, err)
		require.Len(t, profiles, 1)
		assert.Equal(t, "photos", profiles[0].Name)
	})

	t.Run("deleting an unknown profile errors", func(t *testing.T) {
		assert.ErrorContains(t, config.DeleteProfile("archive"), "no profile named")
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		assert.Error(t, config.SaveProfile(config.Profile{Left: "/a", Right: "/b"}))
	})
}
