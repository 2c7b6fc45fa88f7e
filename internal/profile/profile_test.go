package profile

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restartfu/truefan/internal/domain"
)

func TestDuty(t *testing.T) {
	tests := []struct {
		temp    float64
		profile domain.Profile
		want    int
	}{
		{80, domain.ProfileQuiet, 180},
		{79.9, domain.ProfileQuiet, 120},
		{65, domain.ProfileQuiet, 120},
		{64.9, domain.ProfileQuiet, 70},
		{-10, domain.ProfileQuiet, 70},

		{72, domain.ProfileCool, 255},
		{70, domain.ProfileCool, 255},
		{69.99, domain.ProfileCool, 180},
		{55, domain.ProfileCool, 180},
		{54, domain.ProfileCool, 100},

		{50, domain.ProfileAggressive, 255},
		{49, domain.ProfileAggressive, 180},
		{40, domain.ProfileAggressive, 180},
		{39, domain.ProfileAggressive, 130},

		{0, "unknown-profile", 120},
		{95, "unknown-profile", 120},
		{95, "", 120},
		{95, "Cool", 120},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, Duty(test.temp, test.profile), "Duty(%v, %q)", test.temp, test.profile)
	}
}

func TestDuty_InRange(t *testing.T) {
	for _, p := range append(domain.Profiles, "other") {
		for temp := -20.0; temp <= 120; temp += 0.5 {
			duty := Duty(temp, p)
			assert.GreaterOrEqual(t, duty, 0)
			assert.LessOrEqual(t, duty, 255)
		}
	}
	assert.Equal(t, 255, Duty(math.Inf(1), domain.ProfileCool))
}

func TestStore_RoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "fan_profile.conf"), nil)

	require.NoError(t, store.Save(domain.ProfileQuiet))
	assert.Equal(t, domain.ProfileQuiet, store.Load())

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "profile=quiet\n", string(data))

	require.NoError(t, store.Save(domain.ProfileAggressive))
	assert.Equal(t, domain.ProfileAggressive, store.Load())
}

func TestStore_Load(t *testing.T) {
	tests := map[string]struct {
		content *string
		want    domain.Profile
	}{
		"missing file":     {want: domain.ProfileCool},
		"empty file":       {content: ptr(""), want: domain.ProfileCool},
		"malformed":        {content: ptr("quiet\n"), want: domain.ProfileCool},
		"empty value":      {content: ptr("profile=\n"), want: domain.ProfileCool},
		"after other keys": {content: ptr("# fan\nprofile=aggressive\n"), want: domain.ProfileAggressive},
		"no newline":       {content: ptr("profile=quiet"), want: domain.ProfileQuiet},
		"unknown is kept":  {content: ptr("profile=turbo\n"), want: "turbo"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "fan_profile.conf")
			if test.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*test.content), 0o644))
			}
			assert.Equal(t, test.want, NewStore(path, nil).Load())
		})
	}
}

func TestStore_SaveFailure(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing", "fan_profile.conf"), nil)
	assert.ErrorIs(t, store.Save(domain.ProfileCool), domain.ErrWriteFailed)
}

func ptr(s string) *string { return &s }
