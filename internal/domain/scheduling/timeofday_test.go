package scheduling

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/apperror"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:05")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(9*60+5), tod)
	assert.Equal(t, "09:05", tod.String())

	for _, bad := range []string{"9:05", "24:00", "12:60", "12-30", "ab:cd", ""} {
		_, err := ParseTimeOfDay(bad)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation), bad)
	}
}

func TestTimeOfDay_AddWraps(t *testing.T) {
	assert.Equal(t, "00:30", MustTimeOfDay("23:45").Add(45).String())
	assert.Equal(t, "23:50", MustTimeOfDay("00:10").Add(-20).String())
}

func TestTimeOfDay_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		At TimeOfDay `json:"at"`
	}{MustTimeOfDay("14:00")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"14:00"}`, string(b))
}

func TestInterval_Overlaps(t *testing.T) {
	iv := func(a, b string) Interval { return Interval{MustTimeOfDay(a), MustTimeOfDay(b)} }

	assert.True(t, iv("10:00", "11:00").Overlaps(iv("10:30", "11:30")))
	assert.True(t, iv("10:00", "12:00").Overlaps(iv("10:30", "11:00")))
	assert.False(t, iv("10:00", "11:00").Overlaps(iv("11:00", "12:00")), "touching")
	assert.False(t, iv("11:00", "12:00").Overlaps(iv("10:00", "11:00")), "touching")
}

func TestResolveInterval(t *testing.T) {
	got, err := ResolveInterval("10:00", "", 45)
	require.NoError(t, err)
	assert.Equal(t, "10:45", got.End.String())

	got, err = ResolveInterval("10:00", "11:15", 0)
	require.NoError(t, err)
	assert.Equal(t, 75, got.Minutes())

	_, err = ResolveInterval("23:30", "", 60)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "crosses midnight")

	_, err = ResolveInterval("10:00", "10:00", 0)
	assert.Error(t, err)

	_, err = ResolveInterval("10:00", "", 0)
	assert.Error(t, err)
}
