package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONDecoder_AllFields(t *testing.T) {
	raw := `{"project":"Project X","summary":"Built it","completed":"- a\n- b","blockers":"","next_steps":"- c","thoughts":"idea"}`
	values, err := JSONDecoder{}.Decode(raw, dailyFields)
	require.NoError(t, err)
	assert.Equal(t, "Project X", values[keyProject])
	assert.Equal(t, "Built it", values[keySummary])
	assert.Equal(t, "- a\n- b", values[keyCompleted])
	assert.Equal(t, "", values[keyBlockers])
	assert.Equal(t, "- c", values[keyNextSteps])
	assert.Equal(t, "idea", values[keyThoughts])
}

func TestJSONDecoder_MissingFieldsAreEmpty(t *testing.T) {
	values, err := JSONDecoder{}.Decode(`{"summary":"only this"}`, dailyFields)
	require.NoError(t, err)
	require.Len(t, values, len(dailyFields))
	assert.Equal(t, "only this", values[keySummary])
	assert.Equal(t, "", values[keyProject])
	assert.Equal(t, "", values[keyThoughts])
}

func TestJSONDecoder_KeyVariantsAndArrays(t *testing.T) {
	raw := "```json\n{\"Project\":\"Y\",\"Next Steps\":[\"ship\",\"- test\"],\"Thoughts_And_Ideas\":\"x\\\\n- y\",\"in_progress\":null}\n```"
	values, err := JSONDecoder{}.Decode(raw, dailyFields)
	require.NoError(t, err)
	assert.Equal(t, "Y", values[keyProject])
	assert.Equal(t, "- ship\n- test", values[keyNextSteps])
	assert.Equal(t, "x\n- y", values[keyThoughts])
	assert.Equal(t, "", values[keyBlockers])
}

func TestJSONDecoder_WeeklyAliases(t *testing.T) {
	raw := `{"week_summary":"s","accomplishments":"a","insights":"i","blockers":"b","next_focus":"n"}`
	values, err := JSONDecoder{}.Decode(raw, weeklyFields)
	require.NoError(t, err)
	assert.Equal(t, "b", values[keyProgress])
	assert.Equal(t, "n", values[keyNextWeekFocus])
}

func TestJSONDecoder_ProseFails(t *testing.T) {
	_, err := JSONDecoder{}.Decode("I could not produce JSON today.", dailyFields)
	assert.Error(t, err)
}

func TestMarkerDecoder_BoldAndHeadings(t *testing.T) {
	raw := `Here is the note.

**Project**: Project X
**Summary**: Fixed the flaky tests
and reviewed PRs.

## ✅ Completed Today
- Flaky test fix

### Next Steps
- Release

Thoughts: maybe cache builds`

	values, err := MarkerDecoder{}.Decode(raw, dailyFields)
	require.NoError(t, err)
	assert.Equal(t, "Project X", values[keyProject])
	assert.Equal(t, "Fixed the flaky tests\nand reviewed PRs.", values[keySummary])
	assert.Equal(t, "- Flaky test fix", values[keyCompleted])
	assert.Equal(t, "- Release", values[keyNextSteps])
	assert.Equal(t, "maybe cache builds", values[keyThoughts])
	assert.Equal(t, "", values[keyBlockers])
}

func TestMarkerDecoder_BrokenJSON(t *testing.T) {
	raw := `{
  "project": "Project Y",
  "summary": "Half a JSON object",
  "next_steps": "- finish it",`

	values, err := MarkerDecoder{}.Decode(raw, dailyFields)
	require.NoError(t, err)
	assert.Equal(t, "Project Y", values[keyProject])
	assert.Equal(t, "Half a JSON object", values[keySummary])
	assert.Equal(t, "- finish it", values[keyNextSteps])
}

func TestMarkerDecoder_TruncatedSingleLineJSON(t *testing.T) {
	raw := `{"project": "Project X", "summary": "Fixed the flaky build", "completed": "- merged CI patch", "next_steps": "- release`

	values, err := MarkerDecoder{}.Decode(raw, dailyFields)
	require.NoError(t, err)
	assert.Equal(t, "Project X", values[keyProject])
	assert.Equal(t, "Fixed the flaky build", values[keySummary])
	assert.Equal(t, "- merged CI patch", values[keyCompleted])
	assert.Equal(t, "- release", values[keyNextSteps])
	assert.Equal(t, "", values[keyThoughts])

	chained, _ := DefaultChain.Decode(raw, dailyFields)
	assert.Equal(t, "Project X", chained[keyProject])
	assert.Equal(t, "Fixed the flaky build", chained[keySummary])
}

func TestMarkerDecoder_ProjectOnlyFallsThrough(t *testing.T) {
	raw := "Project: Garden\nspent the day weeding and planting beans"
	_, err := MarkerDecoder{}.Decode(raw, dailyFields)
	assert.ErrorIs(t, err, errNoMarkers)

	values, name := DefaultChain.Decode(raw, dailyFields)
	assert.Equal(t, "raw", name)
	assert.Contains(t, values[keySummary], "weeding")
}

func TestMarkerDecoder_LongestLabelWins(t *testing.T) {
	values, err := MarkerDecoder{}.Decode("Completed today: shipped\nIn progress / blockers: waiting on review", dailyFields)
	require.NoError(t, err)
	assert.Equal(t, "shipped", values[keyCompleted])
	assert.Equal(t, "waiting on review", values[keyBlockers])
}

func TestMarkerDecoder_IgnoresWordsThatOnlyStartWithLabel(t *testing.T) {
	_, err := MarkerDecoder{}.Decode("Projected revenue: 10k\nSummary of the call was short", dailyFields)
	assert.ErrorIs(t, err, errNoMarkers)
}

func TestRawDecoder_EverythingInSummary(t *testing.T) {
	values, err := RawDecoder{}.Decode("  just prose  ", dailyFields)
	require.NoError(t, err)
	assert.Equal(t, "just prose", values[keySummary])
	assert.Equal(t, "", values[keyProject])

	weekly, err := RawDecoder{}.Decode("prose", weeklyFields)
	require.NoError(t, err)
	assert.Equal(t, "prose", weekly[keyWeekSummary])
}

func TestChain_FirstSuccessWins(t *testing.T) {
	cases := []struct {
		raw     string
		decoder string
	}{
		{`{"summary":"x"}`, "json"},
		{"Summary: x", "markers"},
		{"nothing structured here", "raw"},
		{"", "raw"},
	}
	for _, tc := range cases {
		_, name := DefaultChain.Decode(tc.raw, dailyFields)
		assert.Equal(t, tc.decoder, name, "raw=%q", tc.raw)
	}
}

func TestChain_EmptyChainFallsBackToRaw(t *testing.T) {
	values, name := Chain{}.Decode("text", dailyFields)
	assert.Equal(t, "raw", name)
	assert.Equal(t, "text", values[keySummary])
}
