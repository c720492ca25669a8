package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreset_Labels(t *testing.T) {
	var got []string
	for _, p := range Catalog {
		got = append(got, p.Label())
	}
	assert.Equal(t, []string{"5s", "10s", "15s", "30s", "1m", "2m", "5m"}, got)
	assert.Equal(t, "1m", Preset{Seconds: 119}.Label())
}

func TestButtons_EachHandlerKeepsItsOwnPreset(t *testing.T) {
	c := New(0, 1000)
	buttons := Buttons(c, Catalog)
	require.Len(t, buttons, len(Catalog))

	for i, b := range buttons {
		b.Activate()
		assert.Equal(t, float64(Catalog[i].Seconds), c.State().Width, b.Label)
	}
	buttons[1].Activate()
	assert.Equal(t, 10.0, c.State().Width)
}

func TestParsePresets(t *testing.T) {
	assert.Equal(t, Catalog, ParsePresets(nil))
	assert.Equal(t, []Preset{{20}, {90}}, ParsePresets([]int{20, 0, -4, 90}))
}

func TestDispatch_Events(t *testing.T) {
	c := New(0, 100)
	c.Dispatch(WidthEvent{Seconds: 20})
	c.Dispatch(ScrollEvent{Tick: 2500})
	c.Dispatch(ZoomEvent{})
	c.Dispatch(nil)
	s := c.State()
	assert.InDelta(t, 13.333, s.Width, 1e-3)
	assert.Equal(t, 25.0, s.Offset)

	c.Dispatch(ExtendEvent{Start: 0, End: 200})
	assert.InDelta(t, 200.0, c.State().End, 1e-9)
}

func TestTimeUnit(t *testing.T) {
	u, err := ParseTimeUnit("minutes")
	require.NoError(t, err)
	assert.Equal(t, Minutes, u)
	assert.Equal(t, "1.50m", u.Format(90))
	assert.Equal(t, Seconds, u.Toggle())
	assert.Equal(t, "90.0s", Seconds.Format(90))
	assert.Equal(t, 1.5, Minutes.Scale(90))

	_, err = ParseTimeUnit("hours")
	assert.Error(t, err)
}
