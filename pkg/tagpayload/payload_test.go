package tagpayload_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayfinder/pkg/tagpayload"
)

func TestNewPayloadIsValid(t *testing.T) {
	p := tagpayload.New("room-101", map[string]interface{}{"floor": "2", "zone": "west"})

	assert.Equal(t, "room-101", p.LocationID)
	assert.NotZero(t, p.Timestamp)
	assert.Len(t, p.Checksum, tagpayload.ChecksumLength)
	assert.True(t, p.Valid())
}

func TestRoundTrip(t *testing.T) {
	p := tagpayload.New("hall-entrance", map[string]interface{}{
		"building": "north",
		"floor":    float64(3),
	})

	data, err := tagpayload.Encode(p)
	require.NoError(t, err)

	decoded, err := tagpayload.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, p.LocationID, decoded.LocationID)
	assert.Equal(t, p.Checksum, decoded.Checksum)
	assert.Equal(t, p.Timestamp, decoded.Timestamp)
	assert.Equal(t, p.AdditionalData, decoded.AdditionalData)
	assert.True(t, decoded.Valid())
}

func TestChecksumSensitivity(t *testing.T) {
	t.Run("location id", func(t *testing.T) {
		p := tagpayload.New("room-101", nil)
		p.LocationID = "room-102"
		assert.False(t, p.Valid())
	})

	t.Run("timestamp", func(t *testing.T) {
		p := tagpayload.New("room-101", nil)
		p.Timestamp++
		assert.False(t, p.Valid())
	})

	t.Run("additional data", func(t *testing.T) {
		p := tagpayload.New("room-101", map[string]interface{}{"zone": "west"})
		p.AdditionalData["zone"] = "east"
		assert.False(t, p.Valid())
	})

	t.Run("checksum itself", func(t *testing.T) {
		p := tagpayload.New("room-101", nil)
		p.Checksum = strings.Repeat("0", tagpayload.ChecksumLength)
		assert.False(t, p.Valid())
	})
}

func TestRefreshChecksumRestoresValidity(t *testing.T) {
	p := tagpayload.New("room-101", map[string]interface{}{"zone": "west"})

	p.LocationID = "room-202"
	require.False(t, p.Valid())

	p.RefreshChecksum()
	assert.True(t, p.Valid())
	assert.Equal(t, "room-202", p.LocationID)
	assert.Equal(t, "west", p.AdditionalData["zone"])
}

func TestSetAdditionalKeepsValidity(t *testing.T) {
	p := tagpayload.New("room-101", nil)
	p.SetAdditional("note", "under renovation")

	assert.True(t, p.Valid())
	assert.Equal(t, "under renovation", p.AdditionalData["note"])
}

func TestDecodeFailures(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", "definitely not structured data"},
		{"missing locationId", `{"checksum":"abc","timestamp":1700000000000}`},
		{"empty locationId", `{"locationId":"","checksum":"abc","timestamp":1700000000000}`},
		{"missing checksum", `{"locationId":"room-101","timestamp":1700000000000}`},
		{"missing timestamp", `{"locationId":"room-101","checksum":"abc"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := tagpayload.Decode([]byte(tc.data))
			assert.Nil(t, p)
			assert.ErrorIs(t, err, tagpayload.ErrDecode)
		})
	}
}

func TestDecodeRejectsTamperedPayload(t *testing.T) {
	p := tagpayload.New("room-101", map[string]interface{}{"zone": "west"})
	data, err := tagpayload.Encode(p)
	require.NoError(t, err)

	tampered := strings.Replace(string(data), "room-101", "room-999", 1)
	decoded, err := tagpayload.Decode([]byte(tampered))
	require.NoError(t, err)
	assert.False(t, decoded.Valid())
}

func TestFitBudgetDropsOldestEntries(t *testing.T) {
	p := tagpayload.New("room-101", nil)
	p.SetAdditional("first", strings.Repeat("a", 5000))
	p.SetAdditional("second", strings.Repeat("b", 5000))

	_, err := tagpayload.Encode(p)
	require.ErrorIs(t, err, tagpayload.ErrBudgetExceeded)

	require.NoError(t, p.FitBudget())

	assert.NotContains(t, p.AdditionalData, "first")
	assert.Contains(t, p.AdditionalData, "second")
	assert.True(t, p.Valid())

	_, err = tagpayload.Encode(p)
	assert.NoError(t, err)
}

func TestFitBudgetFailsWithNothingLeftToDrop(t *testing.T) {
	p := tagpayload.New(strings.Repeat("x", tagpayload.MaxEncodedBytes), nil)

	err := p.FitBudget()
	assert.ErrorIs(t, err, tagpayload.ErrBudgetExceeded)
}
