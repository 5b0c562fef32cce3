package persistence

import (
	"testing"
	"time"

	"github.com/Layr-Labs/safe-connect-go/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalSession_RoundTrip(t *testing.T) {
	original := &types.Session{
		Topic:        "7f6e5d4c",
		PairingTopic: "a1b2c3",
		Namespaces: types.Namespaces{
			"eip155": {
				Chains:   []string{"eip155:1"},
				Accounts: []string{"eip155:1:0x46abFE1C972fCa43766d6aD70E1c1Df72F4Bb4d1"},
				Methods:  []string{"eth_sendTransaction"},
				Events:   []string{},
			},
		},
		Peer:         types.Metadata{Name: "dApp", Icons: []string{}},
		Expiry:       1800000000,
		Acknowledged: true,
	}

	data, err := MarshalSession(original)
	require.NoError(t, err)

	restored, err := UnmarshalSession(data)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestMarshalSession_NilInput(t *testing.T) {
	_, err := MarshalSession(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil Session")
}

func TestUnmarshalSession_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{name: "empty", data: []byte{}, want: "empty data"},
		{name: "invalid json", data: []byte(`{"topic": 12}`), want: "unmarshal"},
		{name: "missing topic", data: []byte(`{"pairingTopic": "x"}`), want: "no topic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalSession(tt.data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMarshalUnmarshalPairing_RoundTrip(t *testing.T) {
	original := &Pairing{
		Topic:          "a1b2c3",
		SymKey:         "00ff",
		RelayProtocol:  "irn",
		Expiry:         1800000000,
		Active:         true,
		PeerName:       "dApp",
		CreatedAtEpoch: 1700000000,
	}

	data, err := MarshalPairing(original)
	require.NoError(t, err)

	restored, err := UnmarshalPairing(data)
	require.NoError(t, err)
	assert.Equal(t, original, restored)

	_, err = MarshalPairing(nil)
	assert.Error(t, err)
	_, err = UnmarshalPairing(nil)
	assert.Error(t, err)
}

func TestMarshalUnmarshalClientIdentity(t *testing.T) {
	data, err := MarshalClientIdentity(&ClientIdentity{ClientID: "id", CreatedAt: 5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"clientId":"id","createdAt":5}`, string(data))

	restored, err := UnmarshalClientIdentity(data)
	require.NoError(t, err)
	assert.Equal(t, "id", restored.ClientID)

	_, err = MarshalClientIdentity(nil)
	assert.Error(t, err)
	_, err = UnmarshalClientIdentity([]byte("nope"))
	assert.Error(t, err)
}

func TestPairing_IsExpired(t *testing.T) {
	now := time.Unix(1000, 0)

	assert.False(t, (&Pairing{Expiry: 0}).IsExpired(now))
	assert.False(t, (&Pairing{Expiry: 1001}).IsExpired(now))
	assert.True(t, (&Pairing{Expiry: 1000}).IsExpired(now))
	assert.True(t, (*Pairing)(nil).IsExpired(now))
}

func TestSortSessions(t *testing.T) {
	sessions := []*types.Session{
		{Topic: "b", Expiry: 2},
		{Topic: "a", Expiry: 2},
		{Topic: "z", Expiry: 1},
	}
	SortSessions(sessions)
	assert.Equal(t, "z", sessions[0].Topic)
	assert.Equal(t, "a", sessions[1].Topic)
	assert.Equal(t, "b", sessions[2].Topic)
}
