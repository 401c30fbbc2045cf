package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserRef(t *testing.T) {
	testCases := []struct {
		input string
		want  UserRef
	}{
		{input: "", want: Self()},
		{input: "42", want: ByID(42)},
		{input: "-7", want: ByID(-7)},
		{input: "alice", want: ByName("alice")},
		{input: "42abc", want: ByName("42abc")},
		{input: "2147483648", want: ByName("2147483648")},
		{input: " 42", want: ByName(" 42")},
		{input: "4.5", want: ByName("4.5")},
		{input: "1e3", want: ByName("1e3")},
		{input: "-2147483649", want: ByName("-2147483649")},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseUserRef(tc.input))
		})
	}
}

func TestUserRefQuery(t *testing.T) {
	testCases := []struct {
		name string
		ref  UserRef
		body string
	}{
		{name: "id", ref: ByID(42), body: `{"UserId":42}`},
		{name: "name", ref: ByName("alice"), body: `{"Username":"alice"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, err := json.Marshal(tc.ref.Query())
			require.NoError(t, err)
			assert.Equal(t, tc.body, string(body))
		})
	}

	assert.Nil(t, Self().Query())
	assert.True(t, UserRef{}.IsSelf())

	id, ok := ByID(7).ID()
	assert.True(t, ok)
	assert.Equal(t, int32(7), id)
	_, ok = ByID(7).Name()
	assert.False(t, ok)
	assert.Equal(t, `username "bob"`, ByName("bob").String())
}

func TestLogQuery(t *testing.T) {
	assert.Nil(t, LogSelf().Query())

	body, err := json.Marshal(LogForEveryone().Query())
	require.NoError(t, err)
	assert.Equal(t, `"ForEveryone"`, string(body))

	body, err = json.Marshal(LogForUser(3).Query())
	require.NoError(t, err)
	assert.Equal(t, `{"UserId":3}`, string(body))

	var q LogQuery
	require.NoError(t, json.Unmarshal([]byte(`{"UserId":5}`), &q))
	require.NotNil(t, q.UserID)
	assert.Equal(t, int32(5), *q.UserID)

	require.NoError(t, json.Unmarshal([]byte(`"ForEveryone"`), &q))
	assert.Nil(t, q.UserID)

	assert.ErrorIs(t, json.Unmarshal([]byte(`"Everyone"`), &q), ErrInvalidLogQuery)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{}`), &q), ErrInvalidLogQuery)
}

func TestValidationKind(t *testing.T) {
	for _, kind := range ValidationKinds {
		assert.True(t, kind.Valid(), kind)
	}
	assert.False(t, ValidationKind("email").Valid())
	assert.False(t, ValidationKind("").Valid())
}

func TestItemInStock(t *testing.T) {
	assert.True(t, Item{Amount: 1}.InStock())
	assert.False(t, Item{}.InStock())
}
