package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		want    string
		wantTag *string
	}{
		{name: "name and tag", raw: "Faker#KR1", want: "Faker", wantTag: ptr("KR1")},
		{name: "bare name", raw: "Faker", want: "Faker"},
		{name: "empty tag", raw: "Faker#", want: "Faker", wantTag: ptr("")},
		{name: "surrounding whitespace", raw: "  Hide on bush # KR1 ", want: "Hide on bush", wantTag: ptr("KR1")},
		{name: "hash inside name uses last separator", raw: "a#b#EUW", want: "a#b", wantTag: ptr("EUW")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.raw)
			assert.Equal(t, tc.want, got.Name)
			if tc.wantTag == nil {
				assert.Nil(t, got.Tag)
				return
			}
			require.NotNil(t, got.Tag)
			assert.Equal(t, *tc.wantTag, *got.Tag)
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, New("Faker", "KR1").Equal(New("faker", "KR1")))
	assert.False(t, New("Faker", "KR1").Equal(New("Faker", "kr1")))
	assert.True(t, Parse("Faker").Equal(Parse("FAKER")))
	assert.False(t, Parse("Faker").Equal(Parse("Faker#")), "missing tag differs from empty tag")
	assert.False(t, Parse("Faker#KR1").Equal(Parse("Faker")))
	assert.False(t, New("Faker", "KR1").Equal(New("Chovy", "KR1")))
}

func TestString(t *testing.T) {
	assert.Equal(t, "Faker#KR1", New("Faker", "KR1").String())
	assert.Equal(t, "Faker", Parse("Faker").String())
	assert.Equal(t, "Faker#EUW", Parse("Faker").WithTag("EUW").String())
}

func TestIsZero(t *testing.T) {
	assert.True(t, Riot{}.IsZero())
	assert.False(t, Parse("x").IsZero())
	assert.Equal(t, "", Parse("x").TagOrEmpty())
}

func ptr(s string) *string { return &s }

func TestRiot_KeepTag(t *testing.T) {
	known := New("Caps", "EUW")

	assert.Equal(t, "Caps#EUW", Riot{Name: "Caps"}.KeepTag(known).String())
	assert.Equal(t, "Caps#G2", New("Caps", "G2").KeepTag(known).String())
	assert.Equal(t, "Caps", Riot{Name: "Caps"}.KeepTag(Riot{Name: "Caps"}).String())
	assert.Nil(t, Riot{Name: "Caps"}.KeepTag(Riot{}).Tag)
}
