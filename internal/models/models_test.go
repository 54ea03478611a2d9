package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEpisodeIDFromData(t *testing.T) {
	tests := []struct {
		data string
		want string
	}{
		{"/watch/one-piece-100?ep=2142", "2142"},
		{"/watch/one-piece-100?ep=2142&lang=en", "2142"},
		{"2142", "2142"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EpisodeIDFromData(tt.data), tt.data)
	}
}

func TestNewServerRef(t *testing.T) {
	assert.Equal(t, DubStatusSubbed, NewServerRef("sub", "1").Status)
	assert.Equal(t, DubStatusDubbed, NewServerRef("dub", "2").Status)
	// anything that is not "sub" counts as dubbed, raw included
	assert.Equal(t, DubStatusDubbed, NewServerRef("raw", "3").Status)
}

func TestNewEpisodeRef(t *testing.T) {
	n := 3
	ep := NewEpisodeRef("/watch/frieren-18542?ep=107257", &n, "The End of One Journey")

	assert.Equal(t, "107257", ep.ID)
	assert.Equal(t, "/watch/frieren-18542?ep=107257", ep.Data)
	assert.Equal(t, 3, *ep.Number)
}
