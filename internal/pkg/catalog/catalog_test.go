package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiden/trackstore/app/models"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	assert.Equal(t, []string{"1", "2", "3", "4"}, c.IDs())

	tr, err := c.Lookup("3")
	require.NoError(t, err)
	assert.Equal(t, "track3.mp3", tr.File)
	assert.Equal(t, "MP3", tr.Format)
	assert.Equal(t, DefaultUnitAmount, tr.UnitAmount)
	assert.Equal(t, "eur", tr.Currency)

	_, err = c.Lookup("999")
	assert.ErrorIs(t, err, ErrTrackNotFound)
}

func TestNew_SkipsEmptyIDsAndKeepsOrder(t *testing.T) {
	c := New(
		models.Track{ID: "b", File: "b.flac"},
		models.Track{ID: " "},
		models.Track{ID: "a", File: "a.wav", UnitAmount: 350, Currency: "usd"},
		models.Track{ID: "b", File: "b2.ogg"},
	)

	all := c.All()
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, "b2.ogg", all[0].File)
	assert.Equal(t, "OGG", all[0].Format)
	assert.Equal(t, int64(350), all[1].UnitAmount)
	assert.Equal(t, "usd", all[1].Currency)
}

func TestFormatFromName(t *testing.T) {
	assert.Equal(t, "MP3", FormatFromName("song.mp3"))
	assert.Equal(t, "FLAC", FormatFromName("dir/song.FLAC"))
	assert.Equal(t, "MP3", FormatFromName("noext"))
}

func TestEstimateDuration(t *testing.T) {
	tests := []struct {
		name   string
		size   int64
		format string
		want   time.Duration
	}{
		{"unknown size", 0, "mp3", 0},
		{"mp3", 4_000_000, "MP3", 100 * time.Second},
		{"file name format", 1_000_000, "track.flac", 8 * time.Second},
		{"tiny file floors at one second", 10, "wav", time.Second},
		{"capped", 10_000_000_000, "wav", MaxEstimatedDuration},
		{"default bitrate", 3_200_000, "xyz", 100 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateDuration(tt.size, tt.format))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "—", FormatDuration(0))
	assert.Equal(t, "—", FormatDuration(-time.Second))
	assert.Equal(t, "1:40", FormatDuration(100*time.Second))
	assert.Equal(t, "0:07", FormatDuration(7*time.Second))
	assert.Equal(t, "120:00", FormatDuration(MaxEstimatedDuration))
}
