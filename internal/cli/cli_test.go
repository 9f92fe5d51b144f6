package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateOrTime(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2030-01-07", time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC), false},
		{"2030-01-07T10:30:00+01:00", time.Date(2030, 1, 7, 9, 30, 0, 0, time.UTC), false},
		{"07/01/2030", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		got, err := parseDateOrTime(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %s", tt.in, got)
	}
}

func TestRootCommands(t *testing.T) {
	root := NewRoot()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "slots"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestSlotsGenerateRequiresFlags(t *testing.T) {
	root := NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"slots", "generate", "--from", "2030-01-07"})

	err := root.Execute()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "provider"), err.Error())
}

func TestSlotsGenerateRejectsBadProvider(t *testing.T) {
	root := NewRoot()
	root.SetArgs([]string{"slots", "generate", "--provider", "vet-1", "--from", "2030-01-07", "--to", "2030-01-14"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--provider")
}
