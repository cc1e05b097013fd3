package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"-c", "holder.json", "-a", "localhost"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{"-c", "holder.json"},
		},
		{
			name:         "flag with equals",
			args:         []string{"-config=alt.json", "-a", "localhost"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{"-config=alt.json"},
		},
		{
			name:         "unknown flags ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
		{
			name:         "flag without value at end is kept as-is",
			args:         []string{"-c"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "flag followed by another flag takes no value",
			args:         []string{"-c", "-notvalue"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "multi-letter holder flags",
			args:         []string{"-pool-max", "20", "-k", "http://agent:8031", "-serve"},
			allowedFlags: []string{"-pool-max", "-k"},
			want:         []string{"-pool-max", "20", "-k", "http://agent:8031"},
		},
		{
			name:         "double-dash spellings",
			args:         []string{"--pool-max", "3", "--config=alt.json", "--", "-k"},
			allowedFlags: []string{"-pool-max", "-config"},
			want:         []string{"--pool-max", "3", "--config=alt.json"},
		},
		{
			name:         "inline value does not consume the next argument",
			args:         []string{"-c=a.json", "b.json"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c=a.json"},
		},
		{
			name:         "empty args",
			args:         []string{},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestJSONConfigPath(t *testing.T) {
	t.Run("short -c with value", func(t *testing.T) {
		assert.Equal(t, "/path/short.json", JSONConfigPath([]string{"-c", "/path/short.json"}))
	})

	t.Run("long -config with value", func(t *testing.T) {
		assert.Equal(t, "/path/long.json", JSONConfigPath([]string{"-config", "/path/long.json"}))
	})

	t.Run("unknown flags are ignored", func(t *testing.T) {
		assert.Empty(t, JSONConfigPath([]string{"-x", "1", "-y", "2"}))
	})

	t.Run("double-dash long form", func(t *testing.T) {
		assert.Equal(t, "/path/dd.json", JSONConfigPath([]string{"-a", ":8002", "--config", "/path/dd.json"}))
	})

	t.Run("multiple flags, last wins", func(t *testing.T) {
		assert.Equal(t, "/path/2.json", JSONConfigPath([]string{"-c", "/path/1.json", "-config", "/path/2.json"}))
	})
}
