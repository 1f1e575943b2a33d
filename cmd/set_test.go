package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssignments(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[string]string
		wantErr bool
	}{
		{
			name: "plain keys",
			args: []string{"safety=unsafe", "tags=sun,sky"},
			want: map[string]string{"safety": "unsafe", "tags": "sun,sky"},
		},
		{
			name: "snake and kebab keys",
			args: []string{"primary_name=sun", "primary-name=moon"},
			want: map[string]string{"primaryName": "moon"},
		},
		{
			name: "value keeps later equals signs",
			args: []string{"description=a=b"},
			want: map[string]string{"description": "a=b"},
		},
		{
			name: "empty value clears",
			args: []string{"source="},
			want: map[string]string{"source": ""},
		},
		{
			name:    "missing equals",
			args:    []string{"safety"},
			wantErr: true,
		},
		{
			name:    "missing key",
			args:    []string{"=unsafe"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAssignments(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"sun", "sky"}, splitList(" sun, ,sky,"))
	assert.Nil(t, splitList(""))
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"1", " 20 ", "3"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 20, 3}, ids)

	_, err = parseIDs([]string{"1", "two"})
	assert.ErrorContains(t, err, `invalid id "two"`)
}
