package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs_SeparateValue(t *testing.T) {
	args := []string{"-c", "conf.json", "-x", "junk", "-t", "0.8"}
	got := FilterArgs(args, []string{"-c", "-t"})
	assert.Equal(t, []string{"-c", "conf.json", "-t", "0.8"}, got)
}

func TestFilterArgs_EqualsForm(t *testing.T) {
	args := []string{"--config=conf.json", "--other=1"}
	got := FilterArgs(args, []string{"--config"})
	assert.Equal(t, []string{"--config=conf.json"}, got)
}

func TestFilterArgs_FlagWithoutValue(t *testing.T) {
	args := []string{"-v", "-c", "-t"}
	got := FilterArgs(args, []string{"-c"})
	assert.Equal(t, []string{"-c"}, got)
}

func TestFilterArgs_Empty(t *testing.T) {
	got := FilterArgs(nil, []string{"-c"})
	assert.Empty(t, got)
}

func TestJsonConfigFlags(t *testing.T) {
	orig := os.Args
	defer func() { os.Args = orig }()

	os.Args = []string{"facelock", "-c", "my.json"}
	assert.Equal(t, "my.json", JsonConfigFlags())

	os.Args = []string{"facelock"}
	assert.Equal(t, "", JsonConfigFlags())
}
