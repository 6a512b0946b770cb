package bpe

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

func TestTrainLogsMerges(t *testing.T) {
	var buf bytes.Buffer
	logger := log.Logger
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() {
		log.Logger = logger
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	})

	tok := newBasic(t)
	require.NoError(t, tok.Train("aaabdaaabac", 259))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"pair":[97,97]`)
	assert.Contains(t, lines[0], `"token":"aa"`)
	assert.Contains(t, lines[2], `"id":258`)
	assert.Contains(t, lines[3], "Training complete")
}
