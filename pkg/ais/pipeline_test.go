package ais

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observed struct {
	kind     ErrorKind
	sentence string
}

func newTestPipeline(cfg Config) (*Pipeline, *[]observed) {
	var seen []observed
	p := NewPipeline(cfg, func(kind ErrorKind, sentence string) {
		seen = append(seen, observed{kind, sentence})
	}, zerolog.Nop())
	return p, &seen
}

func TestPipelineSingleSentence(t *testing.T) {
	p, seen := newTestPipeline(Config{})

	rec, err := p.Process("!AIVDM,1,1,,A,13u?etPv2;0n:dDPwUM1U1Cb069D,0*24")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.MessageType())
	assert.Empty(t, *seen)
}

func TestPipelineReassemblesStaticVoyage(t *testing.T) {
	p, seen := newTestPipeline(Config{})

	rec, err := p.Process(makeSentence("AIVDM", 2, 1, "3", "A", frag5Part1, 0))
	require.NoError(t, err)
	assert.Nil(t, rec, "first fragment must not produce a record")
	assert.Equal(t, 1, p.PendingGroups())

	rec, err = p.Process(makeSentence("AIVDM", 2, 2, "3", "A", frag5Part2, 2))
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, 5, rec.MessageType())
	mmsi, _ := rec.MMSI()
	assert.Equal(t, uint32(351759000), mmsi)
	name, _ := rec.String(FieldVesselName)
	assert.Equal(t, "EVER DIADEM", name)
	gid, _ := rec.String(FieldMessageID)
	assert.Equal(t, "3", gid)
	raw, _ := rec.String(FieldRawPayload)
	assert.Equal(t, frag5Part1+frag5Part2, raw)
	fill, _ := rec.Uint(FieldNumFillBits)
	assert.Equal(t, uint64(2), fill)

	assert.Equal(t, 0, p.PendingGroups())
	assert.Empty(t, *seen)
}

func TestPipelineObservesChecksumMismatch(t *testing.T) {
	p, seen := newTestPipeline(Config{})

	const line = "!AIVDM,1,1,,A,13u?etPv2;0n:dDPwUM1U1Cb069D,0*25"
	rec, err := p.Process(line)
	assert.Nil(t, rec)
	assert.Equal(t, KindChecksumMismatch, KindOf(err))
	require.Len(t, *seen, 1)
	assert.Equal(t, observed{KindChecksumMismatch, line}, (*seen)[0])
}

func TestPipelineObservesUnsupportedType(t *testing.T) {
	p, seen := newTestPipeline(Config{})

	rec, err := p.Process(makeSentence("AIVDM", 1, 1, "", "A", "K", 0))
	assert.Nil(t, rec)
	assert.Equal(t, KindUnsupportedMsgType, KindOf(err))
	require.Len(t, *seen, 1)
	assert.Equal(t, KindUnsupportedMsgType, (*seen)[0].kind)
}

func TestPipelineReassemblyTimeout(t *testing.T) {
	p, seen := newTestPipeline(Config{ReassemblyTimeout: 60 * time.Second})
	clock := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	p.reasm.now = func() time.Time { return clock }

	rec, err := p.Process(makeSentence("AIVDM", 2, 1, "3", "A", frag5Part1, 0))
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 1, p.PendingGroups())

	clock = clock.Add(61 * time.Second)
	assert.Equal(t, 1, p.SweepReassembly())
	assert.Equal(t, 0, p.PendingGroups())

	require.Len(t, *seen, 1)
	assert.Equal(t, KindReassemblyTimeout, (*seen)[0].kind)
	assert.Equal(t, "A/3", (*seen)[0].sentence)
}

func TestPipelineOwnShipTagPreserved(t *testing.T) {
	p, _ := newTestPipeline(Config{})

	rec, err := p.Process(makeSentence("AIVDO", 1, 1, "", "", "13u?etPv2;0n:dDPwUM1U1Cb069D", 0))
	require.NoError(t, err)
	require.NotNil(t, rec)

	tag, _ := rec.String(FieldTag)
	assert.Equal(t, "AIVDO", tag)
	_, hasChannel := rec.String(FieldChannel)
	assert.False(t, hasChannel, "empty channel must stay absent")
}

func TestPipelineContinuesAfterErrors(t *testing.T) {
	p, seen := newTestPipeline(Config{})

	lines := []string{
		"garbage",
		"!AIVDM,1,1,,A,13u?etPv2;0n:dDPwUM1U1Cb069D,0*25",
		"!AIVDM,1,1,,A,13u?etPv2;0n:dDPwUM1U1Cb069D,0*24",
	}
	var records int
	for _, line := range lines {
		rec, _ := p.Process(line)
		if rec != nil {
			records++
		}
	}
	assert.Equal(t, 1, records)
	assert.Len(t, *seen, 2)
}
