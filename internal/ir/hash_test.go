package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameHashStable(t *testing.T) {
	a := IRObject{"blah": IRInt(1), "woof": IRInt(3)}
	b := IRObject{"woof": IRInt(3), "blah": IRInt(1)}

	ha, err := FrameHash(a)
	require.NoError(t, err)
	hb, err := FrameHash(b)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
	assert.Len(t, ha, 64)
}

func TestFrameHashDiffers(t *testing.T) {
	ha, err := FrameHash(IRObject{"x": IRInt(1)})
	require.NoError(t, err)
	hb, err := FrameHash(IRObject{"x": IRFloat(1)})
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb, "int and float render differently")
}

func TestDomainSeparation(t *testing.T) {
	data := []byte("{}")
	assert.NotEqual(t, hashWithDomain(DomainFrame, data), hashWithDomain(DomainTriggerSet, data))
}

func TestTriggerSetHashOrderSensitive(t *testing.T) {
	one := TriggerSpec{ID: "a", When: "exists(x)", Action: IRString("a")}
	two := TriggerSpec{ID: "b", When: "exists(y)", Action: IRString("b")}

	h1, err := TriggerSetHash(&TriggerSet{Triggers: []TriggerSpec{one, two}})
	require.NoError(t, err)
	h2, err := TriggerSetHash(&TriggerSet{Triggers: []TriggerSpec{two, one}})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	h3, err := TriggerSetHash(&TriggerSet{Triggers: []TriggerSpec{one, two}})
	require.NoError(t, err)
	assert.Equal(t, h1, h3)
}
