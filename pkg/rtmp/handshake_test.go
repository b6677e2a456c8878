package rtmp

import (
	"bytes"
	"testing"

	"github.com/q191201771/naza/pkg/assert"
)

func TestHandshakeSimple(t *testing.T) {
	var hc HandshakeClientSimple
	var hs HandshakeServer

	c0c1 := &bytes.Buffer{}
	err := hc.WriteC0C1(c0c1)
	assert.Equal(t, nil, err)

	err = hs.ReadC0C1(c0c1)
	assert.Equal(t, nil, err)

	s0s1s2 := &bytes.Buffer{}
	err = hs.WriteS0S1S2(s0s1s2)
	assert.Equal(t, nil, err)

	err = hc.ReadS0S1(s0s1s2)
	assert.Equal(t, nil, err)

	c2 := &bytes.Buffer{}
	err = hc.WriteC2(c2)
	assert.Equal(t, nil, err)

	err = hs.ReadC2(c2)
	assert.Equal(t, nil, err)
}

func TestHandshakeComplex(t *testing.T) {
	var hc HandshakeClientComplex
	var hs HandshakeServer

	c0c1 := &bytes.Buffer{}
	err := hc.WriteC0C1(c0c1)
	assert.Equal(t, nil, err)

	err = hs.ReadC0C1(c0c1)
	assert.Equal(t, nil, err)

	s0s1s2 := &bytes.Buffer{}
	err = hs.WriteS0S1S2(s0s1s2)
	assert.Equal(t, nil, err)

	err = hc.ReadS0S1(s0s1s2)
	assert.Equal(t, nil, err)

	c2 := &bytes.Buffer{}
	err = hc.WriteC2(c2)
	assert.Equal(t, nil, err)

	err = hs.ReadC2(c2)
	assert.Equal(t, nil, err)
}
