package types

import (
	"encoding/json"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func unix(sec int64) time.Time {
	return time.Unix(sec, 0)
}

func TestHexBytesJSON(t *testing.T) {
	c := qt.New(t)

	b := HexBytes{0xde, 0xad, 0xbe, 0xef}
	data, err := json.Marshal(b)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `"0xdeadbeef"`)

	var out HexBytes
	c.Assert(json.Unmarshal(data, &out), qt.IsNil)
	c.Assert(out.Equal(b), qt.IsTrue)

	// the 0x prefix is optional on input
	c.Assert(json.Unmarshal([]byte(`"deadbeef"`), &out), qt.IsNil)
	c.Assert(out.Equal(b), qt.IsTrue)

	c.Assert(json.Unmarshal([]byte(`"zz"`), &out), qt.IsNotNil)
}

func TestHexStringToHexBytes(t *testing.T) {
	c := qt.New(t)

	b, err := HexStringToHexBytes("0x0102")
	c.Assert(err, qt.IsNil)
	c.Assert(b, qt.DeepEquals, HexBytes{0x01, 0x02})

	_, err = HexStringToHexBytes("nope")
	c.Assert(err, qt.IsNotNil)
}

func TestPromiseStatus(t *testing.T) {
	c := qt.New(t)

	p := &Promise{ID: 1, Title: "t", GracePeriodEnd: 1000}
	c.Assert(p.Status(unix(500)), qt.Equals, PromiseStatusGracePeriod)
	c.Assert(p.VotingOpen(unix(500)), qt.IsFalse)
	c.Assert(p.Status(unix(1000)), qt.Equals, PromiseStatusOpen)
	c.Assert(p.VotingOpen(unix(1500)), qt.IsTrue)

	p.Finalized = true
	c.Assert(p.Status(unix(1500)), qt.Equals, PromiseStatusFinalized)
	c.Assert(p.VotingOpen(unix(1500)), qt.IsFalse)
}

func TestVoteKindValid(t *testing.T) {
	c := qt.New(t)
	c.Assert(VoteKept.Valid(), qt.IsTrue)
	c.Assert(VoteBroken.Valid(), qt.IsTrue)
	c.Assert(VoteKind("maybe").Valid(), qt.IsFalse)
	c.Assert(VoteKind("").Valid(), qt.IsFalse)
}
