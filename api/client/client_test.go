package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/circom2gnark/parser"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/promisethread/zkvote/api"
	"github.com/promisethread/zkvote/census"
	"github.com/promisethread/zkvote/snark"
	"github.com/promisethread/zkvote/storage"
	"github.com/promisethread/zkvote/types"
	"github.com/promisethread/zkvote/util"
)

type acceptAllBackend struct{}

func (acceptAllBackend) Verify(_ *parser.CircomProof, _ []string) (bool, error) {
	return true, nil
}

const testProofJSON = `{
	"pi_a": ["1", "2", "1"],
	"pi_b": [["1", "2"], ["3", "4"], ["1", "0"]],
	"pi_c": ["5", "6", "1"],
	"protocol": "groth16"
}`

func TestClientVoteFlow(t *testing.T) {
	c := qt.New(t)

	stg, err := storage.New(metadb.NewTest(t))
	c.Assert(err, qt.IsNil)
	set, err := stg.Census().BuildAndPublish([]census.RegistryEntry{
		{VoterID: "voter-1", Secret: "secret-1"},
		{VoterID: "voter-2", Secret: "secret-2"},
	}, 3)
	c.Assert(err, qt.IsNil)

	port := util.RandomInt(20000, 40000)
	_, err = api.New(&api.APIConfig{
		Host:     "127.0.0.1",
		Port:     port,
		Storage:  stg,
		Verifier: snark.NewVerifier(acceptAllBackend{}, stg.Census()),
	})
	c.Assert(err, qt.IsNil)
	time.Sleep(500 * time.Millisecond)

	// client.New pings the server
	cli, err := New(fmt.Sprintf("http://127.0.0.1:%d", port))
	c.Assert(err, qt.IsNil)

	// download the anonymity set
	published, err := cli.Census()
	c.Assert(err, qt.IsNil)
	c.Assert(published.Root.Equal(set.Root), qt.IsTrue)
	c.Assert(published.Leaves, qt.HasLen, 2)

	root, err := cli.CensusRoot()
	c.Assert(err, qt.IsNil)
	c.Assert(root.Equal(set.Root), qt.IsTrue)

	// create a promise past its grace period
	pr := &api.PromiseResponse{}
	data, status, err := cli.Request(HTTPPOST, &api.NewPromiseRequest{
		Title:          "open the registries",
		GracePeriodEnd: time.Now().Add(-time.Hour).Unix(),
	}, api.PromisesEndpoint)
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(json.Unmarshal(data, pr), qt.IsNil)
	c.Assert(pr.VotingOpen, qt.IsTrue)

	// prove eligibility and obtain a credential
	nullifier := make(types.HexBytes, types.DigestLen)
	nullifier[5] = 0x33
	verify, err := cli.VerifyProof(&api.VerifyProofRequest{
		Proof: json.RawMessage(testProofJSON),
		PublicSignals: api.PublicSignalsRequest{
			Root:       set.Root,
			Nullifier:  nullifier,
			Commitment: make(types.HexBytes, types.DigestLen),
		},
	})
	c.Assert(err, qt.IsNil)
	c.Assert(verify.Valid, qt.IsTrue)

	// vote, then check the aggregate through the typed getter
	vote, err := cli.Vote(&api.VoteRequest{
		PromiseID: pr.ID,
		Nullifier: nullifier,
		Token:     verify.Token,
		Vote:      types.VoteBroken,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(vote.Success, qt.IsTrue)

	got, err := cli.Promise(pr.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Broken, qt.Equals, uint64(1))
	c.Assert(got.Kept, qt.Equals, uint64(0))

	// a second ballot from the same credential is already_voted
	vote, err = cli.Vote(&api.VoteRequest{
		PromiseID: pr.ID,
		Nullifier: nullifier,
		Token:     verify.Token,
		Vote:      types.VoteKept,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(vote.Success, qt.IsFalse)
	c.Assert(vote.Reason, qt.Equals, api.ReasonAlreadyVoted)
}
