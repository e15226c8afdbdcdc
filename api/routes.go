package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// CensusEndpoint returns the published anonymity set
	CensusEndpoint = "/census"
	// CensusRootEndpoint returns only the current Merkle root
	CensusRootEndpoint = "/census/root"
	// VerifyProofEndpoint verifies an eligibility proof and issues a credential
	VerifyProofEndpoint = "/proofs/verify"
	// VotesEndpoint is the endpoint for submitting a vote
	VotesEndpoint = "/votes"
	// PromisesEndpoint lists and creates promises
	PromisesEndpoint = "/promises"
	// PromiseEndpoint returns a single promise
	PromiseURLParam         = "promiseId"
	PromiseEndpoint         = "/promises/{" + PromiseURLParam + "}"
	PromiseVotesEndpoint    = "/promises/{" + PromiseURLParam + "}/votes"
	PromiseFinalizeEndpoint = "/promises/{" + PromiseURLParam + "}/finalize"
	// CredentialEndpoint returns the credential bound to a nullifier
	NullifierURLParam  = "nullifier"
	CredentialEndpoint = "/credentials/{" + NullifierURLParam + "}"
)
