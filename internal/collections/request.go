package collections

// CreateShardRequest is the inbound shard-create message. It is constructed
// once from an admin API call and not modified afterwards; the Props map is
// an opaque pass-through of extra property parameters handed down to
// replica placement.
type CreateShardRequest struct {
	Collection string `json:"collection"`
	Shard      string `json:"shard"`

	// Per-type replica count overrides. nil means "not specified";
	// ReplicationFactor is the legacy spelling of the NRT count.
	NRTReplicas       *int `json:"nrtReplicas,omitempty"`
	ReplicationFactor *int `json:"replicationFactor,omitempty"`
	TLogReplicas      *int `json:"tlogReplicas,omitempty"`
	PullReplicas      *int `json:"pullReplicas,omitempty"`

	// CreateNodeSet restricts placement to a comma-separated set of node IDs.
	CreateNodeSet string `json:"createNodeSet,omitempty"`

	WaitForFinalState bool   `json:"waitForFinalState,omitempty"`
	FollowAliases     bool   `json:"followAliases,omitempty"`
	Async             string `json:"async,omitempty"`

	Props map[string]string `json:"props,omitempty"`
}

// AddReplicasRequest is the sub-request the orchestrator builds for the
// replica-placement command. The collection name here is always the
// resolved (real) name.
type AddReplicasRequest struct {
	Collection        string
	Shard             string
	Counts            ReplicaCount
	CreateNodeSet     string
	WaitForFinalState bool
	Async             string
	Props             map[string]string
}

// DeleteShardRequest addresses a shard for (compensating) deletion.
type DeleteShardRequest struct {
	Collection string `json:"collection"`
	Shard      string `json:"shard"`
	Async      string `json:"async,omitempty"`
}
