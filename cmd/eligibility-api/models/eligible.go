package models

import "encoding/json"

// Contract is the distribution contract an eligibility record belongs to
// Maps to: contracts table
type Contract struct {
	ID      int64  `db:"id" json:"id"`
	Address string `db:"contract_address" json:"contract_address"`
	Type    string `db:"contract_type" json:"type"`
}

// EligibleRecord states that an identity may claim Amount under Contract
// Maps to: eligibles table joined with contracts
type EligibleRecord struct {
	ID       int64  `db:"id" json:"id"`
	Identity string `db:"identity" json:"identity"`

	// Decimal strings as returned by the store; never parsed so precision is kept
	Amount      string `db:"amount" json:"amount"`
	MerkleIndex string `db:"merkle_index" json:"merkle_index"`

	ContractID int64    `db:"contract_id" json:"contract_id"`
	Contract   Contract `json:"contract"`
}

// EligibleResponse is the body of GET /eligible/:identity.
// merkle_path_len is derived from MerklePath when marshalled.
type EligibleResponse struct {
	Identity        string
	Amount          string
	MerkleIndex     string
	ContractAddress string
	Type            string
	MerklePath      []string
}

// NewEligibleResponse assembles a response from a record and its ordered proof path
func NewEligibleResponse(record *EligibleRecord, merklePath []string) *EligibleResponse {
	path := make([]string, len(merklePath))
	copy(path, merklePath)

	return &EligibleResponse{
		Identity:        record.Identity,
		Amount:          record.Amount,
		MerkleIndex:     record.MerkleIndex,
		ContractAddress: record.Contract.Address,
		Type:            record.Contract.Type,
		MerklePath:      path,
	}
}

// MerklePathLen is the number of proof fragments
func (r *EligibleResponse) MerklePathLen() int {
	return len(r.MerklePath)
}

type eligibleResponseJSON struct {
	Identity        string   `json:"identity"`
	Amount          string   `json:"amount"`
	MerkleIndex     string   `json:"merkle_index"`
	ContractAddress string   `json:"contract_address"`
	Type            string   `json:"type"`
	MerklePath      []string `json:"merkle_path"`
	MerklePathLen   int      `json:"merkle_path_len"`
}

// MarshalJSON emits the wire shape, with an empty path as [] rather than null
func (r EligibleResponse) MarshalJSON() ([]byte, error) {
	path := r.MerklePath
	if path == nil {
		path = []string{}
	}

	return json.Marshal(eligibleResponseJSON{
		Identity:        r.Identity,
		Amount:          r.Amount,
		MerkleIndex:     r.MerkleIndex,
		ContractAddress: r.ContractAddress,
		Type:            r.Type,
		MerklePath:      path,
		MerklePathLen:   len(path),
	})
}
