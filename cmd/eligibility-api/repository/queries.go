package repository

// Queries are written once per placeholder dialect. Identity is always bound, never interpolated.
// LEFT JOIN keeps rows whose contract is missing so that case is reported as an integrity fault.

const postgresFindEligibleQuery = `
	SELECT e.id, e.identity, e.amount::text, e.merkle_index::text, e.contract_id,
	       c.id, c.contract_address, c.contract_type
	FROM eligibles e
	LEFT JOIN contracts c ON c.id = e.contract_id
	WHERE e.identity = $1
	ORDER BY e.id ASC
	LIMIT 1
`

const postgresFindProofFragmentsQuery = `
	SELECT path
	FROM merkle_paths
	WHERE eligible_id = $1
	ORDER BY position ASC, id ASC
`

const sqliteFindEligibleQuery = `
	SELECT e.id, e.identity, CAST(e.amount AS TEXT), CAST(e.merkle_index AS TEXT), e.contract_id,
	       c.id, c.contract_address, c.contract_type
	FROM eligibles e
	LEFT JOIN contracts c ON c.id = e.contract_id
	WHERE e.identity = ?
	ORDER BY e.id ASC
	LIMIT 1
`

const sqliteFindProofFragmentsQuery = `
	SELECT path
	FROM merkle_paths
	WHERE eligible_id = ?
	ORDER BY position ASC, id ASC
`
