// Package cmd provides CLI commands for the NicheImage ingestion backend.
//
// # Commands
//
// ingest: Serves the validator-facing upload API. Requests are authenticated
// against the subnet's validator set, which is refreshed in the background
// from a metagraph endpoint or a static file.
//
//	go run ./cmd/ingest --config=ingest.yaml
//	go run ./cmd/ingest --registry-file=validators.yaml --storage=memory
//
// signer: Signs a JSON body with a validator hotkey, either printing the
// result or posting it to an ingest endpoint.
//
//	go run ./cmd/signer --seed=$SEED --body=item.json
//	go run ./cmd/signer --seed=$SEED --body=item.json --post=http://localhost:8000/upload-llm-item
//
// # Configuration
//
// The ingest command reads a YAML file via --config. Command-line flags
// override config file values, and database and S3 credentials are read from
// the environment.
//
//	http_addr: ":8000"
//	metrics_addr: ":9090"
//	log:
//	  level: info
//	  json: true
//	auth:
//	  allow_unsigned: false
//	  freshness_window: 5s
//	registry:
//	  netuid: 23
//	  source: file
//	  file: validators.yaml
//	  refresh_interval: 10m
//	storage:
//	  backend: postgres
//	  postgres:
//	    database: nicheimage
//	  s3:
//	    bucket: nicheimage
//	rate_limit:
//	  requests_per_second: 5
//	  burst: 10
//
// A validator file maps uids to hotkey addresses:
//
//	netuid: 23
//	block: 4100000
//	hotkeys:
//	  "0": 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY
package cmd
