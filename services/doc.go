/*
# NicheImage Ingest Services

The services package provides the HTTP surface of the ingestion backend and
the storage and upstream integrations behind it.

## Routes

IngestHandler (`http_ingest.go`) serves validator writes. Every route is
wrapped, in order, by request metrics, the optional per-IP rate limiter and
the request authenticator from package auth.

  - `POST /upload-base64-item` - `{image, metadata}`; the image is converted
    to JPEG, stored as `<uuid>.jpg` and metadata is recorded in `images`
  - `POST /upload-mid-journey-item` - `{metadata}`; `metadata.task_id` is
    resolved through GoJourney, then stored as above
  - `POST /upload-llm-item` - `{input_prompt, output_prompt, metadata}`;
    recorded in `texts`
  - `POST /store-miner-info` - `{uid, info}`; upserted in `miner_info` by uid

Upload routes authenticate against the `upload` replay class with the
identity in `metadata.validator_uid`; miner info uses the `store` class with
the identity in `uid`.

RegistryHandler (`registry.go`) serves the active validator snapshot:

  - `GET /registry/validators`
  - `GET /registry/validators/{uid}`

## Responses

Successful writes answer `{"message": "..."}`. Storage failures answer 500
with `{"message", "error"}`, undecodable images 400 and GoJourney failures
502. Authentication rejections are produced by package auth as
`400 {"detail": "..."}`.

## Backends

  - ObjectStore: S3Store (aws-sdk-go-v2) or MemoryObjectStore
  - DocumentStore: PostgresStore (single JSONB `documents` table) or InMemoryStore
  - auth.SnapshotSource: HTTPMetagraphSource, FileSource or StaticSource
  - ImageFetcher: GoJourneyClient

## Usage

	handler, err := services.NewIngestHandler(&services.IngestConfig{
	    Authenticator: authenticator,
	    Objects:       objects,
	    Documents:     documents,
	    RateLimiter:   services.NewIPRateLimiter(5, 20),
	})
	if err != nil {
	    return err
	}

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	services.NewRegistryHandler(registry).RegisterRoutes(r)
*/
package services
