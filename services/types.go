package services

import (
	"errors"
)

// Document collections written by the ingest routes.
const (
	ImagesCollection    = "images"
	TextsCollection     = "texts"
	MinerInfoCollection = "miner_info"
)

var (
	// ErrInvalidImage is returned when an upload does not carry a decodable image.
	ErrInvalidImage = errors.New("invalid image")
	// ErrMissingTaskID is returned when a mid journey upload has no task id.
	ErrMissingTaskID = errors.New("missing task_id in metadata")
)

// Base64Item is a validator generated image with its generation metadata.
type Base64Item struct {
	Image    string         `json:"image"`
	Metadata map[string]any `json:"metadata"`
}

// MidJourneyItem references an image produced by the GoJourney API.
// Metadata must carry the task_id of the finished task.
type MidJourneyItem struct {
	Metadata map[string]any `json:"metadata"`
}

// LLMItem is a prompt/completion pair produced by a text miner.
type LLMItem struct {
	InputPrompt  map[string]any `json:"input_prompt"`
	OutputPrompt map[string]any `json:"output_prompt"`
	Metadata     map[string]any `json:"metadata"`
}

// MinerInfoItem is a periodic status report from a validator describing
// the miners it has scored.
type MinerInfoItem struct {
	UID  int64          `json:"uid"`
	Info map[string]any `json:"info"`
}

// MessageResponse is the body of every ingest response.
type MessageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ValidatorInfo describes one entry of the active registry snapshot.
type ValidatorInfo struct {
	UID     int64  `json:"uid"`
	Address string `json:"address"`
}

// ValidatorListResponse is served by GET /registry/validators.
type ValidatorListResponse struct {
	NetUID     uint16          `json:"netuid"`
	Block      uint64          `json:"block"`
	FetchedAt  int64           `json:"fetched_at"`
	Validators []ValidatorInfo `json:"validators"`
}
