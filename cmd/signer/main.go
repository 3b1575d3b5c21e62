// Command signer signs a JSON request body the way a validator does, for
// manual testing of an ingest deployment.
//
// The body is read from a file or stdin. A fresh nonce is set, the
// signature is computed over the canonical body and the result is printed
// or posted.
//
// # Usage
//
//	echo '{"uid": 3, "info": {}}' | go run ./cmd/signer --seed=$SEED
//	go run ./cmd/signer --seed=$SEED --body=item.json --post=http://localhost:8000/upload-llm-item
//
// The seed is the 32-byte hex mini secret of the validator hotkey and may
// also be given as SIGNER_SEED.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/nicheimage/ingest/auth"
	"github.com/nicheimage/ingest/crypto"
)

func main() {
	var (
		seedHex  = flag.String("seed", os.Getenv("SIGNER_SEED"), "Hotkey mini secret (hex)")
		bodyPath = flag.String("body", "-", "JSON body file, - for stdin")
		postURL  = flag.String("post", "", "POST the signed body to this URL instead of printing it")
	)
	flag.Parse()

	if err := run(*seedHex, *bodyPath, *postURL, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(seedHex, bodyPath, postURL string, stdin io.Reader, stdout io.Writer) error {
	if seedHex == "" {
		return fmt.Errorf("a seed is required (--seed or SIGNER_SEED)")
	}
	seed, err := crypto.DecodeHex(seedHex)
	if err != nil {
		return fmt.Errorf("invalid seed: %w", err)
	}
	kp, err := crypto.NewSr25519KeypairFromSeed(seed)
	if err != nil {
		return err
	}

	in := stdin
	if bodyPath != "-" {
		f, err := os.Open(bodyPath)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	body, err := auth.DecodeBody(in)
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}

	signed, err := sign(kp, body, time.Now())
	if err != nil {
		return err
	}

	if postURL == "" {
		_, err = stdout.Write(append(signed, '\n'))
		return err
	}

	resp, err := http.Post(postURL, "application/json", bytes.NewReader(signed))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Fprintf(stdout, "%s %s\n", resp.Status, bytes.TrimSpace(respBody))
	return nil
}

func sign(kp *crypto.Sr25519Keypair, body auth.Body, now time.Time) ([]byte, error) {
	signed, err := auth.Sign(body, kp.Address(), now.UnixNano(), kp.Sign)
	if err != nil {
		return nil, err
	}
	return json.Marshal(signed)
}
