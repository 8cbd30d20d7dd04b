// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package contentstore implements the HTTP half of the Content-Pin Bridge
// (C9): a client for the external content-addressed store's directory
// listing and pin endpoints, grounded on governance.cpp's hardcoded
// ipfs::Client("localhost", 5001) usage and the IPFS HTTP API shape
// (/api/v0/files/ls, /api/v0/pin/add, /api/v0/pin/rm) it wraps.
package contentstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/dashpay/govman/govman"
	"github.com/dashpay/govman/internal/govfault"
)

// Client implements govman.ContentStore against an HTTP content-addressed
// store endpoint (e.g. a local go-ipfs daemon's API port).
type Client struct {
	endpoint string
	http     *http.Client
}

// New constructs a Client. endpoint must be a non-empty base URL
// (e.g. "http://localhost:5001"); timeout of zero disables the per-request
// deadline the caller would otherwise need to set via context.
func New(endpoint string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, govfault.ErrRequiredEndpoint
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{Timeout: timeout},
	}, nil
}

// filesLsResponse mirrors the subset of /api/v0/files/ls's "long" JSON
// response this client consumes.
type filesLsResponse struct {
	Entries []struct {
		Name string `json:"Name"`
		Size int64  `json:"Size"`
		Type int    `json:"Type"`
	} `json:"Entries"`
}

// FilesLs sums the size of every leaf under path, recursing into
// subdirectories the store reports (spec.md §4.8 step 2).
func (c *Client) FilesLs(ctx context.Context, path string) (govman.Listing, error) {
	path, err := canonicalizeIPFSPath(path)
	if err != nil {
		return govman.Listing{}, err
	}

	var resp filesLsResponse
	if err := c.post(ctx, "/api/v0/files/ls", url.Values{"arg": {path}, "long": {"true"}}, &resp); err != nil {
		return govman.Listing{}, err
	}

	var total int64
	for _, e := range resp.Entries {
		const dirType = 1
		if e.Type == dirType {
			sub, err := c.FilesLs(ctx, path+"/"+e.Name)
			if err != nil {
				return govman.Listing{}, err
			}
			total += sub.Size
			continue
		}
		total += e.Size
	}
	return govman.Listing{Size: total}, nil
}

// PinAdd requests the store pin path (spec.md §4.8 step 3).
func (c *Client) PinAdd(ctx context.Context, path string) error {
	path, err := canonicalizeIPFSPath(path)
	if err != nil {
		return err
	}
	return c.post(ctx, "/api/v0/pin/add", url.Values{"arg": {path}}, nil)
}

// PinRm requests the store unpin path, optionally recursive (spec.md §4.7
// step 3's RECORD eviction unpin).
func (c *Client) PinRm(ctx context.Context, path string, recursive bool) error {
	path, err := canonicalizeIPFSPath(path)
	if err != nil {
		return err
	}
	v := url.Values{"arg": {path}}
	if recursive {
		v.Set("recursive", "true")
	}
	return c.post(ctx, "/api/v0/pin/rm", v, nil)
}

// canonicalizeIPFSPath splits a "/ipfs/<cid>[/rest...]" path, validates the
// CID component via ParseCIDv0 and rebuilds the path from the CID's
// canonical string form, rejecting malformed or non-dag-pb/sha2-256
// identifiers before any network call is made.
func canonicalizeIPFSPath(path string) (string, error) {
	const prefix = "/ipfs/"
	if !strings.HasPrefix(path, prefix) {
		return "", fmt.Errorf("contentstore: path %q missing %q prefix", path, prefix)
	}
	rest := strings.TrimPrefix(path, prefix)
	id, subpath, _ := strings.Cut(rest, "/")

	c, err := ParseCIDv0(id)
	if err != nil {
		return "", err
	}
	if subpath == "" {
		return prefix + c.String(), nil
	}
	return prefix + c.String() + "/" + subpath, nil
}

func (c *Client) post(ctx context.Context, apiPath string, query url.Values, out interface{}) error {
	u := c.endpoint + apiPath + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("contentstore: %s returned status %d", apiPath, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ParseCIDv0 parses s as a CIDv0 identifier and decodes its embedded
// multihash, rejecting anything that is not a dag-pb/sha2-256 v0 CID before
// the client ever issues a request for it (the network-free half of
// validator.IsCIDv0Shape's check, grounded on the same
// ipfs-utils.cpp::IsIpfsIdValid intent but using the real CID/multihash
// parsers rather than a hand-rolled alphabet scan).
func ParseCIDv0(s string) (cid.Cid, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return cid.Cid{}, err
	}
	if c.Version() != 0 {
		return cid.Cid{}, fmt.Errorf("contentstore: %q is not a CIDv0", s)
	}
	decoded, err := multihash.Decode(c.Hash())
	if err != nil {
		return cid.Cid{}, err
	}
	if decoded.Code != multihash.SHA2_256 {
		return cid.Cid{}, fmt.Errorf("contentstore: %q is not sha2-256", s)
	}
	return c, nil
}
