// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman

import "encoding/json"

// ExtractIPFSCid parses o.Payload as a JSON document and returns its
// "ipfscid" field, grounded on governance.cpp's ValidIPFSHash
// (Jobj["ipfscid"].get_str()).
func ExtractIPFSCid(o *Object) (string, error) {
	var doc payloadDocument
	if err := json.Unmarshal(o.Payload, &doc); err != nil {
		return "", err
	}
	return doc.IPFSCid, nil
}
