// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman

import "encoding/json"

// Summary is the introspection surface (spec.md §6, supplemented from
// governance.cpp's ToString/ToJson report methods): per-type object
// totals plus queue and vote counts.
type Summary struct {
	Objects       int            `json:"objects"`
	ObjectsByType map[string]int `json:"objects_by_type"`
	Postponed     int            `json:"postponed"`
	Orphan        int            `json:"orphan"`
	Erased        int            `json:"erased"`
	Votes         int            `json:"votes"`
}

// Summary reports the manager's current index sizes, matching
// governance.cpp's ToString report content.
func (m *Manager) Summary() Summary {
	m.cs.Lock()
	defer m.cs.Unlock()

	s := Summary{
		ObjectsByType: make(map[string]int),
		Postponed:     len(m.mapPostponed),
		Orphan:        len(m.mapOrphan),
		Erased:        len(m.mapErased),
	}
	for _, obj := range m.mapObjects {
		s.Objects++
		s.ObjectsByType[obj.Type.String()]++
		if obj.votes != nil {
			s.Votes += obj.votes.Count()
		}
	}
	return s
}

// SummaryJSON renders Summary as JSON, matching governance.cpp's ToJson.
func (m *Manager) SummaryJSON() ([]byte, error) {
	return json.Marshal(m.Summary())
}
