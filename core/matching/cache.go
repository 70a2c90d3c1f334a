// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package matching

import (
	"code.vegaprotocol.io/perps/core/types"
)

// BookCache keeps the aggregated views of the book computed since the
// last mutation.
type BookCache struct {
	snapshots map[int]*types.BookSnapshot
}

func NewBookCache() BookCache {
	return BookCache{
		snapshots: map[int]*types.BookSnapshot{},
	}
}

func (c *BookCache) Invalidate() {
	if len(c.snapshots) > 0 {
		c.snapshots = map[int]*types.BookSnapshot{}
	}
}

func (c *BookCache) SetSnapshot(depth int, s *types.BookSnapshot) {
	c.snapshots[depth] = s
}

func (c *BookCache) GetSnapshot(depth int) (*types.BookSnapshot, bool) {
	s, ok := c.snapshots[depth]
	return s, ok
}
