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

package crypto

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Hash returns the sha3-256 digest of the key.
func Hash(key []byte) []byte {
	hasher := sha3.New256()
	hasher.Write(key)
	return hasher.Sum(nil)
}

// HashStr hashes a string and returns it hex encoded.
func HashStr(key string) string {
	return hex.EncodeToString(Hash([]byte(key)))
}

// RandomHash returns a random hex encoded hash, used mostly as a root
// for id generators in tests.
func RandomHash() string {
	data := make([]byte, 10)
	if _, err := rand.Read(data); err != nil {
		panic(err)
	}
	return hex.EncodeToString(Hash(data))
}
