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

package json_test

import (
	"bytes"
	"testing"

	vgjson "code.vegaprotocol.io/perps/libs/json"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrint(t *testing.T) {
	v := struct {
		Version string `json:"version"`
	}{Version: "v0.1.0"}

	buf := &bytes.Buffer{}
	require.NoError(t, vgjson.Fprint(buf, v))
	assert.Equal(t, "{\"version\":\"v0.1.0\"}\n", buf.String())

	buf.Reset()
	require.NoError(t, vgjson.PrettyFprint(buf, v))
	assert.Equal(t, "{\n  \"version\": \"v0.1.0\"\n}\n", buf.String())

	assert.Error(t, vgjson.Fprint(buf, make(chan int)))
}
