/*
 * Copyright 2021-present by Nedim Sabic Sabic
 * https://www.fibratus.io
 * All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ps

import (
	"testing"

	errs "github.com/rabbitstack/procinject/pkg/errors"
	"github.com/rabbitstack/procinject/pkg/util/va"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadedModule(t *testing.T) {
	const path = `\Device\HarddiskVolume1\inject\payload.dll`

	// payload.dll sits right on the 4 GiB boundary
	s := twoModuleSpace()
	s.regions = append(s.regions[:6],
		va.Region{BaseAddress: 0x24000, Size: 0xffffc000, State: va.MemFree},
		imageRegion(0x100000000, 0x100000000, 0x2000),
		va.Region{BaseAddress: 0x100002000, Size: 0xe000, State: va.MemFree},
	)
	s.files[0x100000000] = path
	s.mem[0x100000000] = image(0x2000)
	s.max = 0x100010000

	var tests = []struct {
		name  string
		path  string
		code  uint32
		found bool
		base  va.Address
	}{
		{"truncated handle", path, 0, true, 0x100000000},
		{"low base", `\Device\HarddiskVolume1\B.dll`, 0x20000, true, 0x20000},
		{"not loaded", `\Device\HarddiskVolume1\missing.dll`, 0, false, 0},
		{"stale exit code", `\Device\HarddiskVolume1\missing.dll`, 0x20000, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod, err := loadedModule(s, tt.path, tt.code)
			if !tt.found {
				require.Error(t, err)
				assert.True(t, errs.IsResolutionFailure(err))
				assert.Contains(t, err.Error(), "loader returned")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.base, mod.BaseAddress)
		})
	}
}
