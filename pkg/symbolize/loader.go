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

package symbolize

import (
	"fmt"
)

const (
	// LoaderNative maps the module into the current process without resolving its imports.
	LoaderNative = "native"
	// LoaderPE parses the export directory of the module file.
	LoaderPE = "pe"
)

// NewLoader returns the image loader for the given kind.
func NewLoader(kind string) (ImageLoader, error) {
	switch kind {
	case LoaderNative, "":
		return newNativeLoader()
	case LoaderPE:
		return NewPEImageLoader(), nil
	default:
		return nil, fmt.Errorf("unknown image loader %q", kind)
	}
}
