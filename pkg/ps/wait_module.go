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
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	errs "github.com/rabbitstack/procinject/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// WaitForModule polls the address space until the named module shows
// up or the timeout elapses. Freshly launched processes map the system
// modules some time after creation. A non-positive timeout looks for the
// module exactly once.
func WaitForModule(ctx context.Context, space AddressSpace, name string, timeout time.Duration) (Module, error) {
	var b backoff.BackOff = &backoff.StopBackOff{}
	if timeout > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = 10 * time.Millisecond
		eb.MaxInterval = 250 * time.Millisecond
		eb.MaxElapsedTime = timeout
		b = eb
	}

	op := func() (Module, error) {
		mod, ok, err := FindModule(space, name)
		if err != nil {
			if errs.IsReadFailure(err) {
				return Module{}, err
			}
			return Module{}, backoff.Permanent(err)
		}
		if !ok {
			return Module{}, &errs.ResolutionFailure{Op: "FindModule", Name: name}
		}
		return mod, nil
	}
	notify := func(err error, d time.Duration) {
		log.WithField("pid", space.Pid()).Debugf("%s is not mapped yet, retrying in %v: %v", name, d, err)
	}
	mod, err := backoff.RetryNotifyWithData(op, backoff.WithContext(b, ctx), notify)
	if err != nil {
		return Module{}, errors.Wrapf(err, "%s not found in pid %d after %v", name, space.Pid(), timeout)
	}
	return mod, nil
}
