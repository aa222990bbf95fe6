// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package device

import "log/slog"

// Option is a functional option for Open.
type Option func(*openOptions)

type openOptions struct {
	logger *slog.Logger
}

func defaultOptions() *openOptions {
	return &openOptions{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger used for connection diagnostics. Drivers that
// log frames write them at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *openOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
