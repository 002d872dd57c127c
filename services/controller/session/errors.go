// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import "errors"

// Sentinel errors for the session controller.
var (
	// ErrSessionAlreadyRunning indicates the active-session slot is taken.
	ErrSessionAlreadyRunning = errors.New("a testing session is already running")

	// ErrSessionNotRunning indicates stop was called with no active session.
	ErrSessionNotRunning = errors.New("no active testing session")

	// ErrInvalidState indicates reset was attempted from a non-terminal state.
	ErrInvalidState = errors.New("status can only be reset from a terminal state")
)
