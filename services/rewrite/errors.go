// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rewrite

import "errors"

// Sentinel errors for the rewrite service.
var (
	// ErrSourceTooLarge indicates the submitted source exceeds the
	// configured size limit.
	ErrSourceTooLarge = errors.New("source exceeds size limit")

	// ErrBatchTooLarge indicates the batch lists more files than the
	// configured limit.
	ErrBatchTooLarge = errors.New("batch exceeds file limit")

	// ErrEmptyBatch indicates the batch listed no files.
	ErrEmptyBatch = errors.New("batch lists no files")

	// ErrRelativePath indicates a batch path was not absolute.
	ErrRelativePath = errors.New("path must be absolute")

	// ErrPathTraversal indicates a path contains .. traversal sequences.
	ErrPathTraversal = errors.New("path contains traversal sequences")

	// ErrPathNotAllowed indicates a path falls outside the configured
	// allowed roots.
	ErrPathNotAllowed = errors.New("path outside allowed roots")
)
