/*
Copyright The Modfetch Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cache

import "fmt"

// TruncatedDownloadError is returned when the number of bytes read from a
// connection does not match its declared content length. The partial file is
// removed before the error is reported.
type TruncatedDownloadError struct {
	Location string
	Expected int64
	Got      int64
}

func (e *TruncatedDownloadError) Error() string {
	return fmt.Sprintf("truncated download of %s: expected %d bytes, got %d", e.Location, e.Expected, e.Got)
}

// ChecksumMismatchError is returned when a downloaded artifact does not match
// its companion checksum resource. The corrupt file is removed before the
// error is reported.
type ChecksumMismatchError struct {
	Location string
	Expected string
	Got      string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.Location, e.Expected, e.Got)
}

// NotFoundError is returned when the remote reports that the location does
// not exist. Negative lookups are remembered for the TTL window so the same
// missing location is not re-queried within one run.
type NotFoundError struct {
	Location string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Location)
}
