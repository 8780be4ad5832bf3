// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package manifest

import (
	"errors"
	"io"
)

// ErrManifestTooLarge is returned when a manifest body exceeds the configured size.
var ErrManifestTooLarge = errors.New("manifest body exceeds size limit")

// LimitReader returns a Reader that reads at most n bytes from r
// and fails with err if r holds more than that.
func LimitReader(r io.Reader, n int64, err error) io.Reader { return &LimitedReader{r, n, err} }

// A LimitedReader reads from R but limits the amount of
// data returned to just N bytes. Each call to Read
// updates N to reflect the new amount remaining.
// Once N reaches zero, Read returns EOF if R is exhausted and Err otherwise.
type LimitedReader struct {
	R   io.Reader // underlying reader
	N   int64     // max bytes remaining
	Err error     // the error to return when R holds more than N bytes
}

func (l *LimitedReader) Read(p []byte) (n int, err error) {
	if l.N <= 0 {
		var probe [1]byte
		for {
			m, perr := l.R.Read(probe[:])
			if m > 0 {
				return 0, l.Err
			}
			if perr != nil {
				return 0, perr
			}
		}
	}
	if int64(len(p)) > l.N {
		p = p[0:l.N]
	}
	n, err = l.R.Read(p)
	l.N -= int64(n)
	return
}
