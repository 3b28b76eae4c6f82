/*
Copyright © 2026 the climstats authors.
This file is part of climstats.

climstats is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

climstats is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with climstats.  If not, see <http://www.gnu.org/licenses/>.
*/

package climstatsutil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/climstats/cloud"
	"gocloud.dev/blob"
)

type uploader struct {
	// files is a set of file path pairs. The first of each pair
	// is a local file path and the second is a blob storage
	// path where it should be uploaded to.
	files   [][2]string
	dir     string
	retries uint64
	log     logrus.FieldLogger
}

// maybeUpload checks whether the given output path refers to a blob
// storage location. If it does, a temporary local path is returned and
// the file written there is uploaded when upload is called.
func (u *uploader) maybeUpload(p string) (string, error) {
	if !cloud.IsBlob(p) {
		return p, nil
	}
	if u.dir == "" {
		var err error
		if u.dir, err = ioutil.TempDir("", "climstats"); err != nil {
			return "", fmt.Errorf("climstats: creating temporary output directory: %v", err)
		}
	}
	local := filepath.Join(u.dir, filepath.Base(p))
	u.files = append(u.files, [2]string{local, p})
	return local, nil
}

// upload copies the registered local files to blob storage and removes
// the temporary directory.
func (u *uploader) upload(ctx context.Context) error {
	for _, files := range u.files {
		files := files
		op := func() error { return uploadBlob(ctx, files[0], files[1]) }
		b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), u.retries)
		err := backoff.RetryNotify(op, b, func(err error, d time.Duration) {
			u.log.WithField("destination", files[1]).Warnf("%v: retrying in %v", err, d)
		})
		if err != nil {
			return fmt.Errorf("climstats: uploading '%s' to '%s': %v", files[0], files[1], err)
		}
		u.log.WithField("destination", files[1]).Info("uploaded output")
	}
	if u.dir != "" {
		return os.RemoveAll(u.dir)
	}
	return nil
}

func uploadBlob(ctx context.Context, local, dst string) error {
	r, err := os.Open(local)
	if err != nil {
		return err
	}
	defer r.Close()
	bucketName, key, err := cloud.Split(dst)
	if err != nil {
		return err
	}
	bucket, err := cloud.OpenBucket(ctx, bucketName)
	if err != nil {
		return err
	}
	defer bucket.Close()
	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{})
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
