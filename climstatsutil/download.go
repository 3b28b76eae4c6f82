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
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/climstats/cloud"
	"github.com/spatialmodel/climstats/internal/hash"
)

// fetcher retrieves remote input files.
type fetcher struct {
	// cacheDir holds downloaded files keyed by their source. If it is
	// empty, files are downloaded into a new temporary directory.
	cacheDir string

	// retries is the maximum number of times a failed transfer is
	// retried.
	retries uint64

	log logrus.FieldLogger
}

// maybeDownload checks whether p is an existing local file. If not, and
// p is an http(s) URL or a blob path, the file is downloaded and the
// path of the local copy is returned.
func (f *fetcher) maybeDownload(ctx context.Context, p string) (string, error) {
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	switch {
	case strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://"):
		return f.download(p, func(w io.Writer) error { return downloadHTTP(ctx, p, w) })
	case cloud.IsBlob(p):
		return f.download(p, func(w io.Writer) error { return downloadBlob(ctx, p, w) })
	}
	return "", fmt.Errorf("climstats: input file %s does not exist", p)
}

// download stores the output of get in the cache, unless a previous
// download of p is already there.
func (f *fetcher) download(p string, get func(io.Writer) error) (string, error) {
	dir := f.cacheDir
	if dir == "" {
		var err error
		dir, err = ioutil.TempDir("", "climstats")
		if err != nil {
			return "", fmt.Errorf("climstats: creating temporary download directory: %v", err)
		}
	} else if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("climstats: creating download cache: %v", err)
	}
	local := filepath.Join(dir, cacheName(p))
	if _, err := os.Stat(local); err == nil {
		f.log.WithField("source", p).Debug("using cached download")
		return local, nil
	}

	op := func() error {
		w, err := ioutil.TempFile(dir, ".download")
		if err != nil {
			return err
		}
		if err := get(w); err != nil {
			w.Close()
			os.Remove(w.Name())
			return err
		}
		if err := w.Close(); err != nil {
			os.Remove(w.Name())
			return err
		}
		return os.Rename(w.Name(), local)
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), f.retries)
	err := backoff.RetryNotify(op, b, func(err error, d time.Duration) {
		f.log.WithField("source", p).Warnf("%v: retrying in %v", err, d)
	})
	if err != nil {
		return "", fmt.Errorf("climstats: downloading %s: %v", p, err)
	}
	f.log.WithField("source", p).Info("downloaded input")
	return local, nil
}

// cacheSource identifies a downloaded file. Hosts are lower case and
// query parameters are unordered, so equivalent spellings of a source
// share one cached copy.
type cacheSource struct {
	Scheme, User, Host, Path string
	Query                    url.Values
}

// cacheName returns the file name of the cached copy of p.
func cacheName(p string) string {
	u, err := url.Parse(p)
	if err != nil {
		return hash.Key(p) + path.Ext(p)
	}
	return hash.Key(cacheSource{
		Scheme: u.Scheme,
		User:   u.User.String(),
		Host:   strings.ToLower(u.Host),
		Path:   u.Path,
		Query:  u.Query(),
	}) + path.Ext(u.Path)
}

func downloadHTTP(ctx context.Context, src string, w io.Writer) error {
	req, err := http.NewRequest(http.MethodGet, src, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

func downloadBlob(ctx context.Context, p string, w io.Writer) error {
	bucketName, key, err := cloud.Split(p)
	if err != nil {
		return err
	}
	bucket, err := cloud.OpenBucket(ctx, bucketName)
	if err != nil {
		return err
	}
	defer bucket.Close()
	r, err := bucket.NewReader(ctx, key, nil)
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = io.Copy(w, r)
	return err
}
