// Package download saves streams to disk. Output is written to a uniquely
// named partial file and only renamed into place once the transfer completes.
package download

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/reelcast/reelcast/filesystem"
	"github.com/reelcast/reelcast/internal/cache"
	"github.com/reelcast/reelcast/log"
	"github.com/reelcast/reelcast/network"
	"github.com/reelcast/reelcast/util"
)

// ProgressFunc receives the number of bytes written so far and the expected
// total, which is -1 when the server does not announce it.
type ProgressFunc func(written, total int64)

// Destination returns where a download identified by key and titled name is
// stored under root. Files are sharded by the first two characters of the
// key digest, like cached responses.
func Destination(root, key, name string) string {
	digest := cache.Digest(key)

	ext := ".mp4"
	if u, err := url.Parse(key); err == nil {
		if e := path.Ext(u.Path); e != "" && e != ".m3u8" {
			ext = e
		}
	}

	stem := util.SanitizeFilename(name)
	if stem == "" {
		stem = digest
	} else {
		stem += "-" + digest[:12]
	}

	return filepath.Join(root, digest[:2], stem+ext)
}

// Download fetches url into dest. On any failure, cancellation included, the
// partial file is removed and dest is left untouched.
func Download(ctx context.Context, url, dest string, progress ProgressFunc) (err error) {
	fs := filesystem.API()

	if err := fs.MkdirAll(filepath.Dir(dest), os.ModePerm); err != nil {
		return err
	}

	resp, err := network.Get(ctx, network.Streaming, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	part := fmt.Sprintf("%s.%s.part", dest, uuid.NewString())
	file, err := fs.Create(part)
	if err != nil {
		return err
	}

	defer func() {
		if err == nil {
			return
		}
		_ = file.Close()
		if rmErr := fs.Remove(part); rmErr != nil {
			log.Warnf("download: remove %s: %v", part, rmErr)
		}
	}()

	w := &progressWriter{w: file, total: resp.ContentLength, progress: progress}
	if _, err = io.Copy(w, resp.Body); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return err
	}

	if err = file.Close(); err != nil {
		return err
	}

	if err = fs.Rename(part, dest); err != nil {
		return err
	}

	log.Infof("download: saved %s (%d bytes)", dest, w.written)
	return nil
}

type progressWriter struct {
	w        io.Writer
	written  int64
	total    int64
	progress ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if p.progress != nil {
		p.progress(p.written, p.total)
	}
	return n, err
}
