package project

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// uploadWorkers bounds how many uploads are read at once.
const uploadWorkers = 4

// Upload is one file handed in by the browser.
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

type UploadFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// UploadReport lists what a batch added. Added is in completion order.
type UploadReport struct {
	Batch  string          `json:"batch"`
	Added  []string        `json:"added"`
	Failed []UploadFailure `json:"failed,omitempty"`
}

// Upload reads every file concurrently and adds each one as soon as its
// read completes. A failed file is reported on its own and never stops
// the rest of the batch.
func (s *System) Upload(ctx context.Context, uploads []Upload) UploadReport {
	report := UploadReport{Batch: uuid.NewString(), Added: []string{}}
	var mu sync.Mutex
	fail := func(name string, err error) {
		mu.Lock()
		report.Failed = append(report.Failed, UploadFailure{Name: name, Error: err.Error()})
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(uploadWorkers)
	for _, up := range uploads {
		g.Go(func() error {
			data, err := readUpload(ctx, up)
			if err != nil {
				log.Warnf("upload %s [%s]: %v", up.Name, report.Batch, err)
				s.notify("failed to load file: " + up.Name)
				fail(up.Name, err)
				return nil
			}
			if err := s.AddFile(up.Name, data); err != nil {
				fail(up.Name, err)
				return nil
			}
			// AddFile trims the name; report what was stored.
			name := strings.TrimSpace(up.Name)
			if IsScriptName(name) {
				s.notify("loaded ChucK file: " + name)
			} else {
				s.notify("loaded file: " + name)
			}
			mu.Lock()
			report.Added = append(report.Added, name)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return report
}

func readUpload(ctx context.Context, up Upload) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if up.Open == nil {
		return nil, fmt.Errorf("no reader for %s", up.Name)
	}
	rc, err := up.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
